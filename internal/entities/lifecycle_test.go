package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLPolicySeconds(t *testing.T) {
	require.True(t, TTLNever.Never())
	require.EqualValues(t, 0, TTLNever.Seconds())
	require.EqualValues(t, 0, TTLPolicy(-time.Hour).Seconds())

	p := TTLPolicy(90 * time.Second)
	require.False(t, p.Never())
	require.EqualValues(t, 90, p.Seconds())
	require.Equal(t, p, TTLFromSeconds(90))
	require.Equal(t, TTLNever, TTLFromSeconds(0))
}

func TestPurgeEligibleAt(t *testing.T) {
	deletedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l := Lifecycle{TTL: TTLPolicy(time.Hour)}
	_, ok := l.PurgeEligibleAt()
	require.False(t, ok, "active record is never purge eligible")

	l.IsDeleted = true
	l.DeletedAt = &deletedAt
	at, ok := l.PurgeEligibleAt()
	require.True(t, ok)
	require.Equal(t, deletedAt.Add(time.Hour), at)

	l.TTL = TTLNever
	_, ok = l.PurgeEligibleAt()
	require.False(t, ok, "never policy pins deleted records")
}
