package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowIsMockable(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	SetNowFunc(func() time.Time { return fixed })
	defer ResetNowFunc()

	require.Equal(t, fixed, Now())
}

func TestUTCNow(t *testing.T) {
	now := UTCNow()
	require.Equal(t, time.UTC, now.Location())
}
