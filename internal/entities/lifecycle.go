package entities

import "time"

// TTLPolicy controls when a soft-deleted record becomes eligible for
// physical purge. The zero value means the record is never purged.
type TTLPolicy time.Duration

// TTLNever keeps deleted records forever. Tenants and departments default
// to this policy.
const TTLNever TTLPolicy = 0

func (p TTLPolicy) Never() bool {
	return p <= 0
}

func (p TTLPolicy) Duration() time.Duration {
	return time.Duration(p)
}

// Seconds returns the policy as whole seconds for persistence; 0 means never.
func (p TTLPolicy) Seconds() int64 {
	if p.Never() {
		return 0
	}

	return int64(time.Duration(p) / time.Second)
}

// TTLFromSeconds restores a policy persisted via Seconds.
func TTLFromSeconds(s int64) TTLPolicy {
	if s <= 0 {
		return TTLNever
	}

	return TTLPolicy(time.Duration(s) * time.Second)
}

// Lifecycle holds the soft-delete bookkeeping present on every record.
//
// Invariant: IsDeleted implies DeletedAt/DeletedBy are set and
// RestoredAt/RestoredBy are unset; a restored record is the reverse.
// DeletionBatchID is empty while the record is active and shared by all
// records soft-deleted together in one cascade call.
type Lifecycle struct {
	IsDeleted       bool
	DeletedAt       *time.Time
	DeletedBy       string
	RestoredAt      *time.Time
	RestoredBy      string
	DeletionBatchID string
	TTL             TTLPolicy
}

// Active reports whether the record is visible on default read paths.
func (l *Lifecycle) Active() bool {
	return !l.IsDeleted
}

// PurgeEligibleAt returns the time at which a deleted record may be
// physically removed, and false for active records or a never policy.
func (l *Lifecycle) PurgeEligibleAt() (time.Time, bool) {
	if !l.IsDeleted || l.DeletedAt == nil || l.TTL.Never() {
		return time.Time{}, false
	}

	return l.DeletedAt.Add(l.TTL.Duration()), true
}
