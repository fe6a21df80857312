package domain

import "time"

// AccessGrant records that a subject is authorised until ValidUntil.
// There is at most one grant per subject.
type AccessGrant struct {
	// SubjectID is the caller the grant belongs to.
	SubjectID string

	// ValidUntil is the last instant at which the grant is honoured.
	ValidUntil time.Time

	// Plan is the label of the licence that created or last extended the grant.
	Plan string

	// GrantedAt is when the grant was first created.
	GrantedAt time.Time
}

// ActiveAt returns true if the grant is honoured at now.
// A grant is honoured up to and including ValidUntil.
func (g AccessGrant) ActiveAt(now time.Time) bool {
	return !now.After(g.ValidUntil)
}

// Remaining returns how long the grant still runs at now, or zero.
func (g AccessGrant) Remaining(now time.Time) time.Duration {
	if !g.ActiveAt(now) {
		return 0
	}
	return g.ValidUntil.Sub(now)
}
