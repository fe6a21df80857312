package domain

import "time"

// JournalAction names a ledger mutation recorded in the journal.
type JournalAction string

// Journal actions.
const (
	JournalIssue          JournalAction = "issue"
	JournalRedeem         JournalAction = "redeem"
	JournalRevoke         JournalAction = "revoke"
	JournalSetAccess      JournalAction = "set-access"
	JournalAddOperator    JournalAction = "add-operator"
	JournalRemoveOperator JournalAction = "remove-operator"
	JournalRefund         JournalAction = "refund"
)

// JournalEntry is an append-only audit record of one mutation.
type JournalEntry struct {
	// ID is a unique identifier for the entry.
	ID string

	// Action is what happened.
	Action JournalAction

	// ActorID is the caller that caused the mutation.
	ActorID string

	// SubjectID is the operator, subject or token the action applied to.
	SubjectID string

	// Amount is the credit amount involved, if any.
	Amount int64

	// Detail is free-form context (plan label, expiry).
	Detail string

	// At is when the mutation was committed.
	At time.Time
}
