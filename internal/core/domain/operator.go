package domain

import (
	"strconv"
	"time"
)

// Privilege is the authority level of a caller.
type Privilege int

// Privilege levels, ordered from least to most authority.
const (
	// PrivilegeNone is any caller that is neither an operator nor privileged.
	PrivilegeNone Privilege = iota

	// PrivilegeOperator is a stored operator account with a prepaid balance.
	PrivilegeOperator

	// PrivilegeSuper is a privileged operator from configuration.
	// Super operators have unlimited balance and manage other operators.
	PrivilegeSuper
)

// String returns the string representation.
func (p Privilege) String() string {
	switch p {
	case PrivilegeOperator:
		return "operator"
	case PrivilegeSuper:
		return "super"
	default:
		return "none"
	}
}

// AtLeast returns true if p grants at least the authority of required.
func (p Privilege) AtLeast(required Privilege) bool {
	return p >= required
}

// Balance is an operator's available credit.
// Credits are whole units; there is no fractional balance.
type Balance struct {
	// Credits is the remaining credit. Ignored when Unlimited is set.
	Credits int64

	// Unlimited is set for privileged operators, who are never debited.
	Unlimited bool
}

// UnlimitedBalance returns the balance reported for privileged operators.
func UnlimitedBalance() Balance {
	return Balance{Unlimited: true}
}

// Covers returns true if the balance can pay amount.
func (b Balance) Covers(amount int64) bool {
	return b.Unlimited || b.Credits >= amount
}

// String returns "unlimited" or the credit count.
func (b Balance) String() string {
	if b.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(b.Credits, 10)
}

// OperatorAccount is a stored, non-privileged operator.
type OperatorAccount struct {
	// ID is the transport-level caller identifier of the operator.
	ID string

	// Balance is the remaining credit. Never negative.
	Balance int64

	// AddedBy is the caller that created the account.
	AddedBy string

	// AddedAt is when the account was created.
	AddedAt time.Time
}
