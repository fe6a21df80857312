package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// IssueResult is the outcome of a successful issuance.
type IssueResult struct {
	// Token is the newly minted licence.
	Token domain.LicenseToken

	// Price is what the operator was charged. Zero for privileged operators.
	Price int64

	// Remaining is the operator's balance after the debit.
	Remaining domain.Balance
}

// AccessService is the single call surface used by transports.
// Every privileged operation re-derives the caller's privilege.
type AccessService interface {
	// CheckPrivilege returns the caller's current privilege level.
	CheckPrivilege(ctx context.Context, callerID string) (domain.Privilege, error)

	// IssueLicense debits an operator and mints a token of amount × unit.
	IssueLicense(ctx context.Context, callerID string, amount int64, unit string) (*IssueResult, error)

	// RedeemLicense consumes a token and creates or extends the caller's grant.
	RedeemLicense(ctx context.Context, callerID, token string) (*domain.AccessGrant, error)

	// SetAccess overwrites a subject's grant to end amount × unit from now,
	// shortening it if need be. No token or credits change hands.
	// Privileged only.
	SetAccess(ctx context.Context, callerID, subjectID string, amount int64, unit string) (*domain.AccessGrant, error)

	// Revoke removes a subject's grant regardless of expiry. Operator only.
	Revoke(ctx context.Context, callerID, subjectID string) error

	// ListActiveGrants returns all grants active now. Privileged only.
	ListActiveGrants(ctx context.Context, callerID string) ([]domain.AccessGrant, error)

	// ListTokens returns all unredeemed tokens. Privileged only.
	ListTokens(ctx context.Context, callerID string) ([]domain.LicenseToken, error)

	// ListOperators returns every stored operator account. Privileged only.
	ListOperators(ctx context.Context, callerID string) ([]domain.OperatorAccount, error)

	// Balance returns the caller's balance. Operator only.
	Balance(ctx context.Context, callerID string) (domain.Balance, error)

	// AddOperator creates an operator account. Privileged only.
	AddOperator(ctx context.Context, callerID, operatorID string, balance int64) (*domain.OperatorAccount, error)

	// RemoveOperator deletes an operator account. Privileged only.
	RemoveOperator(ctx context.Context, callerID, operatorID string) error

	// Status returns the caller's own grant, or domain.ErrNotFound if they
	// hold no active grant.
	Status(ctx context.Context, callerID string) (*domain.AccessGrant, error)

	// IsAuthorized reports whether subjectID holds a grant valid at now.
	IsAuthorized(ctx context.Context, subjectID string, now time.Time) (bool, error)
}
