package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// Ensure AccessService implements the interface.
var _ driving.AccessService = (*AccessService)(nil)

// AccessService is the facade transports call. It re-derives the caller's
// privilege on every call, then delegates to the ledger, pool and registry.
type AccessService struct {
	ledger   *Ledger
	pool     *Pool
	registry *Registry
	journal  driven.JournalStore
	metrics  driven.Metrics
	limiter  *callerLimiter
	now      func() time.Time
}

// AccessOption configures an AccessService.
type AccessOption func(*AccessService)

// WithJournal records every mutation in j.
func WithJournal(j driven.JournalStore) AccessOption {
	return func(s *AccessService) {
		s.journal = j
	}
}

// WithMetrics reports outcomes to m.
func WithMetrics(m driven.Metrics) AccessOption {
	return func(s *AccessService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRedeemLimit limits redemption attempts per caller.
func WithRedeemLimit(settings domain.RedeemSettings) AccessOption {
	return func(s *AccessService) {
		s.limiter = newCallerLimiter(settings)
	}
}

// NewAccessService creates the facade.
func NewAccessService(ledger *Ledger, pool *Pool, registry *Registry, opts ...AccessOption) *AccessService {
	s := &AccessService{
		ledger:   ledger,
		pool:     pool,
		registry: registry,
		metrics:  driven.NopMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckPrivilege returns the caller's current privilege level.
func (s *AccessService) CheckPrivilege(ctx context.Context, callerID string) (domain.Privilege, error) {
	return s.ledger.Privilege(ctx, callerID)
}

// require fails with domain.ErrUnauthorized unless callerID holds need.
func (s *AccessService) require(ctx context.Context, callerID string, need domain.Privilege) error {
	have, err := s.ledger.Privilege(ctx, callerID)
	if err != nil {
		return err
	}
	if !have.AtLeast(need) {
		return fmt.Errorf("%w: requires %s", domain.ErrUnauthorized, need)
	}
	return nil
}

// IssueLicense charges the caller and mints a token of amount units.
func (s *AccessService) IssueLicense(ctx context.Context, callerID string, amount int64, unit string) (res *driving.IssueResult, err error) {
	defer func() { s.metrics.IssueObserved(outcome(err)) }()

	if err := s.require(ctx, callerID, domain.PrivilegeOperator); err != nil {
		return nil, err
	}
	u, err := domain.ParseUnit(unit)
	if err != nil {
		return nil, err
	}

	res, err = s.pool.Issue(ctx, callerID, amount, u)
	if err != nil {
		var refund *RefundError
		if errors.As(err, &refund) && refund.Amount > 0 {
			s.record(ctx, domain.JournalEntry{
				Action:    domain.JournalRefund,
				ActorID:   callerID,
				SubjectID: callerID,
				Amount:    refund.Amount,
				Detail:    "issue rolled back",
			})
		}
		return nil, err
	}

	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalIssue,
		ActorID:   callerID,
		SubjectID: res.Token.Token,
		Amount:    res.Price,
		Detail:    res.Token.Plan,
	})
	logger.WithFields(logger.Fields{
		"operator":  callerID,
		"plan":      res.Token.Plan,
		"price":     res.Price,
		"remaining": res.Remaining.String(),
	}).Info("licence issued")
	return res, nil
}

// RedeemLicense consumes token and creates or extends the caller's grant.
// If the grant cannot be written the token is put back.
func (s *AccessService) RedeemLicense(ctx context.Context, callerID, token string) (grant *domain.AccessGrant, err error) {
	defer func() { s.metrics.RedeemObserved(outcome(err)) }()

	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: empty caller", domain.ErrInvalidInput)
	}
	now := s.now()
	if !s.limiter.Allow(callerID, now) {
		logger.WithFields(logger.Fields{"caller": callerID}).Warn("redeem rate limited")
		return nil, domain.ErrRateLimited
	}

	consumed, err := s.pool.Redeem(ctx, callerID, token)
	if err != nil {
		return nil, err
	}

	grant, err = s.registry.Extend(ctx, callerID, consumed.Duration, consumed.Plan, now)
	if err != nil {
		grantErr := fmt.Errorf("%w: writing grant: %w", domain.ErrStoreIO, err)
		if restoreErr := s.pool.Restore(ctx, consumed); restoreErr != nil {
			logger.WithFields(logger.Fields{"caller": callerID, "token": consumed.Token}).
				Errorf("token lost after failed grant write: %v", restoreErr)
			return nil, fmt.Errorf("%w: token %s consumed: %w", domain.ErrUnrecovered, consumed.Token, grantErr)
		}
		return nil, grantErr
	}

	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalRedeem,
		ActorID:   callerID,
		SubjectID: callerID,
		Detail:    fmt.Sprintf("%s %s until %s", consumed.Token, consumed.Plan, grant.ValidUntil.UTC().Format(time.RFC3339)),
	})
	s.observeActive(ctx, now)
	logger.WithFields(logger.Fields{"subject": callerID, "plan": consumed.Plan}).Info("licence redeemed")
	return grant, nil
}

// SetAccess replaces subjectID's grant with one ending amount units from now.
func (s *AccessService) SetAccess(ctx context.Context, callerID, subjectID string, amount int64, unit string) (*domain.AccessGrant, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return nil, err
	}
	u, err := domain.ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if amount <= 0 || amount > math.MaxInt64/int64(u.Length()) {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}

	now := s.now()
	plan := domain.PlanLabel(amount, u)
	grant, err := s.registry.Upsert(ctx, subjectID, now.Add(time.Duration(amount)*u.Length()), plan, now)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalSetAccess,
		ActorID:   callerID,
		SubjectID: subjectID,
		Detail:    fmt.Sprintf("%s until %s", plan, grant.ValidUntil.UTC().Format(time.RFC3339)),
	})
	s.observeActive(ctx, now)
	return grant, nil
}

// Revoke removes subjectID's grant regardless of expiry.
func (s *AccessService) Revoke(ctx context.Context, callerID, subjectID string) error {
	if err := s.require(ctx, callerID, domain.PrivilegeOperator); err != nil {
		return err
	}
	if err := s.registry.Remove(ctx, subjectID); err != nil {
		return err
	}
	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalRevoke,
		ActorID:   callerID,
		SubjectID: subjectID,
	})
	s.observeActive(ctx, s.now())
	return nil
}

// ListActiveGrants returns all grants active now.
func (s *AccessService) ListActiveGrants(ctx context.Context, callerID string) ([]domain.AccessGrant, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return nil, err
	}
	return s.registry.ListActive(ctx, s.now())
}

// ListTokens returns all unredeemed tokens.
func (s *AccessService) ListTokens(ctx context.Context, callerID string) ([]domain.LicenseToken, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return nil, err
	}
	return s.pool.ListTokens(ctx)
}

// ListOperators returns every stored operator account.
func (s *AccessService) ListOperators(ctx context.Context, callerID string) ([]domain.OperatorAccount, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return nil, err
	}
	return s.ledger.ListOperators(ctx)
}

// Balance returns the caller's balance.
func (s *AccessService) Balance(ctx context.Context, callerID string) (domain.Balance, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeOperator); err != nil {
		return domain.Balance{}, err
	}
	return s.ledger.Balance(ctx, callerID)
}

// AddOperator creates or resets an operator account.
func (s *AccessService) AddOperator(ctx context.Context, callerID, operatorID string, balance int64) (*domain.OperatorAccount, error) {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return nil, err
	}
	acct, err := s.ledger.AddOperator(ctx, operatorID, balance, callerID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalAddOperator,
		ActorID:   callerID,
		SubjectID: acct.ID,
		Amount:    acct.Balance,
	})
	return acct, nil
}

// RemoveOperator deletes an operator account.
func (s *AccessService) RemoveOperator(ctx context.Context, callerID, operatorID string) error {
	if err := s.require(ctx, callerID, domain.PrivilegeSuper); err != nil {
		return err
	}
	if err := s.ledger.RemoveOperator(ctx, operatorID); err != nil {
		return err
	}
	s.record(ctx, domain.JournalEntry{
		Action:    domain.JournalRemoveOperator,
		ActorID:   callerID,
		SubjectID: operatorID,
	})
	return nil
}

// Status returns the caller's own active grant.
func (s *AccessService) Status(ctx context.Context, callerID string) (*domain.AccessGrant, error) {
	grant, err := s.registry.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !grant.ActiveAt(s.now()) {
		return nil, fmt.Errorf("%w: grant for %s has expired", domain.ErrNotFound, callerID)
	}
	return grant, nil
}

// IsAuthorized reports whether subjectID holds a grant valid at now.
func (s *AccessService) IsAuthorized(ctx context.Context, subjectID string, now time.Time) (bool, error) {
	return s.registry.IsAuthorized(ctx, subjectID, now)
}

// record appends to the journal. Failures are logged; the mutation has
// already been committed.
func (s *AccessService) record(ctx context.Context, entry domain.JournalEntry) {
	if s.journal == nil {
		return
	}
	entry.At = s.now()
	if err := s.journal.Append(ctx, &entry); err != nil {
		logger.WithFields(logger.Fields{"action": string(entry.Action), "subject": entry.SubjectID}).
			Warnf("journal append failed: %v", err)
	}
}

func (s *AccessService) observeActive(ctx context.Context, now time.Time) {
	if active, err := s.registry.ListActive(ctx, now); err == nil {
		s.metrics.ActiveGrants(len(active))
	}
}

// outcome maps an error to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidUnit):
		return "invalid_unit"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, domain.ErrTokenAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrUnrecovered):
		return "unrecovered"
	case errors.Is(err, domain.ErrStoreIO):
		return "store_error"
	default:
		return "error"
	}
}
