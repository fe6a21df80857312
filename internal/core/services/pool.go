package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// maxMintAttempts bounds retries when a generated token collides.
const maxMintAttempts = 8

// tokenLength is the number of hex characters in a minted token.
const tokenLength = 16

// errTokenSpaceExhausted is returned when every mint attempt collided.
var errTokenSpaceExhausted = errors.New("no unique token after retries")

// RefundError reports an issuance that was rolled back after the operator
// had been charged. The charge has been returned.
type RefundError struct {
	Operator string
	Amount   int64
	Err      error
}

func (e *RefundError) Error() string {
	return fmt.Sprintf("issue rolled back, refunded %d to %s: %v", e.Amount, e.Operator, e.Err)
}

func (e *RefundError) Unwrap() error {
	return e.Err
}

// Pool mints licence tokens against the ledger and consumes them at most once.
type Pool struct {
	ledger   *Ledger
	tokens   driven.TokenStore
	redeemed driven.RedemptionStore
	rates    domain.RateCard

	newToken func() string
	now      func() time.Time
}

// NewPool creates a licence pool. A nil rate card uses the defaults.
func NewPool(ledger *Ledger, tokens driven.TokenStore, redeemed driven.RedemptionStore, rates domain.RateCard) *Pool {
	if rates == nil {
		rates = domain.DefaultRateCard()
	}
	return &Pool{
		ledger:   ledger,
		tokens:   tokens,
		redeemed: redeemed,
		rates:    rates,
		newToken: randomToken,
		now:      time.Now,
	}
}

// randomToken returns 16 uppercase hex characters taken from a random UUID.
func randomToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLength])
}

// Price returns the cost of amount units.
func (p *Pool) Price(amount int64, unit domain.Unit) (int64, error) {
	return p.rates.Price(amount, unit)
}

// Issue debits operatorID and mints a token worth amount units.
// If the token cannot be stored the debit is refunded.
func (p *Pool) Issue(ctx context.Context, operatorID string, amount int64, unit domain.Unit) (*driving.IssueResult, error) {
	price, err := p.Price(amount, unit)
	if err != nil {
		return nil, err
	}
	if amount > int64(math.MaxInt64/unit.Length()) {
		return nil, fmt.Errorf("%w: %d %s is too long", domain.ErrInvalidAmount, amount, unit)
	}

	remaining, err := p.ledger.Debit(ctx, operatorID, price)
	if err != nil {
		return nil, err
	}
	if remaining.Unlimited {
		price = 0
	}

	token := domain.LicenseToken{
		Duration: time.Duration(amount) * unit.Length(),
		Plan:     domain.PlanLabel(amount, unit),
		IssuedBy: operatorID,
		IssuedAt: p.now(),
	}
	if token.Token, err = p.insert(ctx, token); err != nil {
		storeErr := fmt.Errorf("%w: storing token: %w", domain.ErrStoreIO, err)
		if refundErr := p.ledger.Credit(ctx, operatorID, price); refundErr != nil {
			logger.WithFields(logger.Fields{"operator": operatorID, "amount": price}).
				Errorf("refund after failed issue: %v", refundErr)
			return nil, fmt.Errorf("%w: charged %d: %w", domain.ErrUnrecovered, price, storeErr)
		}
		logger.Warn("issue failed for %s, refunded %d: %v", operatorID, price, err)
		return nil, &RefundError{Operator: operatorID, Amount: price, Err: storeErr}
	}

	return &driving.IssueResult{
		Token:     token,
		Price:     price,
		Remaining: remaining,
	}, nil
}

// insert stores token under a fresh unique string and returns that string.
// A string is never reused while it is remembered as redeemed.
func (p *Pool) insert(ctx context.Context, token domain.LicenseToken) (string, error) {
	var minted string
	err := p.tokens.Update(ctx, func(tokens map[string]domain.LicenseToken) (bool, error) {
		redeemed, err := p.redeemed.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		for range maxMintAttempts {
			candidate := p.newToken()
			if _, taken := tokens[candidate]; taken {
				continue
			}
			if _, used := redeemed[candidate]; used {
				continue
			}
			token.Token = candidate
			tokens[candidate] = token
			minted = candidate
			return true, nil
		}
		return false, errTokenSpaceExhausted
	})
	return minted, err
}

// Redeem consumes token on behalf of subjectID and returns it.
// The first caller to find the token present wins; later callers get
// domain.ErrTokenAlreadyRedeemed, and unknown tokens domain.ErrTokenNotFound.
func (p *Pool) Redeem(ctx context.Context, subjectID, token string) (domain.LicenseToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.LicenseToken{}, fmt.Errorf("%w: empty token", domain.ErrTokenNotFound)
	}

	var (
		consumed domain.LicenseToken
		written  *domain.RedemptionRecord
	)
	err := p.tokens.Update(ctx, func(tokens map[string]domain.LicenseToken) (bool, error) {
		t, ok := tokens[token]
		if !ok {
			return false, p.absentReason(ctx, token)
		}

		record := domain.RedemptionRecord{Token: token, SubjectID: subjectID, RedeemedAt: p.now()}
		err := p.redeemed.Update(ctx, func(redeemed map[string]domain.RedemptionRecord) (bool, error) {
			redeemed[token] = record
			return true, nil
		})
		if err != nil {
			return false, err
		}
		written = &record

		delete(tokens, token)
		consumed = t
		return true, nil
	})
	if err != nil {
		// The tokens lock is released here, so another redeemer may have
		// replaced our record. Only our own record is dropped.
		if written != nil {
			p.forget(ctx, *written)
		}
		return domain.LicenseToken{}, err
	}
	return consumed, nil
}

// absentReason tells a consumed token apart from one that never existed.
func (p *Pool) absentReason(ctx context.Context, token string) error {
	redeemed, err := p.redeemed.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := redeemed[token]; ok {
		return domain.ErrTokenAlreadyRedeemed
	}
	return domain.ErrTokenNotFound
}

// forget drops record if it is still the one stored for its token.
func (p *Pool) forget(ctx context.Context, record domain.RedemptionRecord) {
	err := p.redeemed.Update(ctx, func(redeemed map[string]domain.RedemptionRecord) (bool, error) {
		stored, ok := redeemed[record.Token]
		if !ok || stored.SubjectID != record.SubjectID || !stored.RedeemedAt.Equal(record.RedeemedAt) {
			return false, nil
		}
		delete(redeemed, record.Token)
		return true, nil
	})
	if err != nil {
		logger.Warn("pool: could not forget redemption of %s: %v", record.Token, err)
	}
}

// Restore puts a consumed token back into the pool. It compensates for a
// redemption whose grant could not be written. The redemption record is
// dropped under the tokens lock so no redeemer can take the token first.
func (p *Pool) Restore(ctx context.Context, token domain.LicenseToken) error {
	return p.tokens.Update(ctx, func(tokens map[string]domain.LicenseToken) (bool, error) {
		err := p.redeemed.Update(ctx, func(redeemed map[string]domain.RedemptionRecord) (bool, error) {
			if _, ok := redeemed[token.Token]; !ok {
				return false, nil
			}
			delete(redeemed, token.Token)
			return true, nil
		})
		if err != nil {
			// The token is still worth restoring; redemption checks the
			// pool before the record.
			logger.Warn("pool: could not forget redemption of %s: %v", token.Token, err)
		}
		tokens[token.Token] = token
		return true, nil
	})
}

// PruneRedeemed forgets redemptions older than retention and returns how
// many were dropped. Afterwards those tokens read as never issued.
func (p *Pool) PruneRedeemed(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := p.now().Add(-retention)
	removed := 0
	err := p.redeemed.Update(ctx, func(redeemed map[string]domain.RedemptionRecord) (bool, error) {
		for token, record := range redeemed {
			if record.RedeemedAt.Before(cutoff) {
				delete(redeemed, token)
				removed++
			}
		}
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListTokens returns the unredeemed tokens, oldest first.
func (p *Pool) ListTokens(ctx context.Context) ([]domain.LicenseToken, error) {
	tokens, err := p.tokens.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]domain.LicenseToken, 0, len(tokens))
	for _, t := range tokens {
		list = append(list, t)
	}
	slices.SortFunc(list, func(a, b domain.LicenseToken) int {
		if c := a.IssuedAt.Compare(b.IssuedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Token, b.Token)
	})
	return list, nil
}
