package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

// Ledger tracks operator balances.
// Privileged operators come from configuration and are never debited.
type Ledger struct {
	accounts   driven.AccountStore
	privileged driven.PrivilegeSource
	now        func() time.Time
}

// NewLedger creates a ledger over the given account store.
// A nil privilege source means no caller is privileged.
func NewLedger(accounts driven.AccountStore, privileged driven.PrivilegeSource) *Ledger {
	if privileged == nil {
		privileged = driven.StaticPrivileges(nil)
	}
	return &Ledger{
		accounts:   accounts,
		privileged: privileged,
		now:        time.Now,
	}
}

// IsPrivileged reports whether id is in the configured privileged set.
// The set is read on every call so configuration reloads apply at once.
func (l *Ledger) IsPrivileged(id string) bool {
	return id != "" && slices.Contains(l.privileged.PrivilegedOperators(), id)
}

// Privilege returns the authority level of id.
func (l *Ledger) Privilege(ctx context.Context, id string) (domain.Privilege, error) {
	if l.IsPrivileged(id) {
		return domain.PrivilegeSuper, nil
	}
	accounts, err := l.accounts.Snapshot(ctx)
	if err != nil {
		return domain.PrivilegeNone, err
	}
	if _, ok := accounts[id]; ok {
		return domain.PrivilegeOperator, nil
	}
	return domain.PrivilegeNone, nil
}

// Balance returns the balance of id: unlimited if privileged, zero if unknown.
func (l *Ledger) Balance(ctx context.Context, id string) (domain.Balance, error) {
	if l.IsPrivileged(id) {
		return domain.UnlimitedBalance(), nil
	}
	accounts, err := l.accounts.Snapshot(ctx)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Credits: accounts[id].Balance}, nil
}

// Debit charges amount to id and returns the balance left.
// Privileged operators are not charged. The check and the debit happen in a
// single store update, so concurrent debits cannot overdraw an account.
func (l *Ledger) Debit(ctx context.Context, id string, amount int64) (domain.Balance, error) {
	if amount < 0 {
		return domain.Balance{}, fmt.Errorf("%w: debit of %d", domain.ErrInvalidAmount, amount)
	}
	if l.IsPrivileged(id) {
		return domain.UnlimitedBalance(), nil
	}

	var remaining int64
	err := l.accounts.Update(ctx, func(accounts map[string]domain.OperatorAccount) (bool, error) {
		acct, ok := accounts[id]
		if !ok {
			return false, fmt.Errorf("%w: %s is not an operator", domain.ErrUnauthorized, id)
		}
		if !(domain.Balance{Credits: acct.Balance}).Covers(amount) {
			return false, fmt.Errorf("%w: balance %d, price %d", domain.ErrInsufficientBalance, acct.Balance, amount)
		}
		if amount == 0 {
			remaining = acct.Balance
			return false, nil
		}
		acct.Balance -= amount
		accounts[id] = acct
		remaining = acct.Balance
		return true, nil
	})
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Credits: remaining}, nil
}

// Credit returns amount to id. It is the compensation for a debit whose
// follow-up write failed.
func (l *Ledger) Credit(ctx context.Context, id string, amount int64) error {
	if amount <= 0 || l.IsPrivileged(id) {
		return nil
	}
	return l.accounts.Update(ctx, func(accounts map[string]domain.OperatorAccount) (bool, error) {
		acct, ok := accounts[id]
		if !ok {
			return false, fmt.Errorf("%w: operator %s", domain.ErrNotFound, id)
		}
		acct.Balance += amount
		accounts[id] = acct
		return true, nil
	})
}

// AddOperator creates the account id with the given balance, or resets an
// existing account to it.
func (l *Ledger) AddOperator(ctx context.Context, id string, balance int64, addedBy string) (*domain.OperatorAccount, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return nil, fmt.Errorf("%w: operator id %q", domain.ErrInvalidInput, id)
	}
	if balance < 0 {
		return nil, fmt.Errorf("%w: balance %d", domain.ErrInvalidAmount, balance)
	}
	if l.IsPrivileged(id) {
		return nil, fmt.Errorf("%w: %s is a privileged operator", domain.ErrAlreadyExists, id)
	}

	acct := domain.OperatorAccount{
		ID:      id,
		Balance: balance,
		AddedBy: addedBy,
		AddedAt: l.now(),
	}
	err := l.accounts.Update(ctx, func(accounts map[string]domain.OperatorAccount) (bool, error) {
		accounts[id] = acct
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// RemoveOperator deletes the account id.
func (l *Ledger) RemoveOperator(ctx context.Context, id string) error {
	return l.accounts.Update(ctx, func(accounts map[string]domain.OperatorAccount) (bool, error) {
		if _, ok := accounts[id]; !ok {
			return false, fmt.Errorf("%w: operator %s", domain.ErrNotFound, id)
		}
		delete(accounts, id)
		return true, nil
	})
}

// ListOperators returns all stored accounts ordered by ID.
func (l *Ledger) ListOperators(ctx context.Context) ([]domain.OperatorAccount, error) {
	accounts, err := l.accounts.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]domain.OperatorAccount, 0, len(accounts))
	for _, acct := range accounts {
		list = append(list, acct)
	}
	slices.SortFunc(list, func(a, b domain.OperatorAccount) int {
		return strings.Compare(a.ID, b.ID)
	})
	return list, nil
}
