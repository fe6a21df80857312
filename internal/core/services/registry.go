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

// Registry holds at most one access grant per subject.
type Registry struct {
	grants driven.GrantStore
}

// NewRegistry creates a grant registry over the given store.
func NewRegistry(grants driven.GrantStore) *Registry {
	return &Registry{grants: grants}
}

// Upsert sets the grant of subjectID, replacing any existing one. A new grant
// is stamped with now; a replaced one keeps its original GrantedAt.
func (r *Registry) Upsert(ctx context.Context, subjectID string, validUntil time.Time, plan string, now time.Time) (*domain.AccessGrant, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: empty subject", domain.ErrInvalidInput)
	}

	var grant domain.AccessGrant
	err := r.grants.Update(ctx, func(grants map[string]domain.AccessGrant) (bool, error) {
		grantedAt := now
		if existing, ok := grants[subjectID]; ok {
			grantedAt = existing.GrantedAt
		}
		grant = domain.AccessGrant{
			SubjectID:  subjectID,
			ValidUntil: validUntil,
			Plan:       plan,
			GrantedAt:  grantedAt,
		}
		grants[subjectID] = grant
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// Extend adds d to the grant of subjectID. An active grant is extended from
// its current expiry; a missing or lapsed grant starts at now.
func (r *Registry) Extend(ctx context.Context, subjectID string, d time.Duration, plan string, now time.Time) (*domain.AccessGrant, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: empty subject", domain.ErrInvalidInput)
	}
	if d <= 0 {
		return nil, fmt.Errorf("%w: duration %s", domain.ErrInvalidAmount, d)
	}

	var grant domain.AccessGrant
	err := r.grants.Update(ctx, func(grants map[string]domain.AccessGrant) (bool, error) {
		existing, ok := grants[subjectID]
		if ok && existing.ActiveAt(now) {
			grant = existing
			grant.ValidUntil = existing.ValidUntil.Add(d)
			grant.Plan = plan
		} else {
			grant = domain.AccessGrant{
				SubjectID:  subjectID,
				ValidUntil: now.Add(d),
				Plan:       plan,
				GrantedAt:  now,
			}
		}
		grants[subjectID] = grant
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// Get returns the grant of subjectID, active or not.
func (r *Registry) Get(ctx context.Context, subjectID string) (*domain.AccessGrant, error) {
	grants, err := r.grants.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	grant, ok := grants[subjectID]
	if !ok {
		return nil, fmt.Errorf("%w: no grant for %s", domain.ErrNotFound, subjectID)
	}
	return &grant, nil
}

// IsAuthorized reports whether subjectID holds a grant valid at now.
// It does not depend on sweeps having run.
func (r *Registry) IsAuthorized(ctx context.Context, subjectID string, now time.Time) (bool, error) {
	grants, err := r.grants.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	grant, ok := grants[subjectID]
	return ok && grant.ActiveAt(now), nil
}

// Sweep removes grants that lapsed before now and returns how many it removed.
// Nothing is written when no grant has lapsed.
func (r *Registry) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := r.grants.Update(ctx, func(grants map[string]domain.AccessGrant) (bool, error) {
		for subject, grant := range grants {
			if !grant.ActiveAt(now) {
				delete(grants, subject)
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

// Remove deletes the grant of subjectID regardless of expiry.
func (r *Registry) Remove(ctx context.Context, subjectID string) error {
	return r.grants.Update(ctx, func(grants map[string]domain.AccessGrant) (bool, error) {
		if _, ok := grants[subjectID]; !ok {
			return false, fmt.Errorf("%w: no grant for %s", domain.ErrNotFound, subjectID)
		}
		delete(grants, subjectID)
		return true, nil
	})
}

// ListActive returns the grants active at now, soonest expiry first.
func (r *Registry) ListActive(ctx context.Context, now time.Time) ([]domain.AccessGrant, error) {
	grants, err := r.grants.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.AccessGrant, 0, len(grants))
	for _, g := range grants {
		if g.ActiveAt(now) {
			active = append(active, g)
		}
	}
	slices.SortFunc(active, func(a, b domain.AccessGrant) int {
		if c := a.ValidUntil.Compare(b.ValidUntil); c != 0 {
			return c
		}
		return strings.Compare(a.SubjectID, b.SubjectID)
	})
	return active, nil
}
