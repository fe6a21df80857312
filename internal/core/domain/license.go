package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit is the billing unit a licence is bought in.
type Unit string

// Available licence units.
const (
	UnitHour Unit = "hour"
	UnitDay  Unit = "day"
	UnitWeek Unit = "week"
)

// AllUnits returns every supported unit, shortest first.
func AllUnits() []Unit {
	return []Unit{UnitHour, UnitDay, UnitWeek}
}

// ParseUnit parses a unit name. Plural forms ("days") are accepted.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// IsValid returns true if the unit is recognised.
func (u Unit) IsValid() bool {
	switch u {
	case UnitHour, UnitDay, UnitWeek:
		return true
	default:
		return false
	}
}

// Length returns the wall-clock length of one unit.
func (u Unit) Length() time.Duration {
	switch u {
	case UnitHour:
		return time.Hour
	case UnitDay:
		return 24 * time.Hour
	case UnitWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// String returns the string representation.
func (u Unit) String() string {
	return string(u)
}

// PlanLabel returns a human-readable plan name such as "2 days".
func PlanLabel(amount int64, u Unit) string {
	if amount == 1 {
		return fmt.Sprintf("1 %s", u)
	}
	return fmt.Sprintf("%d %ss", amount, u)
}

// RateCard maps each unit to its price in credits.
type RateCard map[Unit]int64

// DefaultRateCard returns the standard per-unit prices.
func DefaultRateCard() RateCard {
	return RateCard{
		UnitHour: 10,
		UnitDay:  80,
		UnitWeek: 500,
	}
}

// Price returns rate[unit] × amount.
func (r RateCard) Price(amount int64, u Unit) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	rate, ok := r[u]
	if !ok || !u.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, u)
	}
	if rate > 0 && amount > math.MaxInt64/rate {
		return 0, fmt.Errorf("%w: %d %s overflows", ErrInvalidAmount, amount, u)
	}
	return rate * amount, nil
}

// LicenseToken is a one-time redeemable credential in the pool.
type LicenseToken struct {
	// Token is the opaque string handed to the subject.
	Token string

	// Duration is the access time the token grants.
	Duration time.Duration

	// Plan is the label copied onto the grant, e.g. "1 week".
	Plan string

	// IssuedBy is the operator that minted the token.
	IssuedBy string

	// IssuedAt is when the token was minted.
	IssuedAt time.Time
}

// RedemptionRecord remembers a consumed token so that a second attempt can be
// told apart from a token that never existed.
type RedemptionRecord struct {
	// Token is the consumed token string.
	Token string

	// SubjectID is the caller that redeemed it.
	SubjectID string

	// RedeemedAt is when the token was consumed.
	RedeemedAt time.Time
}
