package domain

import (
	"fmt"
	"time"
)

// AppSettings holds the runtime configuration of the licence core.
type AppSettings struct {
	// PrivilegedOperators are caller IDs with unlimited balance.
	PrivilegedOperators []string

	// Rates are the per-unit licence prices.
	Rates RateCard

	// Scheduler configures the background tasks.
	Scheduler SchedulerConfig

	// Redeem configures the per-caller redemption limiter.
	Redeem RedeemSettings

	// MetricsAddr is the listen address for the metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string
}

// RedeemSettings bounds how often a single caller may attempt redemption.
type RedeemSettings struct {
	// PerMinute is the sustained number of attempts per minute.
	PerMinute int

	// Burst is the number of attempts allowed back to back.
	Burst int
}

// IsLimited returns true if a limit is configured.
func (r RedeemSettings) IsLimited() bool {
	return r.PerMinute > 0
}

// DefaultAppSettings returns the default settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Rates:     DefaultRateCard(),
		Scheduler: DefaultSchedulerConfig(),
		Redeem: RedeemSettings{
			PerMinute: 5,
			Burst:     5,
		},
	}
}

// Validate checks the settings for values the core cannot run with.
func (s *AppSettings) Validate() error {
	for _, u := range AllUnits() {
		rate, ok := s.Rates[u]
		if !ok {
			return fmt.Errorf("%w: no rate for unit %s", ErrInvalidInput, u)
		}
		if rate < 0 {
			return fmt.Errorf("%w: negative rate for unit %s", ErrInvalidInput, u)
		}
	}
	for id, cfg := range s.Scheduler.TaskConfigs {
		if cfg.Enabled && cfg.Interval < time.Second {
			return fmt.Errorf("%w: task %s interval %s too short", ErrInvalidInput, id, cfg.Interval)
		}
	}
	if s.Redeem.PerMinute < 0 || s.Redeem.Burst < 0 {
		return fmt.Errorf("%w: negative redeem limit", ErrInvalidInput)
	}
	return nil
}
