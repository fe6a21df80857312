package file

import (
	"fmt"
	"time"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

// Configuration keys understood by LoadSettings.
const (
	KeyPricingPrefix   = "pricing."
	KeySweeperEnabled  = "sweeper.enabled"
	KeySweeperInterval = "sweeper.interval"
	KeySweeperPrune    = "sweeper.prune_interval"
	KeyRedeemRetention = "redeem.retention"
	KeyRedeemPerMinute = "redeem.per_minute"
	KeyRedeemBurst     = "redeem.burst"
	KeyMetricsAddr     = "metrics.addr"
)

// LoadSettings overlays the configuration on domain.DefaultAppSettings and
// validates the result. Keys that are absent keep their defaults.
func LoadSettings(cfg driven.ConfigStore) (domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	settings.PrivilegedOperators = cfg.GetStringSlice(KeyPrivilegedOperators)

	for _, u := range domain.AllUnits() {
		key := KeyPricingPrefix + u.String()
		if _, ok := cfg.Get(key); ok {
			settings.Rates[u] = int64(cfg.GetInt(key))
		}
	}

	if _, ok := cfg.Get(KeySweeperEnabled); ok {
		settings.Scheduler.Enabled = cfg.GetBool(KeySweeperEnabled)
	}
	if err := overlayInterval(cfg, KeySweeperInterval, domain.TaskIDGrantSweep, &settings.Scheduler); err != nil {
		return settings, err
	}
	if err := overlayInterval(cfg, KeySweeperPrune, domain.TaskIDRedeemedPrune, &settings.Scheduler); err != nil {
		return settings, err
	}
	if d, ok, err := duration(cfg, KeyRedeemRetention); err != nil {
		return settings, err
	} else if ok {
		settings.Scheduler.RedeemedRetention = d
	}

	if _, ok := cfg.Get(KeyRedeemPerMinute); ok {
		settings.Redeem.PerMinute = cfg.GetInt(KeyRedeemPerMinute)
	}
	if _, ok := cfg.Get(KeyRedeemBurst); ok {
		settings.Redeem.Burst = cfg.GetInt(KeyRedeemBurst)
	}

	settings.MetricsAddr = cfg.GetString(KeyMetricsAddr)

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// overlayInterval sets a task's interval. "0" or "off" disables the task.
func overlayInterval(cfg driven.ConfigStore, key, taskID string, sched *domain.SchedulerConfig) error {
	raw := cfg.GetString(key)
	if raw == "off" {
		sched.TaskConfigs[taskID] = domain.TaskConfig{}
		return nil
	}
	d, ok, err := duration(cfg, key)
	if err != nil || !ok {
		return err
	}
	sched.TaskConfigs[taskID] = domain.TaskConfig{Enabled: d > 0, Interval: d}
	return nil
}

// duration reads a Go duration string such as "5m" or "720h".
func duration(cfg driven.ConfigStore, key string) (time.Duration, bool, error) {
	if _, ok := cfg.Get(key); !ok {
		return 0, false, nil
	}
	raw := cfg.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %q is not a duration", domain.ErrInvalidInput, key, raw)
	}
	if d < 0 {
		return 0, false, fmt.Errorf("%w: %s: negative duration", domain.ErrInvalidInput, key)
	}
	return d, true, nil
}
