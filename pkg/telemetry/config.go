package telemetry

import (
	"fmt"

	"github.com/Sternrassler/error-telemetry/pkg/autoreport"
	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/retry"
)

// Config holds the service configuration.
type Config struct {
	// Limits bounds the error log (max_log_size, retention.days, retention.max_size).
	errorlog.Limits `yaml:",inline"`

	// Mirrors. A mirror is only active when its collaborator is also set.
	EnableConsoleLogging bool `yaml:"enable_console_logging" json:"enable_console_logging"`
	EnableRemoteLogging  bool `yaml:"enable_remote_logging" json:"enable_remote_logging"`
	EnableLocalStorage   bool `yaml:"enable_local_storage" json:"enable_local_storage"`

	// Rehydrate loads the stored log at startup.
	Rehydrate bool `yaml:"rehydrate" json:"rehydrate"`

	// LogLevels restricts console and remote mirroring to these severities.
	// Empty mirrors everything. The log itself always keeps every event.
	LogLevels []event.Severity `yaml:"log_levels" json:"log_levels"`

	AutoReport autoreport.Config `yaml:"auto_report" json:"auto_report"`

	// Retry is the policy network consumers should use; see Service.RetryPolicy.
	Retry retry.Policy `yaml:"retry" json:"retry"`
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Limits:               errorlog.DefaultLimits(),
		EnableConsoleLogging: true,
		EnableRemoteLogging:  true,
		EnableLocalStorage:   true,
		Rehydrate:            true,
		AutoReport:           autoreport.DefaultConfig(),
		Retry:                retry.DefaultPolicy(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxLogSize < 1 {
		return fmt.Errorf("max_log_size must be >= 1 (got %d)", c.MaxLogSize)
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must be >= 0 (got %d)", c.Retention.Days)
	}
	if c.Retention.MaxSize < 0 {
		return fmt.Errorf("retention.max_size must be >= 0 (got %d)", c.Retention.MaxSize)
	}
	for _, s := range c.LogLevels {
		if !s.Valid() {
			return fmt.Errorf("log_levels: unknown severity %q", s)
		}
	}
	if c.AutoReport.Threshold != "" && !c.AutoReport.Threshold.Valid() {
		return fmt.Errorf("auto_report.threshold: unknown severity %q", c.AutoReport.Threshold)
	}
	if c.AutoReport.MaxAutoReports < 0 {
		return fmt.Errorf("auto_report.max_auto_reports must be >= 0 (got %d)", c.AutoReport.MaxAutoReports)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0 (got %d)", c.Retry.MaxRetries)
	}
	return nil
}
