package repcrec

import "time"

// Config configures the size of the simulated fleet. The zero value is
// not directly usable; call DefaultConfig or rely on
// coordinator.NewCoordinator applying defaults when fields are zero.
type Config struct {
	// SiteCount is the number of data sites in the fleet. Defaults to 10.
	SiteCount int
	// RecordCount is the number of logical records, numbered 1..RecordCount.
	// Defaults to 20.
	RecordCount int
	// MaxCommitWait is an advisory upper bound on how long a caller should
	// wait for a transaction's end() to stop being IN_PROGRESS before
	// giving up externally. The deterministic tick loop itself never times
	// out or sleeps on this value; it exists for API parity with the
	// teacher's Transaction maxTime knob, and so a driver polling the
	// simulator in a loop has a sane default to compare logical ticks
	// against.
	MaxCommitWait time.Duration
}

// DefaultConfig returns the standard 10-site, 20-record configuration
// described by the data model.
func DefaultConfig() Config {
	return Config{
		SiteCount:     10,
		RecordCount:   20,
		MaxCommitWait: 15 * time.Minute,
	}
}

// WithDefaults fills zero-valued fields with DefaultConfig's values.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.SiteCount <= 0 {
		c.SiteCount = d.SiteCount
	}
	if c.RecordCount <= 0 {
		c.RecordCount = d.RecordCount
	}
	if c.MaxCommitWait <= 0 {
		c.MaxCommitWait = d.MaxCommitWait
	}
	return c
}
