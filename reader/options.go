package reader

import (
	"go.uber.org/zap"

	"github.com/Shiloren/gics/internal/options"
	"github.com/Shiloren/gics/metrics"
)

// IntegrityMode controls how a Reader reacts to a hash-chain mismatch
// while walking segments in New. CRC32 mismatches are always fatal
// regardless of mode (SPEC_FULL.md §9).
type IntegrityMode uint8

const (
	// IntegrityStrict fails New on the first hash-chain mismatch.
	IntegrityStrict IntegrityMode = iota
	// IntegrityWarn logs hash-chain mismatches via the configured logger
	// and keeps parsing, per DESIGN.md Open Question 3.
	IntegrityWarn
)

// Config holds a Reader's resolved configuration.
type Config struct {
	password string
	mode     IntegrityMode
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func defaultConfig() Config {
	return Config{mode: IntegrityStrict, logger: zap.NewNop()}
}

// Option configures a Reader. See the With* functions below.
type Option = options.Option[*Config]

// WithPassword supplies the decryption password for an encrypted file.
func WithPassword(password string) Option {
	return options.NoError(func(c *Config) {
		c.password = password
	})
}

// WithIntegrityMode overrides the default strict hash-chain handling.
func WithIntegrityMode(mode IntegrityMode) Option {
	return options.NoError(func(c *Config) {
		c.mode = mode
	})
}

// WithLogger attaches a zap logger used for warn-mode integrity messages.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(c *Config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithMetrics attaches a Collector that observes hash-chain and CRC32
// mismatches encountered while indexing the file. Default: no collector.
func WithMetrics(m *metrics.Collector) Option {
	return options.NoError(func(c *Config) {
		c.metrics = m
	})
}
