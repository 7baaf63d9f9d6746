package writer

import (
	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/Shiloren/gics/format"
	"github.com/Shiloren/gics/internal/options"
	"github.com/Shiloren/gics/metrics"
	"github.com/Shiloren/gics/schema"
)

// Config holds a Writer's resolved configuration. Unexported fields are
// reached only through the With* options below.
type Config struct {
	profile          schema.Profile
	hasSchema        bool
	segmentByteLimit int
	blockSize        int
	outerCodecID     format.OuterCodecID
	password         string
	encrypted        bool
	pbkdf2Iterations uint32
	logger           *zap.Logger
	metrics          *metrics.Collector
}

func defaultConfig() Config {
	return Config{
		profile:          schema.Legacy(),
		hasSchema:        false,
		segmentByteLimit: format.DefaultSegmentByteLimit,
		blockSize:        format.DefaultBlockSize,
		outerCodecID:     format.OuterZstd,
		pbkdf2Iterations: 210000,
		logger:           zap.NewNop(),
	}
}

// Option configures a Writer. See the With* functions below.
type Option = options.Option[*Config]

// WithSchema sets an explicit schema profile. Without this option, a Writer
// uses the implicit legacy schema (SPEC_FULL.md §3).
func WithSchema(p schema.Profile) Option {
	return options.NoError(func(c *Config) {
		c.profile = p
		c.hasSchema = true
	})
}

// WithSegmentByteLimit overrides the uncompressed-size threshold that
// triggers sealing the current segment. Default: format.DefaultSegmentByteLimit.
func WithSegmentByteLimit(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return errSegmentByteLimit
		}
		c.segmentByteLimit = n

		return nil
	})
}

// WithSegmentByteLimitString is WithSegmentByteLimit for a human-readable
// size string such as "1MiB" or "512KiB".
func WithSegmentByteLimitString(s string) Option {
	return options.New(func(c *Config) error {
		n, err := units.RAMInBytes(s)
		if err != nil {
			return err
		}
		if n <= 0 {
			return errSegmentByteLimit
		}
		c.segmentByteLimit = int(n)

		return nil
	})
}

// WithBlockSize overrides the number of items per block. Default:
// format.DefaultBlockSize.
func WithBlockSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return errBlockSize
		}
		c.blockSize = n

		return nil
	})
}

// WithBlockSizeString is WithBlockSize for a human-readable size string,
// interpreted as a byte count and divided by 8 (one float64 per item) to
// arrive at an item count.
func WithBlockSizeString(s string) Option {
	return options.New(func(c *Config) error {
		n, err := units.RAMInBytes(s)
		if err != nil {
			return err
		}
		items := int(n / 8)
		if items <= 0 {
			return errBlockSize
		}
		c.blockSize = items

		return nil
	})
}

// WithOuterCodec selects the byte compressor applied to each stream
// section's concatenated block payloads. Default: format.OuterZstd.
func WithOuterCodec(id format.OuterCodecID) Option {
	return options.NoError(func(c *Config) {
		c.outerCodecID = id
	})
}

// WithEncryption enables AES-256-GCM authenticated encryption (SPEC_FULL.md
// §4.8) under password. iterations is the PBKDF2 round count; pass 0 to
// keep the built-in default.
func WithEncryption(password string, iterations uint32) Option {
	return options.New(func(c *Config) error {
		if password == "" {
			return errEmptyPassword
		}
		c.password = password
		c.encrypted = true
		if iterations > 0 {
			c.pbkdf2Iterations = iterations
		}

		return nil
	})
}

// WithLogger attaches a zap logger used for warn-mode integrity messages
// and general Writer diagnostics. Default: a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(c *Config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithMetrics attaches a Collector that observes each sealed segment's
// size and compression ratio. Default: no collector, no observations.
func WithMetrics(m *metrics.Collector) Option {
	return options.NoError(func(c *Config) {
		c.metrics = m
	})
}
