// Package metrics exposes optional Prometheus instrumentation for a
// writer.Writer: segments sealed, bytes written, per-segment compression
// ratio, and integrity failures observed by a reader.Reader. Nothing here
// is wired into a global registry; callers register a Collector into
// whichever *prometheus.Registry they already run.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector tracks counters and a histogram across one or more gics
// writers/readers sharing the same caller-supplied registry.
type Collector struct {
	segmentsSealed   prometheus.Counter
	bytesWritten     prometheus.Counter
	compressionRatio prometheus.Histogram
	integrityFailures *prometheus.CounterVec
}

// New creates a Collector. Call Register to attach it to a registry; a
// Collector not registered anywhere is inert but safe to use.
func New() *Collector {
	return &Collector{
		segmentsSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gics",
			Name:      "segments_sealed_total",
			Help:      "Number of segments sealed by a Writer.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gics",
			Name:      "bytes_written_total",
			Help:      "Total compressed bytes appended to the file body.",
		}),
		compressionRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gics",
			Name:      "segment_compression_ratio",
			Help:      "Uncompressed/compressed byte ratio per sealed segment.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		integrityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gics",
			Name:      "integrity_failures_total",
			Help:      "Hash-chain or CRC32 mismatches observed while reading.",
		}, []string{"kind"}),
	}
}

// Register attaches every metric in c to reg.
func (c *Collector) Register(reg *prometheus.Registry) error {
	for _, coll := range []prometheus.Collector{c.segmentsSealed, c.bytesWritten, c.compressionRatio, c.integrityFailures} {
		if err := reg.Register(coll); err != nil {
			return err
		}
	}

	return nil
}

// ObserveSegmentSealed records one sealed segment: its compressed byte
// size and its uncompressed/compressed ratio (0 compressed bytes is
// treated as a ratio of 1 to avoid dividing by zero).
func (c *Collector) ObserveSegmentSealed(uncompressed, compressed int) {
	c.segmentsSealed.Inc()
	c.bytesWritten.Add(float64(compressed))

	ratio := 1.0
	if compressed > 0 {
		ratio = float64(uncompressed) / float64(compressed)
	}
	c.compressionRatio.Observe(ratio)
}

// ObserveIntegrityFailure records one hash-chain or CRC32 mismatch
// encountered while reading, labeled by the errs.Kind string.
func (c *Collector) ObserveIntegrityFailure(kind string) {
	c.integrityFailures.WithLabelValues(kind).Inc()
}
