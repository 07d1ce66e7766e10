// Package metrics counts the work done by one run of the zfile command
// and writes it in the Prometheus textfile collector format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zfile"

// Collector holds the counters of a run in a private registry.
type Collector struct {
	registry *prometheus.Registry

	files        *prometheus.CounterVec
	bytesIn      prometheus.Counter
	bytesOut     prometheus.Counter
	fileDuration *prometheus.HistogramVec
}

// New registers the run metrics:
//   - zfile_files_total{op,status}
//   - zfile_bytes_read_total
//   - zfile_bytes_written_total
//   - zfile_file_duration_seconds{op}
func New() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files processed, by operation and outcome.",
		}, []string{"op", "status"}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Uncompressed bytes read from inputs.",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to outputs, after compression.",
		}),
		fileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent on each file.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{c.files, c.bytesIn, c.bytesOut, c.fileDuration} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Registry returns the registry holding the run metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordFile records the outcome of one file.
func (c *Collector) RecordFile(op string, in, out int64, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.files.WithLabelValues(op, status).Inc()
	c.fileDuration.WithLabelValues(op).Observe(d.Seconds())
	if in > 0 {
		c.bytesIn.Add(float64(in))
	}
	if out > 0 {
		c.bytesOut.Add(float64(out))
	}
}

// WriteTextfile atomically writes all metrics to path, for the node
// exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
