package owlite

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics. See metric/prometheus for a
// Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each asserted triple. added is false for
	// duplicates.
	RecordAdd(added bool, err error)

	// RecordAsk is called after each pattern ask.
	RecordAsk(hit bool)

	// RecordMaterialize is called after each Materialize or Saturate call.
	RecordMaterialize(added, retracted, violations int, duration time.Duration, err error)

	// RecordWrite is called after each image write.
	RecordWrite(bytes uint64, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(bool, error)                                 {}
func (NoopMetricsCollector) RecordAsk(bool)                                        {}
func (NoopMetricsCollector) RecordMaterialize(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordWrite(uint64, time.Duration, error)              {}

// BasicMetricsCollector keeps counters in memory.
type BasicMetricsCollector struct {
	AddCount      atomic.Int64
	AddDuplicates atomic.Int64
	AddErrors     atomic.Int64

	AskCount atomic.Int64
	AskHits  atomic.Int64

	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializeTotalNanos atomic.Int64
	InferredTriples       atomic.Int64
	RetractedTriples      atomic.Int64
	Violations            atomic.Int64

	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(added bool, err error) {
	b.AddCount.Add(1)
	switch {
	case err != nil:
		b.AddErrors.Add(1)
	case !added:
		b.AddDuplicates.Add(1)
	}
}

// RecordAsk implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAsk(hit bool) {
	b.AskCount.Add(1)
	if hit {
		b.AskHits.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(added, retracted, violations int, duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
	b.InferredTriples.Add(int64(added))
	b.RetractedTriples.Add(int64(retracted))
	b.Violations.Add(int64(violations))
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes uint64, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WriteBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:            b.AddCount.Load(),
		AddDuplicates:       b.AddDuplicates.Load(),
		AddErrors:           b.AddErrors.Load(),
		AskCount:            b.AskCount.Load(),
		AskHits:             b.AskHits.Load(),
		MaterializeCount:    b.MaterializeCount.Load(),
		MaterializeErrors:   b.MaterializeErrors.Load(),
		MaterializeAvgNanos: avg(b.MaterializeTotalNanos.Load(), b.MaterializeCount.Load()),
		InferredTriples:     b.InferredTriples.Load(),
		RetractedTriples:    b.RetractedTriples.Load(),
		Violations:          b.Violations.Load(),
		WriteCount:          b.WriteCount.Load(),
		WriteErrors:         b.WriteErrors.Load(),
		WriteBytes:          b.WriteBytes.Load(),
		WriteAvgNanos:       avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount            int64
	AddDuplicates       int64
	AddErrors           int64
	AskCount            int64
	AskHits             int64
	MaterializeCount    int64
	MaterializeErrors   int64
	MaterializeAvgNanos int64
	InferredTriples     int64
	RetractedTriples    int64
	Violations          int64
	WriteCount          int64
	WriteErrors         int64
	WriteBytes          int64
	WriteAvgNanos       int64
}
