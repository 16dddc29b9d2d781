// Package prometheus exports owlite metrics through client_golang.
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "owlite"

// Collector implements owlite.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency  *prom.HistogramVec
	adds       *prom.CounterVec
	asks       *prom.CounterVec
	inferred   prom.Counter
	retracted  prom.Counter
	violations prom.Counter
	written    prom.Counter
}

// New creates a Collector and registers it with reg. A nil reg registers
// with prometheus.DefaultRegisterer.
func New(reg prom.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of materialize and image write operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		adds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "triples_added_total",
			Help:      "Asserted triples by outcome",
		}, []string{"result"}),
		asks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Pattern asks by outcome",
		}, []string{"result"}),
		inferred: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "triples_inferred_total",
			Help:      "Triples added by materialization",
		}),
		retracted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "triples_retracted_total",
			Help:      "Triples retracted by functional conflict resolution",
		}),
		violations: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cardinality_violations_total",
			Help:      "Functional-property conflicts found by materialization",
		}),
		written: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "image_bytes_written_total",
			Help:      "Bytes written to graph images",
		}),
	}

	for _, m := range []prom.Collector{c.opLatency, c.adds, c.asks, c.inferred, c.retracted, c.violations, c.written} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAdd implements owlite.MetricsCollector.
func (c *Collector) RecordAdd(added bool, err error) {
	switch {
	case err != nil:
		c.adds.WithLabelValues("error").Inc()
	case added:
		c.adds.WithLabelValues("added").Inc()
	default:
		c.adds.WithLabelValues("duplicate").Inc()
	}
}

// RecordAsk implements owlite.MetricsCollector.
func (c *Collector) RecordAsk(hit bool) {
	if hit {
		c.asks.WithLabelValues("hit").Inc()
		return
	}
	c.asks.WithLabelValues("miss").Inc()
}

// RecordMaterialize implements owlite.MetricsCollector.
func (c *Collector) RecordMaterialize(added, retracted, violations int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("materialize", status(err)).Observe(d.Seconds())
	c.inferred.Add(float64(added))
	c.retracted.Add(float64(retracted))
	c.violations.Add(float64(violations))
}

// RecordWrite implements owlite.MetricsCollector.
func (c *Collector) RecordWrite(bytes uint64, d time.Duration, err error) {
	c.opLatency.WithLabelValues("write", status(err)).Observe(d.Seconds())
	if err == nil {
		c.written.Add(float64(bytes))
	}
}
