package repository

import (
	"context"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a KV and records operation counts and latency.
type Instrumented struct {
	next     KV
	ops      *prom.CounterVec
	duration *prom.HistogramVec
}

// NewInstrumented registers the store metrics on reg and wraps next.
func NewInstrumented(next KV, reg prom.Registerer) (*Instrumented, error) {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	in := &Instrumented{
		next: next,
		ops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "todokeeper",
			Name:      "kv_operations_total",
			Help:      "Key-value store operations by kind and result",
		}, []string{"op", "result"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "todokeeper",
			Name:      "kv_operation_duration_seconds",
			Help:      "Latency of key-value store operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
	}
	for _, c := range []prom.Collector{in.ops, in.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (i *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(ctx, key)
	i.observe("get", start, err)
	return v, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	i.observe("set", start, err)
	return err
}

func (i *Instrumented) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Remove(ctx, key)
	i.observe("remove", start, err)
	return err
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.ops.WithLabelValues(op, result).Inc()
	i.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
