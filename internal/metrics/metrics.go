package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry holds the process-wide counters served by GET /api/metrics.
type Registry struct {
	OrdersCreated     Counter
	OrdersRejected    Counter
	IdempotentReplays Counter

	HTTPRequests     Counter
	HTTPServerErrors Counter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_created":     r.OrdersCreated.Load(),
		"orders_rejected":    r.OrdersRejected.Load(),
		"idempotent_replays": r.IdempotentReplays.Load(),
		"http_requests":      r.HTTPRequests.Load(),
		"http_server_errors": r.HTTPServerErrors.Load(),
	}
}
