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

// ObserveTo records the time elapsed since StartTimer into l.
func (t *Timer) ObserveTo(l *Latency) {
	l.Observe(t.Duration())
}

// Latency accumulates call count and total duration of an operation.
type Latency struct {
	count Counter
	total Counter
}

func (l *Latency) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.count.Inc()
	l.total.Add(uint64(d))
}

func (l *Latency) Count() uint64 { return l.count.Load() }

func (l *Latency) Avg() time.Duration {
	n := l.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(l.total.Load() / n)
}

// OrderMetrics counts order lifecycle outcomes for the process lifetime.
type OrderMetrics struct {
	Placed         Counter
	Rejected       Counter
	StatusChanges  Counter
	PaymentUpdates Counter
	Cancelled      Counter
	Deleted        Counter
	LibraryGrants  Counter

	PlaceLatency  Latency
	StatusLatency Latency
}

func NewOrderMetrics() *OrderMetrics {
	return &OrderMetrics{}
}

func (m *OrderMetrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_placed":           m.Placed.Load(),
		"orders_rejected":         m.Rejected.Load(),
		"order_status_changes":    m.StatusChanges.Load(),
		"order_payment_updates":   m.PaymentUpdates.Load(),
		"orders_cancelled":        m.Cancelled.Load(),
		"orders_deleted":          m.Deleted.Load(),
		"library_entries_granted": m.LibraryGrants.Load(),
		"place_order_avg_micros":   uint64(m.PlaceLatency.Avg().Microseconds()),
		"update_status_avg_micros": uint64(m.StatusLatency.Avg().Microseconds()),
	}
}
