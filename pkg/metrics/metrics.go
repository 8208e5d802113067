package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Metrics exposes a tiny in-memory counter set for the notification service.
type Metrics struct {
	eventsConsumed    atomic.Int64
	published         atomic.Int64
	publishFailed     atomic.Int64
	endpointsDisabled atomic.Int64
	notifiedEdges     atomic.Int64
	endpointsPurged   atomic.Int64
}

// New returns a zeroed Metrics collector.
func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncEventsConsumed()    { m.eventsConsumed.Add(1) }
func (m *Metrics) IncPublished()         { m.published.Add(1) }
func (m *Metrics) IncPublishFailed()     { m.publishFailed.Add(1) }
func (m *Metrics) IncEndpointsDisabled() { m.endpointsDisabled.Add(1) }
func (m *Metrics) IncNotifiedEdges()     { m.notifiedEdges.Add(1) }
func (m *Metrics) AddEndpointsPurged(n int) {
	m.endpointsPurged.Add(int64(n))
}

// Handler exposes the counters via a very small JSON response so we do not
// need to pull in a heavy metrics dependency.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
  "events_consumed": %d,
  "published": %d,
  "publish_failed": %d,
  "endpoints_disabled": %d,
  "notified_edges": %d,
  "endpoints_purged": %d
}`,
			m.eventsConsumed.Load(),
			m.published.Load(),
			m.publishFailed.Load(),
			m.endpointsDisabled.Load(),
			m.notifiedEdges.Load(),
			m.endpointsPurged.Load(),
		)
	})
}
