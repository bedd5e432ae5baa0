package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider interface {
	ConnOpened()
	ConnClosed()
	RoomCount(n int)
	EventReceived(event string)
	MessageSent(kind string)
	EventBroadcast(event string)
}

// PromProvider implements Provider on a dedicated Prometheus registry so
// tests can create instances without colliding on the default registry.
type PromProvider struct {
	registry          *prometheus.Registry
	activeConnections prometheus.Gauge
	knownRooms        prometheus.Gauge
	eventsTotal       *prometheus.CounterVec
	messagesTotal     *prometheus.CounterVec
	broadcastsTotal   *prometheus.CounterVec
}

func NewPromProvider() *PromProvider {
	p := &PromProvider{
		registry: prometheus.NewRegistry(),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chathub_active_connections",
			Help: "Number of live websocket connections.",
		}),
		knownRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chathub_rooms",
			Help: "Number of known rooms.",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chathub_inbound_events_total",
			Help: "Total number of inbound client events by event name.",
		}, []string{"event"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chathub_messages_total",
			Help: "Total number of chat messages by kind.",
		}, []string{"kind"}),
		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chathub_broadcasts_total",
			Help: "Total number of outbound events fanned out by event name.",
		}, []string{"event"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		p.activeConnections,
		p.knownRooms,
		p.eventsTotal,
		p.messagesTotal,
		p.broadcastsTotal,
	)

	return p
}

func (p *PromProvider) ConnOpened() {
	p.activeConnections.Inc()
}

func (p *PromProvider) ConnClosed() {
	p.activeConnections.Dec()
}

func (p *PromProvider) RoomCount(n int) {
	p.knownRooms.Set(float64(n))
}

func (p *PromProvider) EventReceived(event string) {
	p.eventsTotal.WithLabelValues(event).Inc()
}

func (p *PromProvider) MessageSent(kind string) {
	p.messagesTotal.WithLabelValues(kind).Inc()
}

func (p *PromProvider) EventBroadcast(event string) {
	p.broadcastsTotal.WithLabelValues(event).Inc()
}

// Handler serves the provider's registry in the Prometheus text format.
func (p *PromProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
