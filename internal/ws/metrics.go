package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open websocket connections",
	})
	Delivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_delivered_total",
			Help: "Engine events written to client buffers",
		},
		[]string{"type"},
	)
	Dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_events_dropped_total",
		Help: "Engine events dropped because the client buffer was full",
	})
)

func init() {
	prometheus.MustRegister(Connections)
	prometheus.MustRegister(Delivered)
	prometheus.MustRegister(Dropped)
}
