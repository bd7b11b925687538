package httpapi

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type requestMetrics struct {
	total *prometheus.CounterVec
}

func newRequestMetrics(reg prometheus.Registerer) *requestMetrics {
	if reg == nil {
		return nil
	}
	m := &requestMetrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venueflow",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.total)
	return m
}

func (m *requestMetrics) observe(method, route string, status int) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
