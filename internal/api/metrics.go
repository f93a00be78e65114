package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	refreshes prometheus.Counter
	dayTypes  *prometheus.CounterVec
	limited   prometheus.Counter
	replayed  prometheus.Counter
	paydays   prometheus.Counter
	netWorth  prometheus.Gauge
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratrace_http_requests_total",
				Help: "HTTP requests by route pattern and status code",
			},
			[]string{"route", "code"},
		),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratrace_refresh_total",
			Help: "Refresh cycles run",
		}),
		dayTypes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratrace_day_type_total",
				Help: "Day types drawn by refresh",
			},
			[]string{"day_type"},
		),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratrace_refresh_limited_total",
			Help: "Refresh requests rejected by the debounce limiter",
		}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratrace_idempotent_replays_total",
			Help: "Writes answered from the idempotency cache",
		}),
		paydays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratrace_payday_total",
			Help: "Paydays booked",
		}),
		netWorth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ratrace_net_worth_dollars",
			Help: "Player net worth after the last refresh",
		}),
	}
	reg.MustRegister(
		m.requests, m.refreshes, m.dayTypes, m.limited, m.replayed, m.paydays, m.netWorth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
