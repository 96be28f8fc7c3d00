// Package metrics exports CEC bus traffic and HTTP requests as Prometheus
// counters.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pitvremote/cec"
)

// Collector implements cec.Observer.
type Collector struct {
	cec.NopObserver

	received *prometheus.CounterVec
	sent     *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	failures *prometheus.CounterVec
	requests *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollector registers the CEC counters with reg. A nil reg uses a fresh
// registry, which Handler then serves.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitvremote_frames_received_total",
			Help: "Inbound CEC frames by opcode.",
		}, []string{"opcode"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitvremote_frames_sent_total",
			Help: "Outbound CEC frames by opcode and result.",
		}, []string{"opcode", "result"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitvremote_frames_dropped_total",
			Help: "Inbound CEC frames discarded before dispatch.",
		}, []string{"reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitvremote_callback_failures_total",
			Help: "Callbacks that returned an error or panicked.",
		}, []string{"category"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitvremote_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		gatherer: gatherer,
	}

	for _, cv := range []prometheus.Collector{c.received, c.sent, c.dropped, c.failures, c.requests} {
		if err := reg.Register(cv); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func opcodeLabel(op cec.Opcode) string {
	return op.String()
}

func (c *Collector) FrameReceived(cmd cec.Command) {
	c.received.WithLabelValues(opcodeLabel(cmd.Opcode)).Inc()
}

func (c *Collector) FrameSent(cmd cec.Command, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.sent.WithLabelValues(opcodeLabel(cmd.Opcode), result).Inc()
}

func (c *Collector) FrameDropped(_ cec.Command, reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

func (c *Collector) CallbackFailed(err *cec.CallbackError) {
	c.failures.WithLabelValues(err.Category).Inc()
}

// Handler serves the registry the collector was registered with.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by route template. route reports the template
// for a request, or "" when unknown.
func (c *Collector) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			name := r.URL.Path
			if route != nil {
				if t := route(r); t != "" {
					name = t
				}
			}
			c.requests.WithLabelValues(name, r.Method, strconv.Itoa(rw.status)).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
