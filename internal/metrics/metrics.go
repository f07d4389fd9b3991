// Package metrics 暴露网关的 Prometheus 指标，使用独立的 Registry 便于测试隔离。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gl_gateway"

// Metrics 持有全部采集器。
type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	redirectsTotal   *prometheus.CounterVec
	reportedTotal    prometheus.Counter
	abandonedTotal   prometheus.Counter
	inflight         prometheus.Gauge
	jobRuns          *prometheus.CounterVec
	tenantVersion    prometheus.Gauge
	torExitNodes     prometheus.Gauge
}

// New 创建并注册指标；includeRuntime 为 true 时附带 Go/进程采集器。
func New(includeRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if includeRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Dispatched requests by handler, final state and status code",
		}, []string{"handler", "state", "status"}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time from dispatch start to finalization",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"handler"}),
		redirectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "redirects_total",
			Help:      "Redirects issued before route matching",
		}, []string{"kind"}),
		reportedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "unexpected_errors_total",
			Help:      "Unexpected handler errors handed to the exception reporter",
		}),
		abandonedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "abandoned_total",
			Help:      "Requests whose client went away before the handler resolved",
		}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "inflight",
			Help:      "Handlers currently executing",
		}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by outcome",
		}, []string{"job", "outcome"}),
		tenantVersion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tenants",
			Name:      "snapshot_version",
			Help:      "Version of the currently published tenant snapshot",
		}),
		torExitNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "tor_exit_nodes",
			Help:      "Known Tor exit nodes",
		}),
	}
}

// ObserveDispatch 记录一次完成的分发；m 为 nil 时忽略。
func (m *Metrics) ObserveDispatch(handlerName, state string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if handlerName == "" {
		handlerName = "none"
	}
	m.dispatchTotal.WithLabelValues(handlerName, state, strconv.Itoa(status)).Inc()
	m.dispatchDuration.WithLabelValues(handlerName).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRedirect(kind string) {
	if m == nil {
		return
	}
	m.redirectsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReported() {
	if m == nil {
		return
	}
	m.reportedTotal.Inc()
}

func (m *Metrics) ObserveAbandoned() {
	if m == nil {
		return
	}
	m.abandonedTotal.Inc()
}

// TrackInflight 增加执行中计数，返回的函数用于回收。
func (m *Metrics) TrackInflight() func() {
	if m == nil {
		return func() {}
	}
	m.inflight.Inc()
	return m.inflight.Dec
}

func (m *Metrics) ObserveJob(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) SetTenantVersion(version uint64) {
	if m == nil {
		return
	}
	m.tenantVersion.Set(float64(version))
}

func (m *Metrics) SetTorExitNodes(n int) {
	if m == nil {
		return
	}
	m.torExitNodes.Set(float64(n))
}

// Registry 返回底层 Registry。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 Prometheus 文本格式的 HTTP handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
