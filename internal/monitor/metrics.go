package monitor

import (
	"net/http"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "melodious"

// Metrics 处理循环的指标收集，使用独立 registry
type Metrics struct {
	registry *prometheus.Registry

	inputs          *prometheus.CounterVec
	outputs         *prometheus.CounterVec
	distributions   prometheus.Counter
	handlerDuration *prometheus.HistogramVec
	users           prometheus.Gauge
	vaultBalance    prometheus.Gauge
}

// NewMetrics 创建并注册全部指标
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.inputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_total",
			Help:      "Processed inputs by kind and final status",
		},
		[]string{"kind", "status"},
	)
	m.outputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Outputs delivered to the rollup server by kind",
		},
		[]string{"kind"},
	)
	m.distributions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "distribution_rounds_total",
		Help:      "Successful reward distribution rounds",
	})
	m.handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent inside a command or inspect handler",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us ~ 1.6s
		},
		[]string{"method"},
	)
	m.users = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users",
		Help:      "Registered users in the ledger",
	})
	m.vaultBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vault_balance",
		Help:      "Current vault balance in whole settlement tokens",
	})

	m.registry.MustRegister(
		m.inputs,
		m.outputs,
		m.distributions,
		m.handlerDuration,
		m.users,
		m.vaultBalance,
	)
	return m
}

// Registry 供测试与 /metrics 使用
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InputProcessed 实现 dispatcher.Recorder
func (m *Metrics) InputProcessed(kind string, status dispatcher.Status) {
	m.inputs.WithLabelValues(kind, string(status)).Inc()
}

// HandlerDuration 实现 dispatcher.Recorder
func (m *Metrics) HandlerDuration(method string, d time.Duration) {
	m.handlerDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveOutput 作为 output.Observer 挂到 Emitter 上
func (m *Metrics) ObserveOutput(_ int, o output.Output) {
	m.outputs.WithLabelValues(string(o.Kind)).Inc()
}

// DistributionCompleted 分配回调
func (m *Metrics) DistributionCompleted(*logic.DistributionResult) {
	m.distributions.Inc()
}

// UpdateLedger 根据账本统计刷新 gauge
func (m *Metrics) UpdateLedger(stats store.Stats) {
	m.users.Set(float64(stats.Users))
	vault, _ := stats.VaultBalance.Float64()
	m.vaultBalance.Set(vault)
}
