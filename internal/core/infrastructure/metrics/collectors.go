// Package metrics 提供多链接入与跨链编排的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsanchor"

// Collectors 指标集合，nil 接收者上的方法均为空操作
type Collectors struct {
	extrinsics       *prometheus.CounterVec
	extrinsicLatency *prometheus.HistogramVec
	storageReads     *prometheus.CounterVec
	connections      *prometheus.GaugeVec
	flows            *prometheus.CounterVec
}

// New 在 reg 上注册指标；reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collectors{
		extrinsics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "extrinsics_total",
				Help:      "Submitted extrinsics by terminal outcome",
			},
			[]string{"chain", "call", "outcome"},
		),
		extrinsicLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "extrinsic_duration_seconds",
				Help:      "Time from submission to terminal outcome",
				Buckets:   []float64{1, 3, 6, 12, 24, 36, 60, 120, 300},
			},
			[]string{"chain", "call"},
		),
		storageReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "storage_reads_total",
				Help:      "Storage keys read from chain state",
			},
			[]string{"chain"},
		),
		connections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "chain",
				Name:      "connected",
				Help:      "1 when a websocket connection to the chain is open",
			},
			[]string{"chain"},
		),
		flows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "flows_total",
				Help:      "Publication flows by strategy and outcome",
			},
			[]string{"flow", "outcome"},
		),
	}
}

// ObserveExtrinsic 记录一笔交易的终态与耗时
func (c *Collectors) ObserveExtrinsic(chain, call, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.extrinsics.WithLabelValues(chain, call, outcome).Inc()
	c.extrinsicLatency.WithLabelValues(chain, call).Observe(elapsed.Seconds())
}

// AddStorageReads 累加读取的存储键数量
func (c *Collectors) AddStorageReads(chain string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.storageReads.WithLabelValues(chain).Add(float64(n))
}

// SetConnected 记录连接状态
func (c *Collectors) SetConnected(chain string, connected bool) {
	if c == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	c.connections.WithLabelValues(chain).Set(v)
}

// ObserveFlow 记录一次发布流程的结果
func (c *Collectors) ObserveFlow(flow, outcome string) {
	if c == nil {
		return
	}
	c.flows.WithLabelValues(flow, outcome).Inc()
}
