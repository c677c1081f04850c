package watcher

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuakami/watcher/v2/pending"
)

const metricsNamespace = "watcher"

// Metrics 记录 Watcher 的运行指标
//
// 零值(nil)可直接使用，所有方法都是空操作
type Metrics struct {
	notifications prometheus.Counter
	batches       prometheus.Counter
	dispatched    prometheus.Counter
}

// NewMetrics 创建指标并注册到 reg
//
// watcher_pending_items 在每次采集时加锁读取 coll 的条目数
func NewMetrics(reg prometheus.Registerer, coll *pending.Collection) (*Metrics, error) {
	m := &Metrics{
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_total",
			Help:      "Total filesystem notifications accepted into the pending queue",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Total batches stolen from the pending queue by the consumer",
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "changes_dispatched_total",
			Help:      "Total pending changes handed to the change handler",
		}),
	}

	pendingItems := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "pending_items",
		Help:      "Number of unique paths currently waiting in the pending queue",
	}, func() float64 {
		l := coll.Lock()
		defer l.Unlock()
		return float64(l.Size())
	})

	for _, c := range []prometheus.Collector{m.notifications, m.batches, m.dispatched, pendingItems} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) notified() {
	if m != nil {
		m.notifications.Inc()
	}
}

func (m *Metrics) stole(n int) {
	if m != nil {
		m.batches.Inc()
		m.dispatched.Add(float64(n))
	}
}
