package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/esencia/internal/domain/inventory"
)

type Metrics struct {
	Productions   prometheus.Counter
	ProducedUnits prometheus.Counter
	Sales         prometheus.Counter
	SoldUnits     prometheus.Counter
	Rejections    *prometheus.CounterVec
	SaleMargin    prometheus.Histogram
	LowStockItems prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Productions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esencia_productions_total",
			Help: "Committed production runs.",
		}),
		ProducedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esencia_produced_units_total",
			Help: "Finished units credited by production.",
		}),
		Sales: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esencia_sales_total",
			Help: "Committed sales.",
		}),
		SoldUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esencia_sold_units_total",
			Help: "Finished units debited by sales.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esencia_rejections_total",
			Help: "Productions and sales rejected for insufficient stock.",
		}, []string{"operation"}),
		SaleMargin: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "esencia_sale_margin_percent",
			Help:    "Profit margin of committed sales.",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		LowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "esencia_low_stock_items",
			Help: "Materials and packaging below their alert threshold.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.Productions, m.ProducedUnits, m.Sales, m.SoldUnits, m.Rejections, m.SaleMargin, m.LowStockItems,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hook feeds the collectors from store commits.
func (m *Metrics) Hook() inventory.HookFunc {
	return func(ev inventory.Event) error {
		switch ev.Type {
		case inventory.EventProduced:
			m.Productions.Inc()
			if ev.Production != nil {
				m.ProducedUnits.Add(float64(ev.Production.TargetUnits))
			}
		case inventory.EventSold:
			m.Sales.Inc()
			if ev.Sale != nil {
				m.SoldUnits.Add(float64(ev.Sale.Units))
				m.SaleMargin.Observe(ev.Sale.Margin)
			}
		case inventory.EventRejected:
			if ev.Rejection != nil {
				m.Rejections.WithLabelValues(ev.Rejection.Operation).Inc()
			}
			return nil
		}

		low := 0
		for _, mat := range ev.Snapshot.Materials {
			if mat.IsLow() {
				low++
			}
		}
		for _, p := range ev.Snapshot.Packaging {
			if p.IsLow() {
				low++
			}
		}
		m.LowStockItems.Set(float64(low))
		return nil
	}
}
