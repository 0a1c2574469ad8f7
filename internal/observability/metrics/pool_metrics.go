package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics exports pool demand gauges refreshed by the stats worker.
type PoolMetrics struct {
	pledgedSeats  *prometheus.GaugeVec
	verifiedSeats *prometheus.GaugeVec
	pledgeCount   *prometheus.GaugeVec
}

var (
	poolMetricsOnce sync.Once
	poolMetrics     *PoolMetrics
)

// Pool returns the process-wide pool metrics, registering on first use.
func Pool() *PoolMetrics {
	poolMetricsOnce.Do(func() {
		poolMetrics = newPoolMetrics(prometheus.DefaultRegisterer)
	})
	return poolMetrics
}

// ResetPoolMetricsForTest clears the singleton so tests can re-register
// against a fresh registry.
func ResetPoolMetricsForTest() {
	poolMetricsOnce = sync.Once{}
	poolMetrics = nil
}

func newPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	m := &PoolMetrics{
		pledgedSeats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_pledged_seats",
			Help: "Total seats pledged to a pool.",
		}, []string{"pool"}),
		verifiedSeats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_verified_seats",
			Help: "Seats pledged by builders verified at pledge time.",
		}, []string{"pool"}),
		pledgeCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_pledge_count",
			Help: "Number of pledges in a pool.",
		}, []string{"pool"}),
	}
	reg.MustRegister(m.pledgedSeats, m.verifiedSeats, m.pledgeCount)
	return m
}

// Observe sets the demand gauges for one pool.
func (m *PoolMetrics) Observe(slug string, pledgedSeats, verifiedSeats, pledgeCount int) {
	if m == nil {
		return
	}
	m.pledgedSeats.WithLabelValues(slug).Set(float64(pledgedSeats))
	m.verifiedSeats.WithLabelValues(slug).Set(float64(verifiedSeats))
	m.pledgeCount.WithLabelValues(slug).Set(float64(pledgeCount))
}
