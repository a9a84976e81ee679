package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GateScanMetrics records barcode scan outcomes at campus gates.
type GateScanMetrics struct {
	scans     *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewGateScanMetrics registers the gate scan metrics on the provided registerer.
func NewGateScanMetrics(reg prometheus.Registerer) *GateScanMetrics {
	if reg == nil {
		return &GateScanMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_scans_total",
		Help: "Gate barcode scans by scan type and outcome.",
	}, []string{"scan_type", "outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gate_scan_version_conflicts_total",
		Help: "Optimistic version conflicts hit while recording scans.",
	})
	reg.MustRegister(scans, conflicts)
	return &GateScanMetrics{
		scans:     scans,
		conflicts: conflicts,
	}
}

// IncScan increments the scan counter for the given scan type and outcome.
func (g *GateScanMetrics) IncScan(scanType, outcome string) {
	if g == nil || g.scans == nil {
		return
	}
	g.scans.WithLabelValues(normalizeLabel(scanType), normalizeLabel(outcome)).Inc()
}

// IncConflict increments the version conflict counter.
func (g *GateScanMetrics) IncConflict() {
	if g == nil || g.conflicts == nil {
		return
	}
	g.conflicts.Inc()
}
