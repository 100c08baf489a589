package monitor

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes link health and the board's reported power state for
// scraping. Rail gauges make a slow drift visible on a dashboard long
// before it trips a profile bound.
type Metrics struct {
	frames     *prometheus.CounterVec
	crcErrors  prometheus.Counter
	resyncs    prometheus.Counter
	missed     prometheus.Counter
	faults     *prometheus.CounterVec
	mismatches *prometheus.CounterVec

	commitScale prometheus.Gauge
	commitPolls *prometheus.GaugeVec

	railMicrovolts *prometheus.GaugeVec
	railMicroamps  *prometheus.GaugeVec
	railMicrowatts *prometheus.GaugeVec
}

// NewMetrics constructs Metrics; a nil reg registers on the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gopwr_frames_total",
			Help: "Telemetry frames decoded, by record type",
		}, []string{"type"}),
		crcErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gopwr_crc_errors_total",
			Help: "Frames dropped for a CRC mismatch",
		}),
		resyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gopwr_resyncs_total",
			Help: "Times the decoder lost frame sync and rescanned",
		}),
		missed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gopwr_missed_frames_total",
			Help: "Frames lost to sequence gaps",
		}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gopwr_board_faults_total",
			Help: "Supply faults the board reported before halting",
		}, []string{"kind"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gopwr_profile_mismatches_total",
			Help: "Board reports that disagreed with the profile",
		}, []string{"check"}),
		commitScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gopwr_commit_scale",
			Help: "Voltage scale index the board reported (0 = overdrive)",
		}),
		commitPolls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gopwr_commit_polls",
			Help: "Readiness polls the commit spent, by stage",
		}, []string{"stage"}),
		railMicrovolts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gopwr_rail_microvolts",
			Help: "Last reported rail voltage",
		}, []string{"rail"}),
		railMicroamps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gopwr_rail_microamps",
			Help: "Last reported rail current",
		}, []string{"rail"}),
		railMicrowatts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gopwr_rail_microwatts",
			Help: "Last reported rail power",
		}, []string{"rail"}),
	}
	reg.MustRegister(
		m.frames, m.crcErrors, m.resyncs, m.missed, m.faults, m.mismatches,
		m.commitScale, m.commitPolls,
		m.railMicrovolts, m.railMicroamps, m.railMicrowatts,
	)
	return m
}

func (m *Metrics) countFrame(recordType string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(recordType).Inc()
}

func (m *Metrics) addLink(crcErrors, resyncs, missed uint64) {
	if m == nil {
		return
	}
	if crcErrors > 0 {
		m.crcErrors.Add(float64(crcErrors))
	}
	if resyncs > 0 {
		m.resyncs.Add(float64(resyncs))
	}
	if missed > 0 {
		m.missed.Add(float64(missed))
	}
}

func (m *Metrics) setCommit(scale int, domainPolls, scalePolls, overdrivePolls uint32) {
	if m == nil {
		return
	}
	m.commitScale.Set(float64(scale))
	m.commitPolls.WithLabelValues("domain").Set(float64(domainPolls))
	m.commitPolls.WithLabelValues("scale").Set(float64(scalePolls))
	m.commitPolls.WithLabelValues("overdrive").Set(float64(overdrivePolls))
}

func (m *Metrics) setRail(rail string, microvolts, microamps, microwatts int32) {
	if m == nil {
		return
	}
	m.railMicrovolts.WithLabelValues(rail).Set(float64(microvolts))
	m.railMicroamps.WithLabelValues(rail).Set(float64(microamps))
	m.railMicrowatts.WithLabelValues(rail).Set(float64(microwatts))
}

func (m *Metrics) countFault(kind string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(kind).Inc()
}

func (m *Metrics) countMismatch(check string) {
	if m == nil {
		return
	}
	m.mismatches.WithLabelValues(check).Inc()
}
