package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns the process metrics. Registered once at startup and
// shared; all methods are safe for concurrent use.
type Collector struct {
	probesTotal     *prometheus.CounterVec
	probeDuration   prometheus.Histogram
	filesProcessed  prometheus.Counter
	scansDenied     prometheus.Counter
	keyActivations  *prometheus.CounterVec
	liveArchives    prometheus.Counter
	mailChecksTotal *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		probesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bottele_probes_total",
			Help: "Probe attempts by target and verdict",
		}, []string{"target", "status"}),
		probeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bottele_probe_duration_seconds",
			Help:    "Wall time of individual probes",
			Buckets: prometheus.DefBuckets,
		}),
		filesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bottele_files_processed_total",
			Help: "Cookie containers processed across all scans",
		}),
		scansDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bottele_scans_denied_total",
			Help: "Scan requests rejected by the quota tracker",
		}),
		keyActivations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bottele_key_activations_total",
			Help: "License key activation attempts by outcome",
		}, []string{"result"}),
		liveArchives: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bottele_live_archives_total",
			Help: "Live-cookie export archives produced",
		}),
		mailChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bottele_mail_checks_total",
			Help: "Webmail credential checks by outcome",
		}, []string{"result"}),
	}
}

func (c *Collector) RecordProbe(target, status string) {
	c.probesTotal.WithLabelValues(target, status).Inc()
}

func (c *Collector) ObserveProbeDuration(seconds float64) {
	c.probeDuration.Observe(seconds)
}

func (c *Collector) RecordFilesProcessed(n int) {
	c.filesProcessed.Add(float64(n))
}

func (c *Collector) RecordScanDenied() {
	c.scansDenied.Inc()
}

func (c *Collector) RecordKeyActivation(result string) {
	c.keyActivations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLiveArchive() {
	c.liveArchives.Inc()
}

func (c *Collector) RecordMailCheck(result string) {
	c.mailChecksTotal.WithLabelValues(result).Inc()
}
