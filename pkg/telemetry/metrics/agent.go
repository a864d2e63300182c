package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/chaos/pkg/agent"
)

// SnapshotSource provides the agent state exported on each scrape.
type SnapshotSource interface {
	Snapshot() agent.Snapshot
}

// agentCollector is a prometheus.Collector that reads the agent's atomic
// counters at scrape time instead of mirroring them.
type agentCollector struct {
	source SnapshotSource

	requests           *prometheus.Desc
	faultsInjected     *prometheus.Desc
	injections         *prometheus.Desc
	experimentsEnabled *prometheus.Desc
	enabled            *prometheus.Desc
	draining           *prometheus.Desc
	maxAffectedPercent *prometheus.Desc
}

func newAgentCollector(namespace string, source SnapshotSource) *agentCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &agentCollector{
		source:             source,
		requests:           desc("requests_total", "Total number of requests evaluated"),
		faultsInjected:     desc("faults_injected_total", "Total number of faults injected, dry-run included"),
		injections:         desc("experiment_injections_total", "Faults injected per experiment", "experiment"),
		experimentsEnabled: desc("experiments_enabled", "Number of enabled experiments"),
		enabled:            desc("agent_enabled", "Whether fault injection is globally enabled (0/1)"),
		draining:           desc("agent_draining", "Whether the agent is draining (0/1)"),
		maxAffectedPercent: desc("max_affected_percent", "Configured maximum affected traffic percentage (not enforced)"),
	}
}

// Describe implements prometheus.Collector.
func (c *agentCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.faultsInjected
	ch <- c.injections
	ch <- c.experimentsEnabled
	ch <- c.enabled
	ch <- c.draining
	ch <- c.maxAffectedPercent
}

// Collect implements prometheus.Collector.
func (c *agentCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.faultsInjected, prometheus.CounterValue, float64(s.FaultsInjected))

	ids := make([]string, 0, len(s.Injections))
	for id := range s.Injections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ch <- prometheus.MustNewConstMetric(c.injections, prometheus.CounterValue, float64(s.Injections[id]), id)
	}

	ch <- prometheus.MustNewConstMetric(c.experimentsEnabled, prometheus.GaugeValue, float64(s.ExperimentsEnabled))
	ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, boolValue(s.Enabled))
	ch <- prometheus.MustNewConstMetric(c.draining, prometheus.GaugeValue, boolValue(s.Draining))
	ch <- prometheus.MustNewConstMetric(c.maxAffectedPercent, prometheus.GaugeValue, float64(s.MaxAffectedPercent))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
