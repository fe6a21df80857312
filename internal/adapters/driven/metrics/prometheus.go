// Package metrics provides a Prometheus implementation of the driven
// Metrics port. Collectors are registered on a private registry that the
// serve command exposes over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

// Ensure Collector implements the interface.
var _ driven.Metrics = (*Collector)(nil)

// Collector records licence activity.
type Collector struct {
	registry *prometheus.Registry

	issueTotal   *prometheus.CounterVec
	redeemTotal  *prometheus.CounterVec
	sweepTotal   *prometheus.CounterVec
	sweepRemoved prometheus.Counter
	activeGrants prometheus.Gauge
}

// NewCollector creates a collector under namespace, "tollgate" if empty.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "tollgate"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.issueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "license",
			Name:      "issue_total",
			Help:      "Licence issuance attempts by outcome",
		},
		[]string{"outcome"},
	)

	c.redeemTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "license",
			Name:      "redeem_total",
			Help:      "Licence redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	c.sweepTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Grant expiry sweeps by result",
		},
		[]string{"result"},
	)

	c.sweepRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "evicted_grants_total",
			Help:      "Expired grants removed by the sweeper",
		},
	)

	c.activeGrants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grants",
			Name:      "active",
			Help:      "Grants active at the last observation",
		},
	)

	c.registry.MustRegister(
		c.issueTotal,
		c.redeemTotal,
		c.sweepTotal,
		c.sweepRemoved,
		c.activeGrants,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// IssueObserved counts an issuance attempt.
func (c *Collector) IssueObserved(outcome string) {
	c.issueTotal.WithLabelValues(outcome).Inc()
}

// RedeemObserved counts a redemption attempt.
func (c *Collector) RedeemObserved(outcome string) {
	c.redeemTotal.WithLabelValues(outcome).Inc()
}

// SweepObserved records one sweep.
func (c *Collector) SweepObserved(removed int, err error) {
	if err != nil {
		c.sweepTotal.WithLabelValues("error").Inc()
		return
	}
	c.sweepTotal.WithLabelValues("ok").Inc()
	c.sweepRemoved.Add(float64(removed))
}

// ActiveGrants sets the active grant gauge.
func (c *Collector) ActiveGrants(n int) {
	c.activeGrants.Set(float64(n))
}
