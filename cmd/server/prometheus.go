package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/existential-ai/axon-sdk/simulator"
)

var (
	// Prometheus metrics (gauges)
	promMetrics = struct {
		virtualTime     prometheus.Gauge
		eventsProcessed prometheus.Gauge
		eventsCanceled  prometheus.Gauge
		predictions     prometheus.Gauge
		horizonExceeded prometheus.Gauge
		queueLength     prometheus.Gauge
		queueHighWater  prometheus.Gauge
		totalSpikes     prometheus.Gauge
	}{
		virtualTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_virtual_time_ms",
			Help: "Virtual time of the last processed event batch",
		}),
		eventsProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_events_processed",
			Help: "Total events popped and applied",
		}),
		eventsCanceled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_events_canceled",
			Help: "Provisional events invalidated before firing",
		}),
		predictions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_predictions_total",
			Help: "Spike-time predictor invocations",
		}),
		horizonExceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_predictions_horizon_exceeded",
			Help: "Predictions that found no crossing within the horizon",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_queue_length",
			Help: "Events currently pending in the queue",
		}),
		queueHighWater: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_queue_high_water",
			Help: "Peak pending event count seen this run",
		}),
		totalSpikes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axon_total_spikes",
			Help: "Spikes recorded across all neurons",
		}),
	}
)

func initPrometheusMetrics() {
	prometheus.MustRegister(
		promMetrics.virtualTime,
		promMetrics.eventsProcessed,
		promMetrics.eventsCanceled,
		promMetrics.predictions,
		promMetrics.horizonExceeded,
		promMetrics.queueLength,
		promMetrics.queueHighWater,
		promMetrics.totalSpikes,
	)
}

func updatePrometheusMetrics(metrics *simulator.Metrics) {
	promMetrics.virtualTime.Set(metrics.VirtualTime)
	promMetrics.eventsProcessed.Set(float64(metrics.EventsProcessed))
	promMetrics.eventsCanceled.Set(float64(metrics.EventsCanceled))
	promMetrics.predictions.Set(float64(metrics.Predictions))
	promMetrics.horizonExceeded.Set(float64(metrics.HorizonExceeded))
	promMetrics.queueLength.Set(float64(metrics.QueueLength))
	promMetrics.queueHighWater.Set(float64(metrics.QueueHighWater))
	promMetrics.totalSpikes.Set(float64(metrics.TotalSpikes))
}
