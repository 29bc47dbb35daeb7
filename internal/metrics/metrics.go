package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feraprompt_executions_total",
		Help: "Prompt executions by outcome.",
	}, []string{"outcome"})

	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feraprompt_webhook_duration_seconds",
		Help:    "Time spent waiting on the workflow webhook, by response status.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"status"})

	HistoryRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feraprompt_history_recorded_total",
		Help: "Execution history rows successfully written to the database.",
	})

	PDFRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feraprompt_pdf_renders_total",
		Help: "HTML to PDF conversions by outcome.",
	}, []string{"outcome"})

	PDFRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feraprompt_pdf_render_duration_seconds",
		Help:    "Time from browser launch to PDF bytes.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})

	BrowserProvisioningInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feraprompt_browser_provisioning_in_flight",
		Help: "Browser provisioning operations currently holding the gate (0 or 1).",
	})

	PromptsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feraprompt_prompts_total",
		Help: "Total number of prompts in the database.",
	})
)
