package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PlanGenerations counts finished plan generations by source (ai, fallback, failed).
	PlanGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kailendar",
		Name:      "plan_generations_total",
		Help:      "Plan generations by source.",
	}, []string{"source"})

	// GenerationParseFailures counts generative outputs rejected by the parser.
	GenerationParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kailendar",
		Name:      "generation_parse_failures_total",
		Help:      "Generative outputs rejected by the plan parser, by kind.",
	}, []string{"kind"})

	// CalendarSyncs counts per-task calendar operations by result (created, updated, failed).
	CalendarSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kailendar",
		Name:      "calendar_sync_total",
		Help:      "Per-task calendar sync operations by result.",
	}, []string{"result"})

	// CalendarDeleteFailures counts swallowed calendar event deletions.
	CalendarDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kailendar",
		Name:      "calendar_delete_failures_total",
		Help:      "Calendar event deletions that failed and were ignored.",
	})

	// GenerationJobs counts durable generation jobs by terminal state.
	GenerationJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kailendar",
		Name:      "generation_jobs_total",
		Help:      "Generation jobs by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
