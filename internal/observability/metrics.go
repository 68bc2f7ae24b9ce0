package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gtm_tracker",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity written to Postgres.",
	})
	commandCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm_tracker",
		Subsystem: "slack",
		Name:      "commands_total",
		Help:      "Slash commands handled, labeled by command name.",
	}, []string{"command"})
	interactionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm_tracker",
		Subsystem: "slack",
		Name:      "interactions_total",
		Help:      "Interaction callbacks handled, labeled by event kind.",
	}, []string{"kind"})
	notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm_tracker",
		Subsystem: "slack",
		Name:      "notifications_total",
		Help:      "Creation notifications attempted, labeled by outcome.",
	}, []string{"outcome"})
	importedRowsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm_tracker",
		Subsystem: "importer",
		Name:      "rows_imported_total",
		Help:      "CSV rows turned into persisted activities.",
	})
	skippedRowsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm_tracker",
		Subsystem: "importer",
		Name:      "rows_skipped_total",
		Help:      "CSV rows skipped for a missing hypothesis or a row-local failure.",
	})
)

func init() {
	prometheus.MustRegister(
		activityPersistGauge,
		commandCounter,
		interactionCounter,
		notificationCounter,
		importedRowsCounter,
		skippedRowsCounter,
	)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordCommand counts a handled slash command.
func RecordCommand(command string) {
	commandCounter.WithLabelValues(command).Inc()
}

// RecordInteraction counts a handled interaction callback.
func RecordInteraction(kind string) {
	interactionCounter.WithLabelValues(kind).Inc()
}

// RecordNotification counts a notification attempt by outcome.
func RecordNotification(outcome string) {
	notificationCounter.WithLabelValues(outcome).Inc()
}

// RecordImportedRow counts one successfully imported CSV row.
func RecordImportedRow() {
	importedRowsCounter.Inc()
}

// RecordSkippedRow counts one skipped CSV row.
func RecordSkippedRow() {
	skippedRowsCounter.Inc()
}
