package models

type MetricName string

// Counts
const (
	MetricName_MovieQueued      MetricName = "movie_queued"
	MetricName_MovieReady       MetricName = "movie_ready"
	MetricName_MovieFailed      MetricName = "movie_failed"
	MetricName_MovieRebuilt     MetricName = "movie_rebuilt"
	MetricName_MovieImported    MetricName = "movie_imported"
	MetricName_MovieArchived    MetricName = "movie_archived"
	MetricName_CapacityRejected MetricName = "capacity_rejected"
	MetricName_SubmitWarning    MetricName = "submit_warning"
	MetricName_HistoryEvicted   MetricName = "history_evicted"
	MetricName_StatusPoll       MetricName = "status_poll"
)

// Distributions
const (
	MetricName_QueueEta MetricName = "queue_eta"
)

const MetricsCallerName = "go-movies"
