package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks listing pages successfully rendered.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techjobs_pages_fetched_total",
		Help: "The total number of listing pages fetched, per source.",
	}, []string{"source"})
	// FetchErrors tracks sources whose fetch failed after retries.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techjobs_fetch_errors_total",
		Help: "The total number of fetch failures after retry exhaustion.",
	}, []string{"source"})
	// PostingsExtracted tracks postings parsed out of raw pages.
	PostingsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techjobs_postings_extracted_total",
		Help: "The total number of postings extracted, per source.",
	}, []string{"source"})
	// PostingsNew tracks postings that survived deduplication.
	PostingsNew = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techjobs_postings_new_total",
		Help: "The total number of postings not present in the seen store.",
	}, []string{"source"})
	// NotificationsSent tracks successful deliveries.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techjobs_notifications_sent_total",
		Help: "The total number of notifications delivered.",
	})
	// NotificationsFailed tracks deliveries that failed but were committed.
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techjobs_notifications_failed_total",
		Help: "The total number of notify-failed-but-committed events.",
	})
)
