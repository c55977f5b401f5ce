package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ListingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_listings_created_total",
		Help: "Total number of listings successfully created.",
	})

	ListingsClaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_listings_claimed_total",
		Help: "Total number of listings successfully claimed by a charity.",
	})

	ListingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_listing_transitions_total",
		Help: "Total number of committed listing status transitions by target status.",
	},
		[]string{"to"},
	)

	RequestsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_requests_created_total",
		Help: "Total number of charity requests successfully created.",
	})

	DonationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_donations_total",
		Help: "Total number of donations appended to request ledgers.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation", "kind"},
	)

	TxRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_tx_retries_total",
		Help: "Total number of transactions retried after a transient database error.",
	},
		[]string{"operation"},
	)

	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_notifications_dropped_total",
		Help: "Total number of status-change notifications dropped because the queue was full.",
	})

	OutboxPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodshare_outbox_published_total",
		Help: "Total number of outbox tasks delivered to the broker.",
	})

	OpenListingsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodshare_open_listings_cached",
		Help: "Current number of listings in the open-listing cache.",
	})
)
