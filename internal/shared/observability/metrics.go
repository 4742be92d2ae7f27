package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classfinder_parse_seconds",
		Help:    "Time spent parsing a single class file.",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	})

	ModulesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classfinder_modules_parsed_total",
		Help: "Total number of class files parsed successfully.",
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classfinder_parse_failures_total",
		Help: "Total number of class files rejected as malformed.",
	})

	RootsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classfinder_roots_opened_total",
		Help: "Total number of path roots realized into resolvers.",
	}, []string{"kind"})

	RootsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classfinder_roots_skipped_total",
		Help: "Total number of path roots skipped because they could not be opened.",
	})

	EnumerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classfinder_enumeration_seconds",
		Help:    "Time spent enumerating every module on the path.",
		Buckets: prometheus.DefBuckets,
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classfinder_query_seconds",
		Help:    "Time spent answering a session query.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classfinder_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	SessionRebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classfinder_session_rebuilds_total",
		Help: "Total number of sessions discarded and rebuilt after root changes.",
	})
)
