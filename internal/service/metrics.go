package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsync_push_mutations_total",
		Help: "Mutations seen in push batches, by outcome.",
	}, []string{"result"})

	pushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitsync_push_duration_seconds",
		Help:    "Wall time spent replaying one push batch.",
		Buckets: prometheus.DefBuckets,
	})

	pullsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsync_pulls_total",
		Help: "Pull requests served.",
	})

	pullPatchOps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitsync_pull_patch_ops",
		Help:    "Patch operations returned per pull.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)
