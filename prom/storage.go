package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DataExists = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_exist_requests_total",
		Help: "The total number of object existence checks performed",
	})
	DataUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_upload_requests_total",
		Help: "The total number of object uploads performed",
	})
	DataUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_uploaded_bytes_total",
		Help: "The total number of bytes uploaded",
	})
	DataDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_download_requests_total",
		Help: "The total number of object fetches performed",
	})
	DataDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_downloaded_bytes_total",
		Help: "The total number of bytes downloaded",
	})
	DataDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_delete_requests_total",
		Help: "The total number of object deletes performed",
	})
	CacheLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_cache_lookups_total",
		Help: "The total number of data cache lookups performed",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_data_cache_hits_total",
		Help: "The total number of data cache hits",
	})
	StorageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_storage_op_duration",
		Help:    "Duration of a storage operation",
		Buckets: []float64{.005, .01, .025, .050, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "result"})
)
