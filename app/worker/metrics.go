package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion task outcomes partitioned by job type and result
	ingestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arc_ingest_jobs_total",
			Help: "Total number of ingestion tasks processed, by job type and result",
		},
		[]string{"type", "result"},
	)

	// Record-level outcomes across all batches, by job type
	ingestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arc_ingest_records_total",
			Help: "Total number of fetched records processed, by job type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func recordJobResult(jobType, result string) {
	ingestJobsTotal.WithLabelValues(jobType, result).Inc()
}

func recordBatchCounts(jobType string, written, failed int) {
	ingestRecordsTotal.WithLabelValues(jobType, "written").Add(float64(written))
	ingestRecordsTotal.WithLabelValues(jobType, "failed").Add(float64(failed))
}
