package pipeline

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus Metrics Definition
var (
	recordsRead = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triplens_records_read_total",
		Help: "Total number of records read from the source in the last run.",
	})
	recordsMatched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triplens_records_matched_total",
		Help: "Total number of records that passed all classifier predicates in the last run.",
	})
	recordsSkipped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triplens_records_skipped_total",
		Help: "Total number of matched records rejected for an out-of-range duration in the last run.",
	})
	hourTripCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_trip_count",
			Help: "Number of qualifying trips recorded for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
	hourDurationP50 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_duration_p50_seconds",
			Help: "Median trip duration for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
	hourDurationP90 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_duration_p90_seconds",
			Help: "90th percentile trip duration for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
	hourDurationP99 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_duration_p99_seconds",
			Help: "99th percentile trip duration for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
	hourDurationMean = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_duration_mean_seconds",
			Help: "Mean trip duration for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
	hourDurationMax = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "triplens_hour_duration_max_seconds",
			Help: "Maximum trip duration for a pickup hour in the last run.",
		},
		[]string{"hour"},
	)
)

// Reporter renders the end-of-run summary: a per-hour duration table on the
// writer, a log line with the totals, and the same figures published as
// prometheus gauges.
type Reporter struct {
	out    io.Writer
	logger *zap.Logger
}

// NewReporter creates a Reporter writing its table to out.
func NewReporter(out io.Writer, logger *zap.Logger) *Reporter {
	return &Reporter{out: out, logger: logger}
}

// Report publishes metrics for all 24 hours and prints the hours that saw
// at least one qualifying trip.
func (r *Reporter) Report(counts RunningCounts, acc *Accumulator) {
	recordsRead.Set(float64(counts.Read))
	recordsMatched.Set(float64(counts.Matched))
	recordsSkipped.Set(float64(counts.Skipped))

	fmt.Fprintf(r.out, "Midtown -> JFK weekday trips by pickup hour (durations in seconds)\n")
	fmt.Fprintf(r.out, "%4s  %8s  %8s  %8s  %8s  %8s  %8s\n",
		"hour", "trips", "p50", "p90", "p99", "mean", "max")

	for h := 0; h < hoursPerDay; h++ {
		view := acc.Hour(h)
		label := strconv.Itoa(h)

		n := view.TotalCount()
		hourTripCount.WithLabelValues(label).Set(float64(n))
		if n == 0 {
			hourDurationP50.WithLabelValues(label).Set(0)
			hourDurationP90.WithLabelValues(label).Set(0)
			hourDurationP99.WithLabelValues(label).Set(0)
			hourDurationMean.WithLabelValues(label).Set(0)
			hourDurationMax.WithLabelValues(label).Set(0)
			continue
		}

		p50 := view.ValueAtPercentile(50)
		p90 := view.ValueAtPercentile(90)
		p99 := view.ValueAtPercentile(99)
		mean := view.Mean()
		max := view.Max()

		hourDurationP50.WithLabelValues(label).Set(float64(p50))
		hourDurationP90.WithLabelValues(label).Set(float64(p90))
		hourDurationP99.WithLabelValues(label).Set(float64(p99))
		hourDurationMean.WithLabelValues(label).Set(mean)
		hourDurationMax.WithLabelValues(label).Set(float64(max))

		fmt.Fprintf(r.out, "%4d  %8d  %8d  %8d  %8d  %8.1f  %8d\n",
			h, n, p50, p90, p99, mean, max)
	}

	fmt.Fprintf(r.out, "\nread=%d matched=%d skipped=%d recorded=%d\n",
		counts.Read, counts.Matched, counts.Skipped, acc.TotalCount())

	r.logger.Sugar().Infow("Report complete",
		"read", counts.Read,
		"matched", counts.Matched,
		"skipped", counts.Skipped,
		"recorded", acc.TotalCount(),
	)
}
