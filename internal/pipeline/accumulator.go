package pipeline

import (
	"fmt"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/sanspareilsmyn/triplens/internal/config"
	"github.com/sanspareilsmyn/triplens/internal/trip"
)

const hoursPerDay = 24

// DurationErrorKind classifies why a trip duration was rejected.
type DurationErrorKind int

const (
	// DurationNonPositive: the dropoff is at or before the pickup.
	DurationNonPositive DurationErrorKind = iota
	// DurationTooShort: below the minimum plausible trip length.
	DurationTooShort
	// DurationTooLong: above the histogram upper bound.
	DurationTooLong
)

func (k DurationErrorKind) String() string {
	switch k {
	case DurationNonPositive:
		return "non_positive"
	case DurationTooShort:
		return "too_short"
	case DurationTooLong:
		return "too_long"
	}
	return "unknown"
}

// DurationError reports a trip duration outside the acceptable range. It is
// the one recoverable per-record error in a scan: the pipeline counts the
// record as skipped and moves on.
type DurationError struct {
	Kind    DurationErrorKind
	Seconds int64
}

func (e *DurationError) Error() string {
	switch e.Kind {
	case DurationNonPositive:
		return fmt.Sprintf("trip duration %ds is not positive", e.Seconds)
	case DurationTooShort:
		return fmt.Sprintf("trip duration %ds is below the minimum", e.Seconds)
	case DurationTooLong:
		return fmt.Sprintf("trip duration %ds exceeds the histogram upper bound", e.Seconds)
	}
	return fmt.Sprintf("trip duration %ds is out of range", e.Seconds)
}

// Accumulator holds one bounded duration histogram per pickup hour of day.
// Durations distribute very differently across the day (rush hour against
// off-peak), so splitting at write time saves a second pass when reporting
// per-hour summaries.
//
// Not safe for concurrent use; the pipeline owns it for the whole scan.
type Accumulator struct {
	cfg   config.AnalysisConfig
	hours [hoursPerDay]*hdrhistogram.Histogram
}

// NewAccumulator validates cfg and constructs 24 empty histograms sharing
// the same bounds and precision. Validation front-runs hdrhistogram.New,
// which panics on significant digits outside 1..5.
func NewAccumulator(cfg config.AnalysisConfig) (*Accumulator, error) {
	switch {
	case cfg.HistogramLowerBound <= 0 || cfg.HistogramUpperBound <= 0:
		return nil, fmt.Errorf("%w: %w", ErrAccumulatorConfig, config.ErrNonPositiveHistogramBound)
	case cfg.HistogramLowerBound >= cfg.HistogramUpperBound:
		return nil, fmt.Errorf("%w: %w", ErrAccumulatorConfig, config.ErrInvertedHistogramBounds)
	case cfg.SignificantDigits < 1 || cfg.SignificantDigits > 5:
		return nil, fmt.Errorf("%w: %w", ErrAccumulatorConfig, config.ErrInvalidSignificantDigits)
	case cfg.MinTripSeconds <= 0:
		return nil, fmt.Errorf("%w: %w", ErrAccumulatorConfig, config.ErrNonPositiveMinTripSeconds)
	}

	a := &Accumulator{cfg: cfg}
	for h := range a.hours {
		a.hours[h] = hdrhistogram.New(cfg.HistogramLowerBound, cfg.HistogramUpperBound, cfg.SignificantDigits)
	}
	return a, nil
}

// RecordTrip computes the trip duration in whole seconds and records it in
// the histogram for the pickup hour. Out-of-range durations return a
// *DurationError and leave every counter untouched. A dropoff at or before
// the pickup is rejected explicitly rather than wrapped into a huge
// unsigned value.
func (a *Accumulator) RecordTrip(pickup, dropoff trip.Timestamp) error {
	d := trip.SecondsBetween(pickup, dropoff)
	switch {
	case d <= 0:
		return &DurationError{Kind: DurationNonPositive, Seconds: d}
	case d < a.cfg.MinTripSeconds:
		return &DurationError{Kind: DurationTooShort, Seconds: d}
	case d > a.cfg.HistogramUpperBound:
		return &DurationError{Kind: DurationTooLong, Seconds: d}
	}

	if err := a.hours[pickup.Hour()].RecordValue(d); err != nil {
		// Bounds were checked above; reaching here is a programming error.
		return fmt.Errorf("%w: %w", ErrHistogramRecord, err)
	}
	return nil
}

// TotalCount returns the number of trips recorded across all hours.
func (a *Accumulator) TotalCount() int64 {
	var n int64
	for _, h := range a.hours {
		n += h.TotalCount()
	}
	return n
}

// Hour returns a read-only view of the histogram for hour h (0 through 23).
func (a *Accumulator) Hour(h int) HourView {
	return HourView{hist: a.hours[h]}
}

// HourView exposes the per-hour summary queries the reporter needs without
// handing out the histogram itself.
type HourView struct {
	hist *hdrhistogram.Histogram
}

func (v HourView) TotalCount() int64 {
	return v.hist.TotalCount()
}

// ValueAtPercentile returns the duration in seconds at percentile p (0-100).
func (v HourView) ValueAtPercentile(p float64) int64 {
	return v.hist.ValueAtQuantile(p)
}

func (v HourView) Mean() float64 {
	return v.hist.Mean()
}

func (v HourView) Max() int64 {
	return v.hist.Max()
}
