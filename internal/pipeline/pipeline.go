package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/triplens/internal/config"
	"github.com/sanspareilsmyn/triplens/internal/trip"
)

// RunningCounts tracks the scan totals: every record seen, records passing
// all classifier predicates, and matched records rejected for an
// out-of-range duration. matched >= skipped and read >= matched hold
// throughout a scan.
type RunningCounts struct {
	Read    int64
	Matched int64
	Skipped int64
}

// Pipeline drives one sequential pass over a record source: zone gate,
// timestamp parse, weekday gate, then the duration accumulator. It holds
// the running counts but no business logic of its own.
type Pipeline struct {
	source RecordSource
	acc    *Accumulator
	counts RunningCounts
	logger *zap.Logger
}

// New constructs the accumulator from cfg and wires it to source. An
// invalid analysis configuration is a fatal startup failure.
func New(cfg *config.Config, source RecordSource, logger *zap.Logger) (*Pipeline, error) {
	acc, err := NewAccumulator(cfg.Analysis)
	if err != nil {
		return nil, err
	}

	logger.Info("Pipeline initialized",
		zap.Int64("histogram_lower_bound_s", cfg.Analysis.HistogramLowerBound),
		zap.Int64("histogram_upper_bound_s", cfg.Analysis.HistogramUpperBound),
		zap.Int("significant_digits", cfg.Analysis.SignificantDigits),
		zap.Int64("min_trip_s", cfg.Analysis.MinTripSeconds),
	)

	return &Pipeline{
		source: source,
		acc:    acc,
		logger: logger,
	}, nil
}

// Run consumes the source to exhaustion. Decode failures and malformed
// timestamps on classified records abort the scan immediately;
// duration-range violations are counted as skipped, logged, and survived.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Starting scan...")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", p.counts.Read+1, err)
		}
		p.counts.Read++

		if err := p.process(rec); err != nil {
			return err
		}
	}

	sugar.Infow("Scan complete",
		"read", p.counts.Read,
		"matched", p.counts.Matched,
		"skipped", p.counts.Skipped,
	)
	return nil
}

// process runs one record through the gates. The zone predicates come
// first so that non-qualifying records never touch the timestamp parser;
// the weekday predicate needs the parsed pickup and runs after it.
func (p *Pipeline) process(rec trip.Record) error {
	if !IsMidtownPickup(rec.PickupZone) || !IsJFKDropoff(rec.DropoffZone) {
		return nil
	}

	pickup, err := trip.ParseTimestamp(rec.PickupTime)
	if err != nil {
		return fmt.Errorf("record %d: %w: %w", p.counts.Read, ErrMatchedTimestamp, err)
	}
	if !IsWeekday(pickup) {
		return nil
	}
	dropoff, err := trip.ParseTimestamp(rec.DropoffTime)
	if err != nil {
		return fmt.Errorf("record %d: %w: %w", p.counts.Read, ErrMatchedTimestamp, err)
	}
	p.counts.Matched++

	if err := p.acc.RecordTrip(pickup, dropoff); err != nil {
		var derr *DurationError
		if errors.As(err, &derr) {
			p.counts.Skipped++
			p.logger.Warn("Trip duration out of range, skipping record",
				zap.Int64("record", p.counts.Read),
				zap.Int64("duration_s", derr.Seconds),
				zap.String("reason", derr.Kind.String()),
				zap.String("pickup", pickup.String()),
			)
			return nil
		}
		return err
	}
	return nil
}

// Counts returns the running totals accumulated so far.
func (p *Pipeline) Counts() RunningCounts {
	return p.counts
}

// Histograms returns the per-hour duration accumulator for reporting.
func (p *Pipeline) Histograms() *Accumulator {
	return p.acc
}
