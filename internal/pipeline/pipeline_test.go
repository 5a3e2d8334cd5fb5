package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/triplens/internal/config"
	"github.com/sanspareilsmyn/triplens/internal/trip"
)

// fakeSource replays a fixed record slice and can inject a decode failure
// at a given 1-based position.
type fakeSource struct {
	records []trip.Record
	failAt  int
	i       int
}

func (s *fakeSource) Next() (trip.Record, error) {
	s.i++
	if s.failAt != 0 && s.i == s.failAt {
		return trip.Record{}, fmt.Errorf("%w: synthetic failure", ErrSourceDecode)
	}
	if s.i > len(s.records) {
		return trip.Record{}, io.EOF
	}
	return s.records[s.i-1], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{
			HistogramLowerBound: 1,
			HistogramUpperBound: 10800,
			SignificantDigits:   3,
			MinTripSeconds:      1200,
		},
	}
}

func runPipeline(t *testing.T, source RecordSource) (*Pipeline, error) {
	t.Helper()
	pipe, err := New(testConfig(), source, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return pipe, pipe.Run(context.Background())
}

func TestPipelineQualifyingTrip(t *testing.T) {
	// Monday pickup, midtown zone, JFK dropoff, 1800s duration.
	src := &fakeSource{records: []trip.Record{
		{PickupTime: "2021-06-07 09:15:00", DropoffTime: "2021-06-07 09:45:00", PickupZone: 161, DropoffZone: 132},
	}}

	pipe, err := runPipeline(t, src)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := pipe.Counts()
	if counts != (RunningCounts{Read: 1, Matched: 1, Skipped: 0}) {
		t.Errorf("Counts() = %+v, want read=1 matched=1 skipped=0", counts)
	}
	if got := pipe.Histograms().Hour(9).TotalCount(); got != 1 {
		t.Errorf("hour 9 count = %d, want 1", got)
	}
}

func TestPipelineShortTripSkipped(t *testing.T) {
	// Same trip but only 300 seconds long: classified, then rejected.
	src := &fakeSource{records: []trip.Record{
		{PickupTime: "2021-06-07 09:15:00", DropoffTime: "2021-06-07 09:20:00", PickupZone: 161, DropoffZone: 132},
	}}

	pipe, err := runPipeline(t, src)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := pipe.Counts()
	if counts != (RunningCounts{Read: 1, Matched: 1, Skipped: 1}) {
		t.Errorf("Counts() = %+v, want read=1 matched=1 skipped=1", counts)
	}
	if got := pipe.Histograms().TotalCount(); got != 0 {
		t.Errorf("TotalCount() = %d, want 0", got)
	}
}

func TestPipelineZoneGateSkipsParsing(t *testing.T) {
	// Non-midtown pickup: the record must never reach the timestamp parser,
	// so garbage timestamps cannot be fatal here.
	src := &fakeSource{records: []trip.Record{
		{PickupTime: "not-a-date", DropoffTime: "also-not-a-date", PickupZone: 1, DropoffZone: 132},
	}}

	pipe, err := runPipeline(t, src)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := pipe.Counts()
	if counts != (RunningCounts{Read: 1, Matched: 0, Skipped: 0}) {
		t.Errorf("Counts() = %+v, want read=1 matched=0 skipped=0", counts)
	}
}

func TestPipelineWeekendNotMatched(t *testing.T) {
	// Saturday pickup with qualifying zones.
	src := &fakeSource{records: []trip.Record{
		{PickupTime: "2021-06-12 09:15:00", DropoffTime: "2021-06-12 09:45:00", PickupZone: 161, DropoffZone: 132},
	}}

	pipe, err := runPipeline(t, src)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := pipe.Counts()
	if counts != (RunningCounts{Read: 1, Matched: 0, Skipped: 0}) {
		t.Errorf("Counts() = %+v, want read=1 matched=0 skipped=0", counts)
	}
}

func TestPipelineDecodeErrorFatal(t *testing.T) {
	src := &fakeSource{
		records: []trip.Record{
			{PickupTime: "2021-06-07 09:15:00", DropoffTime: "2021-06-07 09:45:00", PickupZone: 161, DropoffZone: 132},
			{PickupTime: "2021-06-07 10:15:00", DropoffTime: "2021-06-07 10:45:00", PickupZone: 162, DropoffZone: 132},
		},
		failAt: 2,
	}

	pipe, err := runPipeline(t, src)
	if !errors.Is(err, ErrSourceDecode) {
		t.Fatalf("Run() error = %v, want ErrSourceDecode", err)
	}

	// Nothing past the failing record was processed.
	if got := pipe.Counts().Read; got != 1 {
		t.Errorf("Counts().Read = %d, want 1", got)
	}
}

func TestPipelineParseErrorFatal(t *testing.T) {
	tests := []struct {
		name    string
		pickup  string
		dropoff string
	}{
		{"BadPickup", "2021-06-07 99:15:00", "2021-06-07 09:45:00"},
		{"BadDropoff", "2021-06-07 09:15:00", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{records: []trip.Record{
				{PickupTime: tt.pickup, DropoffTime: tt.dropoff, PickupZone: 161, DropoffZone: 132},
			}}

			_, err := runPipeline(t, src)
			if !errors.Is(err, ErrMatchedTimestamp) {
				t.Errorf("Run() error = %v, want ErrMatchedTimestamp", err)
			}
			if !errors.Is(err, trip.ErrBadTimestamp) {
				t.Errorf("Run() error = %v, want wrapped ErrBadTimestamp", err)
			}
		})
	}
}

func TestPipelineInvalidConfigFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.SignificantDigits = 9

	_, err := New(cfg, &fakeSource{}, zap.NewNop())
	if !errors.Is(err, ErrAccumulatorConfig) {
		t.Errorf("New() error = %v, want ErrAccumulatorConfig", err)
	}
}

func TestPipelineContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipe, err := New(testConfig(), &fakeSource{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := pipe.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestPipelineIdempotence(t *testing.T) {
	records := []trip.Record{
		{PickupTime: "2021-06-07 09:15:00", DropoffTime: "2021-06-07 09:45:00", PickupZone: 161, DropoffZone: 132},
		{PickupTime: "2021-06-07 09:20:00", DropoffTime: "2021-06-07 09:25:00", PickupZone: 230, DropoffZone: 132},
		{PickupTime: "2021-06-08 17:00:00", DropoffTime: "2021-06-08 18:10:00", PickupZone: 90, DropoffZone: 132},
		{PickupTime: "2021-06-12 09:15:00", DropoffTime: "2021-06-12 09:45:00", PickupZone: 161, DropoffZone: 132},
		{PickupTime: "whatever", DropoffTime: "whatever", PickupZone: 7, DropoffZone: 9},
	}

	run := func() (*Pipeline, error) {
		recs := make([]trip.Record, len(records))
		copy(recs, records)
		return runPipeline(t, &fakeSource{records: recs})
	}

	first, err := run()
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := run()
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.Counts() != second.Counts() {
		t.Errorf("counts differ across runs: %+v vs %+v", first.Counts(), second.Counts())
	}
	for h := 0; h < 24; h++ {
		a := first.Histograms().Hour(h)
		b := second.Histograms().Hour(h)
		if a.TotalCount() != b.TotalCount() {
			t.Errorf("hour %d count differs: %d vs %d", h, a.TotalCount(), b.TotalCount())
			continue
		}
		if a.TotalCount() == 0 {
			continue
		}
		for _, p := range []float64{50, 90, 99} {
			if a.ValueAtPercentile(p) != b.ValueAtPercentile(p) {
				t.Errorf("hour %d p%.0f differs: %d vs %d", h, p, a.ValueAtPercentile(p), b.ValueAtPercentile(p))
			}
		}
	}
}

func TestPipelineEndToEndCSV(t *testing.T) {
	input := "tpep_pickup_datetime,tpep_dropoff_datetime,PULocationID,DOLocationID\n" +
		// Monday, qualifying, 1800s -> hour 9
		"2021-06-07 09:15:00,2021-06-07 09:45:00,161,132\n" +
		// Monday, qualifying, 300s -> skipped
		"2021-06-07 09:20:00,2021-06-07 09:25:00,234,132\n" +
		// wrong dropoff zone
		"2021-06-07 09:30:00,2021-06-07 10:00:00,161,1\n" +
		// Tuesday, qualifying, 4200s -> hour 17
		"2021-06-08 17:05:00,2021-06-08 18:15:00,100,132\n"

	src := NewCSVSource(strings.NewReader(input), zap.NewNop())
	pipe, err := runPipeline(t, src)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := pipe.Counts()
	if counts != (RunningCounts{Read: 4, Matched: 3, Skipped: 1}) {
		t.Errorf("Counts() = %+v, want read=4 matched=3 skipped=1", counts)
	}
	if got := pipe.Histograms().Hour(9).TotalCount(); got != 1 {
		t.Errorf("hour 9 count = %d, want 1", got)
	}
	if got := pipe.Histograms().Hour(17).TotalCount(); got != 1 {
		t.Errorf("hour 17 count = %d, want 1", got)
	}
	if got := pipe.Histograms().TotalCount(); got != 2 {
		t.Errorf("TotalCount() = %d, want 2", got)
	}
}
