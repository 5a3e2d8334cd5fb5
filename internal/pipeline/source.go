package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/triplens/internal/trip"
)

// RecordSource yields decoded trip records one at a time, in source order.
// Next returns io.EOF once the source is exhausted; any other error is a
// decode failure and fatal to the scan.
type RecordSource interface {
	Next() (trip.Record, error)
}

// Column names in the TLC yellow-cab trip data export.
const (
	colPickupTime  = "tpep_pickup_datetime"
	colDropoffTime = "tpep_dropoff_datetime"
	colPickupZone  = "PULocationID"
	colDropoffZone = "DOLocationID"
)

// CSVSource reads trip records from a CSV stream. The four required columns
// are resolved from the header row, so column order does not matter and
// extra columns are ignored. The caller owns the underlying reader.
type CSVSource struct {
	reader     *csv.Reader
	logger     *zap.Logger
	fields     fieldIndexes
	headerRead bool
}

type fieldIndexes struct {
	pickupTime  int
	dropoffTime int
	pickupZone  int
	dropoffZone int
}

// NewCSVSource wraps r in a record source.
func NewCSVSource(r io.Reader, logger *zap.Logger) *CSVSource {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	return &CSVSource{reader: cr, logger: logger}
}

// Next returns the next decoded record, io.EOF at end of input, or a
// decode error wrapping ErrSourceDecode.
func (s *CSVSource) Next() (trip.Record, error) {
	if !s.headerRead {
		if err := s.readHeader(); err != nil {
			return trip.Record{}, err
		}
		s.headerRead = true
	}

	row, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return trip.Record{}, io.EOF
		}
		return trip.Record{}, fmt.Errorf("%w: %w", ErrSourceDecode, err)
	}

	pickupZone, err := parseZone(row[s.fields.pickupZone])
	if err != nil {
		return trip.Record{}, fmt.Errorf("%w: column %s: %w", ErrSourceDecode, colPickupZone, err)
	}
	dropoffZone, err := parseZone(row[s.fields.dropoffZone])
	if err != nil {
		return trip.Record{}, fmt.Errorf("%w: column %s: %w", ErrSourceDecode, colDropoffZone, err)
	}

	return trip.Record{
		PickupTime:  row[s.fields.pickupTime],
		DropoffTime: row[s.fields.dropoffTime],
		PickupZone:  pickupZone,
		DropoffZone: dropoffZone,
	}, nil
}

// readHeader resolves the required column indexes from the first row.
func (s *CSVSource) readHeader() error {
	header, err := s.reader.Read()
	if err != nil {
		return fmt.Errorf("%w: missing header row: %w", ErrSourceDecode, err)
	}

	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[name] = i
	}

	cols := []struct {
		name string
		dst  *int
	}{
		{colPickupTime, &s.fields.pickupTime},
		{colDropoffTime, &s.fields.dropoffTime},
		{colPickupZone, &s.fields.pickupZone},
		{colDropoffZone, &s.fields.dropoffZone},
	}
	for _, c := range cols {
		i, ok := byName[c.name]
		if !ok {
			return fmt.Errorf("%w: missing column %q", ErrSourceDecode, c.name)
		}
		*c.dst = i
	}

	s.logger.Debug("Resolved CSV columns",
		zap.Int("total_columns", len(header)),
		zap.Int(colPickupTime, s.fields.pickupTime),
		zap.Int(colDropoffTime, s.fields.dropoffTime),
		zap.Int(colPickupZone, s.fields.pickupZone),
		zap.Int(colDropoffZone, s.fields.dropoffZone),
	)
	return nil
}

func parseZone(text string) (int, error) {
	zone, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("invalid zone id %q", text)
	}
	if zone < 0 {
		return 0, fmt.Errorf("negative zone id %d", zone)
	}
	return zone, nil
}
