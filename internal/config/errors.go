package config

import "errors"

var (
	ErrReadingConfigFile         = errors.New("failed to read config file")
	ErrUnmarshallingConfig       = errors.New("failed to unmarshal config")
	ErrConfigFileMissing         = errors.New("config file not found")
	ErrNonPositiveHistogramBound = errors.New("histogram bounds must be positive")
	ErrInvertedHistogramBounds   = errors.New("histogram lower bound must be below the upper bound")
	ErrInvalidSignificantDigits  = errors.New("significantDigits must be between 1 and 5")
	ErrNonPositiveMinTripSeconds = errors.New("minTripSeconds must be positive")
)
