package pipeline

import "errors"

var (
	ErrSourceDecode      = errors.New("failed to decode record from source")
	ErrMatchedTimestamp  = errors.New("malformed timestamp on a classified record")
	ErrAccumulatorConfig = errors.New("invalid accumulator configuration")
	ErrHistogramRecord   = errors.New("histogram rejected an in-range value")
)
