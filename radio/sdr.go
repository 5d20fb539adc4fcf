package radio

import (
	"context"
	"errors"
	"fmt"
)

var ErrRateOutOfRange = errors.New("sample rate out of range")
var ErrFrequencyOutOfRange = errors.New("frequency out of range")

// Source is a tunable IQ stream. SetFrequency may fail transiently
// while the stream keeps running; callers retry.
type Source interface {
	SetFrequency(hz Frequency) error
	SetSampleRate(rate Frequency) error
	SetGain(name string, value float64) error
	// Stream emits batches of complex samples until ctx is done or the
	// device closes. Batches the driver drops are never queued.
	Stream(ctx context.Context, batch int) <-chan []complex64
	Close() error
}

// Open starts the driver for the given device serial.
func Open(ctx context.Context, driver, serial string) (Source, error) {
	switch driver {
	case "rtlsdr", "rtltcp":
		return newRTLSDR(ctx, serial)
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}
