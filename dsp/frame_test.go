package dsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ramp(start, n int) []complex64 {
	out := make([]complex64, n)
	for i := range out {
		out[i] = complex(float32(start+i), 0)
	}
	return out
}

func collect(c <-chan []complex64) [][]complex64 {
	var out [][]complex64
	for v := range c {
		out = append(out, v)
	}
	return out
}

func TestFrameKeepsFirstWindowPerBlock(t *testing.T) {
	in := make(chan []complex64, 4)
	in <- ramp(0, 8)
	in <- ramp(8, 8)
	close(in)

	// fftSize 4, factor 2: blocks of 8, keep the first 4
	frames := collect(Frame(context.Background(), 4, 2, in))
	assert.Equal(t, [][]complex64{ramp(0, 4), ramp(8, 4)}, frames)
}

func TestFrameReblocksAcrossBatches(t *testing.T) {
	in := make(chan []complex64, 16)
	for i := 0; i < 16; i += 3 {
		n := 3
		if i+n > 16 {
			n = 16 - i
		}
		in <- ramp(i, n)
	}
	close(in)

	frames := collect(Frame(context.Background(), 4, 2, in))
	assert.Equal(t, [][]complex64{ramp(0, 4), ramp(8, 4)}, frames)
}

func TestFrameNoDecimation(t *testing.T) {
	in := make(chan []complex64, 1)
	in <- ramp(0, 8)
	close(in)

	frames := collect(Frame(context.Background(), 4, 1, in))
	assert.Equal(t, [][]complex64{ramp(0, 4), ramp(4, 4)}, frames)
}

func TestFrameCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []complex64)
	out := Frame(ctx, 4, 1, in)
	cancel()
	in <- ramp(0, 8)
	close(in)
	for range out {
	}
}
