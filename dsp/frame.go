package dsp

import (
	"context"
)

// Frame re-blocks an IQ stream into FFT windows of fftSize samples,
// keeping the first window out of every factor windows. Incoming batch
// boundaries are ignored; sample order is preserved.
func Frame(ctx context.Context, fftSize, factor int, sigc <-chan []complex64) <-chan []complex64 {
	if fftSize <= 0 || factor <= 0 {
		panic("bad frame size")
	}
	outc := make(chan []complex64, 1)
	go func() {
		defer close(outc)
		block := fftSize * factor
		frame := make([]complex64, 0, fftSize)
		pos := 0 // position within the current block
		for samps := range sigc {
			for len(samps) > 0 {
				if pos < fftSize {
					n := fftSize - pos
					if n > len(samps) {
						n = len(samps)
					}
					frame = append(frame, samps[:n]...)
					samps = samps[n:]
					pos += n
					if pos == fftSize {
						select {
						case outc <- frame:
						case <-ctx.Done():
							return
						}
						frame = make([]complex64, 0, fftSize)
					}
					continue
				}
				// discard the rest of the block
				n := block - pos
				if n > len(samps) {
					n = len(samps)
				}
				samps = samps[n:]
				pos += n
				if pos == block {
					pos = 0
				}
			}
		}
	}()
	return outc
}
