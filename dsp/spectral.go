package dsp

import (
	"context"
	"math"

	"github.com/mjibson/go-dsp/window"
	"github.com/runningwild/go-fftw/fftw32"
)

// Spectral converts FFT-sized IQ windows to power spectra in dBFS.
// Each window is Hamming-weighted, transformed, and shifted so bin 0
// is the lowest frequency. Power is 10*log10(|X|^2/N) referenced to
// full scale.
func Spectral(ctx context.Context, fftSize int, framec <-chan []complex64) <-chan []float64 {
	outc := make(chan []float64, 1)
	go func() {
		defer close(outc)
		win := window.Hamming(fftSize)
		ref := 10 * math.Log10(float64(fftSize))
		arr := fftw32.NewArray(fftSize)
		for frame := range framec {
			if len(frame) != fftSize {
				continue
			}
			for i, v := range frame {
				w := float32(win[i])
				arr.Elems[i] = complex(real(v)*w, imag(v)*w)
			}
			fft := fftw32.FFT(arr)
			psd := make([]float64, fftSize)
			for i, v := range fft.Elems {
				// FFT shift: negative frequencies first.
				idx := i + fftSize/2
				if i >= fftSize/2 {
					idx = i - fftSize/2
				}
				p := float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
				psd[idx] = 10*math.Log10(p/float64(fftSize)+1e-20) - ref
			}
			select {
			case outc <- psd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return outc
}
