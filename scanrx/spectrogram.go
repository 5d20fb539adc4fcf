package scanrx

import (
	"time"

	"github.com/chzchzchz/scanrx/radio"
)

// Spectrogram downsamples PSD windows, quantises them to int8, and
// publishes at most one frame per interval. Excess frames are dropped.
type Spectrogram struct {
	factor     int
	interval   time.Duration
	data       *DataController
	sampleRate radio.Frequency
	center     func() radio.Frequency
	now        func() time.Time

	lastSend time.Time
}

func NewSpectrogram(factor int, interval time.Duration, sampleRate radio.Frequency,
	center func() radio.Frequency, data *DataController) *Spectrogram {
	if factor <= 0 {
		panic("bad spectrogram factor")
	}
	return &Spectrogram{
		factor:     factor,
		interval:   interval,
		data:       data,
		sampleRate: sampleRate,
		center:     center,
		now:        time.Now,
	}
}

// Work is called once per PSD window on the DSP thread.
func (s *Spectrogram) Work(psd []float64) {
	now := s.now()
	if now.Sub(s.lastSend) < s.interval {
		return
	}
	frequency := s.center()
	if frequency == 0 {
		return
	}
	s.lastSend = now
	s.data.PushSpectrogram(now, frequency, s.sampleRate, Quantize(Downsample(psd, s.factor)))
}

// Downsample averages each factor-wide group of bins.
func Downsample(psd []float64, factor int) []float64 {
	out := make([]float64, len(psd)/factor)
	for i := range out {
		sum := 0.0
		for j := 0; j < factor; j++ {
			sum += psd[i*factor+j]
		}
		out[i] = sum / float64(factor)
	}
	return out
}

// Quantize clamps dB values into int8.
func Quantize(psd []float64) []int8 {
	out := make([]int8, len(psd))
	for i, v := range psd {
		switch {
		case v > 127:
			out[i] = 127
		case v < -128:
			out[i] = -128
		default:
			out[i] = int8(v)
		}
	}
	return out
}
