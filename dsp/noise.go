package dsp

import (
	"sync"
)

// NoiseLearner keeps an exponentially smoothed per-bin noise-floor
// estimate and subtracts it from each spectrum. While processing is
// disabled (retune in flight) spectra pass through unchanged and the
// floor is not touched.
type NoiseLearner struct {
	mu         sync.Mutex
	floor      []float64
	alpha      float64
	learned    bool
	processing bool
}

// NewNoiseLearner smooths with floor = alpha*floor + (1-alpha)*psd.
func NewNoiseLearner(fftSize int, alpha float64) *NoiseLearner {
	if alpha < 0 || alpha >= 1 {
		panic("bad smoothing factor")
	}
	return &NoiseLearner{
		floor: make([]float64, fftSize),
		alpha: alpha,
	}
}

// Alpha returns the smoothing factor for a time constant of tau
// seconds at the given detection rate.
func Alpha(tauSeconds, fps float64) float64 {
	if tauSeconds <= 0 || fps <= 0 {
		return 0
	}
	a := 1 - 1/(tauSeconds*fps)
	if a < 0 {
		a = 0
	}
	return a
}

// Work updates the floor and subtracts it from psd in place.
func (n *NoiseLearner) Work(psd []float64) []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.processing {
		return psd
	}
	if !n.learned {
		copy(n.floor, psd)
		n.learned = true
	}
	for i, p := range psd {
		n.floor[i] = n.alpha*n.floor[i] + (1-n.alpha)*p
		psd[i] = p - n.floor[i]
	}
	return psd
}

func (n *NoiseLearner) SetProcessing(processing bool) {
	n.mu.Lock()
	n.processing = processing
	n.mu.Unlock()
}
