package dsp

import (
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/chzchzchz/scanrx/radio"
)

// TrackerParams wires a Tracker to its device. IndexToFrequency and
// IndexToShift map an FFT bin to the tuned frequency and to the
// snapped shift from the device center; InRange gates which bins may
// open transmissions. Notify receives the active set after every
// window, strongest first.
type TrackerParams struct {
	FFTSize   int
	GroupSize int

	StartThreshold float64
	StopThreshold  float64
	Timeout        time.Duration

	IndexToFrequency func(i int) radio.Frequency
	IndexToShift     func(i int) radio.Frequency
	InRange          func(i int) bool
	Notify           func([]radio.FrequencyFlush)

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Tracker is a per-bin hysteretic transmission detector. A bin opens a
// transmission when its noise-subtracted power reaches StartThreshold
// and no neighbour within GroupSize bins is already active; it closes
// when the bin has stayed below StopThreshold for longer than Timeout.
type Tracker struct {
	TrackerParams

	mu         sync.Mutex
	processing bool
	lastData   []time.Time
	active     map[int]struct{}
}

func NewTracker(p TrackerParams) *Tracker {
	if p.Now == nil {
		p.Now = time.Now
	}
	glog.Infof("transmission group size: %d", p.GroupSize)
	return &Tracker{
		TrackerParams: p,
		lastData:      make([]time.Time, p.FFTSize),
		active:        make(map[int]struct{}),
	}
}

// Work consumes one noise-subtracted spectrum. No-op while processing
// is disabled.
func (t *Tracker) Work(psd []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.processing || len(psd) != t.FFTSize {
		return
	}
	now := t.Now()
	candidates := t.sortedCandidates(psd)
	t.updateLastData(psd, now)
	t.expire(psd, now)
	t.promote(psd, candidates)
	t.Notify(t.sortedTransmissions(psd))
}

// SetProcessing gates Work. Disabling clears the active set; every
// open transmission is logged as stopped.
func (t *Tracker) SetProcessing(processing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !processing {
		for i := range t.active {
			glog.Infof("stop transmission, frequency: %s", t.IndexToFrequency(i))
		}
		t.active = make(map[int]struct{})
	}
	t.processing = processing
}

// sortedCandidates returns in-range bins at or above StartThreshold,
// strongest first.
func (t *Tracker) sortedCandidates(psd []float64) []int {
	var candidates []int
	for i, p := range psd {
		if p >= t.StartThreshold && t.InRange(i) {
			candidates = append(candidates, i)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		return psd[candidates[a]] > psd[candidates[b]]
	})
	return candidates
}

// updateLastData refreshes every bin holding at least StopThreshold,
// active or not, so a reopened bin is never stale.
func (t *Tracker) updateLastData(psd []float64, now time.Time) {
	for i, p := range psd {
		if p >= t.StopThreshold {
			t.lastData[i] = now
		}
	}
}

func (t *Tracker) expire(psd []float64, now time.Time) {
	for i := range t.active {
		silent := now.Sub(t.lastData[i])
		glog.V(2).Infof("active transmission, frequency: %s, power: %.2f, last data: %d ms ago",
			t.IndexToFrequency(i), psd[i], silent.Milliseconds())
		if silent > t.Timeout {
			glog.Infof("stop transmission, frequency: %s, power: %.2f", t.IndexToFrequency(i), psd[i])
			delete(t.active, i)
		}
	}
}

func (t *Tracker) promote(psd []float64, candidates []int) {
	for _, i := range candidates {
		if t.hasNeighbour(i) {
			continue
		}
		glog.Infof("start transmission, frequency: %s, power: %.2f", t.IndexToFrequency(i), psd[i])
		t.active[i] = struct{}{}
	}
}

// hasNeighbour reports an active bin within GroupSize of i, inclusive
// on both sides.
func (t *Tracker) hasNeighbour(i int) bool {
	for j := range t.active {
		d := i - j
		if d < 0 {
			d = -d
		}
		if d <= t.GroupSize {
			return true
		}
	}
	return false
}

// sortedTransmissions converts the active set to shifts, strongest
// first. Flush is set for bins with data in this window.
func (t *Tracker) sortedTransmissions(psd []float64) []radio.FrequencyFlush {
	indexes := make([]int, 0, len(t.active))
	for i := range t.active {
		indexes = append(indexes, i)
	}
	sort.Slice(indexes, func(a, b int) bool { return psd[indexes[a]] > psd[indexes[b]] })
	transmissions := make([]radio.FrequencyFlush, 0, len(indexes))
	for _, i := range indexes {
		transmissions = append(transmissions, radio.FrequencyFlush{
			Shift: t.IndexToShift(i),
			Flush: psd[i] >= t.StopThreshold,
		})
	}
	return transmissions
}
