package dsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chzchzchz/scanrx/radio"
)

type trackerFixture struct {
	*Tracker
	clock    time.Time
	notified [][]radio.FrequencyFlush
}

func newTrackerFixture(t *testing.T, fftSize, groupSize int, start, stop float64, timeout time.Duration) *trackerFixture {
	t.Helper()
	f := &trackerFixture{clock: time.Unix(1000, 0)}
	f.Tracker = NewTracker(TrackerParams{
		FFTSize:          fftSize,
		GroupSize:        groupSize,
		StartThreshold:   start,
		StopThreshold:    stop,
		Timeout:          timeout,
		IndexToFrequency: func(i int) radio.Frequency { return radio.Frequency(100000000 + i*1000) },
		IndexToShift:     func(i int) radio.Frequency { return radio.Frequency(i * 1000) },
		InRange:          func(i int) bool { return true },
		Notify:           func(ff []radio.FrequencyFlush) { f.notified = append(f.notified, ff) },
		Now:              func() time.Time { return f.clock },
	})
	f.SetProcessing(true)
	return f
}

func (f *trackerFixture) work(at time.Duration, psd []float64) {
	f.clock = time.Unix(1000, 0).Add(at)
	f.Work(psd)
}

func (f *trackerFixture) activeBins() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bins []int
	for i := range f.active {
		bins = append(bins, i)
	}
	return bins
}

func shifts(ff []radio.FrequencyFlush) []radio.Frequency {
	out := make([]radio.Frequency, 0, len(ff))
	for _, v := range ff {
		out = append(out, v.Shift)
	}
	return out
}

func TestDetectHoldRelease(t *testing.T) {
	f := newTrackerFixture(t, 8, 1, 10, 5, 100*time.Millisecond)

	f.work(0, []float64{0, 0, 0, 20, 0, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins())

	// 8 dB is below START but above STOP: stays open, lastData fresh.
	f.work(50*time.Millisecond, []float64{0, 0, 0, 8, 0, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins())

	// silent past the timeout: released
	f.work(200*time.Millisecond, []float64{0, 0, 0, 0, 0, 0, 0, 0})
	assert.Empty(t, f.activeBins())
	assert.Empty(t, f.notified[len(f.notified)-1])
}

func TestGroupingSuppression(t *testing.T) {
	f := newTrackerFixture(t, 8, 2, 10, 5, 100*time.Millisecond)

	f.work(0, []float64{0, 0, 15, 20, 14, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins(), "strongest bin wins the neighbourhood")
	assert.Equal(t, []radio.Frequency{3000}, shifts(f.notified[len(f.notified)-1]))
}

func TestHysteresis(t *testing.T) {
	f := newTrackerFixture(t, 1, 0, 10, 5, 100*time.Millisecond)

	f.work(0, []float64{12})
	for i := 1; i <= 3; i++ {
		f.work(time.Duration(i)*30*time.Millisecond, []float64{7})
		assert.ElementsMatch(t, []int{0}, f.activeBins(), "7 dB refreshes lastData")
	}
}

func TestExpiryBeforePromotion(t *testing.T) {
	f := newTrackerFixture(t, 8, 1, 10, 5, 100*time.Millisecond)

	f.work(0, []float64{0, 0, 0, 20, 0, 0, 0, 0})
	// bin 3 expired in the same window bin 6 opens
	f.work(200*time.Millisecond, []float64{0, 0, 0, 0, 0, 0, 30, 0})
	assert.ElementsMatch(t, []int{6}, f.activeBins())
}

func TestReopenIsInstant(t *testing.T) {
	f := newTrackerFixture(t, 8, 1, 10, 5, 100*time.Millisecond)

	// 7 dB keeps lastData fresh even while inactive
	f.work(0, []float64{0, 0, 0, 7, 0, 0, 0, 0})
	assert.Empty(t, f.activeBins(), "below START never opens")

	f.work(30*time.Millisecond, []float64{0, 0, 0, 12, 0, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins())
}

func TestNotificationOrderAndFlush(t *testing.T) {
	f := newTrackerFixture(t, 16, 1, 10, 5, 100*time.Millisecond)

	psd := make([]float64, 16)
	psd[2], psd[8], psd[14] = 12, 30, 20
	f.work(0, psd)
	last := f.notified[len(f.notified)-1]
	assert.Equal(t, []radio.Frequency{8000, 14000, 2000}, shifts(last), "strongest first")
	for _, ff := range last {
		assert.True(t, ff.Flush, "live bins request flush")
	}

	// bin 8 goes quiet but is not yet expired: no flush for it
	psd2 := make([]float64, 16)
	psd2[2], psd2[14] = 12, 20
	f.work(30*time.Millisecond, psd2)
	last = f.notified[len(f.notified)-1]
	assert.Equal(t, []radio.Frequency{14000, 2000, 8000}, shifts(last))
	assert.False(t, last[2].Flush)
}

func TestInRangeGate(t *testing.T) {
	f := newTrackerFixture(t, 8, 1, 10, 5, 100*time.Millisecond)
	f.InRange = func(i int) bool { return i != 3 }

	f.work(0, []float64{0, 0, 0, 20, 0, 20, 0, 0})
	assert.ElementsMatch(t, []int{5}, f.activeBins())
}

func TestDisableClearsActiveSet(t *testing.T) {
	f := newTrackerFixture(t, 8, 1, 10, 5, 100*time.Millisecond)

	f.work(0, []float64{0, 0, 0, 20, 0, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins())

	f.SetProcessing(false)
	assert.Empty(t, f.activeBins())

	// work is a no-op while disabled
	n := len(f.notified)
	f.work(10*time.Millisecond, []float64{0, 0, 0, 20, 0, 0, 0, 0})
	assert.Len(t, f.notified, n)
	assert.Empty(t, f.activeBins())

	f.SetProcessing(true)
	f.work(20*time.Millisecond, []float64{0, 0, 0, 20, 0, 0, 0, 0})
	assert.ElementsMatch(t, []int{3}, f.activeBins())
}

func TestGroupSpacingInvariant(t *testing.T) {
	f := newTrackerFixture(t, 64, 3, 10, 5, 100*time.Millisecond)

	psd := make([]float64, 64)
	for i := 10; i < 30; i++ {
		psd[i] = 15 + float64(i%5)
	}
	f.work(0, psd)
	bins := f.activeBins()
	assert.NotEmpty(t, bins)
	for _, i := range bins {
		for _, j := range bins {
			if i != j {
				d := i - j
				if d < 0 {
					d = -d
				}
				assert.Greater(t, d, 3, "bins %d and %d violate grouping", i, j)
			}
		}
	}
}
