package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTunedFrequency(t *testing.T) {
	tests := []struct {
		f, step, want Frequency
	}{
		{145000100, 1000, 145000000},
		{145000500, 1000, 145001000},
		{145000900, 1000, 145001000},
		{145000000, 1000, 145000000},
		{-1200, 1000, -1000},
		{-1500, 1000, -1000},
		{-1501, 1000, -2000},
		{1250, 2500, 2500},
		{1249, 2500, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TunedFrequency(tt.f, tt.step), "snap(%d, %d)", tt.f, tt.step)
	}
}

func TestTunedFrequencyIdempotent(t *testing.T) {
	for f := Frequency(-10000); f <= 10000; f += 97 {
		once := TunedFrequency(f, 2500)
		assert.Equal(t, once, TunedFrequency(once, 2500))
		assert.Zero(t, once%2500)
	}
}

func TestFFTSize(t *testing.T) {
	assert.Equal(t, 2048, FFTSize(2048000, 1000))
	assert.Equal(t, 4096, FFTSize(2048000, 999))
	assert.Equal(t, 1, FFTSize(1000, 1000))
	assert.Equal(t, 1024, FFTSize(1024000, 1000))
	// smallest power of two with rate/n <= width
	n := FFTSize(2400000, 1000)
	assert.LessOrEqual(t, 2400000/n, 1000)
	assert.Greater(t, 2400000/(n/2), 1000)
}

func TestPrimeFactors(t *testing.T) {
	assert.Equal(t, []int{1}, PrimeFactors(1))
	assert.Equal(t, []int{2, 2, 3}, PrimeFactors(12))
	assert.Equal(t, []int{13}, PrimeFactors(13))
	for n := 1; n <= 1000; n++ {
		prod := 1
		for _, f := range PrimeFactors(n) {
			prod *= f
		}
		assert.Equal(t, n, prod, "product of factors of %d", n)
	}
}

func TestDecimatorFactor(t *testing.T) {
	assert.Equal(t, 1, DecimatorFactor(1000, 250))
	assert.Equal(t, 1, DecimatorFactor(250, 250))
	assert.Equal(t, 2, DecimatorFactor(125, 250))
	assert.Equal(t, 4, DecimatorFactor(100, 250))
}

func TestRangeSplit(t *testing.T) {
	r := FrequencyRange{Low: 144000000, High: 146000000}
	assert.Equal(t, []FrequencyRange{r}, r.Split(2048000))

	wide := FrequencyRange{Low: 430000000, High: 436000000}
	split := wide.Split(2000000)
	assert.Len(t, split, 3)
	assert.Equal(t, wide.Low, split[0].Low)
	for i, sr := range split {
		assert.Equal(t, Frequency(2000000), sr.Bandwidth())
		if i > 0 {
			assert.Equal(t, split[i-1].High, sr.Low)
		}
	}
}

func TestBinShift(t *testing.T) {
	// 8 bins over 8 kHz: 1 kHz step, bin 0 at the low edge.
	assert.Equal(t, Frequency(-3500), BinShift(0, 8, 8000))
	assert.Equal(t, Frequency(-500), BinShift(3, 8, 8000))
	assert.Equal(t, Frequency(500), BinShift(4, 8, 8000))
	assert.Equal(t, Frequency(3500), BinShift(7, 8, 8000))
}

func TestFrequencyString(t *testing.T) {
	assert.Equal(t, "145.625.000 Hz", Frequency(145625000).String())
	assert.Equal(t, "2.500 Hz", Frequency(2500).String())
	assert.Equal(t, "999 Hz", Frequency(999).String())
	assert.Equal(t, "-1.000 Hz", Frequency(-1000).String())
}
