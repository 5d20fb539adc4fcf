package radio

import (
	"fmt"
	"math"
)

// Frequency is an absolute frequency or a signed shift in Hz.
type Frequency int64

func (f Frequency) String() string {
	neg := ""
	if f < 0 {
		neg, f = "-", -f
	}
	f1, f2, f3 := f/1000000, (f/1000)%1000, f%1000
	switch {
	case f >= 1000000:
		return fmt.Sprintf("%s%d.%03d.%03d Hz", neg, f1, f2, f3)
	case f >= 1000:
		return fmt.Sprintf("%s%d.%03d Hz", neg, f2, f3)
	default:
		return fmt.Sprintf("%s%d Hz", neg, f3)
	}
}

// FrequencyRange is an inclusive [Low, High] span.
type FrequencyRange struct {
	Low  Frequency `json:"low"`
	High Frequency `json:"high"`
}

func (r FrequencyRange) Center() Frequency    { return (r.Low + r.High) / 2 }
func (r FrequencyRange) Bandwidth() Frequency { return r.High - r.Low }

func (r FrequencyRange) Contains(f Frequency) bool { return r.Low <= f && f <= r.High }

func (r FrequencyRange) String() string {
	return fmt.Sprintf("%s - %s", r.Low, r.High)
}

// Split breaks a range wider than sampleRate into consecutive
// sampleRate-wide ranges.
func (r FrequencyRange) Split(sampleRate Frequency) []FrequencyRange {
	if r.Bandwidth() <= sampleRate {
		return []FrequencyRange{r}
	}
	var ranges []FrequencyRange
	for f := r.Low; f < r.High; f += sampleRate {
		ranges = append(ranges, FrequencyRange{Low: f, High: f + sampleRate})
	}
	return ranges
}

// SplitRanges applies Split to each range in order.
func SplitRanges(ranges []FrequencyRange, sampleRate Frequency) []FrequencyRange {
	var out []FrequencyRange
	for _, r := range ranges {
		out = append(out, r.Split(sampleRate)...)
	}
	return out
}

// TunedFrequency snaps f to the nearest multiple of step, half up.
func TunedFrequency(f, step Frequency) Frequency {
	rest := f % step
	if rest < 0 {
		rest += step
	}
	down := f - rest
	if rest < step-rest {
		return down
	}
	return down + step
}

// FFTSize returns the smallest power of two N with sampleRate/N <= maxBinWidth.
func FFTSize(sampleRate, maxBinWidth Frequency) int {
	n := 1
	for float64(maxBinWidth) < float64(sampleRate)/float64(n) {
		n <<= 1
	}
	return n
}

// DecimatorFactor returns the power-of-two factor that grows oldStep to
// at least newStep.
func DecimatorFactor(oldStep, newStep Frequency) int {
	factor := 1
	for oldStep < newStep {
		oldStep <<= 1
		factor <<= 1
	}
	return factor
}

// PrimeFactors returns the prime factorization of n in ascending order.
// PrimeFactors(1) = [1].
func PrimeFactors(n int) []int {
	if n == 1 {
		return []int{1}
	}
	var factors []int
	for n%2 == 0 {
		factors = append(factors, 2)
		n /= 2
	}
	for i := 3; i <= int(math.Sqrt(float64(n))); i += 2 {
		for n%i == 0 {
			factors = append(factors, i)
			n /= i
		}
	}
	if n > 2 {
		factors = append(factors, n)
	}
	return factors
}

// BinShift maps FFT bin i (after FFT shift, so bin 0 is the lowest
// frequency) to its offset from the tuned center.
func BinShift(i, fftSize int, sampleRate Frequency) Frequency {
	step := float64(sampleRate) / float64(fftSize)
	return Frequency(step*(float64(i)+0.5)) - sampleRate/2
}

// FrequencyFlush is one tracked transmission handed to the recorder
// scheduler: a shift from the tuned center and whether buffered samples
// should be committed now.
type FrequencyFlush struct {
	Shift Frequency
	Flush bool
}
