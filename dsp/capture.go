package dsp

/*
#cgo LDFLAGS: -lliquid
#include <liquid/liquid.h>
static unsigned capture_block(
	nco_crcf nco, firfilt_crcf lpf,
	complex float *in, complex float *out,
	unsigned n, unsigned dec, unsigned *phase)
{
	unsigned j = 0;
	for (unsigned i = 0; i < n; i++) {
		complex float mixed;
		nco_crcf_mix_down(nco, in[i], &mixed);
		nco_crcf_step(nco);
		firfilt_crcf_push(lpf, mixed);
		if (++(*phase) == dec) {
			*phase = 0;
			firfilt_crcf_execute(lpf, &out[j++]);
		}
	}
	return j;
}
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/chzchzchz/scanrx/radio"
)

// CaptureDecimation halves the sample rate while it still covers the
// recording bandwidth.
func CaptureDecimation(sampleRate, bandwidth radio.Frequency) (radio.Frequency, int) {
	rate, dec := sampleRate, 1
	for rate%2 == 0 && rate/2 >= bandwidth {
		rate /= 2
		dec *= 2
	}
	return rate, dec
}

// CaptureChain narrows the source stream onto one transmission: an NCO
// moves the recorded shift onto 0 Hz and a Kaiser lowpass takes the
// stream down to the recording bandwidth, decimating as it filters.
// Not safe for concurrent use; each recorder worker owns one.
type CaptureChain struct {
	nco     C.nco_crcf
	lpf     C.firfilt_crcf
	dec     int
	phase   C.uint
	outRate radio.Frequency
}

func NewCaptureChain(shift, bandwidth, sampleRate radio.Frequency) *CaptureChain {
	outRate, dec := CaptureDecimation(sampleRate, bandwidth)

	nco := C.nco_crcf_create(C.LIQUID_NCO)
	C.nco_crcf_set_phase(nco, C.float(0))
	radiansPerSample := float64(shift) * (2.0 * math.Pi / float64(sampleRate))
	if radiansPerSample < 0 {
		radiansPerSample += 2.0 * math.Pi
	}
	C.nco_crcf_set_frequency(nco, C.float(radiansPerSample))

	cutoff := float64(bandwidth) / 2 / float64(sampleRate)
	lpf := C.firfilt_crcf_create_kaiser(64, C.float(cutoff), C.float(70.0), C.float(0.0))
	C.firfilt_crcf_set_scale(lpf, C.float(2.0*cutoff))

	return &CaptureChain{nco: nco, lpf: lpf, dec: dec, outRate: outRate}
}

// OutputRate is the clip's sample rate after decimation.
func (c *CaptureChain) OutputRate() radio.Frequency { return c.outRate }

// Process mixes, filters, and decimates one source batch. The returned
// slice is freshly allocated; filter state carries across calls, so
// batch boundaries need not align with the decimation.
func (c *CaptureChain) Process(samps []complex64) []complex64 {
	if len(samps) == 0 {
		return nil
	}
	out := make([]complex64, len(samps)/c.dec+1)
	n := C.capture_block(
		c.nco, c.lpf,
		(*C.complexfloat)(unsafe.Pointer(&samps[0])),
		(*C.complexfloat)(unsafe.Pointer(&out[0])),
		C.uint(len(samps)),
		C.uint(c.dec),
		&c.phase)
	return out[:n]
}

func (c *CaptureChain) Close() {
	C.nco_crcf_destroy(c.nco)
	C.firfilt_crcf_destroy(c.lpf)
}
