package scanrx

import (
	"bufio"
	"context"
	"math"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/chzchzchz/scanrx/dsp"
	"github.com/chzchzchz/scanrx/radio"
	"github.com/chzchzchz/scanrx/store"
)

// ClipRecorder is what the allocation policy needs from a recorder.
type ClipRecorder interface {
	IsRecording() bool
	Shift() radio.Frequency
	Duration() time.Duration
	Start(center, shift radio.Frequency) error
	Stop()
	Flush()
	Feed(samps []complex64)
}

// DeviceParams is the tuning surface of one SDR device.
type DeviceParams struct {
	Driver string
	Serial string

	SampleRate  radio.Frequency
	MaxBinWidth radio.Frequency
	TargetFps   int

	StartThreshold     float64
	StopThreshold      float64
	RecordingTimeout   time.Duration
	RecordingBandwidth radio.Frequency
	TuningStep         radio.Frequency

	InitialDelay time.Duration

	SpectrogramMinStep  radio.Frequency
	SpectrogramInterval time.Duration

	RecordersCount int
	Gains          map[string]float64
	IgnoredRanges  []radio.FrequencyRange

	// NoiseTimeConstant is the floor-smoothing time constant in seconds.
	NoiseTimeConstant float64

	SaveRawIQ bool
	ClipDir   string
}

// Device owns the detection pipeline, the recorder pool, and the
// ignored-shifts set for one SDR. The DSP goroutine runs the
// framer → FFT/PSD → noise → tracker/spectrogram chain; tuning and
// recorder allocation happen only on the scanner goroutine.
type Device struct {
	source radio.Source
	params DeviceParams

	fftSize    int
	decimation int
	binStep    radio.Frequency

	learner *dsp.NoiseLearner
	tracker *dsp.Tracker
	spectro *Spectrogram
	raw     *rawSink
	clips   *store.ClipStore
	data    *DataController

	recorders []ClipRecorder
	ignored   map[radio.Frequency]struct{}

	mu          sync.Mutex
	freqRange   radio.FrequencyRange
	initialized bool

	overruns int
	cancel   context.CancelFunc
	donec    chan struct{}
}

func NewDevice(source radio.Source, params DeviceParams, notification *Mailbox, data *DataController) (*Device, error) {
	if params.NoiseTimeConstant == 0 {
		params.NoiseTimeConstant = 5
	}
	fftSize := radio.FFTSize(params.SampleRate, params.MaxBinWidth)
	binStep := params.SampleRate / radio.Frequency(fftSize)
	decimation := int(binStep) / params.TargetFps
	if decimation < 1 {
		decimation = 1
	}
	groupSize := int(math.Ceil(float64(params.RecordingBandwidth) / float64(binStep)))

	clips, err := store.NewClipStore(params.ClipDir)
	if err != nil {
		return nil, err
	}

	d := &Device{
		source:     source,
		params:     params,
		fftSize:    fftSize,
		binStep:    binStep,
		decimation: decimation,
		clips:      clips,
		data:       data,
		ignored:    make(map[radio.Frequency]struct{}),
		raw:        &rawSink{},
		donec:      make(chan struct{}),
	}
	glog.Infof("device %s/%s: sample rate: %s, fft size: %d, bin step: %s, tuning step: %s, recorders: %d",
		params.Driver, params.Serial, params.SampleRate, fftSize, binStep, params.TuningStep, params.RecordersCount)

	d.learner = dsp.NewNoiseLearner(fftSize, dsp.Alpha(params.NoiseTimeConstant, float64(params.TargetFps)))
	d.tracker = dsp.NewTracker(dsp.TrackerParams{
		FFTSize:          fftSize,
		GroupSize:        groupSize,
		StartThreshold:   params.StartThreshold,
		StopThreshold:    params.StopThreshold,
		Timeout:          params.RecordingTimeout,
		IndexToFrequency: d.indexToFrequency,
		IndexToShift:     d.indexToShift,
		InRange:          d.indexInRange,
		Notify:           notification.Post,
	})

	spectroFactor := radio.DecimatorFactor(binStep, params.SpectrogramMinStep)
	d.spectro = NewSpectrogram(spectroFactor, params.SpectrogramInterval, params.SampleRate, d.Center, data)

	for i := 0; i < params.RecordersCount; i++ {
		d.recorders = append(d.recorders,
			NewRecorder(clips, data, params.SampleRate, params.RecordingBandwidth))
	}

	for name, value := range params.Gains {
		if err := source.SetGain(name, value); err != nil {
			return nil, err
		}
	}
	if err := source.SetSampleRate(params.SampleRate); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.run(ctx)
	return d, nil
}

// Center is the tuned center frequency; zero while retuning.
func (d *Device) Center() radio.Frequency {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.freqRange == (radio.FrequencyRange{}) {
		return 0
	}
	return d.freqRange.Center()
}

func (d *Device) indexToFrequency(i int) radio.Frequency {
	return d.Center() + radio.BinShift(i, d.fftSize, d.params.SampleRate)
}

// indexToShift snaps the bin's absolute frequency to the tuning step
// and reports it relative to the center.
func (d *Device) indexToShift(i int) radio.Frequency {
	center := d.Center()
	f := center + radio.BinShift(i, d.fftSize, d.params.SampleRate)
	return radio.TunedFrequency(f, d.params.TuningStep) - center
}

func (d *Device) indexInRange(i int) bool {
	d.mu.Lock()
	fr := d.freqRange
	d.mu.Unlock()
	f := fr.Center() + radio.BinShift(i, d.fftSize, d.params.SampleRate)
	if !fr.Contains(f) {
		return false
	}
	for _, ignored := range d.params.IgnoredRanges {
		if ignored.Contains(f) {
			return false
		}
	}
	return true
}

// run is the DSP thread: it drains the source and fans samples out to
// the detection chain, the raw dumper, and any recording recorders.
func (d *Device) run(ctx context.Context) {
	defer close(d.donec)

	sampc := d.source.Stream(ctx, d.fftSize*d.decimation)
	framerIn := make(chan []complex64, 1)
	framec := dsp.Frame(ctx, d.fftSize, d.decimation, framerIn)
	psdc := dsp.Spectral(ctx, d.fftSize, framec)

	chainDone := make(chan struct{})
	go func() {
		defer close(chainDone)
		for psd := range psdc {
			psd = d.learner.Work(psd)
			d.tracker.Work(psd)
			d.spectro.Work(psd)
		}
	}()

	for samps := range sampc {
		d.raw.Write(samps)
		select {
		case framerIn <- samps:
		default:
			d.overruns++
			if d.overruns%100 == 1 {
				glog.Warningf("detection chain overrun, dropped %d batches", d.overruns)
			}
		}
		for _, r := range d.recorders {
			r.Feed(samps)
		}
	}
	close(framerIn)
	<-chainDone
}

// SetFrequencyRange retunes the device. Detection and learning are
// disabled for the duration so no downstream block sees samples from
// the new center early.
func (d *Device) SetFrequencyRange(fr radio.FrequencyRange) {
	center := fr.Center()
	d.learner.SetProcessing(false)
	d.tracker.SetProcessing(false)
	if d.params.SaveRawIQ {
		d.raw.Stop()
	}

	d.mu.Lock()
	previous := d.freqRange
	d.freqRange = radio.FrequencyRange{}
	d.mu.Unlock()

	var err error
	for i := 0; i < 10; i++ {
		if err = d.source.SetFrequency(center); err == nil {
			glog.Infof("set frequency range: %s, center frequency: %s", fr, center)
			break
		}
	}
	if err != nil {
		glog.Warningf("set frequency %s failed, keeping previous center: %v", center, err)
		fr = previous
	}

	if !d.initialized {
		glog.Infof("waiting, initial sleep: %d ms", d.params.InitialDelay.Milliseconds())
		time.Sleep(d.params.InitialDelay)
		d.initialized = true
	}

	d.mu.Lock()
	d.freqRange = fr
	d.mu.Unlock()

	if d.params.SaveRawIQ && fr != (radio.FrequencyRange{}) {
		d.raw.Start(d.clips, fr.Center(), d.params.SampleRate)
	}
	d.tracker.SetProcessing(true)
	d.learner.SetProcessing(true)
}

// UpdateRecordings reconciles the recorder pool with the newest active
// set. Returns true iff any recorder is recording afterwards. Runs
// only on the scanner goroutine.
func (d *Device) UpdateRecordings(sortedShifts []radio.FrequencyFlush) bool {
	center := d.Center()
	waiting := func(shift radio.Frequency) bool {
		for _, sf := range sortedShifts {
			if sf.Shift == shift {
				return true
			}
		}
		return false
	}

	for _, rec := range d.recorders {
		if rec.IsRecording() && !waiting(rec.Shift()) {
			shift, elapsed := rec.Shift(), rec.Duration()
			rec.Stop()
			glog.Infof("stop recorder, frequency: %s, time: %d ms", center+shift, elapsed.Milliseconds())
		}
	}

	for _, sf := range sortedShifts {
		if rec := d.shiftRecorder(sf.Shift); rec != nil {
			if !rec.IsRecording() {
				glog.Warningf("start recorder that should be already started, frequency: %s", center+sf.Shift)
			}
			if sf.Flush {
				rec.Flush()
			}
			continue
		}
		if rec := d.freeRecorder(); rec != nil {
			if err := rec.Start(center, sf.Shift); err != nil {
				glog.Errorf("start recorder, frequency: %s: %v", center+sf.Shift, err)
				continue
			}
			glog.Infof("start recorder, frequency: %s", center+sf.Shift)
			continue
		}
		if _, ok := d.ignored[sf.Shift]; !ok {
			glog.Infof("no recorders available, frequency: %s", center+sf.Shift)
			d.ignored[sf.Shift] = struct{}{}
		}
	}

	for shift := range d.ignored {
		if !waiting(shift) {
			delete(d.ignored, shift)
		}
	}

	for _, rec := range d.recorders {
		if rec.IsRecording() {
			return true
		}
	}
	return false
}

func (d *Device) shiftRecorder(shift radio.Frequency) ClipRecorder {
	for _, rec := range d.recorders {
		if rec.IsRecording() && rec.Shift() == shift {
			return rec
		}
	}
	return nil
}

func (d *Device) freeRecorder() ClipRecorder {
	for _, rec := range d.recorders {
		if !rec.IsRecording() {
			return rec
		}
	}
	return nil
}

// Close stops the pipeline and all recorders.
func (d *Device) Close() {
	glog.Info("device stopping")
	d.tracker.SetProcessing(false)
	d.learner.SetProcessing(false)
	d.cancel()
	<-d.donec
	for _, rec := range d.recorders {
		rec.Stop()
	}
	d.raw.Stop()
	glog.Info("device stopped")
}

// rawSink dumps the full source stream to a clip file for debugging.
// Write runs on the DSP thread; Start/Stop on the scanner thread.
type rawSink struct {
	mu  sync.Mutex
	f   *os.File
	bw  *bufio.Writer
	iqw *radio.IQWriter
}

func (s *rawSink) Start(clips *store.ClipStore, center, sampleRate radio.Frequency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		return
	}
	f, err := clips.Create("full", "iq8", center, sampleRate, time.Now())
	if err != nil {
		glog.Errorf("raw dump: %v", err)
		return
	}
	s.f = f
	s.bw = bufio.NewWriter(f)
	s.iqw = radio.NewIQWriter(s.bw)
	glog.Infof("raw dump started: %s", f.Name())
}

func (s *rawSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return
	}
	s.bw.Flush()
	s.f.Close()
	glog.Infof("raw dump stopped: %s", s.f.Name())
	s.f, s.bw, s.iqw = nil, nil, nil
}

func (s *rawSink) Write(samps []complex64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.iqw == nil {
		return
	}
	if err := s.iqw.Write64(samps); err != nil {
		glog.Errorf("raw dump write: %v", err)
		s.bw.Flush()
		s.f.Close()
		s.f, s.bw, s.iqw = nil, nil, nil
	}
}
