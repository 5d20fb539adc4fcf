package scanrx

import (
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/chzchzchz/scanrx/dsp"
	"github.com/chzchzchz/scanrx/radio"
	"github.com/chzchzchz/scanrx/store"
)

type recorderState int

const (
	stateIdle recorderState = iota
	stateRecording
	stateFlushing
)

// Recorder captures one transmission at a time: source samples are
// narrowed onto the recorded shift by a capture chain and written to a
// clip file. Samples are handed off to a worker goroutine; the DSP
// thread never blocks here.
type Recorder struct {
	clips      *store.ClipStore
	data       *DataController
	sampleRate radio.Frequency
	bandwidth  radio.Frequency

	mu        sync.Mutex
	state     recorderState
	shift     radio.Frequency
	startTime time.Time
	queue     chan []complex64
	flushc    chan struct{}
	donec     chan struct{}
	dropped   int
}

func NewRecorder(clips *store.ClipStore, data *DataController, sampleRate, bandwidth radio.Frequency) *Recorder {
	return &Recorder{
		clips:      clips,
		data:       data,
		sampleRate: sampleRate,
		bandwidth:  bandwidth,
	}
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != stateIdle
}

func (r *Recorder) Shift() radio.Frequency {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shift
}

func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateIdle {
		return 0
	}
	return time.Since(r.startTime).Truncate(time.Millisecond)
}

// Start begins capturing center+shift. The caller guarantees the
// recorder is idle.
func (r *Recorder) Start(center, shift radio.Frequency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		glog.Warningf("recorder busy on shift %s, ignoring start", r.shift)
		return nil
	}
	now := time.Now()
	chain := dsp.NewCaptureChain(shift, r.bandwidth, r.sampleRate)
	f, err := r.clips.Create("recording", "iq8", center+shift, chain.OutputRate(), now)
	if err != nil {
		chain.Close()
		return err
	}
	r.state = stateRecording
	r.shift, r.startTime = shift, now
	r.queue = make(chan []complex64, 16)
	r.flushc = make(chan struct{}, 1)
	r.donec = make(chan struct{})
	r.dropped = 0
	go r.worker(f, r.queue, r.flushc, r.donec, chain, center+shift, now)
	return nil
}

// Feed hands a source batch to the capture chain. Called on the DSP
// thread; drops when the worker is behind.
func (r *Recorder) Feed(samps []complex64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRecording {
		return
	}
	select {
	case r.queue <- samps:
	default:
		r.dropped++
		if r.dropped%100 == 1 {
			glog.Warningf("recorder overrun on shift %s, dropped %d batches", r.shift, r.dropped)
		}
	}
}

// Flush asks the worker to commit buffered samples to disk.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRecording {
		return
	}
	select {
	case r.flushc <- struct{}{}:
	default:
	}
}

// Stop drains the capture chain, closes the clip, and publishes its
// metadata. Synchronous; the recorder is idle on return.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != stateRecording {
		r.mu.Unlock()
		return
	}
	r.state = stateFlushing
	close(r.queue)
	donec := r.donec
	r.mu.Unlock()

	<-donec

	r.mu.Lock()
	r.state = stateIdle
	r.shift = 0
	r.mu.Unlock()
}

func (r *Recorder) worker(f *os.File, queue chan []complex64, flushc chan struct{},
	donec chan struct{}, chain *dsp.CaptureChain, frequency radio.Frequency, started time.Time) {
	defer close(donec)
	defer chain.Close()

	bw := bufio.NewWriter(f)
	iqw := radio.NewIQWriter(bw)
	failed := false
	for queue != nil {
		select {
		case samps, ok := <-queue:
			if !ok {
				queue = nil
				break
			}
			if failed {
				break
			}
			if err := iqw.Write64(chain.Process(samps)); err != nil {
				glog.Errorf("clip write %s: %v", f.Name(), err)
				failed = true
			}
		case <-flushc:
			if failed {
				break
			}
			if err := bw.Flush(); err != nil {
				glog.Errorf("clip flush %s: %v", f.Name(), err)
				failed = true
				break
			}
			f.Sync()
		}
	}

	if !failed {
		if err := bw.Flush(); err != nil {
			glog.Errorf("clip flush %s: %v", f.Name(), err)
			failed = true
		}
	}
	path := f.Name()
	f.Close()
	if failed {
		return
	}
	r.data.PushRecording(ClipInfo{
		Id:         uuid.NewString(),
		Frequency:  frequency,
		SampleRate: chain.OutputRate(),
		Path:       path,
		StartTime:  started.UnixMilli(),
		DurationMs: time.Since(started).Milliseconds(),
	})
}
