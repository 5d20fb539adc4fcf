package scanrx

import (
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/chzchzchz/scanrx/radio"
)

// ScanTarget is the device surface the scanner drives.
type ScanTarget interface {
	SetFrequencyRange(fr radio.FrequencyRange)
	UpdateRecordings(sortedShifts []radio.FrequencyFlush) bool
}

// Scanner cycles the device through the configured ranges. Each range
// gets a dwell of scanTime unless a recording is in flight, in which
// case the scanner holds the range until the pool drains.
type Scanner struct {
	target       ScanTarget
	ranges       []radio.FrequencyRange
	notification *Mailbox
	scanTime     time.Duration

	running atomic.Bool
	donec   chan struct{}
	now     func() time.Time
}

func NewScanner(target ScanTarget, ranges []radio.FrequencyRange, notification *Mailbox, scanTime time.Duration) *Scanner {
	glog.Infof("scanned ranges: %d", len(ranges))
	for _, r := range ranges {
		glog.Infof("scanned range: %s", r)
	}
	return &Scanner{
		target:       target,
		ranges:       ranges,
		notification: notification,
		scanTime:     scanTime,
		donec:        make(chan struct{}),
		now:          time.Now,
	}
}

func (s *Scanner) Start() {
	s.running.Store(true)
	go s.worker()
}

// Stop wakes the worker with a sentinel notification and joins it.
func (s *Scanner) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.notification.Post(nil)
	<-s.donec
}

func (s *Scanner) worker() {
	defer close(s.donec)
	glog.Info("scanner thread started")
	defer glog.Info("scanner thread stopped")

	switch len(s.ranges) {
	case 0:
		glog.Warning("empty scanned ranges")
	case 1:
		s.target.SetFrequencyRange(s.ranges[0])
		for s.running.Load() {
			s.target.UpdateRecordings(s.notification.Wait())
		}
	default:
		for s.running.Load() {
			for _, r := range s.ranges {
				if !s.running.Load() {
					break
				}
				s.target.SetFrequencyRange(r)
				s.dwell()
			}
		}
	}
}

// dwell consumes notifications until the dwell window has elapsed and
// no recording is in flight.
func (s *Scanner) dwell() {
	deadline := s.now().Add(s.scanTime)
	for s.running.Load() {
		recording := s.target.UpdateRecordings(s.notification.Wait())
		if !recording && !s.now().Before(deadline) {
			return
		}
	}
}
