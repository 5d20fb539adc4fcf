package radio

import (
	"context"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/bemasher/rtltcp"
	"github.com/golang/glog"
	"github.com/kr/pty"
)

var minFreqHz = Frequency(25000000)
var maxFreqHz = Frequency(1750000000)

const rtlTCPAddr = "127.0.0.1:12345"

type rtlSDR struct {
	*rtltcp.SDR
	cmd  *exec.Cmd
	fpty *os.File
	// device serial number or device index
	serialNumber string

	lastCenter Frequency
	lastRate   Frequency

	mu sync.Mutex
}

func newRTLSDR(ctx context.Context, ser string) (*rtlSDR, error) {
	cmd := exec.CommandContext(ctx, "rtl_tcp", "-a", "127.0.0.1", "-p", "12345", "-d", ser, "-s", "240000")
	fpty, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	go io.Copy(os.Stdout, fpty)
	// rtl_tcp has no ready handshake; give it time to listen.
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s := &rtlSDR{fpty: fpty, cmd: cmd, serialNumber: ser}
	if err := s.initSDR(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *rtlSDR) SetFrequency(hz Frequency) error {
	if hz < minFreqHz || hz > maxFreqHz {
		return ErrFrequencyOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCenter == hz {
		return nil
	}
	if err := s.SDR.SetCenterFreq(uint32(hz)); err != nil {
		return err
	}
	s.lastCenter = hz
	return nil
}

func isValidRate(rate Frequency) bool {
	return !((rate <= 225000) || (rate > 3200000) ||
		((rate > 300000) && (rate <= 900000)))
}

func (s *rtlSDR) SetSampleRate(rate Frequency) error {
	if !isValidRate(rate) {
		return ErrRateOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRate == rate {
		return nil
	}
	if err := s.SDR.SetSampleRate(uint32(rate)); err != nil {
		return err
	}
	s.lastRate = rate
	return nil
}

// SetGain maps gain names to rtl_tcp commands. "TUNER" is dB, "IF" is
// a stage<<8|dB pair, "PPM" is frequency correction, "TUNER_AGC" and
// "RTL_AGC" are on/off.
func (s *rtlSDR) SetGain(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case "TUNER":
		if err := s.SDR.SetGainMode(false); err != nil {
			return err
		}
		return s.SDR.SetGain(uint32(value * 10))
	case "TUNER_AGC":
		return s.SDR.SetGainMode(value != 0)
	case "RTL_AGC":
		return s.SDR.SetAGCMode(value != 0)
	case "IF":
		stage := uint16(value) >> 8
		return s.SDR.SetTunerIfGain(stage, uint16(value)&0xff)
	case "PPM":
		return s.SDR.SetFreqCorrection(uint32(value))
	}
	glog.Warningf("unknown gain %q ignored", name)
	return nil
}

func (s *rtlSDR) Stream(ctx context.Context, batch int) <-chan []complex64 {
	s.mu.Lock()
	conn := s.SDR
	s.mu.Unlock()
	if conn == nil {
		ch := make(chan []complex64)
		close(ch)
		return ch
	}
	return NewIQReader(conn).BatchStream64(ctx, batch, 0)
}

func (s *rtlSDR) Close() error {
	s.mu.Lock()
	if s.SDR != nil {
		s.SDR.Close()
		s.SDR = nil
	}
	s.mu.Unlock()
	s.fpty.Close()
	return s.cmd.Wait()
}

func connect(ctx context.Context) (*rtltcp.SDR, error) {
	addr, err := net.ResolveTCPAddr("tcp4", rtlTCPAddr)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 10; i++ {
		sdr := &rtltcp.SDR{}
		if err = sdr.Connect(addr); err == nil {
			return sdr, nil
		}
		glog.V(1).Infof("rtl_tcp connect: %v", err)
		time.Sleep(100 * time.Millisecond)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func (s *rtlSDR) initSDR() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SDR != nil {
		return nil
	}
	conn, err := connect(context.TODO())
	if err != nil {
		return err
	}
	s.SDR = conn
	return nil
}
