package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chzchzchz/scanrx/radio"
)

// Config is the daemon's JSON configuration surface.
type Config struct {
	Driver string `json:"driver"`
	Serial string `json:"serial"`

	SampleRate  radio.Frequency `json:"sampleRate"`
	MaxBinWidth radio.Frequency `json:"maxBinWidth"`
	TargetFps   int             `json:"targetFps"`

	StartThreshold     float64         `json:"startThreshold"`
	StopThreshold      float64         `json:"stopThreshold"`
	RecordingTimeoutMs int             `json:"recordingTimeoutMs"`
	RecordingBandwidth radio.Frequency `json:"recordingBandwidth"`

	TuningStep      radio.Frequency `json:"tuningStep"`
	RangeScanTimeMs int             `json:"rangeScanTimeMs"`
	InitialDelayMs  int             `json:"initialDelayMs"`

	SpectrogramMinStep    radio.Frequency `json:"spectrogramMinStep"`
	SpectrogramIntervalMs int             `json:"spectrogramIntervalMs"`

	RecordersCount int                `json:"recordersCount"`
	Gains          map[string]float64 `json:"gains"`

	ScannedRanges []radio.FrequencyRange `json:"scannedRanges"`
	IgnoredRanges []radio.FrequencyRange `json:"ignoredRanges"`

	DebugSaveFullRawIq bool   `json:"debugSaveFullRawIq"`
	ClipDir            string `json:"clipDir"`

	Mqtt Mqtt `json:"mqtt"`
}

type Mqtt struct {
	Broker   string `json:"broker"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func Default() Config {
	return Config{
		Driver:                "rtlsdr",
		Serial:                "0",
		SampleRate:            2048000,
		MaxBinWidth:           1000,
		TargetFps:             10,
		StartThreshold:        10,
		StopThreshold:         5,
		RecordingTimeoutMs:    2000,
		RecordingBandwidth:    16000,
		TuningStep:            2500,
		RangeScanTimeMs:       3000,
		InitialDelayMs:        2000,
		SpectrogramMinStep:    1000,
		SpectrogramIntervalMs: 500,
		RecordersCount:        2,
	}
}

// Load reads and validates a config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sampleRate must be positive")
	}
	if c.MaxBinWidth <= 0 || c.MaxBinWidth > c.SampleRate {
		return fmt.Errorf("maxBinWidth %d out of range", c.MaxBinWidth)
	}
	binStep := c.SampleRate / radio.Frequency(radio.FFTSize(c.SampleRate, c.MaxBinWidth))
	if c.TargetFps <= 0 || radio.Frequency(c.TargetFps) > binStep {
		return fmt.Errorf("targetFps %d does not fit bin step %s", c.TargetFps, binStep)
	}
	if c.StartThreshold <= c.StopThreshold {
		return fmt.Errorf("startThreshold %.1f must exceed stopThreshold %.1f", c.StartThreshold, c.StopThreshold)
	}
	if c.RecordingBandwidth <= 0 || c.RecordingBandwidth > c.SampleRate {
		return fmt.Errorf("recordingBandwidth %d out of range", c.RecordingBandwidth)
	}
	if c.TuningStep <= 0 {
		return fmt.Errorf("tuningStep must be positive")
	}
	if c.RecordersCount < 1 {
		return fmt.Errorf("recordersCount must be at least 1")
	}
	for _, r := range append(append([]radio.FrequencyRange{}, c.ScannedRanges...), c.IgnoredRanges...) {
		if r.Low > r.High {
			return fmt.Errorf("range %s inverted", r)
		}
	}
	return nil
}

// Ranges returns the scanned ranges, splitting any range wider than
// the sample rate into sample-rate-wide chunks.
func (c Config) Ranges() []radio.FrequencyRange {
	return radio.SplitRanges(c.ScannedRanges, c.SampleRate)
}

func (c Config) RecordingTimeout() time.Duration {
	return time.Duration(c.RecordingTimeoutMs) * time.Millisecond
}

func (c Config) RangeScanTime() time.Duration {
	return time.Duration(c.RangeScanTimeMs) * time.Millisecond
}

func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

func (c Config) SpectrogramInterval() time.Duration {
	return time.Duration(c.SpectrogramIntervalMs) * time.Millisecond
}

// DeviceId names the device in outbound topics.
func (c Config) DeviceId() string { return c.Driver + "_" + c.Serial }
