package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chzchzchz/scanrx/radio"
)

// ClipStore hands out raw capture files named after the signal they
// hold: <label>_YYYYMMDD_HHMMSS_<frequencyHz>_<sampleRateHz>_<ext>.raw
type ClipStore struct {
	baseDir string
}

func NewClipStore(dir string) (*ClipStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &ClipStore{dir}, nil
}

func FileName(label, extension string, frequency, sampleRate radio.Frequency, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%d_%s.raw",
		label, at.Format("20060102_150405"), frequency, sampleRate, extension)
}

func (cs *ClipStore) Create(label, extension string, frequency, sampleRate radio.Frequency, at time.Time) (*os.File, error) {
	fn := filepath.Join(cs.baseDir, FileName(label, extension, frequency, sampleRate, at))
	return os.OpenFile(fn, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
}

// Remove deletes a clip previously handed out by Create.
func (cs *ClipStore) Remove(path string) error { return os.Remove(path) }
