package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	at := time.Date(2026, 8, 5, 13, 14, 15, 0, time.Local)
	assert.Equal(t,
		"recording_20260805_131415_145625000_2048000_iq8.raw",
		FileName("recording", "iq8", 145625000, 2048000, at))
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	cs, err := NewClipStore(dir)
	assert.NoError(t, err)

	at := time.Date(2026, 8, 5, 13, 14, 15, 0, time.Local)
	f, err := cs.Create("full", "iq8", 100000000, 1024000, at)
	assert.NoError(t, err)
	defer f.Close()

	_, err = os.Stat(filepath.Join(dir, "full_20260805_131415_100000000_1024000_iq8.raw"))
	assert.NoError(t, err)
}
