package scanrx

import (
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/chzchzchz/scanrx/radio"
)

// Publisher is the outbound sink for spectrogram frames and recording
// metadata.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// SpectrogramFrame is one rate-limited row of quantised spectrum.
type SpectrogramFrame struct {
	Timestamp  int64           `json:"timestamp_ms"`
	Frequency  radio.Frequency `json:"frequency"`
	SampleRate radio.Frequency `json:"sample_rate"`
	Data       []byte          `json:"data"`
}

// ClipInfo describes one finished recording.
type ClipInfo struct {
	Id         string          `json:"id"`
	Frequency  radio.Frequency `json:"frequency"`
	SampleRate radio.Frequency `json:"sample_rate"`
	Path       string          `json:"path"`
	StartTime  int64           `json:"start_time_ms"`
	DurationMs int64           `json:"duration_ms"`
}

// DataController serialises outbound frames and clip metadata for one
// device. Publish failures are logged and dropped; the pipeline never
// blocks on the sink.
type DataController struct {
	pub      Publisher
	deviceId string
}

func NewDataController(pub Publisher, deviceId string) *DataController {
	return &DataController{pub: pub, deviceId: deviceId}
}

func (d *DataController) PushSpectrogram(at time.Time, frequency, sampleRate radio.Frequency, data []int8) {
	buf := make([]byte, len(data))
	for i, v := range data {
		buf[i] = byte(v)
	}
	d.push("spectrogram/"+d.deviceId, SpectrogramFrame{
		Timestamp:  at.UnixMilli(),
		Frequency:  frequency,
		SampleRate: sampleRate,
		Data:       buf,
	})
}

func (d *DataController) PushRecording(clip ClipInfo) {
	d.push("recordings/"+d.deviceId, clip)
}

func (d *DataController) push(topic string, v interface{}) {
	if d.pub == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("marshal %s: %v", topic, err)
		return
	}
	if err := d.pub.Publish(topic, payload); err != nil {
		glog.Warningf("publish %s: %v", topic, err)
	}
}
