package scanrx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chzchzchz/scanrx/radio"
)

func TestMailboxLatestWins(t *testing.T) {
	m := NewMailbox()
	m.Post([]radio.FrequencyFlush{{Shift: 100}})
	m.Post([]radio.FrequencyFlush{{Shift: 200}})
	m.Post([]radio.FrequencyFlush{{Shift: 300}})

	got := m.Wait()
	assert.Equal(t, radio.Frequency(300), got[0].Shift, "unread notification overwritten")
}

func TestMailboxBlocksUntilPost(t *testing.T) {
	m := NewMailbox()
	done := make(chan []radio.FrequencyFlush)
	go func() { done <- m.Wait() }()
	m.Post(nil)
	assert.Nil(t, <-done)
}
