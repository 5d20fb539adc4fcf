package scanrx

import (
	"sync"

	"github.com/chzchzchz/scanrx/radio"
)

// Mailbox is a single-slot latest-wins channel between the tracker and
// the scanner. Post overwrites any unread notification; waiting never
// observes stale active sets after a burst.
type Mailbox struct {
	mu sync.Mutex
	ch chan []radio.FrequencyFlush
}

func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan []radio.FrequencyFlush, 1)}
}

func (m *Mailbox) Post(shifts []radio.FrequencyFlush) {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case m.ch <- shifts:
	default:
		select {
		case <-m.ch:
		default:
		}
		m.ch <- shifts
	}
}

// Wait blocks for the next notification.
func (m *Mailbox) Wait() []radio.FrequencyFlush {
	return <-m.ch
}
