package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// events queues view updates produced under the session lock until the
// program loop picks them up. Push never blocks.
type events struct {
	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
}

func newEvents() *events {
	return &events{notify: make(chan struct{}, 1)}
}

func (e *events) push(msg tea.Msg) {
	e.mu.Lock()
	e.queue = append(e.queue, msg)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// pop returns the oldest queued message, if any.
func (e *events) pop() (tea.Msg, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	msg := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return msg, true
}

// next returns a command that waits for the next queued message. The model
// issues it again after handling each one.
func (e *events) next() tea.Cmd {
	return func() tea.Msg {
		for {
			if msg, ok := e.pop(); ok {
				return msg
			}
			<-e.notify
		}
	}
}
