package shared

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/tiff-splitter/internal/splitter"
)

// EngineEventMsg wraps a splitter.Event for use as a tea.Msg.
type EngineEventMsg struct {
	Event splitter.Event
}

// EventBridge adapts splitter events to bubble tea messages.
// It implements splitter.EventEmitter and provides a channel for TUI consumption.
//
// Emit never blocks the engine. When the buffer is full, progress events
// (file, page and move steps) are dropped, but batch and per-file results are
// spilled to an overflow list and delivered after the buffer, so the finished
// count always reaches the total.
type EventBridge struct {
	mu        sync.Mutex
	eventChan chan tea.Msg
	spilled   []EngineEventMsg
	closed    bool
	dropped   int
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, eventBufferSize),
	}
}

// mustDeliver reports whether losing event would leave the display wrong
// rather than just behind.
func mustDeliver(event splitter.Event) bool {
	switch event.(type) {
	case splitter.BatchStarted, splitter.BatchComplete,
		splitter.FileDone, splitter.FileSkipped, splitter.FileFailed:
		return true
	default:
		return false
	}
}

// Emit implements splitter.EventEmitter.
func (b *EventBridge) Emit(event splitter.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	msg := EngineEventMsg{Event: event}
	keep := mustDeliver(event)

	// Results queue behind earlier spilled results to keep their order.
	if keep && len(b.spilled) > 0 {
		b.spilled = append(b.spilled, msg)
		return
	}

	select {
	case b.eventChan <- msg:
	default:
		if keep {
			b.spilled = append(b.spilled, msg)
		} else {
			b.dropped++
		}
	}
}

// Dropped returns how many progress events were lost to a full buffer.
func (b *EventBridge) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

func (b *EventBridge) popSpilled() (EngineEventMsg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.spilled) == 0 {
		return EngineEventMsg{}, false
	}

	msg := b.spilled[0]
	b.spilled = b.spilled[1:]

	return msg, true
}

// Drain returns every event already buffered or spilled without waiting for
// more.
func (b *EventBridge) Drain() []EngineEventMsg {
	var msgs []EngineEventMsg

	for {
		select {
		case msg, ok := <-b.eventChan:
			if eventMsg, isEvent := msg.(EngineEventMsg); ok && isEvent {
				msgs = append(msgs, eventMsg)
				continue
			}
		default:
		}

		msg, ok := b.popSpilled()
		if !ok {
			return msgs
		}

		msgs = append(msgs, msg)
	}
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Use this in Init() or after processing an event to continue listening.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-b.eventChan:
			if ok {
				return msg
			}
		default:
		}

		if msg, ok := b.popSpilled(); ok {
			return msg
		}

		// Results are only spilled while the buffer is full, so nothing can
		// be spilled while this waits on an empty buffer.
		msg, ok := <-b.eventChan
		if !ok {
			return nil
		}

		return msg
	}
}

// Close closes the event channel. Later Emit calls are no-ops; spilled
// results can still be read.
func (b *EventBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}

// BatchDoneMsg is sent when the engine returns from ProcessDirectory.
type BatchDoneMsg struct {
	Summary splitter.Summary
	Err     error
}

// unexported constants.
const (
	eventBufferSize = 256
)
