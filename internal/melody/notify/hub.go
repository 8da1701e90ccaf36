// Package notify keeps the in-process registry of open live streams.
// Streams are scoped by recipient account ID; publishing for a recipient
// fans out to every stream that account currently holds open (multiple
// tabs, multiple devices). The hub carries no persistence — stored
// notification history lives in the document store.
package notify

import "sync"

// streamBuffer is the per-stream channel depth. A consumer that falls
// further behind than this loses events rather than blocking publishers.
const streamBuffer = 8

// Stream is one open live connection for a recipient.
type Stream struct {
	ch chan []byte
}

// C returns the channel the stream's frames arrive on. The channel is
// closed only when the hub itself shuts down, never on Unsubscribe.
func (s *Stream) C() <-chan []byte { return s.ch }

// Hub is a recipient-scoped fan-out registry.
type Hub struct {
	mu      sync.Mutex
	streams map[string]map[*Stream]struct{}
}

// NewHub creates a ready-to-use Hub.
func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]map[*Stream]struct{}),
	}
}

// Subscribe registers a new stream for the recipient and returns it.
func (h *Hub) Subscribe(recipientID string) *Stream {
	s := &Stream{ch: make(chan []byte, streamBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streams[recipientID] == nil {
		h.streams[recipientID] = make(map[*Stream]struct{})
	}
	h.streams[recipientID][s] = struct{}{}
	return s
}

// Unsubscribe removes a stream from the recipient's set. The last stream
// leaving drops the recipient's entry entirely.
func (h *Hub) Unsubscribe(recipientID string, s *Stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.streams[recipientID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.streams, recipientID)
		}
	}
}

// Publish delivers a frame to every open stream of the recipient without
// blocking: a stream with a full buffer is skipped. Returns the number of
// streams the frame was handed to.
func (h *Hub) Publish(recipientID string, frame []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.streams[recipientID] {
		select {
		case s.ch <- frame:
			delivered++
		default:
		}
	}
	return delivered
}

// Online reports whether the recipient has at least one open stream.
func (h *Hub) Online(recipientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams[recipientID]) > 0
}
