package app

import "sync"

// subscriberBuffer is the number of frames a slow client may lag behind
// before frames are dropped for it.
const subscriberBuffer = 2

// FrameHub fans encoded frames out to stream subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the frame.
type FrameHub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	latest []byte
}

// NewFrameHub returns a hub with no subscribers and no frame yet.
func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[chan []byte]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; it is safe to call more than once.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers frame to every subscriber that has room for it.
func (h *FrameHub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = frame
	for ch := range h.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Latest returns the most recently published frame, or nil.
func (h *FrameHub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Clients returns the number of subscribers.
func (h *FrameHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
