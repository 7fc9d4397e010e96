package server

import (
	"sync"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/session"
)

// fakeSessions is a concurrency-safe stand-in for the app.
type fakeSessions struct {
	mu    sync.Mutex
	stats session.Stats
}

func (f *fakeSessions) StartSession(kind exercise.Kind, goal int) (session.Stats, error) {
	if goal <= 0 {
		return session.Stats{}, session.ErrInvalidGoal
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = session.Stats{SessionID: "sess-1", Exercise: kind, Goal: goal, Running: true}
	return f.stats, nil
}

func (f *fakeSessions) StopSession() session.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.Running = false
	return f.stats
}

func (f *fakeSessions) Stats() session.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeSessions) setCount(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.Count = n
}

// fakeFrames is a FrameSource with a single subscriber slot.
type fakeFrames struct {
	mu     sync.Mutex
	latest []byte
	ch     chan []byte
}

func newFakeFrames(latest []byte) *fakeFrames {
	return &fakeFrames{latest: latest, ch: make(chan []byte, 4)}
}

func (f *fakeFrames) Subscribe() (<-chan []byte, func()) {
	return f.ch, func() {}
}

func (f *fakeFrames) Latest() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}
