// Package session owns the active exercise session and the stats snapshot
// shared between the frame pipeline and the readers of that snapshot.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// ErrInvalidGoal is returned by Start when the goal is not positive.
var ErrInvalidGoal = errors.New("goal must be a positive integer")

// Stats is a point-in-time view of a session. It is a plain value and is
// safe to hand to other goroutines.
type Stats struct {
	SessionID   string        `json:"session_id"`
	Exercise    exercise.Kind `json:"exercise"`
	Goal        int           `json:"goal"`
	Running     bool          `json:"running"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    float64       `json:"duration"`
	GoalReached bool          `json:"goal_reached"`
	Frames      int           `json:"frames"`
	exercise.Progress
}

// EventType names a session lifecycle event.
type EventType string

const (
	EventStarted     EventType = "started"
	EventRep         EventType = "rep"
	EventWrongRep    EventType = "wrong_rep"
	EventGoalReached EventType = "goal_reached"
	EventStopped     EventType = "stopped"
)

// Event is emitted after a state change, outside the controller lock.
type Event struct {
	Type EventType
	// Side is set for arm raise reps.
	Side  string
	Stats Stats
}

// Config holds the controller configuration.
type Config struct {
	Exercise exercise.Config
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
	// OnEvent, if set, receives lifecycle events. It is called synchronously
	// on the goroutine that caused the event and must not block.
	OnEvent func(Event)
}

// Controller runs one exercise session at a time.
//
// All state is guarded by a single mutex. ProcessFrame applies a frame's
// update completely under the lock, so a reader never sees a snapshot
// that mixes two frames.
type Controller struct {
	config Config
	clock  func() time.Time

	mu        sync.Mutex
	ex        exercise.Exercise
	id        string
	goal      int
	running   bool
	startedAt time.Time
	reached   bool
	frames    int
	snapshot  Stats
}

// NewController creates a Controller with no active session.
func NewController(config Config) *Controller {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		config: config,
		clock:  clock,
	}
}

// Start begins a new session, discarding all state from any previous one.
// A session that is still running is stopped first and reported with an
// EventStopped. An unknown exercise or a non-positive goal is rejected and
// leaves the current session untouched.
func (c *Controller) Start(kind exercise.Kind, goal int) (Stats, error) {
	if err := c.Validate(kind, goal); err != nil {
		return Stats{}, err
	}
	ex, err := exercise.New(kind, c.config.Exercise)
	if err != nil {
		return Stats{}, err
	}

	c.mu.Lock()
	var replaced *Stats
	if c.running {
		c.rebuildLocked()
		c.snapshot.Running = false
		prev := c.snapshot
		replaced = &prev
	}
	c.ex = ex
	c.id = uuid.NewString()
	c.goal = goal
	c.running = true
	c.startedAt = c.clock()
	c.reached = false
	c.frames = 0
	c.rebuildLocked()
	stats := c.snapshot
	c.mu.Unlock()

	if replaced != nil {
		c.emit(Event{Type: EventStopped, Stats: *replaced})
	}
	c.emit(Event{Type: EventStarted, Stats: stats})
	return stats, nil
}

// Validate reports the error Start would return for kind and goal without
// touching the current session.
func (c *Controller) Validate(kind exercise.Kind, goal int) error {
	if goal <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}
	switch kind {
	case exercise.KindSquats, exercise.KindArmRaises:
		return nil
	}
	return fmt.Errorf("%w: %q", exercise.ErrUnknownKind, string(kind))
}

// ProcessFrame applies one frame to the active session and returns the
// resulting snapshot. A nil pose means nothing was detected; the exercise
// state is left as it was and only the elapsed time advances.
//
// Frames arriving while no session is running are discarded.
func (c *Controller) ProcessFrame(p *pose.Pose) Stats {
	c.mu.Lock()
	if !c.running {
		stats := c.snapshot
		c.mu.Unlock()
		return stats
	}

	before := c.snapshot
	if p != nil {
		c.ex.Observe(p)
		c.frames++
	}
	c.rebuildLocked()
	stats := c.snapshot

	var events []Event
	if p != nil {
		events = diff(before, stats)
		if stats.GoalReached && !c.reached {
			c.reached = true
			events = append(events, Event{Type: EventGoalReached, Stats: stats})
		}
	}
	c.mu.Unlock()

	for _, e := range events {
		c.emit(e)
	}
	return stats
}

// Stop ends the active session and returns the final snapshot, with the
// duration frozen at the moment of the call. Stopping an idle controller
// returns the last snapshot unchanged.
func (c *Controller) Stop() Stats {
	c.mu.Lock()
	if !c.running {
		stats := c.snapshot
		c.mu.Unlock()
		return stats
	}
	c.rebuildLocked()
	c.running = false
	c.snapshot.Running = false
	stats := c.snapshot
	c.mu.Unlock()

	c.emit(Event{Type: EventStopped, Stats: stats})
	return stats
}

// Stats returns the current snapshot. It has no side effects: two calls with
// no frame in between return identical values. Before the first Start the
// snapshot is zeroed.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Running reports whether a session is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// rebuildLocked recomputes the snapshot from the exercise state.
// c.mu must be held.
func (c *Controller) rebuildLocked() {
	c.snapshot = Stats{
		SessionID:   c.id,
		Exercise:    c.ex.Kind(),
		Goal:        c.goal,
		Running:     c.running,
		StartedAt:   c.startedAt,
		Duration:    c.clock().Sub(c.startedAt).Seconds(),
		GoalReached: c.ex.GoalReached(c.goal),
		Frames:      c.frames,
		Progress:    c.ex.Progress(),
	}
}

func (c *Controller) emit(e Event) {
	if c.config.OnEvent != nil {
		c.config.OnEvent(e)
	}
}

// diff derives rep events from two consecutive snapshots.
func diff(before, after Stats) []Event {
	var events []Event
	if after.Count > before.Count {
		events = append(events, Event{Type: EventRep, Stats: after})
	}
	if after.Wrong > before.Wrong {
		events = append(events, Event{Type: EventWrongRep, Stats: after})
	}
	if after.RightCount > before.RightCount {
		events = append(events, Event{Type: EventRep, Side: exercise.Right.String(), Stats: after})
	}
	if after.LeftCount > before.LeftCount {
		events = append(events, Event{Type: EventRep, Side: exercise.Left.String(), Stats: after})
	}
	return events
}
