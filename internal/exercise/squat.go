package exercise

import (
	"fmt"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// SquatStage is the state of the squat state machine.
type SquatStage int

const (
	// SquatUp is standing; every rep starts and ends here.
	SquatUp SquatStage = iota
	// SquatDown means the knee angle entered the accepted depth band.
	SquatDown
	// SquatWrong means a squat was attempted outside the depth band.
	SquatWrong
)

func (s SquatStage) String() string {
	switch s {
	case SquatUp:
		return "up"
	case SquatDown:
		return "down"
	case SquatWrong:
		return "wrong"
	}
	return fmt.Sprintf("SquatStage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SquatStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Squat feedback messages.
const (
	FeedbackGoodSquat = "Good squat"
	feedbackTooDeep   = "Too deep (%d°)"
)

// SquatThresholds configures the squat depth band and the standing threshold.
type SquatThresholds struct {
	DownMin float64 `yaml:"down_angle_min"`
	DownMax float64 `yaml:"down_angle_max"`
	Up      float64 `yaml:"up_angle"`
}

// DefaultSquatThresholds returns the stock squat thresholds.
func DefaultSquatThresholds() SquatThresholds {
	return SquatThresholds{
		DownMin: 75,
		DownMax: 80,
		Up:      170,
	}
}

// Validate checks 0 < DownMin <= DownMax < Up <= 180.
func (t SquatThresholds) Validate() error {
	if t.DownMin <= 0 || t.DownMin > t.DownMax {
		return fmt.Errorf("squat: down_angle_min must be in (0, down_angle_max], got %v", t.DownMin)
	}
	if t.DownMax >= t.Up {
		return fmt.Errorf("squat: down_angle_max (%v) must be below up_angle (%v)", t.DownMax, t.Up)
	}
	if t.Up > 180 {
		return fmt.Errorf("squat: up_angle must not exceed 180, got %v", t.Up)
	}
	return nil
}

// SquatCounter is the squat state machine. It consumes one knee angle per
// frame.
//
// A rep counts only when the knee passes through the depth band and then
// returns above the standing threshold. Going below the band registers a
// wrong rep instead. Angles between the band and the standing threshold
// never change the stage, so noise at the bottom cannot double count.
type SquatCounter struct {
	th       SquatThresholds
	stage    SquatStage
	count    int
	wrong    int
	feedback string
}

// NewSquatCounter creates a SquatCounter in the up stage.
func NewSquatCounter(th SquatThresholds) *SquatCounter {
	return &SquatCounter{th: th, stage: SquatUp}
}

// Update advances the state machine with the current knee angle.
func (c *SquatCounter) Update(angle float64) {
	switch {
	case angle <= c.th.DownMax:
		if c.stage != SquatUp {
			return
		}
		if angle >= c.th.DownMin {
			c.stage = SquatDown
			c.feedback = FeedbackGoodSquat
			return
		}
		c.stage = SquatWrong
		c.wrong++
		c.feedback = fmt.Sprintf(feedbackTooDeep, int(angle))

	case angle >= c.th.Up:
		if c.stage == SquatUp {
			return
		}
		if c.stage == SquatDown {
			c.count++
		}
		c.stage = SquatUp
		c.feedback = ""
	}
}

// Stage returns the current stage.
func (c *SquatCounter) Stage() SquatStage { return c.stage }

// Count returns the number of good reps.
func (c *SquatCounter) Count() int { return c.count }

// Wrong returns the number of wrong reps.
func (c *SquatCounter) Wrong() int { return c.wrong }

// Feedback returns the current form feedback, empty while standing.
func (c *SquatCounter) Feedback() string { return c.feedback }

// Squat counts squats from the left hip-knee-ankle angle.
type Squat struct {
	counter *SquatCounter
	angle   float64
}

// NewSquat creates a Squat exercise with the given thresholds.
func NewSquat(th SquatThresholds) *Squat {
	return &Squat{counter: NewSquatCounter(th)}
}

// Kind implements Exercise.
func (s *Squat) Kind() Kind { return KindSquats }

// Observe implements Exercise.
func (s *Squat) Observe(p *pose.Pose) {
	if p == nil {
		return
	}
	s.angle = geometry.AngleAt(p.Point(pose.LeftHip), p.Point(pose.LeftKnee), p.Point(pose.LeftAnkle))
	s.counter.Update(s.angle)
}

// Progress implements Exercise.
func (s *Squat) Progress() Progress {
	return Progress{
		Count:    s.counter.Count(),
		Wrong:    s.counter.Wrong(),
		Angle:    s.angle,
		Stage:    s.counter.Stage().String(),
		Feedback: s.counter.Feedback(),
	}
}

// GoalReached implements Exercise.
func (s *Squat) GoalReached(goal int) bool {
	return s.counter.Count() >= goal
}
