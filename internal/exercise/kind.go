// Package exercise implements the per-exercise rep counting state machines.
//
// Each exercise consumes one pose per frame, reduces it to joint angles and
// advances a small finite-state machine. Counters only ever grow; a fresh
// Exercise value is the only way to reset them.
package exercise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/repcoach/internal/pose"
)

// ErrUnknownKind is returned when an exercise name is not recognized.
var ErrUnknownKind = errors.New("unknown exercise")

// Kind identifies an exercise type.
type Kind string

const (
	// KindSquats counts squats from the left knee angle.
	KindSquats Kind = "Squats"
	// KindArmRaises counts arm raises independently for each arm.
	KindArmRaises Kind = "Arm Raises"
)

// ParseKind resolves a user supplied exercise name. Matching ignores case,
// spaces, dashes and underscores, and accepts the singular form.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)

	switch key {
	case "squats", "squat":
		return KindSquats, nil
	case "armraises", "armraise":
		return KindArmRaises, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Exercise is one counting session for a single exercise type.
type Exercise interface {
	// Kind reports which exercise is being counted.
	Kind() Kind

	// Observe advances the state machine with one detected pose.
	Observe(p *pose.Pose)

	// Progress returns the current counters, stages and feedback.
	Progress() Progress

	// GoalReached reports whether the rep goal has been met.
	GoalReached(goal int) bool
}

// Progress is the externally visible state of an exercise. Only the fields
// relevant to the active exercise are populated.
type Progress struct {
	// Squats
	Count    int     `json:"count"`
	Wrong    int     `json:"wrong"`
	Angle    float64 `json:"angle"`
	Stage    string  `json:"stage"`
	Feedback string  `json:"feedback"`

	// Arm raises
	RightCount int     `json:"right_count"`
	LeftCount  int     `json:"left_count"`
	RightStage string  `json:"right_stage"`
	LeftStage  string  `json:"left_stage"`
	RightAngle float64 `json:"right_angle"`
	LeftAngle  float64 `json:"left_angle"`
}

// Config holds the thresholds for every exercise.
type Config struct {
	Squat    SquatThresholds
	ArmRaise ArmThresholds
}

// DefaultConfig returns a Config with the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Squat:    DefaultSquatThresholds(),
		ArmRaise: DefaultArmThresholds(),
	}
}

// Validate checks that every threshold band is well formed.
func (c Config) Validate() error {
	if err := c.Squat.Validate(); err != nil {
		return err
	}
	return c.ArmRaise.Validate()
}

// New creates a fresh Exercise of the given kind.
func New(kind Kind, cfg Config) (Exercise, error) {
	switch kind {
	case KindSquats:
		return NewSquat(cfg.Squat), nil
	case KindArmRaises:
		return NewArmRaise(cfg.ArmRaise), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}
