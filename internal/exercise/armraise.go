package exercise

import (
	"fmt"
	"math"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// ArmStage is the state of one arm's raise state machine.
type ArmStage int

const (
	// ArmUnset is the stage before any valid observation.
	ArmUnset ArmStage = iota
	// ArmDown means the arm was seen extended and a raise may be counted.
	ArmDown
	// ArmCorrect means a raise was just counted.
	ArmCorrect
	// ArmIncorrect means the last frame failed the form check.
	ArmIncorrect
)

func (s ArmStage) String() string {
	switch s {
	case ArmUnset:
		return ""
	case ArmDown:
		return "down"
	case ArmCorrect:
		return "correct"
	case ArmIncorrect:
		return "incorrect"
	}
	return fmt.Sprintf("ArmStage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s ArmStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Side selects an arm.
type Side int

const (
	// Right is the person's right arm.
	Right Side = iota
	// Left is the person's left arm.
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// ArmThresholds configures the arm raise state machine.
type ArmThresholds struct {
	// Extended is the elbow angle above which the arm counts as lowered.
	Extended float64 `yaml:"extended_angle"`
	// Raised is the elbow angle below which a raise is counted.
	Raised float64 `yaml:"raised_angle"`
	// Tolerance is the maximum horizontal offset, in normalized units,
	// between elbow and hip and between wrist and shoulder.
	Tolerance float64 `yaml:"alignment_tolerance"`
}

// DefaultArmThresholds returns the stock arm raise thresholds.
func DefaultArmThresholds() ArmThresholds {
	return ArmThresholds{
		Extended:  160,
		Raised:    70,
		Tolerance: 0.08,
	}
}

// Validate checks 0 < Raised < Extended < 360 and a positive tolerance.
func (t ArmThresholds) Validate() error {
	if t.Raised <= 0 || t.Raised >= t.Extended {
		return fmt.Errorf("arm_raise: raised_angle (%v) must be in (0, extended_angle)", t.Raised)
	}
	if t.Extended >= 360 {
		return fmt.Errorf("arm_raise: extended_angle must be below 360, got %v", t.Extended)
	}
	if t.Tolerance <= 0 {
		return fmt.Errorf("arm_raise: alignment_tolerance must be positive, got %v", t.Tolerance)
	}
	return nil
}

// ArmForm is the result of the per-frame form check for one arm.
type ArmForm struct {
	ElbowClose  bool
	WristInLine bool
}

// OK reports whether both checks passed.
func (f ArmForm) OK() bool {
	return f.ElbowClose && f.WristInLine
}

// CheckArmForm tests that the elbow stays beside the hip and the wrist stays
// under the shoulder, horizontally, within tol.
func CheckArmForm(shoulder, elbow, wrist, hip geometry.Point, tol float64) ArmForm {
	return ArmForm{
		ElbowClose:  math.Abs(elbow.X-hip.X) < tol,
		WristInLine: math.Abs(wrist.X-shoulder.X) < tol,
	}
}

// ArmCounter is the raise state machine for a single arm.
//
// A raise is counted when the arm is first seen extended past Extended and
// then bent below Raised while the form check holds. Any frame with bad form
// marks the arm incorrect, which also forces a fresh extension before the
// next raise can count.
type ArmCounter struct {
	th    ArmThresholds
	stage ArmStage
	count int
}

// NewArmCounter creates an ArmCounter in the unset stage.
func NewArmCounter(th ArmThresholds) *ArmCounter {
	return &ArmCounter{th: th}
}

// Update advances the state machine with the current elbow angle and the
// result of the form check.
func (c *ArmCounter) Update(angle float64, formOK bool) {
	switch {
	case !formOK:
		c.stage = ArmIncorrect
	case angle > c.th.Extended:
		c.stage = ArmDown
	case angle < c.th.Raised && c.stage == ArmDown:
		c.stage = ArmCorrect
		c.count++
	}
}

// Stage returns the current stage.
func (c *ArmCounter) Stage() ArmStage { return c.stage }

// Count returns the number of counted raises.
func (c *ArmCounter) Count() int { return c.count }

// armJoints names the landmarks of one arm.
type armJoints struct {
	shoulder, elbow, wrist, hip int
}

var (
	rightArm = armJoints{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip}
	leftArm  = armJoints{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip}
)

// ArmRaise counts raises for both arms with two independent counters.
type ArmRaise struct {
	th     ArmThresholds
	right  *ArmCounter
	left   *ArmCounter
	angles [2]float64
}

// NewArmRaise creates an ArmRaise exercise with the given thresholds.
func NewArmRaise(th ArmThresholds) *ArmRaise {
	return &ArmRaise{
		th:    th,
		right: NewArmCounter(th),
		left:  NewArmCounter(th),
	}
}

// Kind implements Exercise.
func (a *ArmRaise) Kind() Kind { return KindArmRaises }

// Observe implements Exercise.
func (a *ArmRaise) Observe(p *pose.Pose) {
	if p == nil {
		return
	}
	a.angles[Right] = a.observeArm(p, rightArm, a.right)
	a.angles[Left] = a.observeArm(p, leftArm, a.left)
}

func (a *ArmRaise) observeArm(p *pose.Pose, j armJoints, c *ArmCounter) float64 {
	shoulder, elbow, wrist, hip := p.Point(j.shoulder), p.Point(j.elbow), p.Point(j.wrist), p.Point(j.hip)

	angle := geometry.SweepAngle(shoulder, elbow, wrist)
	form := CheckArmForm(shoulder, elbow, wrist, hip, a.th.Tolerance)
	c.Update(angle, form.OK())

	return angle
}

// Counter returns the state machine for one arm.
func (a *ArmRaise) Counter(side Side) *ArmCounter {
	if side == Left {
		return a.left
	}
	return a.right
}

// Progress implements Exercise.
func (a *ArmRaise) Progress() Progress {
	return Progress{
		RightCount: a.right.Count(),
		LeftCount:  a.left.Count(),
		RightStage: a.right.Stage().String(),
		LeftStage:  a.left.Stage().String(),
		RightAngle: a.angles[Right],
		LeftAngle:  a.angles[Left],
	}
}

// GoalReached implements Exercise. Either arm reaching the goal is enough.
func (a *ArmRaise) GoalReached(goal int) bool {
	return a.right.Count() >= goal || a.left.Count() >= goal
}
