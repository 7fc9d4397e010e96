package exercise

import (
	"math/rand"
	"testing"

	"github.com/ayusman/repcoach/internal/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedSquat(c *SquatCounter, angles ...float64) []SquatStage {
	stages := make([]SquatStage, 0, len(angles))
	for _, a := range angles {
		c.Update(a)
		stages = append(stages, c.Stage())
	}
	return stages
}

func TestSquatCounter_GoodRep(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())

	stages := feedSquat(c, 180, 77, 180)

	assert.Equal(t, []SquatStage{SquatUp, SquatDown, SquatUp}, stages)
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 0, c.Wrong())
	assert.Empty(t, c.Feedback())
}

func TestSquatCounter_TooDeep(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())

	c.Update(180)
	c.Update(60)
	assert.Equal(t, SquatWrong, c.Stage())
	assert.Equal(t, "Too deep (60°)", c.Feedback())

	c.Update(180)
	assert.Equal(t, SquatUp, c.Stage())
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, c.Wrong())
}

func TestSquatCounter_NotDeepEnoughNeverRegisters(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())

	stages := feedSquat(c, 180, 90, 180)

	assert.Equal(t, []SquatStage{SquatUp, SquatUp, SquatUp}, stages)
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 0, c.Wrong())
}

func TestSquatCounter_FeedbackOnDown(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())
	c.Update(78)
	assert.Equal(t, FeedbackGoodSquat, c.Feedback())
}

func TestSquatCounter_BandEdgesAreInclusive(t *testing.T) {
	for _, angle := range []float64{75, 80} {
		c := NewSquatCounter(DefaultSquatThresholds())
		c.Update(angle)
		assert.Equal(t, SquatDown, c.Stage(), "angle %v", angle)
	}

	c := NewSquatCounter(DefaultSquatThresholds())
	feedSquat(c, 77, 170)
	assert.Equal(t, 1, c.Count(), "up threshold is inclusive")
}

func TestSquatCounter_Hysteresis(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())

	// Oscillating around the bottom and partway up never double counts.
	feedSquat(c, 180, 79, 76, 85, 78, 120, 77, 169, 77, 171)

	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 0, c.Wrong())
	assert.Equal(t, SquatUp, c.Stage())
}

func TestSquatCounter_WrongThenDownInSameDescent(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())

	// Once wrong, rising back into the band does not upgrade the rep.
	feedSquat(c, 180, 60, 77, 180)

	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, c.Wrong())
}

func TestSquatCounter_UpWithoutDescentDoesNothing(t *testing.T) {
	c := NewSquatCounter(DefaultSquatThresholds())
	feedSquat(c, 180, 175, 179, 180)
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, SquatUp, c.Stage())
}

func TestSquatCounter_CountsAtMostOncePerCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewSquatCounter(DefaultSquatThresholds())

	prevCount, prevWrong := 0, 0
	prevStage := c.Stage()
	for i := 0; i < 5000; i++ {
		c.Update(rng.Float64() * 180)

		require.GreaterOrEqual(t, c.Count(), prevCount)
		require.GreaterOrEqual(t, c.Wrong(), prevWrong)
		require.LessOrEqual(t, c.Count()-prevCount, 1)
		require.LessOrEqual(t, c.Wrong()-prevWrong, 1)

		if c.Count() > prevCount {
			require.Equal(t, SquatDown, prevStage, "a counted rep must come from down")
			require.Equal(t, SquatUp, c.Stage())
		}
		if c.Wrong() > prevWrong {
			require.Equal(t, SquatUp, prevStage, "a wrong rep starts from up")
			require.Equal(t, SquatWrong, c.Stage())
		}

		prevCount, prevWrong, prevStage = c.Count(), c.Wrong(), c.Stage()
	}
}

func TestSquatStage_String(t *testing.T) {
	assert.Equal(t, "up", SquatUp.String())
	assert.Equal(t, "down", SquatDown.String())
	assert.Equal(t, "wrong", SquatWrong.String())
	assert.Equal(t, "SquatStage(9)", SquatStage(9).String())

	text, err := SquatDown.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "down", string(text))
}

func TestSquatThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultSquatThresholds().Validate())

	bad := []SquatThresholds{
		{DownMin: 0, DownMax: 80, Up: 170},
		{DownMin: 85, DownMax: 80, Up: 170},
		{DownMin: 75, DownMax: 170, Up: 170},
		{DownMin: 75, DownMax: 80, Up: 190},
	}
	for _, th := range bad {
		assert.Error(t, th.Validate(), "%+v", th)
	}
}

func TestSquat_ObservesLeftKnee(t *testing.T) {
	s := NewSquat(DefaultSquatThresholds())

	for _, deg := range []float64{180, 77, 180} {
		p := pose.PoseWithKneeAngle(deg)
		s.Observe(&p)
	}

	progress := s.Progress()
	assert.Equal(t, 1, progress.Count)
	assert.Equal(t, 0, progress.Wrong)
	assert.Equal(t, "up", progress.Stage)
	assert.InDelta(t, 180, progress.Angle, 1e-6)
	assert.Equal(t, KindSquats, s.Kind())
}

func TestSquat_NilPoseIsSkipped(t *testing.T) {
	s := NewSquat(DefaultSquatThresholds())
	p := pose.PoseWithKneeAngle(77)
	s.Observe(&p)

	before := s.Progress()
	s.Observe(nil)

	assert.Equal(t, before, s.Progress())
}

func TestSquat_CoincidentJointsDoNotCount(t *testing.T) {
	s := NewSquat(DefaultSquatThresholds())

	// A collapsed detection puts every joint on the same spot.
	var p pose.Pose
	s.Observe(&p)

	progress := s.Progress()
	assert.Equal(t, 180.0, progress.Angle)
	assert.Equal(t, "up", progress.Stage)
	assert.Equal(t, 0, progress.Wrong)
}

func TestSquat_GoalReached(t *testing.T) {
	s := NewSquat(DefaultSquatThresholds())
	assert.False(t, s.GoalReached(1))

	for _, deg := range []float64{180, 77, 180, 77, 180} {
		p := pose.PoseWithKneeAngle(deg)
		s.Observe(&p)
	}

	assert.True(t, s.GoalReached(2))
	assert.False(t, s.GoalReached(3))
}
