package exercise

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	valid := map[string]Kind{
		"Squats":     KindSquats,
		"squat":      KindSquats,
		"SQUATS":     KindSquats,
		"Arm Raises": KindArmRaises,
		"arm_raises": KindArmRaises,
		"arm-raise":  KindArmRaises,
		"ArmRaises":  KindArmRaises,
	}
	for in, want := range valid {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "lunges", "push ups"} {
		_, err := ParseKind(in)
		assert.True(t, errors.Is(err, ErrUnknownKind), in)
	}
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig()

	squat, err := New(KindSquats, cfg)
	require.NoError(t, err)
	assert.IsType(t, &Squat{}, squat)

	arms, err := New(KindArmRaises, cfg)
	require.NoError(t, err)
	assert.IsType(t, &ArmRaise{}, arms)

	_, err = New(Kind("Burpees"), cfg)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_ReturnsFreshState(t *testing.T) {
	first, err := New(KindSquats, DefaultConfig())
	require.NoError(t, err)
	first.(*Squat).counter.Update(77)
	first.(*Squat).counter.Update(180)

	second, err := New(KindSquats, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Progress().Count)
	assert.Equal(t, 0, second.Progress().Count)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Squat.Up = 60
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ArmRaise.Tolerance = -1
	assert.Error(t, cfg.Validate())
}
