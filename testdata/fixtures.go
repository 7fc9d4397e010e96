// Package testdata builds synthetic camera frames and pose sequences for
// pipeline and end-to-end tests.
package testdata

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// Frame dimensions used for synthetic frames.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// BlankFrames returns n identical mid-gray BGR frames. The caller owns them
// and must release them with CloseFrames.
func BlankFrames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
		m.SetTo(gocv.NewScalar(128, 128, 128, 0))
		frames[i] = &m
	}
	return frames
}

// CloseFrames releases frames created by BlankFrames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// KneeSequence returns one pose per angle with the left knee bent to that
// angle.
func KneeSequence(angles ...float64) []*pose.Pose {
	poses := make([]*pose.Pose, len(angles))
	for i, a := range angles {
		p := pose.PoseWithKneeAngle(a)
		poses[i] = &p
	}
	return poses
}

// ElbowSequence returns one pose per [right, left] elbow angle pair, with
// good arm form on both sides.
func ElbowSequence(pairs ...[2]float64) []*pose.Pose {
	poses := make([]*pose.Pose, len(pairs))
	for i, pair := range pairs {
		p := pose.PoseWithElbowAngles(pair[0], pair[1])
		poses[i] = &p
	}
	return poses
}
