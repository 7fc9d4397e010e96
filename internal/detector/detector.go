package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose.
	// Returns a nil pose and nil error if no person is visible.
	Detect(frame *gocv.Mat) (*pose.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath points at pose_service.py. Empty means search the usual places.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
