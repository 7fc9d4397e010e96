package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	pose     *pose.Pose
	sequence []*pose.Pose
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose returned by every Detect call. Nil means no detection.
func (m *MockDetector) SetPose(p *pose.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = p
	m.sequence = nil
}

// SetSequence makes Detect return the given poses one per call. Once the
// sequence is used up, the last pose keeps being returned.
func (m *MockDetector) SetSequence(poses ...*pose.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = poses
	m.pose = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*pose.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		p := m.sequence[0]
		if len(m.sequence) > 1 {
			m.sequence = m.sequence[1:]
		}
		return p, nil
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
