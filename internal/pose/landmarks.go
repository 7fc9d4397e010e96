// Package pose defines the body landmark model produced by pose detectors.
package pose

import "github.com/ayusman/repcoach/internal/geometry"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Connections lists the landmark pairs drawn as the skeleton overlay.
var Connections = [][2]int{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
	{LeftAnkle, LeftHeel},
	{LeftHeel, LeftFootIndex},
	{RightAnkle, RightHeel},
	{RightHeel, RightFootIndex},
}

// Landmark is a single detected body joint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Pose is the full set of body landmarks for one detected person.
type Pose struct {
	Points [NumLandmarks]Landmark `json:"points"`
	Score  float64                `json:"score"`
}

// Point returns the 2D position of the landmark at idx.
// Out-of-range indices return the origin.
func (p *Pose) Point(idx int) geometry.Point {
	if p == nil || idx < 0 || idx >= NumLandmarks {
		return geometry.Point{}
	}
	return geometry.Point{X: p.Points[idx].X, Y: p.Points[idx].Y}
}

// Set places the landmark at idx with full visibility.
func (p *Pose) Set(idx int, x, y float64) {
	if idx < 0 || idx >= NumLandmarks {
		return
	}
	p.Points[idx] = Landmark{X: x, Y: y, Visibility: 1}
}
