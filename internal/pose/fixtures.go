package pose

import "math"

// Segment lengths used by the synthetic poses, in normalized units.
const (
	forearmLength = 0.10
	shinLength    = 0.18
)

// StandingPose returns a preset Pose of a person standing upright facing the
// camera with both arms hanging straight down and both legs extended.
func StandingPose() Pose {
	p := Pose{Score: 0.95}

	// Head
	p.Set(Nose, 0.50, 0.15)
	p.Set(LeftEye, 0.52, 0.13)
	p.Set(RightEye, 0.48, 0.13)
	p.Set(LeftEar, 0.55, 0.14)
	p.Set(RightEar, 0.45, 0.14)

	// Torso
	p.Set(RightShoulder, 0.40, 0.30)
	p.Set(LeftShoulder, 0.60, 0.30)
	p.Set(RightHip, 0.40, 0.60)
	p.Set(LeftHip, 0.60, 0.60)

	// Arms straight down, elbows next to the torso
	p.Set(RightElbow, 0.40, 0.45)
	p.Set(LeftElbow, 0.60, 0.45)
	placeForearm(&p, RightElbow, RightWrist, 180)
	placeForearm(&p, LeftElbow, LeftWrist, 180)

	// Legs extended
	p.Set(RightKnee, 0.40, 0.78)
	p.Set(LeftKnee, 0.60, 0.78)
	placeShin(&p, RightKnee, RightAnkle, 180)
	placeShin(&p, LeftKnee, LeftAnkle, 180)
	p.Set(RightHeel, 0.40, 0.98)
	p.Set(LeftHeel, 0.60, 0.98)

	return p
}

// PoseWithKneeAngle returns a standing pose whose left hip-knee-ankle
// interior angle is deg degrees.
func PoseWithKneeAngle(deg float64) Pose {
	p := StandingPose()
	placeShin(&p, LeftKnee, LeftAnkle, deg)
	return p
}

// PoseWithElbowAngles returns a standing pose whose shoulder-elbow-wrist
// sweep angles are right and left degrees, with both elbows tucked against
// the torso and both wrists under the shoulders.
//
// Wrists stay within the alignment tolerance for the angles used in
// practice (below about 50 and above about 130 degrees).
func PoseWithElbowAngles(right, left float64) Pose {
	p := StandingPose()
	placeForearm(&p, RightElbow, RightWrist, right)
	placeForearm(&p, LeftElbow, LeftWrist, left)
	return p
}

// BreakArmForm moves the hip on the given side outward so the elbow is no
// longer close to the torso. Joint angles are unchanged.
func BreakArmForm(p *Pose, rightSide bool) {
	hip, dir := LeftHip, 1.0
	if rightSide {
		hip, dir = RightHip, -1.0
	}
	p.Points[hip].X += dir * 0.2
}

// placeForearm puts the wrist so that the sweep angle from the elbow->shoulder
// bearing to the elbow->wrist bearing equals deg. The shoulder is assumed to
// sit directly above the elbow.
func placeForearm(p *Pose, elbow, wrist int, deg float64) {
	rad := deg * math.Pi / 180
	e := p.Points[elbow]
	p.Set(wrist, e.X+forearmLength*math.Sin(rad), e.Y-forearmLength*math.Cos(rad))
}

// placeShin puts the ankle so that the hip-knee-ankle interior angle equals
// deg. The hip is assumed to sit directly above the knee.
func placeShin(p *Pose, knee, ankle int, deg float64) {
	rad := deg * math.Pi / 180
	k := p.Points[knee]
	p.Set(ankle, k.X+shinLength*math.Sin(rad), k.Y-shinLength*math.Cos(rad))
}
