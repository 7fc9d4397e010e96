// Package geometry provides the joint-angle math used by the rep counters.
package geometry

import "math"

// FallbackAngle is returned by AngleAt when one of the limb vectors has zero
// length. It reads as a fully extended joint.
const FallbackAngle = 180.0

// Point is a 2D point in normalized image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AngleAt returns the interior angle in degrees at vertex b formed by the
// segments b->a and b->c. The result is in [0, 180].
//
// If a or c coincides with b the angle is undefined; FallbackAngle is
// returned instead so that NaN never reaches a state machine.
func AngleAt(a, b, c Point) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	denom := math.Hypot(bax, bay) * math.Hypot(bcx, bcy)
	if denom == 0 || math.IsNaN(denom) {
		return FallbackAngle
	}

	cosine := (bax*bcx + bay*bcy) / denom
	// Rounding can push the cosine slightly outside [-1, 1].
	cosine = math.Max(-1, math.Min(1, cosine))

	return math.Acos(cosine) * 180 / math.Pi
}

// SweepAngle returns the directional angle in degrees swept from the bearing
// of b->a to the bearing of b->c, folded into [0, 360).
//
// Unlike AngleAt this is not symmetric: swapping a and c yields 360 minus the
// original value. Elbow angles for arm raises are measured this way.
func SweepAngle(a, b, c Point) float64 {
	deg := (math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)) * 180 / math.Pi
	if deg >= 0 {
		return deg
	}
	return 360 - math.Abs(deg)
}
