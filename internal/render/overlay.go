// Package render draws the session overlay onto camera frames and encodes
// them for streaming.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
)

// DefaultJPEGQuality is the quality used for the MJPEG stream.
const DefaultJPEGQuality = 85

// minVisibility hides landmarks the detector is unsure about.
const minVisibility = 0.5

var (
	colorWhite  = color.RGBA{R: 255, G: 255, B: 255}
	colorGreen  = color.RGBA{G: 255}
	colorRed    = color.RGBA{R: 255}
	colorAngle  = color.RGBA{R: 255, G: 255, B: 100}
	colorJoint  = color.RGBA{R: 255, G: 245}
	colorBone   = color.RGBA{R: 228, B: 255}
)

// TextLine is one line of overlay text.
type TextLine struct {
	Text  string
	Color color.RGBA
}

// Lines returns the overlay text for a snapshot, top to bottom. Nothing is
// shown before a session has been started.
func Lines(stats session.Stats) []TextLine {
	switch stats.Exercise {
	case exercise.KindSquats:
		stageColor := colorWhite
		switch stats.Stage {
		case exercise.SquatDown.String():
			stageColor = colorGreen
		case exercise.SquatWrong.String():
			stageColor = colorRed
		}
		lines := []TextLine{
			{Text: fmt.Sprintf("Squats: %d/%d", stats.Count, stats.Goal), Color: colorWhite},
			{Text: "Stage: " + stats.Stage, Color: stageColor},
			{Text: fmt.Sprintf("Angle: %d", int(stats.Angle)), Color: colorAngle},
		}
		if stats.Feedback != "" {
			lines = append(lines, TextLine{Text: stats.Feedback, Color: stageColor})
		}
		return lines
	case exercise.KindArmRaises:
		return []TextLine{
			{Text: fmt.Sprintf("Right: %d/%d", stats.RightCount, stats.Goal), Color: stageTextColor(stats.RightStage)},
			{Text: fmt.Sprintf("Left: %d/%d", stats.LeftCount, stats.Goal), Color: stageTextColor(stats.LeftStage)},
		}
	}
	return nil
}

func stageTextColor(stage string) color.RGBA {
	if stage == exercise.ArmIncorrect.String() {
		return colorRed
	}
	return colorWhite
}

// Annotate draws the skeleton for p (if any) and the stats text onto frame.
func Annotate(frame *gocv.Mat, p *pose.Pose, stats session.Stats) {
	if frame == nil || frame.Empty() {
		return
	}

	if p != nil {
		drawSkeleton(frame, p)
	}

	for i, line := range Lines(stats) {
		origin := image.Point{X: 10, Y: 40 * (i + 1)}
		gocv.PutText(frame, line.Text, origin, gocv.FontHersheySimplex, 1, line.Color, 2)
	}

	if stats.GoalReached {
		origin := image.Point{X: 10, Y: frame.Rows() - 20}
		gocv.PutText(frame, "Goal reached!", origin, gocv.FontHersheySimplex, 1, colorGreen, 2)
	}
}

func drawSkeleton(frame *gocv.Mat, p *pose.Pose) {
	w, h := frame.Cols(), frame.Rows()
	pixel := func(idx int) (image.Point, bool) {
		lm := p.Points[idx]
		if lm.Visibility < minVisibility {
			return image.Point{}, false
		}
		return image.Point{X: int(lm.X * float64(w)), Y: int(lm.Y * float64(h))}, true
	}

	for _, c := range pose.Connections {
		a, okA := pixel(c[0])
		b, okB := pixel(c[1])
		if okA && okB {
			gocv.Line(frame, a, b, colorBone, 2)
		}
	}
	for i := 0; i < pose.NumLandmarks; i++ {
		if pt, ok := pixel(i); ok {
			gocv.Circle(frame, pt, 3, colorJoint, -1)
		}
	}
}

// EncodeJPEG encodes frame as JPEG. A quality outside 1..100 uses
// DefaultJPEGQuality.
func EncodeJPEG(frame *gocv.Mat, quality int) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("encode jpeg: empty frame")
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close; copy it out.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
