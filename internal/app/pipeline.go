package app

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/render"
	"github.com/ayusman/repcoach/internal/session"
)

// runPipeline reads, analyzes and publishes one frame per tick until it is
// signalled on stopCh, the session stops, or the camera runs out of frames.
// It closes the camera and then done on exit.
//
// Per frame:
//  1. Check the stop signal and that the session is still running
//  2. Read and mirror the frame
//  3. Skip pose detection when the motion gate says nothing moved
//  4. Detect the pose and feed it to the session controller
//  5. Draw the overlay, encode it and publish it to stream clients
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer a.closeCamera()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	var last *pose.Pose
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		select {
		case <-stopCh:
			return
		default:
		}
		if !a.controller.Running() {
			return
		}

		var ended bool
		last, ended = a.processFrame(last)
		if ended {
			log.Info("camera has no more frames, ending session")
			a.controller.Stop()
			return
		}
	}
}

// processFrame handles a single tick. last is the pose from the previous
// analyzed frame, drawn again when the motion gate skips detection. It
// returns the pose to carry forward, and true when the frame source is
// exhausted.
func (a *App) processFrame(last *pose.Pose) (*pose.Pose, bool) {
	start := time.Now()

	frame, err := a.camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoMoreFrames) {
			return last, true
		}
		a.metrics.CounterFramesSkipped.WithLabelValues(metrics.SkipReadError).Inc()
		log.WithError(err).Warn("reading frame")
		return last, false
	}
	defer frame.Close()

	if a.config.Mirror {
		capture.Mirror(frame)
	}

	var (
		p     *pose.Pose
		stats session.Stats
	)
	if moved, _ := a.motion.Detect(frame); !moved {
		a.metrics.CounterFramesSkipped.WithLabelValues(metrics.SkipNoMotion).Inc()
		stats = a.controller.ProcessFrame(nil)
		p = last
	} else {
		p, err = a.detector.Detect(frame)
		switch {
		case err != nil:
			a.metrics.CounterFramesSkipped.WithLabelValues(metrics.SkipDetectorError).Inc()
			log.WithError(err).Warn("detecting pose")
			p = nil
		case p == nil:
			a.metrics.CounterFramesSkipped.WithLabelValues(metrics.SkipNoPose).Inc()
		default:
			a.metrics.CounterFramesProcessed.Inc()
		}
		stats = a.controller.ProcessFrame(p)
	}

	render.Annotate(frame, p, stats)
	data, err := render.EncodeJPEG(frame, a.config.JPEGQuality)
	if err != nil {
		log.WithError(err).Warn("encoding frame")
	} else {
		a.hub.Publish(data)
	}

	a.metrics.HistFrameDuration.Observe(time.Since(start).Seconds())
	return p, false
}
