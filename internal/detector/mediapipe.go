package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

const (
	scriptName  = "pose_service.py"
	idleTimeout = 30 * time.Second
)

// ErrScriptNotFound is returned when pose_service.py cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe Pose subprocess.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findPoseScript()
	} else if _, err := os.Stat(scriptPath); err != nil {
		scriptPath = ""
	}
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes a frame and returns the detected pose, or nil if nobody is in view.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*pose.Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		d.kill()
		return nil, err
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.kill()
		return nil, fmt.Errorf("read response: %w", err)
	}

	p, err := decodeResponse([]byte(line))
	if err != nil {
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			d.kill()
		}
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return p, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	log.WithFields(log.Fields{
		"python": pythonPath,
		"script": d.scriptPath,
	}).Info("pose service started")

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	log.Debug("pose service stopped")
	return err
}

// kill stops a service that broke the protocol or died, so the next Detect
// starts a fresh one.
func (d *MediaPipeDetector) kill() {
	if !d.started {
		return
	}
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	if err := d.shutdown(); err != nil {
		log.WithError(err).Warn("pose service died, restarting on next frame")
	}
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			log.WithError(err).Warn("pose service exited with error")
		}
	})
}

// writeFrame writes one length-prefixed (4 bytes, big-endian) JPEG payload.
func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// jsonResponse is one line written by the Python service.
type jsonResponse struct {
	Pose  *jsonPose `json:"pose"`
	Error string    `json:"error,omitempty"`
}

type jsonPose struct {
	Points []jsonPoint `json:"points"`
	Score  float64     `json:"score"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

func decodeResponse(line []byte) (*pose.Pose, error) {
	var response jsonResponse
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, &ServiceError{Message: response.Error}
	}
	if response.Pose == nil {
		return nil, nil
	}
	if len(response.Pose.Points) < pose.NumLandmarks {
		return nil, fmt.Errorf("parse response: got %d landmarks, want %d",
			len(response.Pose.Points), pose.NumLandmarks)
	}
	return response.Pose.toPose(), nil
}

// ServiceError is a per-frame error reported by a healthy pose service,
// e.g. a frame it could not decode.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "pose service: " + e.Message
}

func (j *jsonPose) toPose() *pose.Pose {
	p := &pose.Pose{Score: j.Score}
	for i := 0; i < pose.NumLandmarks; i++ {
		pt := j.Points[i]
		p.Points[i] = pose.Landmark{
			X:          pt.X,
			Y:          pt.Y,
			Z:          pt.Z,
			Visibility: pt.Visibility,
		}
	}
	return p
}

func findPoseScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".repcoach", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".repcoach/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
