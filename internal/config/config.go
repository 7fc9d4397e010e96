// Package config loads repcoach settings from an optional YAML file and
// REPCOACH_ environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/repcoach/internal/exercise"
)

type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Camera   CameraConfig             `yaml:"camera"`
	Detector DetectorConfig           `yaml:"detector"`
	Squat    exercise.SquatThresholds `yaml:"squat"`
	ArmRaise exercise.ArmThresholds   `yaml:"arm_raise"`
	Session  SessionConfig            `yaml:"session"`
	Hooks    HooksConfig              `yaml:"hooks"`
	Log      LogConfig                `yaml:"log"`
	Tray     TrayConfig               `yaml:"tray"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	DeviceID        int     `yaml:"device_id"`
	FPS             int     `yaml:"fps"`
	Mirror          bool    `yaml:"mirror"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	JPEGQuality     int     `yaml:"jpeg_quality"`
}

type DetectorConfig struct {
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	ScriptPath            string  `yaml:"script_path"`
}

type SessionConfig struct {
	DefaultGoal int `yaml:"default_goal"`
}

type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Timeout returns the per-hook timeout.
func (h HooksConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutMS) * time.Millisecond
}

type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Exercise returns the rep counter thresholds.
func (c *Config) Exercise() exercise.Config {
	return exercise.Config{Squat: c.Squat, ArmRaise: c.ArmRaise}
}

// Default returns a complete configuration that works without a file.
func Default() *Config {
	ex := exercise.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Camera: CameraConfig{
			DeviceID:        0,
			FPS:             15,
			Mirror:          true,
			MotionThreshold: 0,
			JPEGQuality:     85,
		},
		Detector: DetectorConfig{
			MinConfidence:         0.5,
			MinTrackingConfidence: 0.5,
		},
		Squat:    ex.Squat,
		ArmRaise: ex.ArmRaise,
		Session: SessionConfig{
			DefaultGoal: 10,
		},
		Hooks: HooksConfig{
			TimeoutMS: 5000,
		},
		Log: LogConfig{
			Level:  "info",
			Stdout: true,
		},
	}
}

// Load starts from Default, overlays the YAML file at path (if path is not
// empty), then applies environment variable overrides and validates.
// Env vars use the prefix REPCOACH_:
//
//	REPCOACH_SERVER_ADDR, REPCOACH_STATIC_DIR,
//	REPCOACH_CAMERA_ID, REPCOACH_CAMERA_FPS, REPCOACH_CAMERA_MIRROR,
//	REPCOACH_MOTION_THRESHOLD, REPCOACH_DETECTOR_SCRIPT,
//	REPCOACH_DEFAULT_GOAL, REPCOACH_HOOKS_DIR,
//	REPCOACH_LOG_LEVEL, REPCOACH_LOG_JSON, REPCOACH_LOG_FILE,
//	REPCOACH_TRAY_ENABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("REPCOACH_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("REPCOACH_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("REPCOACH_CAMERA_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_CAMERA_ID: %w", err)
		}
		cfg.Camera.DeviceID = id
	}
	if v := os.Getenv("REPCOACH_CAMERA_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_CAMERA_FPS: %w", err)
		}
		cfg.Camera.FPS = fps
	}
	if v := os.Getenv("REPCOACH_CAMERA_MIRROR"); v != "" {
		mirror, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_CAMERA_MIRROR: %w", err)
		}
		cfg.Camera.Mirror = mirror
	}
	if v := os.Getenv("REPCOACH_MOTION_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("REPCOACH_MOTION_THRESHOLD: %w", err)
		}
		cfg.Camera.MotionThreshold = threshold
	}
	if v := os.Getenv("REPCOACH_DETECTOR_SCRIPT"); v != "" {
		cfg.Detector.ScriptPath = v
	}
	if v := os.Getenv("REPCOACH_DEFAULT_GOAL"); v != "" {
		goal, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_DEFAULT_GOAL: %w", err)
		}
		cfg.Session.DefaultGoal = goal
	}
	if v := os.Getenv("REPCOACH_HOOKS_DIR"); v != "" {
		cfg.Hooks.Dir = v
	}
	if v := os.Getenv("REPCOACH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REPCOACH_LOG_JSON"); v != "" {
		asJSON, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_LOG_JSON: %w", err)
		}
		cfg.Log.JSON = asJSON
	}
	if v := os.Getenv("REPCOACH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("REPCOACH_TRAY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REPCOACH_TRAY_ENABLED: %w", err)
		}
		cfg.Tray.Enabled = enabled
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		return fmt.Errorf("camera.motion_threshold must be within [0, 100], got %v", c.Camera.MotionThreshold)
	}
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return fmt.Errorf("camera.jpeg_quality must be within [1, 100], got %d", c.Camera.JPEGQuality)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be within [0, 1]")
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return fmt.Errorf("detector.min_tracking_confidence must be within [0, 1]")
	}
	if err := c.Exercise().Validate(); err != nil {
		return err
	}
	if c.Session.DefaultGoal <= 0 {
		return fmt.Errorf("session.default_goal must be positive, got %d", c.Session.DefaultGoal)
	}
	if c.Hooks.TimeoutMS <= 0 {
		return fmt.Errorf("hooks.timeout_ms must be positive, got %d", c.Hooks.TimeoutMS)
	}
	return nil
}
