package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/hook"
	"github.com/ayusman/repcoach/internal/logging"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
	"github.com/ayusman/repcoach/internal/tray"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repcoach: %v\n", err)
		os.Exit(1)
	}
	if *withTray {
		cfg.Tray.Enabled = true
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	defer logCloser.Close()

	reg := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager(reg)

	// In memory only: the session log does not outlive the process.
	st, err := store.New(store.MemoryDSN("repcoach"))
	if err != nil {
		log.Fatalf("initialize store: %s", err)
	}

	hooks := newHookRunner(cfg.Hooks, metricsManager)

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		tr = tray.New()
	}

	application := app.New(app.Config{
		Camera:          capture.NewCamera(cfg.Camera.DeviceID, cfg.Camera.FPS),
		Detector:        newDetector(cfg.Detector),
		Metrics:         metricsManager,
		Store:           st,
		Hooks:           hooks,
		Exercise:        cfg.Exercise(),
		FPS:             cfg.Camera.FPS,
		Mirror:          cfg.Camera.Mirror,
		MotionThreshold: cfg.Camera.MotionThreshold,
		JPEGQuality:     cfg.Camera.JPEGQuality,
		OnEvent: func(e session.Event) {
			if tr != nil {
				tr.SetStatus(e.Stats)
			}
		},
	})

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Infof("serving static files from %s", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:   staticDir,
		Sessions:    application,
		Frames:      application.Frames(),
		Store:       st,
		Metrics:     metricsManager,
		Gatherer:    reg,
		DefaultGoal: cfg.Session.DefaultGoal,
	})

	// Streams and WebSockets run until the client leaves; cancelling the
	// base context ends them on shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		log.Infof("listening on %s", browserURL(cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %s", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	if tr != nil {
		tr.OnStart(func(kind exercise.Kind) {
			if _, err := application.StartSession(kind, cfg.Session.DefaultGoal); err != nil {
				log.WithError(err).Error("tray: starting session")
			}
		})
		tr.OnStop(func() { application.StopSession() })
		tr.OnOpen(func() {
			if err := openBrowser(browserURL(cfg.Server.Addr)); err != nil {
				log.WithError(err).Warn("tray: opening browser")
			}
		})
		go func() {
			receivedSig := <-chOsInterrupt
			log.Warnf("signal [%s] received, shutting down", receivedSig)
			tr.Quit()
		}()

		// systray needs the main goroutine; Run returns on Quit.
		tr.Run()
	} else {
		receivedSig := <-chOsInterrupt
		log.Warnf("signal [%s] received, shutting down", receivedSig)
	}

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}

	if err := application.Close(); err != nil {
		log.WithError(err).Error("closing app")
	}
	hooks.Drain()
	if err := st.Close(); err != nil {
		log.WithError(err).Error("closing store")
	}
	log.Info("bye")
}

// newDetector starts MediaPipe pose detection, falling back to a detector
// that never finds anyone when the pose service is not installed.
func newDetector(cfg config.DetectorConfig) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MinConfidence:   cfg.MinConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
		ScriptPath:      cfg.ScriptPath,
	})
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, no poses will be detected")
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe pose detection")
	return mp
}

func newHookRunner(cfg config.HooksConfig, m *metrics.Manager) *hook.Runner {
	dir := cfg.Dir
	if dir == "" {
		dir = dataPath("hooks")
	}

	manager := hook.NewManager(dir)
	if err := manager.Discover(); err != nil {
		log.WithError(err).Warn("discovering hooks")
	}
	log.WithField("dir", dir).Infof("loaded %d hooks", len(manager.List()))

	return hook.NewRunner(manager, hook.NewExecutor(cfg.Timeout()), func(name string, event hook.Event, err error) {
		result := "ok"
		if err != nil {
			result = "error"
			log.WithError(err).WithFields(log.Fields{"hook": name, "event": event}).Warn("hook failed")
		}
		m.CounterHookRuns.WithLabelValues(name, result).Inc()
	})
}

// dataPath returns a path under ~/.repcoach, or "" when there is no home
// directory.
func dataPath(elem ...string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{homeDir, ".repcoach"}, elem...)...)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := dataPath("web")
	if homeWebDir == "" {
		return ""
	}
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// browserURL turns a listen address into a URL a local browser can open.
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
