// Package tray provides the system tray menu for repcoach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/session"
)

// Tray is the system tray menu. Callbacks are invoked on the menu goroutine
// and outside the Tray's lock.
type Tray struct {
	onStart func(kind exercise.Kind)
	onStop  func()
	onOpen  func()
	onQuit  func()
	status  string
	running bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuStop   *systray.MenuItem
}

// New creates a Tray showing an idle status.
func New() *Tray {
	return &Tray{status: StatusLine(session.Stats{})}
}

// OnStart sets the callback for the "Start Squats" and "Start Arm Raises"
// items.
func (t *Tray) OnStart(fn func(kind exercise.Kind)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnStop sets the callback for the "Stop" item.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnOpen sets the callback for the "Open in Browser" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the "Quit" item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("repcoach")
	systray.SetTooltip("repcoach rep counter")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current session")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuSquats := systray.AddMenuItem("Start Squats", "Start a squat session")
	menuArms := systray.AddMenuItem("Start Arm Raises", "Start an arm raise session")
	t.menuStop = systray.AddMenuItem("Stop", "Stop the current session")
	if !t.running {
		t.menuStop.Disable()
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser", "Open the live view")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit repcoach")

	go func() {
		for {
			select {
			case <-menuSquats.ClickedCh:
				t.handleStart(exercise.KindSquats)
			case <-menuArms.ClickedCh:
				t.handleStart(exercise.KindArmRaises)
			case <-t.menuStop.ClickedCh:
				t.handleStop()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleStart(kind exercise.Kind) {
	t.mu.RLock()
	callback := t.onStart
	t.mu.RUnlock()

	if callback != nil {
		callback(kind)
	}
}

func (t *Tray) handleStop() {
	t.mu.RLock()
	callback := t.onStop
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line and the Stop item from a session
// snapshot. It is safe to call before the menu exists.
func (t *Tray) SetStatus(stats session.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusLine(stats)
	t.running = stats.Running

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(t.status)
	}
	if t.menuStop != nil {
		if t.running {
			t.menuStop.Enable()
		} else {
			t.menuStop.Disable()
		}
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// StatusLine renders a snapshot as a one-line menu title.
func StatusLine(stats session.Stats) string {
	var line string
	switch stats.Exercise {
	case exercise.KindSquats:
		line = fmt.Sprintf("Squats %d/%d", stats.Count, stats.Goal)
	case exercise.KindArmRaises:
		line = fmt.Sprintf("Arm Raises R %d/%d, L %d/%d", stats.RightCount, stats.Goal, stats.LeftCount, stats.Goal)
	default:
		return "No session"
	}

	if stats.GoalReached {
		line += " ✓"
	}
	if !stats.Running {
		line += " (stopped)"
	}
	return line
}
