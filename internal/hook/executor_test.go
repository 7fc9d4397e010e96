package hook

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testRequest() *Request {
	return &Request{
		Event:     EventGoalReached,
		SessionID: "4f1c2a",
		Exercise:  "Squats",
		Stats:     json.RawMessage(`{"count":10,"goal":10}`),
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)

	h := writeHook(t, t.TempDir(), "ok", okScript, EventGoalReached)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "received.json")

	// The hook copies its input next to it and reports success.
	script := `#!/bin/sh
cat > "` + out + `"
echo '{"success":true}'
`
	h := writeHook(t, dir, "echo", script, EventStopped)

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not write its input: %v", err)
	}

	var received map[string]any
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("hook input is not JSON: %v", err)
	}
	if received["event"] != "goal_reached" {
		t.Errorf("expected event goal_reached, got %v", received["event"])
	}
	if received["session_id"] != "4f1c2a" {
		t.Errorf("expected session_id 4f1c2a, got %v", received["session_id"])
	}
	if received["exercise"] != "Squats" {
		t.Errorf("expected exercise Squats, got %v", received["exercise"])
	}
	stats, ok := received["stats"].(map[string]any)
	if !ok {
		t.Fatalf("expected stats to be an object, got %T", received["stats"])
	}
	if stats["count"] != float64(10) {
		t.Errorf("expected stats.count 10, got %v", stats["count"])
	}
}

func TestExecutor_Execute_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
cat > /dev/null
if [ -f hook.json ]; then echo '{"success":true}'; else echo '{"success":false,"error":"wrong dir"}'; fi
`
	h := writeHook(t, t.TempDir(), "cwd", script, EventStopped)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("hook should run inside its own directory: %s", response.Error)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
sleep 10
echo '{"success":true}'
`
	h := writeHook(t, t.TempDir(), "slow", script, EventStopped)

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), h, testRequest())

	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestExecutor_ContextCanceled(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
sleep 10
`
	h := writeHook(t, t.TempDir(), "slow", script, EventStopped)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	if _, err := NewExecutor(10*time.Second).Execute(ctx, h, testRequest()); err == nil {
		t.Fatal("expected an error after cancel")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
echo '{"success":false,"error":"speaker busy"}'
`
	h := writeHook(t, t.TempDir(), "fails", script, EventStopped)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "speaker busy" {
		t.Errorf("expected error 'speaker busy', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
echo 'not valid json'
`
	h := writeHook(t, t.TempDir(), "bad", script, EventStopped)

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	script := `#!/bin/sh
echo "Error: something failed" >&2
exit 1
`
	h := writeHook(t, t.TempDir(), "exit", script, EventStopped)

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testRequest())
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "something failed") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, got)
	}
}
