// Package main is a repcoach hook that announces session results on macOS,
// with a Notification Center banner and a spoken summary.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request represents the input from the hook executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Exercise  string          `json:"exercise"`
	Stats     json.RawMessage `json:"stats"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// stats holds the fields of the session snapshot this hook reads.
type stats struct {
	Goal       int     `json:"goal"`
	Count      int     `json:"count"`
	Wrong      int     `json:"wrong"`
	RightCount int     `json:"right_count"`
	LeftCount  int     `json:"left_count"`
	Duration   float64 `json:"duration"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	title, body, err := message(req)
	if err != nil {
		writeResponse(err)
		return
	}

	if os.Getenv("ANNOUNCE_DRY_RUN") != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, body)
		writeResponse(nil)
		return
	}

	writeResponse(announce(title, body))
}

// message builds the notification title and spoken text for req.
func message(req Request) (string, string, error) {
	var s stats
	if len(req.Stats) > 0 {
		if err := json.Unmarshal(req.Stats, &s); err != nil {
			return "", "", fmt.Errorf("failed to decode stats: %w", err)
		}
	}

	var done string
	switch req.Exercise {
	case "Squats":
		done = fmt.Sprintf("%d squats", s.Count)
		if s.Wrong > 0 {
			done += fmt.Sprintf(", %d with wrong form", s.Wrong)
		}
	case "Arm Raises":
		done = fmt.Sprintf("%d right and %d left arm raises", s.RightCount, s.LeftCount)
	default:
		return "", "", fmt.Errorf("unknown exercise: %q", req.Exercise)
	}

	switch req.Event {
	case "goal_reached":
		return "Goal reached", fmt.Sprintf("Goal of %d reached: %s.", s.Goal, done), nil
	case "stopped":
		return "Session finished", fmt.Sprintf("%s in %s seconds.", capitalize(done), strconv.Itoa(int(s.Duration))), nil
	}
	return "", "", fmt.Errorf("unsupported event: %q", req.Event)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func announce(title, body string) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("announce only works on macOS")
	}

	script := fmt.Sprintf(`display notification %q with title "repcoach" subtitle %q`, body, title)
	if err := run("osascript", "-e", script); err != nil {
		return fmt.Errorf("notification failed: %w", err)
	}
	if err := run("say", body); err != nil {
		return fmt.Errorf("speech failed: %w", err)
	}
	return nil
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
