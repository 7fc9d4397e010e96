package hook

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type result struct {
	hook  string
	event Event
	err   error
}

type results struct {
	mu   sync.Mutex
	list []result
}

func (r *results) record(name string, e Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, result{hook: name, event: e, err: err})
}

func (r *results) snapshot() []result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]result(nil), r.list...)
}

func discovered(t *testing.T, dir string) *Manager {
	t.Helper()
	m := NewManager(dir)
	require.NoError(t, m.Discover())
	return m
}

func TestRunner_FiresSubscribedHooks(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "events.log")
	script := `#!/bin/sh
cat >> "` + out + `"
echo >> "` + out + `"
echo '{"success":true}'
`
	writeHook(t, dir, "recorder", script, EventGoalReached)

	var got results
	r := NewRunner(discovered(t, dir), NewExecutor(5*time.Second), got.record)

	r.Fire(EventGoalReached, "s-1", "Squats", map[string]int{"count": 10})
	r.Fire(EventStopped, "s-1", "Squats", map[string]int{"count": 10})
	r.Drain()

	list := got.snapshot()
	require.Len(t, list, 1, "only the subscribed event runs")
	assert.Equal(t, "recorder", list[0].hook)
	assert.Equal(t, EventGoalReached, list[0].event)
	assert.NoError(t, list[0].err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"s-1"`)
	assert.Contains(t, string(data), `"stats":{"count":10}`)
}

func TestRunner_ReportsFailures(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeHook(t, dir, "refuses", `#!/bin/sh
echo '{"success":false,"error":"muted"}'
`, EventStopped)
	writeHook(t, dir, "crashes", `#!/bin/sh
exit 3
`, EventStopped)

	var got results
	r := NewRunner(discovered(t, dir), NewExecutor(5*time.Second), got.record)
	r.Fire(EventStopped, "s-2", "Arm Raises", struct{}{})
	r.Drain()

	list := got.snapshot()
	require.Len(t, list, 2)

	// Hooks run in name order.
	assert.Equal(t, "crashes", list[0].hook)
	assert.Error(t, list[0].err)

	assert.Equal(t, "refuses", list[1].hook)
	var respErr *ResponseError
	require.ErrorAs(t, list[1].err, &respErr)
	assert.Equal(t, "muted", respErr.Message)
	assert.True(t, strings.Contains(respErr.Error(), "refuses"))
}

func TestRunner_CloseCancelsRunningHook(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeHook(t, dir, "slow", `#!/bin/sh
sleep 10
`, EventStopped)

	var got results
	r := NewRunner(discovered(t, dir), NewExecutor(30*time.Second), got.record)
	r.Fire(EventStopped, "s-3", "Squats", struct{}{})

	time.Sleep(100 * time.Millisecond)
	start := time.Now()
	r.Close()

	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunner_FireAfterCloseIsIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeHook(t, dir, "ok", okScript, EventStopped)

	var got results
	r := NewRunner(discovered(t, dir), NewExecutor(time.Second), got.record)
	r.Close()
	r.Close()

	assert.NotPanics(t, func() {
		r.Fire(EventStopped, "s-4", "Squats", struct{}{})
	})
	assert.Empty(t, got.snapshot())
}

func TestRunner_NoHooks(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRunner(discovered(t, t.TempDir()), NewExecutor(time.Second), nil)
	r.Fire(EventGoalReached, "s-5", "Squats", struct{}{})
	r.Drain()
}
