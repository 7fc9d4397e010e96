package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
}

// writeHook creates dir/<name>/hook.json and an executable run.sh holding script.
func writeHook(t *testing.T, dir, name, script string, events ...Event) *Hook {
	t.Helper()

	hookDir := filepath.Join(dir, name)
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}

	manifest := Manifest{
		Name:        name,
		Version:     "1.0.0",
		Description: "test hook " + name,
		Executable:  "run.sh",
		Events:      events,
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	scriptPath := filepath.Join(hookDir, "run.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Hook{Manifest: manifest, Path: hookDir, Executable: scriptPath}
}

const okScript = `#!/bin/sh
cat > /dev/null
echo '{"success":true}'
`
