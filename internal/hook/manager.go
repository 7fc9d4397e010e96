package hook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ManifestFile is the manifest name expected in each hook directory.
const ManifestFile = "hook.json"

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager discovers hooks and looks them up by name or event.
type Manager struct {
	dir   string
	hooks map[string]*Hook
	mu    sync.RWMutex
}

// NewManager creates a new Manager for the given hooks directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		hooks: make(map[string]*Hook),
	}
}

// Discover scans the hooks directory. Each subdirectory holding a hook.json
// manifest is one hook; directories with unreadable or incomplete manifests
// are skipped. A missing hooks directory is not an error.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	if m.dir == "" {
		return nil
	}
	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(m.dir, entry.Name())
		manifestData, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			log.WithError(err).WithField("dir", hookPath).Warn("skipping hook with invalid manifest")
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			log.WithField("dir", hookPath).Warn("skipping hook without name or executable")
			continue
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	log.WithFields(log.Fields{
		"dir":   m.dir,
		"hooks": len(m.hooks),
	}).Info("hooks discovered")

	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns all discovered hooks sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})
	return hooks
}

// ForEvent returns the hooks subscribed to e, sorted by name.
func (m *Manager) ForEvent(e Event) []*Hook {
	var hooks []*Hook
	for _, h := range m.List() {
		if h.Manifest.Subscribes(e) {
			hooks = append(hooks, h)
		}
	}
	return hooks
}

// Dir returns the hooks directory path.
func (m *Manager) Dir() string {
	return m.dir
}
