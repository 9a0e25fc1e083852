package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ayusman/abhinaya/internal/log"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins in one or more directories.
//
// Directories are scanned in order and the first plugin with a given name
// wins, so a user directory listed before the bundled one can override a
// bundled plugin.
type Manager struct {
	dirs    []string
	plugins map[string]*Plugin
	mu      sync.RWMutex
}

// NewManager creates a Manager that scans dirs. Empty entries are ignored.
func NewManager(dirs ...string) *Manager {
	m := &Manager{plugins: make(map[string]*Plugin)}
	for _, d := range dirs {
		if d != "" {
			m.dirs = append(m.dirs, d)
		}
	}
	return m
}

// Discover rescans every directory and replaces the known plugins.
// Missing directories are skipped; entries without a usable manifest are
// logged and skipped.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	for _, dir := range m.dirs {
		plugins, err := scanDir(dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, p := range plugins {
			if prev, ok := found[p.Manifest.Name]; ok {
				log.Info("plugin shadowed", "name", p.Manifest.Name, "kept", prev.Path, "ignored", p.Path)
				continue
			}
			found[p.Manifest.Name] = p
		}
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()

	log.Info("plugins discovered", "dirs", m.dirs, "count", len(found))
	return nil
}

// scanDir loads every plugin subdirectory of dir.
func scanDir(dir string) ([]*Plugin, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var plugins []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(dir, entry.Name())
		p, err := loadPlugin(pluginPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			log.Warn("skipping plugin", "path", pluginPath, "err", err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// loadPlugin reads the manifest in pluginPath. It returns an error
// wrapping os.ErrNotExist when there is no manifest.
func loadPlugin(pluginPath string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(pluginPath, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	executable := filepath.Join(pluginPath, manifest.Executable)
	rel, err := filepath.Rel(pluginPath, executable)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("executable %q is outside the plugin directory", manifest.Executable)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       pluginPath,
		Executable: executable,
	}, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// PluginDirs returns the scanned directories in priority order.
func (m *Manager) PluginDirs() []string {
	return append([]string(nil), m.dirs...)
}
