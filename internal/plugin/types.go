// Package plugin discovers and runs external action plugins that react to
// recognized gestures.
package plugin

import (
	"encoding/json"
	"errors"
	"slices"
)

// ManifestFile is the name of the manifest each plugin directory carries.
const ManifestFile = "plugin.json"

// Manifest is the plugin.json found at the root of a plugin directory.
// Executable is relative to that directory. An empty Actions list means
// the plugin accepts any action name.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Validate checks the fields discovery depends on.
func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return errors.New("manifest has no name")
	case m.Executable == "":
		return errors.New("manifest has no executable")
	}
	return nil
}

// Request is one action invocation, written to the plugin's stdin.
// Config is the binding's stored config; Params is per-call input.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response is the single JSON object a plugin prints on stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a validated manifest plus where it was found.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether action can be sent to p.
func (p *Plugin) Supports(action string) bool {
	if len(p.Manifest.Actions) == 0 {
		return true
	}
	return slices.Contains(p.Manifest.Actions, action)
}
