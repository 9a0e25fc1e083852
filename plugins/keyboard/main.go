// Package main provides a keyboard plugin for macOS.
// It turns gestures into keystrokes and shortcuts via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams defines parameters for keystroke and shortcut actions.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	KeyCode   int      `json:"key_code,omitempty"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Config is the per-binding configuration.
type Config struct {
	// Keys overrides the default keystroke for a gesture name.
	Keys map[string]KeystrokeParams `json:"keys"`
	// DryRun reports the script instead of running it.
	DryRun bool `json:"dry_run"`
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// gestureKeys is the default keystroke for each gesture. Key codes are
// macOS virtual key codes.
var gestureKeys = map[string]KeystrokeParams{
	"nod_left":         {KeyCode: 123}, // left arrow
	"nod_right":        {KeyCode: 124}, // right arrow
	"left_eye_blink":   {KeyCode: 126}, // up arrow
	"right_eye_blink":  {KeyCode: 125}, // down arrow
	"smile":            {Key: " "},
	"double_eye_blink": {KeyCode: 36}, // return
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	script, cfg, err := scriptFor(req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	if cfg.DryRun {
		data, _ := json.Marshal(map[string]string{"script": script})
		writeSuccessResponse(data)
		return
	}

	if err := runAppleScript(script); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(nil)
}

// scriptFor builds the AppleScript a request asks for.
func scriptFor(req Request) (string, Config, error) {
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var p KeystrokeParams
	switch req.Action {
	case "keystroke", "shortcut":
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return "", cfg, fmt.Errorf("failed to parse params: %w", err)
			}
		}
	case "gesture":
		var ok bool
		if p, ok = cfg.Keys[req.Gesture]; !ok {
			if p, ok = gestureKeys[req.Gesture]; !ok {
				return "", cfg, fmt.Errorf("no key for gesture %q", req.Gesture)
			}
		}
	default:
		return "", cfg, fmt.Errorf("unknown action: %s", req.Action)
	}

	if p.Key == "" && p.KeyCode == 0 {
		return "", cfg, fmt.Errorf("key is required")
	}

	return buildKeystrokeScript(p), cfg, nil
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(p KeystrokeParams) string {
	press := fmt.Sprintf(`keystroke "%s"`, p.Key)
	if p.KeyCode != 0 {
		press = fmt.Sprintf("key code %d", p.KeyCode)
	}

	var appleModifiers []string
	for _, mod := range p.Modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press)
	}

	modifierList := strings.Join(appleModifiers, ", ")
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, modifierList)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
