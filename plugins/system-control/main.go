// Package main provides a system control plugin for macOS.
// It handles volume, brightness, and media playback controls via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
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

// Config is the per-binding configuration.
type Config struct {
	// DryRun reports the resolved action instead of running it.
	DryRun bool `json:"dry_run"`
}

// actionScripts maps action names to the AppleScript that performs them.
var actionScripts = map[string]string{
	"volume-up":       `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down":     `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute":     `set volume output muted (not (output muted of (get volume settings)))`,
	"brightness-up":   keyCode(144),
	"brightness-down": keyCode(145),
	// F8, F9 and F7 media keys.
	"media-play-pause": keyCode(100),
	"media-next":       keyCode(101),
	"media-prev":       keyCode(98),
}

// gestureActions is the action the "gesture" action runs for each gesture.
var gestureActions = map[string]string{
	"nod_left":         "media-prev",
	"nod_right":        "media-next",
	"smile":            "media-play-pause",
	"left_eye_blink":   "volume-down",
	"right_eye_blink":  "volume-up",
	"double_eye_blink": "volume-mute",
}

func keyCode(code int) string {
	return fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	action, err := resolveAction(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if cfg.DryRun {
		data, _ := json.Marshal(map[string]string{"action": action})
		writeSuccessResponse(data)
		return
	}

	if err := runAppleScript(actionScripts[action]); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", action, err))
		return
	}

	writeSuccessResponse(nil)
}

// resolveAction returns the concrete action a request names. The
// "gesture" action is resolved through gestureActions.
func resolveAction(req Request) (string, error) {
	action := req.Action
	if action == "gesture" {
		mapped, ok := gestureActions[req.Gesture]
		if !ok {
			return "", fmt.Errorf("no action for gesture %q", req.Gesture)
		}
		action = mapped
	}

	if _, ok := actionScripts[action]; !ok {
		return "", fmt.Errorf("unknown action: %s", action)
	}
	return action, nil
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
