// Package tray provides a system tray interface for the abhinaya face gesture service.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool) error
	onSettings func()
	onQuit     func()
	enabled    bool
	last       gesture.Kind
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray. enabled is the initial session state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state
// is toggled. When it returns an error the toggle is reverted.
func (t *Tray) OnToggle(fn func(enabled bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
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

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Abhinaya")
	systray.SetTooltip("Abhinaya Face Gestures")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastGestureTitle(t.last), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Abhinaya")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	log.Debug("tray exited")
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	enabled := !t.enabled
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(enabled); err != nil {
			log.Warn("toggle failed", "enabled", enabled, "err", err)
			return
		}
	}

	t.SetEnabled(enabled)
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the displayed session state.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// OnGesture records kind as the last detected gesture. It lets the tray
// be registered as a gesture.Listener.
func (t *Tray) OnGesture(kind gesture.Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = kind
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastGestureTitle(kind))
	}
}

// LastGesture returns the last detected gesture, or zero if none yet.
func (t *Tray) LastGesture() gesture.Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastGestureTitle(kind gesture.Kind) string {
	if !kind.Valid() {
		return "Last: none"
	}
	return "Last: " + kind.String()
}
