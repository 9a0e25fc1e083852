// Package app ties capture, face analysis, gesture classification and
// plugin actions into one start/stop session.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/store"
)

// DefaultMaxInFlight is the number of frames analyzed concurrently before
// newer frames are dropped.
const DefaultMaxInFlight = 2

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	// PluginDirs are scanned for plugins in order; earlier directories
	// win on name clashes.
	PluginDirs []string

	Camera   capture.Config
	Detector detector.Config

	// Thresholds seeds the classifier. Thresholds saved in the store win;
	// invalid values fall back to gesture.DefaultThresholds.
	Thresholds gesture.Thresholds

	// MaxInFlight bounds concurrent frame analyses.
	MaxInFlight int

	// DeviceOrientation and CameraPosition decide how frames are turned
	// upright before analysis.
	DeviceOrientation capture.DeviceOrientation
	CameraPosition    capture.CameraPosition

	// PluginTimeout bounds a single plugin action.
	PluginTimeout time.Duration
}

// App runs gesture detection sessions.
//
// A session captures frames, analyzes each on its own goroutine and feeds
// the first face of every analyzed frame to the classifier. Sessions are
// numbered; results that arrive after Stop, or from an earlier session,
// are discarded without touching the classifier.
type App struct {
	config     Config
	classifier *gesture.Classifier
	notifier   *gesture.Notifier
	actions    *gesture.Notifier
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor

	ctx    context.Context
	cancel context.CancelFunc

	// lifecycle serializes Start and Stop, including Stop's drain and
	// camera close, so a new session never shares a camera being closed.
	lifecycle sync.Mutex

	// mu guards the fields below. Stop takes it for writing, so no
	// classification of the ending session can run after Stop returns.
	mu          sync.RWMutex
	camera      capture.Camera
	detector    detector.Detector
	orientation capture.ImageOrientation
	running     bool
	generation  uint64
	stopCh      chan struct{}
	loopDone    chan struct{}

	inflight chan struct{}
	wg       sync.WaitGroup
	dropped  atomic.Uint64
	preview  atomic.Pointer[[]byte]
}

// New creates a new App. The camera and detector are built from config;
// SetCamera and SetDetector replace them.
func New(config Config) *App {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = DefaultMaxInFlight
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config:      config,
		classifier:  gesture.NewClassifier(initialThresholds(config)),
		notifier:    gesture.NewNotifier(gesture.DefaultNotifyBuffer),
		actions:     gesture.NewNotifier(gesture.DefaultNotifyBuffer),
		pluginMgr:   plugin.NewManager(config.PluginDirs...),
		pluginExec:  plugin.NewExecutor(config.PluginTimeout),
		ctx:         ctx,
		cancel:      cancel,
		camera:      capture.NewCamera(config.Camera),
		orientation: capture.ImageOrientationFor(config.DeviceOrientation, config.CameraPosition),
		inflight:    make(chan struct{}, config.MaxInFlight),
	}
	a.actions.SetListener(gesture.ListenerFunc(a.executeActions))

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Info("using MediaPipe face analysis")
	} else {
		log.Warn("MediaPipe not available, using mock detector", "err", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

func initialThresholds(config Config) gesture.Thresholds {
	if config.Store != nil {
		saved, err := config.Store.Settings().Thresholds()
		switch {
		case err == nil:
			return saved
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("ignoring saved thresholds", "err", err)
		}
	}

	if err := config.Thresholds.Validate(); err != nil {
		return gesture.DefaultThresholds()
	}
	return config.Thresholds
}

// SetListener replaces the gesture listener. Events already emitted keep
// going to the listener that was set when they fired. Nil clears it.
func (a *App) SetListener(l gesture.Listener) {
	a.notifier.SetListener(l)
}

// SetCamera replaces the capture device. It takes effect at the next Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the face analysis implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetDeviceOrientation changes how later frames are turned upright.
// Flat or unknown orientations keep the previous device orientation.
func (a *App) SetDeviceOrientation(device capture.DeviceOrientation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	device = capture.ResolveDeviceOrientation(device, a.config.DeviceOrientation)
	a.config.DeviceOrientation = device
	a.orientation = capture.ImageOrientationFor(device, a.config.CameraPosition)
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start opens the camera and begins a new session. The classifier starts
// the session resting. Starting a running session does nothing.
func (a *App) Start() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.classifier.Reset()
	a.generation++
	a.running = true
	a.stopCh = make(chan struct{})
	a.loopDone = make(chan struct{})

	go a.runPipeline(a.camera, a.generation, a.stopCh, a.loopDone)

	log.Info("session started", "session", a.generation)
	return nil
}

// Stop ends the session. Analyses still running are discarded when they
// complete. Stopping an idle App does nothing.
func (a *App) Stop() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}

	a.running = false
	a.generation++
	close(a.stopCh)
	loopDone := a.loopDone
	camera := a.camera
	a.stopCh = nil
	a.loopDone = nil
	a.mu.Unlock()

	<-loopDone
	a.wg.Wait()

	if err := camera.Close(); err != nil {
		log.Warn("error closing camera", "err", err)
	}

	a.preview.Store(nil)
	log.Info("session stopped", "dropped_frames", a.dropped.Load())
}

// IsRunning reports whether a session is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Thresholds returns the thresholds the classifier uses.
func (a *App) Thresholds() gesture.Thresholds {
	return a.classifier.Thresholds()
}

// SetThresholds validates and applies t from the next classified frame,
// and saves it when a store is configured.
func (a *App) SetThresholds(t gesture.Thresholds) error {
	if err := a.classifier.SetThresholds(t); err != nil {
		return err
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetThresholds(t); err != nil {
			return fmt.Errorf("save thresholds: %w", err)
		}
	}

	log.Info("thresholds updated",
		"left_nod", t.LeftNod,
		"right_nod", t.RightNod,
		"smile", t.Smile,
		"open_eye_max", t.OpenEyeMax,
		"open_eye_min", t.OpenEyeMin)
	return nil
}

// HandleDetection feeds one analyzed frame into the current session.
// An error or an empty face list leaves the classifier untouched; only
// the first face is classified.
func (a *App) HandleDetection(faces []detector.Face, width, height int, err error) {
	a.mu.RLock()
	gen := a.generation
	a.mu.RUnlock()

	a.handleDetection(gen, faces, width, height, err)
}

func (a *App) handleDetection(gen uint64, faces []detector.Face, width, height int, err error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running || gen != a.generation {
		log.Debug("discarding stale analysis", "session", gen)
		return
	}

	if err != nil {
		log.Warn("face analysis failed", "err", err)
		return
	}
	if len(faces) == 0 {
		return
	}

	kind, ok := a.classifier.Classify(faces[0].Features)
	if !ok {
		return
	}

	log.Info("gesture recognized", "gesture", kind, "faces", len(faces), "width", width, "height", height)
	a.notifier.Notify(kind)
	a.actions.Notify(kind)
}

// Preview returns the last analyzed frame as JPEG.
func (a *App) Preview() ([]byte, bool) {
	p := a.preview.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// DroppedFrames returns how many frames were dropped because analysis
// was saturated.
func (a *App) DroppedFrames() uint64 {
	return a.dropped.Load()
}

// Close stops the session and releases the detector and notifiers.
func (a *App) Close() error {
	a.Stop()
	a.cancel()
	a.notifier.Close()
	a.actions.Close()

	a.mu.Lock()
	d := a.detector
	a.mu.Unlock()

	if d != nil {
		return d.Close()
	}
	return nil
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Classifier returns the gesture classifier.
func (a *App) Classifier() *gesture.Classifier {
	return a.classifier
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the face detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// DetectorKind names the face analysis in use: "mediapipe", "mock" or
// "custom" for any other implementation.
func (a *App) DetectorKind() string {
	switch a.Detector().(type) {
	case *detector.MediaPipeDetector:
		return "mediapipe"
	case *detector.MockDetector:
		return "mock"
	default:
		return "custom"
	}
}
