package app

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
	"github.com/ayusman/abhinaya/internal/plugin"
)

// runPipeline reads frames at the camera rate until stopCh closes.
//
// Each frame is analyzed on its own goroutine. When MaxInFlight analyses
// are already running the frame is dropped, so a slow detector never
// builds a backlog of stale frames.
func (a *App) runPipeline(camera capture.Camera, gen uint64, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := camera.ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrNoMoreFrames) {
					log.Debug("camera has no frames")
				} else {
					log.Warn("error reading frame", "err", err)
				}
				continue
			}

			select {
			case a.inflight <- struct{}{}:
			default:
				frame.Close()
				a.dropped.Add(1)
				continue
			}

			a.wg.Add(1)
			go a.analyze(gen, frame)
		}
	}
}

// analyze turns one frame upright, runs face analysis on it and hands the
// result to the session.
func (a *App) analyze(gen uint64, frame *gocv.Mat) {
	defer a.wg.Done()
	defer func() { <-a.inflight }()
	defer frame.Close()

	a.mu.RLock()
	d := a.detector
	orientation := a.orientation
	a.mu.RUnlock()

	upright := capture.Orient(*frame, orientation)
	defer upright.Close()

	a.storePreview(&upright)

	faces, err := d.Detect(&upright)
	a.handleDetection(gen, faces, upright.Cols(), upright.Rows(), err)
}

func (a *App) storePreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.Debug("preview encode failed", "err", err)
		return
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	a.preview.Store(&data)
}

// executeActions runs every enabled plugin action bound to kind. It is the
// listener of the actions notifier, so bindings run one gesture at a time
// in the order gestures fired.
func (a *App) executeActions(kind gesture.Kind) {
	if a.config.Store == nil {
		return
	}

	bindings, err := a.config.Store.Actions().ListByGesture(kind)
	if err != nil {
		log.Error("failed to load actions", "gesture", kind, "err", err)
		return
	}

	for _, b := range bindings {
		p, err := a.pluginMgr.Get(b.PluginName)
		if err != nil {
			log.Warn("action plugin unavailable", "gesture", kind, "plugin", b.PluginName, "err", err)
			continue
		}
		if !p.Supports(b.ActionName) {
			log.Warn("plugin does not support action", "plugin", b.PluginName, "action", b.ActionName)
			continue
		}

		resp, err := a.pluginExec.Execute(a.ctx, p, &plugin.Request{
			Action:  b.ActionName,
			Gesture: kind.String(),
			Config:  b.Config,
		})
		switch {
		case err != nil:
			log.Error("action failed", "gesture", kind, "plugin", b.PluginName, "action", b.ActionName, "err", err)
		case !resp.Success:
			log.Warn("action reported failure", "gesture", kind, "plugin", b.PluginName, "action", b.ActionName, "error", resp.Error)
		default:
			log.Debug("action executed", "gesture", kind, "plugin", b.PluginName, "action", b.ActionName)
		}
	}
}
