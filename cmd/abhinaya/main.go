package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	headless := flag.Bool("headless", false, "run without the system tray")
	paused := flag.Bool("paused", false, "do not start detection at launch")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abhinaya: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = addr
	}

	log.Init(cfg.GetLogLevel())

	if err := run(cfg, *headless, *paused); err != nil {
		log.Error("abhinaya failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, headless, paused bool) error {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, "abhinaya.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:             st,
		PluginDirs:        []string{filepath.Join(dataDir, "plugins"), findBundledPluginDir()},
		Camera:            cfg.Camera(),
		Detector:          detector.DefaultConfig(),
		Thresholds:        cfg.Thresholds(),
		MaxInFlight:       cfg.GetMaxInFlight(),
		DeviceOrientation: cfg.GetDeviceOrientation(),
		CameraPosition:    cfg.GetCameraPosition(),
		PluginTimeout:     cfg.GetPluginTimeout(),
	})
	defer a.Close()

	if a.DetectorKind() == "mock" && !headless {
		log.Error("face analysis service unavailable; no gestures will be detected")
	}

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn("plugin discovery failed", "err", err)
	}

	staticDir := cfg.GetStaticDir()
	if staticDir == "" {
		staticDir = findWebDir(dataDir)
	}
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}

	hub := server.NewEventHub()
	listeners := gesture.Listeners{hub}

	var t *tray.Tray
	if !headless {
		t = tray.New(!paused)
		listeners = append(listeners, t)
	}
	a.SetListener(listeners)

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Session:   a,
		Plugins:   a.PluginManager(),
		Events:    hub,
		Preview:   a,
	})

	if !paused {
		if err := a.Start(); err != nil {
			log.Warn("detection not started", "err", err)
			if t != nil {
				t.SetEnabled(false)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenAddr := cfg.GetListenAddr()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, listenAddr) }()

	if t != nil {
		t.OnToggle(func(enabled bool) error {
			if enabled {
				return a.Start()
			}
			a.Stop()
			return nil
		})
		t.OnSettings(func() { openBrowser(settingsURL(listenAddr)) })
		t.OnQuit(stop)

		// systray owns the main thread until Quit.
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		stop()
	} else {
		<-ctx.Done()
	}

	log.Info("shutting down")
	a.Stop()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// findBundledPluginDir returns the plugins directory shipped next to the
// binary or in the working directory, or empty if there is none.
func findBundledPluginDir() string {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "plugins"))
	}
	candidates = append(candidates, "plugins")

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// settingsURL turns a listen address into a browsable URL.
func settingsURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		log.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "err", err)
	}
}
