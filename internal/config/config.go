// Package config loads abhinaya's startup configuration from a JSON file
// and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/gesture"
)

// Defaults for settings that are not thresholds.
const (
	DefaultListenAddr    = "127.0.0.1:8765"
	DefaultMaxInFlight   = 2
	DefaultLogLevel      = "info"
	DefaultPluginTimeout = 5 * time.Second
	DataDirName          = ".abhinaya"
)

// Environment variables that override file values.
const (
	EnvAddr     = "ABHINAYA_ADDR"
	EnvCamera   = "ABHINAYA_CAMERA"
	EnvLogLevel = "ABHINAYA_LOG_LEVEL"
	EnvHome     = "ABHINAYA_HOME"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the startup configuration. Every field is optional; the Get
// methods fall back to defaults for fields that are not set.
type Config struct {
	// Classifier thresholds
	LeftNodThreshold      *float64 `json:"left_nod_threshold,omitempty"`
	RightNodThreshold     *float64 `json:"right_nod_threshold,omitempty"`
	SmileThreshold        *float64 `json:"smile_threshold,omitempty"`
	OpenEyeMaxProbability *float64 `json:"open_eye_max_probability,omitempty"`
	OpenEyeMinProbability *float64 `json:"open_eye_min_probability,omitempty"`

	// Capture
	CameraID          *int    `json:"camera_id,omitempty"`
	FPS               *int    `json:"fps,omitempty"`
	MaxInFlight       *int    `json:"max_in_flight,omitempty"`
	DeviceOrientation *string `json:"device_orientation,omitempty"`
	CameraPosition    *string `json:"camera_position,omitempty"`

	// Service
	ListenAddr    *string `json:"listen_addr,omitempty"`
	LogLevel      *string `json:"log_level,omitempty"`
	DataDir       *string `json:"data_dir,omitempty"`
	StaticDir     *string `json:"static_dir,omitempty"`
	PluginTimeout *string `json:"plugin_timeout,omitempty"` // duration string like "5s"
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// Load reads a Config from a JSON file. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields with the ABHINAYA_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.ListenAddr = ptrString(v)
	}
	if v := os.Getenv(EnvCamera); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCamera, err)
		}
		c.CameraID = ptrInt(id)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = ptrString(v)
	}
	if v := os.Getenv(EnvHome); v != "" {
		c.DataDir = ptrString(v)
	}
	return c.Validate()
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}

	if c.CameraID != nil && *c.CameraID < 0 {
		return fmt.Errorf("camera_id must be non-negative, got %d", *c.CameraID)
	}
	if c.FPS != nil && (*c.FPS <= 0 || *c.FPS > 120) {
		return fmt.Errorf("fps must be between 1 and 120, got %d", *c.FPS)
	}
	if c.MaxInFlight != nil && *c.MaxInFlight <= 0 {
		return fmt.Errorf("max_in_flight must be positive, got %d", *c.MaxInFlight)
	}

	if c.DeviceOrientation != nil {
		if _, err := capture.ParseDeviceOrientation(*c.DeviceOrientation); err != nil {
			return err
		}
	}
	if c.CameraPosition != nil {
		if _, err := capture.ParseCameraPosition(*c.CameraPosition); err != nil {
			return err
		}
	}

	if c.PluginTimeout != nil && *c.PluginTimeout != "" {
		d, err := time.ParseDuration(*c.PluginTimeout)
		if err != nil {
			return fmt.Errorf("invalid plugin_timeout '%s': %w", *c.PluginTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("plugin_timeout must be positive, got %s", d)
		}
	}

	return nil
}

// Thresholds returns the classifier thresholds, using the defaults for
// values that are not set.
func (c *Config) Thresholds() gesture.Thresholds {
	t := gesture.DefaultThresholds()
	if c.LeftNodThreshold != nil {
		t.LeftNod = *c.LeftNodThreshold
	}
	if c.RightNodThreshold != nil {
		t.RightNod = *c.RightNodThreshold
	}
	if c.SmileThreshold != nil {
		t.Smile = *c.SmileThreshold
	}
	if c.OpenEyeMaxProbability != nil {
		t.OpenEyeMax = *c.OpenEyeMaxProbability
	}
	if c.OpenEyeMinProbability != nil {
		t.OpenEyeMin = *c.OpenEyeMinProbability
	}
	return t
}

// Camera returns the capture settings.
func (c *Config) Camera() capture.Config {
	cam := capture.DefaultConfig()
	if c.CameraID != nil {
		cam.DeviceID = *c.CameraID
	}
	if c.FPS != nil {
		cam.FPS = *c.FPS
	}
	return cam
}

// GetMaxInFlight returns the concurrent analysis limit or the default.
func (c *Config) GetMaxInFlight() int {
	if c.MaxInFlight == nil {
		return DefaultMaxInFlight
	}
	return *c.MaxInFlight
}

// GetDeviceOrientation returns the configured device orientation, or
// unknown when unset.
func (c *Config) GetDeviceOrientation() capture.DeviceOrientation {
	if c.DeviceOrientation == nil {
		return capture.DeviceUnknown
	}
	o, err := capture.ParseDeviceOrientation(*c.DeviceOrientation)
	if err != nil {
		return capture.DeviceUnknown
	}
	return o
}

// GetCameraPosition returns the configured camera position or front.
func (c *Config) GetCameraPosition() capture.CameraPosition {
	if c.CameraPosition == nil {
		return capture.CameraFront
	}
	p, err := capture.ParseCameraPosition(*c.CameraPosition)
	if err != nil {
		return capture.CameraFront
	}
	return p
}

// GetListenAddr returns the HTTP listen address or the default.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return *c.ListenAddr
}

// GetLogLevel returns the log level name or the default.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

// GetDataDir returns the data directory, ~/.abhinaya by default.
func (c *Config) GetDataDir() string {
	if c.DataDir != nil && *c.DataDir != "" {
		return *c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDirName
	}
	return filepath.Join(home, DataDirName)
}

// GetStaticDir returns the web UI directory, empty when unset.
func (c *Config) GetStaticDir() string {
	if c.StaticDir == nil {
		return ""
	}
	return *c.StaticDir
}

// GetPluginTimeout returns the plugin timeout or the default.
func (c *Config) GetPluginTimeout() time.Duration {
	if c.PluginTimeout == nil || *c.PluginTimeout == "" {
		return DefaultPluginTimeout
	}
	d, err := time.ParseDuration(*c.PluginTimeout)
	if err != nil {
		return DefaultPluginTimeout
	}
	return d
}
