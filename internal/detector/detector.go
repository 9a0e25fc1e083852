// Package detector extracts per-face gesture features from video frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// Rect is a bounding box normalized to the frame size (0-1).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Face is one face found in a frame.
type Face struct {
	Features gesture.FeatureVector `json:"features"`
	Box      Rect                  `json:"box"`
	Score    float64               `json:"score"`
}

// Detector defines the interface for face analysis implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the faces found in it.
	// Returns an empty slice if no face is visible.
	Detect(frame *gocv.Mat) ([]Face, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face analysis.
type Config struct {
	// MaxFaces is the maximum number of faces to analyze per frame (default: 1).
	MaxFaces int

	// MinConfidence is the minimum face detection confidence (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of the analysis service script.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
