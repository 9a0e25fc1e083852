package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	faces []Face
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces ...Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// centered is the box of a face filling the middle of the frame.
var centered = Rect{X: 0.3, Y: 0.2, W: 0.4, H: 0.55}

func presetFace(f gesture.FeatureVector) Face {
	return Face{Features: f, Box: centered, Score: 0.97}
}

// NeutralFace returns a relaxed face looking at the camera.
func NeutralFace() Face {
	return presetFace(gesture.FeatureVector{
		HeadYaw:                 1.5,
		LeftEyeOpenProbability:  0.6,
		RightEyeOpenProbability: 0.6,
		SmileProbability:        0.05,
	})
}

// NodLeftFace returns a face tilted well past the left nod threshold.
func NodLeftFace() Face {
	return presetFace(gesture.FeatureVector{
		HeadYaw:                 26,
		LeftEyeOpenProbability:  0.6,
		RightEyeOpenProbability: 0.6,
		SmileProbability:        0.05,
	})
}

// NodRightFace returns a face tilted past the right nod threshold.
func NodRightFace() Face {
	return presetFace(gesture.FeatureVector{
		HeadYaw:                 -9,
		LeftEyeOpenProbability:  0.6,
		RightEyeOpenProbability: 0.6,
		SmileProbability:        0.05,
	})
}

// SmilingFace returns a broadly smiling face.
func SmilingFace() Face {
	return presetFace(gesture.FeatureVector{
		HeadYaw:                 0.5,
		LeftEyeOpenProbability:  0.7,
		RightEyeOpenProbability: 0.7,
		SmileProbability:        0.93,
	})
}

// WinkFace returns a face with only the given eye closed; left selects the left eye.
func WinkFace(left bool) Face {
	f := gesture.FeatureVector{
		HeadYaw:                 0.5,
		LeftEyeOpenProbability:  0.98,
		RightEyeOpenProbability: 0.04,
		SmileProbability:        0.1,
	}
	if left {
		f.LeftEyeOpenProbability, f.RightEyeOpenProbability = f.RightEyeOpenProbability, f.LeftEyeOpenProbability
	}
	return presetFace(f)
}

// EyesClosedFace returns a face with both eyes shut.
func EyesClosedFace() Face {
	return presetFace(gesture.FeatureVector{
		HeadYaw:                 0.5,
		LeftEyeOpenProbability:  0.03,
		RightEyeOpenProbability: 0.02,
		SmileProbability:        0.1,
	})
}
