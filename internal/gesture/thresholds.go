package gesture

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThresholds is returned when a Thresholds value breaks its ordering invariants.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Default threshold values.
const (
	DefaultLeftNodThreshold      = 20.0
	DefaultRightNodThreshold     = -4.0
	DefaultSmileThreshold        = 0.8
	DefaultOpenEyeMaxProbability = 0.95
	DefaultOpenEyeMinProbability = 0.1
)

// FeatureVector is the measurement of one detected face in one frame.
type FeatureVector struct {
	HeadYaw                 float64 `json:"head_yaw"`                   // Degrees, signed
	LeftEyeOpenProbability  float64 `json:"left_eye_open_probability"`  // 0-1
	RightEyeOpenProbability float64 `json:"right_eye_open_probability"` // 0-1
	SmileProbability        float64 `json:"smile_probability"`          // 0-1
}

// Thresholds holds the tunable limits the classifier compares features against.
type Thresholds struct {
	// LeftNod is the yaw above which a left nod is reported.
	LeftNod float64 `json:"left_nod_threshold"`
	// RightNod is the yaw below which a right nod is reported.
	RightNod float64 `json:"right_nod_threshold"`
	// Smile is the smile probability above which a smile is reported.
	Smile float64 `json:"smile_threshold"`
	// OpenEyeMax is the probability above which an eye counts as open.
	OpenEyeMax float64 `json:"open_eye_max_probability"`
	// OpenEyeMin is the probability below which an eye counts as closed.
	OpenEyeMin float64 `json:"open_eye_min_probability"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LeftNod:    DefaultLeftNodThreshold,
		RightNod:   DefaultRightNodThreshold,
		Smile:      DefaultSmileThreshold,
		OpenEyeMax: DefaultOpenEyeMaxProbability,
		OpenEyeMin: DefaultOpenEyeMinProbability,
	}
}

// Validate checks that every value is a number and that the nod and eye
// ranges are ordered.
func (t Thresholds) Validate() error {
	values := map[string]float64{
		"left_nod_threshold":       t.LeftNod,
		"right_nod_threshold":      t.RightNod,
		"smile_threshold":          t.Smile,
		"open_eye_max_probability": t.OpenEyeMax,
		"open_eye_min_probability": t.OpenEyeMin,
	}
	for name, v := range values {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN", ErrInvalidThresholds, name)
		}
	}

	if t.RightNod >= t.LeftNod {
		return fmt.Errorf("%w: right nod threshold %.2f must be below left nod threshold %.2f",
			ErrInvalidThresholds, t.RightNod, t.LeftNod)
	}
	if t.OpenEyeMin >= t.OpenEyeMax {
		return fmt.Errorf("%w: open eye min probability %.2f must be below max %.2f",
			ErrInvalidThresholds, t.OpenEyeMin, t.OpenEyeMax)
	}
	return nil
}
