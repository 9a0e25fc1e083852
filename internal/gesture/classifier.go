package gesture

import "sync"

// Evaluate returns the gesture the features show, if any.
//
// Predicates are checked in a fixed order and the first match wins:
//  1. yaw above LeftNod          -> NodLeft
//  2. yaw below RightNod         -> NodRight
//  3. left open, right closed    -> RightEyeBlink
//  4. right open, left closed    -> LeftEyeBlink
//  5. smile above Smile          -> Smile
//  6. both eyes closed           -> DoubleEyeBlink
//
// Head rotation is checked first because large yaw angles distort the
// per-eye probabilities. All comparisons are strict.
func Evaluate(f FeatureVector, t Thresholds) (Kind, bool) {
	left := f.LeftEyeOpenProbability
	right := f.RightEyeOpenProbability

	switch {
	case f.HeadYaw > t.LeftNod:
		return NodLeft, true
	case f.HeadYaw < t.RightNod:
		return NodRight, true
	case left > t.OpenEyeMax && right < t.OpenEyeMin:
		return RightEyeBlink, true
	case right > t.OpenEyeMax && left < t.OpenEyeMin:
		return LeftEyeBlink, true
	case f.SmileProbability > t.Smile:
		return Smile, true
	case left < t.OpenEyeMin && right < t.OpenEyeMin:
		return DoubleEyeBlink, true
	}
	return 0, false
}

// Classifier reports each gesture once per occurrence.
//
// A gesture is only reported when the classifier is resting, and
// reporting it clears the resting flag. Only a neutral frame (one where
// Evaluate finds nothing) sets it again, so a held gesture fires once and
// the same gesture can fire again after the face relaxes.
//
// Classify is safe for concurrent use; calls are serialized.
type Classifier struct {
	mu         sync.Mutex
	thresholds Thresholds
	resting    bool
}

// NewClassifier creates a resting Classifier. Invalid thresholds are
// replaced by DefaultThresholds.
func NewClassifier(t Thresholds) *Classifier {
	if t.Validate() != nil {
		t = DefaultThresholds()
	}
	return &Classifier{
		thresholds: t,
		resting:    true,
	}
}

// Classify evaluates one frame's features and returns the gesture to
// report, if this frame is a rising edge.
func (c *Classifier) Classify(f FeatureVector) (Kind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, ok := Evaluate(f, c.thresholds)
	if !ok {
		c.resting = true
		return 0, false
	}

	if !c.resting {
		return 0, false
	}
	c.resting = false
	return kind, true
}

// Reset puts the classifier back into the resting state.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resting = true
}

// Resting reports whether the next matching frame will fire.
func (c *Classifier) Resting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resting
}

// Thresholds returns the thresholds in use.
func (c *Classifier) Thresholds() Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresholds
}

// SetThresholds replaces the thresholds. They apply from the next
// classified frame; the resting flag is left alone.
func (c *Classifier) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = t
	return nil
}
