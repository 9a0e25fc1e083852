// Package gesture turns per-frame facial feature measurements into discrete gesture events.
package gesture

import "fmt"

// Kind identifies one of the facial gestures the classifier can report.
type Kind int

const (
	// NodLeft is a head rotation past the left nod threshold.
	NodLeft Kind = iota + 1
	// NodRight is a head rotation past the right nod threshold.
	NodRight
	// RightEyeBlink is the right eye closed while the left stays open.
	RightEyeBlink
	// LeftEyeBlink is the left eye closed while the right stays open.
	LeftEyeBlink
	// Smile is a smile probability above the smile threshold.
	Smile
	// DoubleEyeBlink is both eyes closed at once.
	DoubleEyeBlink
)

var kindNames = map[Kind]string{
	NodLeft:        "nod_left",
	NodRight:       "nod_right",
	RightEyeBlink:  "right_eye_blink",
	LeftEyeBlink:   "left_eye_blink",
	Smile:          "smile",
	DoubleEyeBlink: "double_eye_blink",
}

// Kinds returns every gesture kind in classification priority order.
func Kinds() []Kind {
	return []Kind{NodLeft, NodRight, RightEyeBlink, LeftEyeBlink, Smile, DoubleEyeBlink}
}

// String returns the stable wire name of the kind, e.g. "nod_left".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("gesture(%d)", int(k))
}

// Valid reports whether k is one of the known gesture kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind returns the kind with the given wire name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown gesture %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
