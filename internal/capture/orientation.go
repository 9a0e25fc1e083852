package capture

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// DeviceOrientation is the physical orientation of the capturing device.
type DeviceOrientation int

const (
	DeviceUnknown DeviceOrientation = iota
	DevicePortrait
	DevicePortraitUpsideDown
	DeviceLandscapeLeft
	DeviceLandscapeRight
	DeviceFaceUp
	DeviceFaceDown
)

var deviceOrientationNames = map[DeviceOrientation]string{
	DeviceUnknown:            "unknown",
	DevicePortrait:           "portrait",
	DevicePortraitUpsideDown: "portrait_upside_down",
	DeviceLandscapeLeft:      "landscape_left",
	DeviceLandscapeRight:     "landscape_right",
	DeviceFaceUp:             "face_up",
	DeviceFaceDown:           "face_down",
}

func (o DeviceOrientation) String() string {
	if name, ok := deviceOrientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("device_orientation(%d)", int(o))
}

// Flat reports whether the orientation says nothing about which way is up.
func (o DeviceOrientation) Flat() bool {
	switch o {
	case DevicePortrait, DevicePortraitUpsideDown, DeviceLandscapeLeft, DeviceLandscapeRight:
		return false
	default:
		return true
	}
}

// ParseDeviceOrientation parses names like "portrait" or "landscape_left".
// An empty string is DeviceUnknown.
func ParseDeviceOrientation(s string) (DeviceOrientation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DeviceUnknown, nil
	}
	for o, name := range deviceOrientationNames {
		if name == s {
			return o, nil
		}
	}
	return DeviceUnknown, fmt.Errorf("unknown device orientation %q", s)
}

// CameraPosition says which side of the device the camera faces.
type CameraPosition int

const (
	CameraFront CameraPosition = iota
	CameraBack
)

func (p CameraPosition) String() string {
	if p == CameraBack {
		return "back"
	}
	return "front"
}

// ParseCameraPosition parses "front" or "back". An empty string is CameraFront.
func ParseCameraPosition(s string) (CameraPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "front":
		return CameraFront, nil
	case "back":
		return CameraBack, nil
	default:
		return CameraFront, fmt.Errorf("unknown camera position %q", s)
	}
}

// ImageOrientation describes how a captured buffer must be transformed to
// be displayed upright.
type ImageOrientation int

const (
	OrientationUp ImageOrientation = iota
	OrientationDown
	OrientationLeft
	OrientationRight
	OrientationUpMirrored
	OrientationDownMirrored
	OrientationLeftMirrored
	OrientationRightMirrored
)

func (o ImageOrientation) String() string {
	switch o {
	case OrientationUp:
		return "up"
	case OrientationDown:
		return "down"
	case OrientationLeft:
		return "left"
	case OrientationRight:
		return "right"
	case OrientationUpMirrored:
		return "up_mirrored"
	case OrientationDownMirrored:
		return "down_mirrored"
	case OrientationLeftMirrored:
		return "left_mirrored"
	case OrientationRightMirrored:
		return "right_mirrored"
	}
	return fmt.Sprintf("image_orientation(%d)", int(o))
}

// ResolveDeviceOrientation returns device unless it is flat or unknown, in
// which case the interface orientation is used instead.
func ResolveDeviceOrientation(device, fallback DeviceOrientation) DeviceOrientation {
	if device.Flat() {
		return fallback
	}
	return device
}

// ImageOrientationFor maps the device orientation and camera position to
// the orientation of the captured buffer. Front cameras produce mirrored
// buffers. Orientations that do not say which way is up map to OrientationUp.
func ImageOrientationFor(device DeviceOrientation, position CameraPosition) ImageOrientation {
	front := position == CameraFront

	switch device {
	case DevicePortrait:
		if front {
			return OrientationLeftMirrored
		}
		return OrientationRight
	case DeviceLandscapeLeft:
		if front {
			return OrientationDownMirrored
		}
		return OrientationUp
	case DevicePortraitUpsideDown:
		if front {
			return OrientationRightMirrored
		}
		return OrientationLeft
	case DeviceLandscapeRight:
		if front {
			return OrientationUpMirrored
		}
		return OrientationDown
	case DeviceFaceUp, DeviceFaceDown, DeviceUnknown:
		return OrientationUp
	default:
		return OrientationUp
	}
}

// Orient returns an upright copy of src. The caller owns the result.
func Orient(src gocv.Mat, o ImageOrientation) gocv.Mat {
	dst := gocv.NewMat()

	switch o {
	case OrientationDown:
		gocv.Rotate(src, &dst, gocv.Rotate180Clockwise)
	case OrientationLeft:
		gocv.Rotate(src, &dst, gocv.Rotate90CounterClockwise)
	case OrientationRight:
		gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	case OrientationUpMirrored:
		gocv.Flip(src, &dst, 1)
	case OrientationDownMirrored:
		gocv.Flip(src, &dst, 0)
	case OrientationLeftMirrored:
		rotateThenMirror(src, &dst, gocv.Rotate90CounterClockwise)
	case OrientationRightMirrored:
		rotateThenMirror(src, &dst, gocv.Rotate90Clockwise)
	default:
		src.CopyTo(&dst)
	}

	return dst
}

func rotateThenMirror(src gocv.Mat, dst *gocv.Mat, code gocv.RotateFlag) {
	rotated := gocv.NewMat()
	defer rotated.Close()

	gocv.Rotate(src, &rotated, code)
	gocv.Flip(rotated, dst, 1)
}
