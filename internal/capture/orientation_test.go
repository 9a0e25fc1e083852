package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestImageOrientationFor(t *testing.T) {
	tests := []struct {
		device   DeviceOrientation
		position CameraPosition
		want     ImageOrientation
	}{
		{DevicePortrait, CameraFront, OrientationLeftMirrored},
		{DevicePortrait, CameraBack, OrientationRight},
		{DeviceLandscapeLeft, CameraFront, OrientationDownMirrored},
		{DeviceLandscapeLeft, CameraBack, OrientationUp},
		{DevicePortraitUpsideDown, CameraFront, OrientationRightMirrored},
		{DevicePortraitUpsideDown, CameraBack, OrientationLeft},
		{DeviceLandscapeRight, CameraFront, OrientationUpMirrored},
		{DeviceLandscapeRight, CameraBack, OrientationDown},
		{DeviceFaceUp, CameraFront, OrientationUp},
		{DeviceFaceDown, CameraBack, OrientationUp},
		{DeviceUnknown, CameraFront, OrientationUp},
		{DeviceOrientation(42), CameraFront, OrientationUp},
	}

	for _, tt := range tests {
		t.Run(tt.device.String()+"/"+tt.position.String(), func(t *testing.T) {
			if got := ImageOrientationFor(tt.device, tt.position); got != tt.want {
				t.Errorf("ImageOrientationFor(%v, %v) = %v, want %v", tt.device, tt.position, got, tt.want)
			}
		})
	}
}

func TestResolveDeviceOrientation(t *testing.T) {
	tests := []struct {
		device, fallback, want DeviceOrientation
	}{
		{DeviceLandscapeLeft, DevicePortrait, DeviceLandscapeLeft},
		{DeviceFaceUp, DevicePortrait, DevicePortrait},
		{DeviceFaceDown, DeviceLandscapeRight, DeviceLandscapeRight},
		{DeviceUnknown, DevicePortraitUpsideDown, DevicePortraitUpsideDown},
	}

	for _, tt := range tests {
		if got := ResolveDeviceOrientation(tt.device, tt.fallback); got != tt.want {
			t.Errorf("ResolveDeviceOrientation(%v, %v) = %v, want %v", tt.device, tt.fallback, got, tt.want)
		}
	}
}

func TestParseDeviceOrientation(t *testing.T) {
	for o, name := range deviceOrientationNames {
		got, err := ParseDeviceOrientation(name)
		if err != nil {
			t.Errorf("ParseDeviceOrientation(%q) error = %v", name, err)
		}
		if got != o {
			t.Errorf("ParseDeviceOrientation(%q) = %v, want %v", name, got, o)
		}
	}

	if got, err := ParseDeviceOrientation(""); err != nil || got != DeviceUnknown {
		t.Errorf("ParseDeviceOrientation(\"\") = (%v, %v), want (unknown, nil)", got, err)
	}
	if _, err := ParseDeviceOrientation("sideways"); err == nil {
		t.Error("expected error for unknown orientation")
	}
}

func TestParseCameraPosition(t *testing.T) {
	tests := []struct {
		in      string
		want    CameraPosition
		wantErr bool
	}{
		{"", CameraFront, false},
		{"front", CameraFront, false},
		{"BACK", CameraBack, false},
		{"top", CameraFront, true},
	}

	for _, tt := range tests {
		got, err := ParseCameraPosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCameraPosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCameraPosition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOrient_Dimensions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer src.Close()

	tests := []struct {
		orientation        ImageOrientation
		wantRows, wantCols int
	}{
		{OrientationUp, 480, 640},
		{OrientationDown, 480, 640},
		{OrientationLeft, 640, 480},
		{OrientationRight, 640, 480},
		{OrientationUpMirrored, 480, 640},
		{OrientationDownMirrored, 480, 640},
		{OrientationLeftMirrored, 640, 480},
		{OrientationRightMirrored, 640, 480},
	}

	for _, tt := range tests {
		t.Run(tt.orientation.String(), func(t *testing.T) {
			dst := Orient(src, tt.orientation)
			defer dst.Close()

			if dst.Rows() != tt.wantRows || dst.Cols() != tt.wantCols {
				t.Errorf("Orient(%v) size = %dx%d, want %dx%d",
					tt.orientation, dst.Rows(), dst.Cols(), tt.wantRows, tt.wantCols)
			}
		})
	}
}

func TestOrient_MirrorFlipsPixels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(0, 0, 200)

	dst := Orient(src, OrientationUpMirrored)
	defer dst.Close()

	if got := dst.GetUCharAt(0, 1); got != 200 {
		t.Errorf("mirrored pixel = %d, want 200", got)
	}
	if got := dst.GetUCharAt(0, 0); got != 0 {
		t.Errorf("original position = %d, want 0", got)
	}
}
