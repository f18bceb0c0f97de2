package capture

import "fmt"

// Health is the readiness state of a frame source
type Health string

const (
	Ready            Health = "ready"
	Initializing     Health = "initializing"
	PermissionDenied Health = "permission_denied"
	DeviceNotFound   Health = "device_not_found"
	DeviceBusy       Health = "device_busy"
	Unsupported      Health = "unsupported"
)

// Terminal reports whether the source cannot recover without user action
func (h Health) Terminal() bool {
	switch h {
	case PermissionDenied, DeviceNotFound, DeviceBusy, Unsupported:
		return true
	}
	return false
}

// Message is the user-facing explanation for a health state
func (h Health) Message() string {
	switch h {
	case Ready:
		return "Camera ready."
	case Initializing:
		return "Initializing camera..."
	case PermissionDenied:
		return "Camera access denied. Allow camera access for this page, then retry."
	case DeviceNotFound:
		return "No camera found. Connect a camera and retry."
	case DeviceBusy:
		return "Camera is being used by another application. Close other camera apps and retry."
	case Unsupported:
		return "Camera not supported. Use a modern browser over HTTPS, or a supported capture device."
	}
	return fmt.Sprintf("Camera error: %s.", string(h))
}

// HealthFromBrowserError maps a getUserMedia DOMException name to a health
// state. Unknown names map to Unsupported so the user still sees a message.
func HealthFromBrowserError(name string) Health {
	switch name {
	case "NotAllowedError", "PermissionDeniedError":
		return PermissionDenied
	case "NotFoundError", "DevicesNotFoundError", "OverconstrainedError":
		return DeviceNotFound
	case "NotReadableError", "TrackStartError", "AbortError":
		return DeviceBusy
	default:
		return Unsupported
	}
}

// HealthError reports a source that failed with a terminal health state
type HealthError struct {
	Source string
	Health Health
}

func (e *HealthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Health)
}

// Unwrap lets callers match every terminal failure with ErrUnavailable
func (e *HealthError) Unwrap() error {
	return ErrUnavailable
}
