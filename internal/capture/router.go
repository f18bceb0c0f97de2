package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by Open
const (
	BackendSynthetic = "synthetic"
	BackendPush      = "push"
	BackendDirectory = "directory"
	BackendWebcam    = "webcam"
	BackendScreen    = "screen"
)

// Backends lists every backend name in display order
func Backends() []string {
	return []string{BackendPush, BackendWebcam, BackendDirectory, BackendScreen, BackendSynthetic}
}

// Config selects and parameterizes a frame source
type Config struct {
	Source       string
	Device       string
	Width        int
	Height       int
	FPS          int
	Directory    string
	Region       string
	ReadyTimeout time.Duration
}

// Open creates the source named by cfg.Source. The source is not started.
func Open(cfg Config) (Source, error) {
	switch strings.ToLower(cfg.Source) {
	case BackendSynthetic, "":
		return NewSynthetic(cfg.Width, cfg.Height, cfg.FPS), nil
	case BackendPush, "browser":
		return NewPush(), nil
	case BackendDirectory, "dir":
		if cfg.Directory == "" {
			return nil, fmt.Errorf("directory source requires camera.directory")
		}
		return NewDirectory(cfg.Directory), nil
	case BackendWebcam:
		return NewWebcam(cfg.Device, cfg.Width, cfg.Height, cfg.FPS), nil
	case BackendScreen:
		x, y, w, h, err := ParseRegion(cfg.Region)
		if err != nil {
			return nil, err
		}
		return NewScreen(x, y, w, h, cfg.FPS), nil
	default:
		return nil, fmt.Errorf("unknown camera source %q (valid: %s)", cfg.Source, strings.Join(Backends(), ", "))
	}
}

// ParseRegion parses "x,y,width,height". An empty string selects the
// whole screen.
func ParseRegion(s string) (x, y, w, h int, err error) {
	if strings.TrimSpace(s) == "" {
		return 0, 0, 0, 0, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid region %q: want x,y,width,height", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0, 0, 0, 0, fmt.Errorf("invalid region %q: bad value %q", s, p)
		}
		vals[i] = v
	}
	if vals[2] == 0 || vals[3] == 0 {
		return 0, 0, 0, 0, fmt.Errorf("invalid region %q: width and height must be positive", s)
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
