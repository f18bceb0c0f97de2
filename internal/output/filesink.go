package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

// FileSink writes composed strips into a directory
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed and returns a sink writing into it
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the target directory
func (f *FileSink) Dir() string {
	return f.dir
}

// Save writes the encoded strip named after its composition time and
// returns the path
func (f *FileSink) Save(s *strip.Strip) (string, error) {
	if s == nil || s.Image == nil {
		return "", fmt.Errorf("%w: no strip", strip.ErrEncodingFailed)
	}
	data, err := s.Encode()
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, strip.Filename(s.Date))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write strip: %w", err)
	}

	logger.WithComponent("output").Info().
		Str("path", path).
		Int("photos", s.Photos).
		Msg("Saved strip")
	return path, nil
}

// OnStrip adapts Save to the sequencer's composition hook, logging failures
func (f *FileSink) OnStrip(s *strip.Strip) {
	if _, err := f.Save(s); err != nil {
		logger.WithComponent("output").Error().Err(err).Msg("Failed to save strip")
	}
}
