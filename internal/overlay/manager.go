// Package overlay draws booth status onto live preview frames: the
// countdown digit, the capture flash and a status line.
package overlay

import (
	"fmt"
	"image"
	"sync"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

// Manager handles overlay widgets and rendering. Widgets render in the
// order they were added.
type Manager struct {
	mu      sync.RWMutex
	widgets []Widget
	status  Status
	enabled bool
}

// NewManager creates an empty overlay manager
func NewManager() *Manager {
	return &Manager{enabled: true}
}

// NewDefaultManager creates a manager with the flash, countdown and
// status widgets
func NewDefaultManager() *Manager {
	m := NewManager()
	status, _ := NewTextWidget("status", nil)
	m.AddWidget(NewFlashWidget("flash"))
	m.AddWidget(NewCountdownWidget("countdown"))
	m.AddWidget(status)
	return m
}

// AddWidget adds a widget on top of the existing ones
func (m *Manager) AddWidget(widget Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.widgets {
		if w.ID() == widget.ID() {
			return fmt.Errorf("widget with ID %s already exists", widget.ID())
		}
	}

	m.widgets = append(m.widgets, widget)
	logger.WithComponent("overlay").Debug().
		Str("id", widget.ID()).
		Str("type", widget.Type()).
		Msg("Added widget")
	return nil
}

// RemoveWidget removes a widget from the overlay
func (m *Manager) RemoveWidget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.widgets {
		if w.ID() == id {
			m.widgets = append(m.widgets[:i], m.widgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("widget with ID %s not found", id)
}

// GetWidget retrieves a widget by ID
func (m *Manager) GetWidget(id string) (Widget, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.widgets {
		if w.ID() == id {
			return w, true
		}
	}
	return nil, false
}

// Widgets returns all widgets in render order
func (m *Manager) Widgets() []Widget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Widget, len(m.widgets))
	copy(out, m.widgets)
	return out
}

// SetStatus replaces the status widgets render from
func (m *Manager) SetStatus(st Status) {
	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
}

// Status returns the current status
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetEnabled enables or disables the entire overlay
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// IsEnabled returns whether the overlay is enabled
func (m *Manager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Render renders all enabled widgets onto img
func (m *Manager) Render(img *image.RGBA) error {
	m.mu.RLock()
	if !m.enabled {
		m.mu.RUnlock()
		return nil
	}
	widgets := make([]Widget, len(m.widgets))
	copy(widgets, m.widgets)
	st := m.status
	m.mu.RUnlock()

	for _, widget := range widgets {
		if !widget.IsEnabled() {
			continue
		}
		if err := widget.Render(img, st); err != nil {
			logger.WithComponent("overlay").Warn().Err(err).Str("id", widget.ID()).Msg("Failed to render widget")
		}
	}
	return nil
}

// CreateWidget creates a new widget instance from configuration
func (m *Manager) CreateWidget(widgetType string, id string, config map[string]interface{}) (Widget, error) {
	switch widgetType {
	case "text":
		w, err := NewTextWidget(id, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s widget: %w", widgetType, err)
		}
		return w, nil
	case "countdown":
		return NewCountdownWidget(id), nil
	case "flash":
		return NewFlashWidget(id), nil
	default:
		return nil, fmt.Errorf("unknown widget type: %s", widgetType)
	}
}
