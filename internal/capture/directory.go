package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/fsnotify/fsnotify"

	"github.com/bryanchriswhite/photobooth/internal/logger"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Directory serves the newest image file in a watched directory as the
// current frame, for tethered cameras that drop shots onto disk
type Directory struct {
	dir string

	mu      sync.RWMutex
	watcher *fsnotify.Watcher
	latest  *image.RGBA
	path    string
	health  Health
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewDirectory creates a source watching dir
func NewDirectory(dir string) *Directory {
	return &Directory{dir: dir, health: Initializing}
}

// Start loads the newest existing image and begins watching for new ones
func (d *Directory) Start(ctx context.Context) error {
	log := logger.WithComponent("capture")

	st, err := os.Stat(d.dir)
	if err != nil || !st.IsDir() {
		d.setHealth(DeviceNotFound)
		return &HealthError{Source: d.Name(), Health: DeviceNotFound}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.setHealth(Unsupported)
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		d.setHealth(DeviceBusy)
		return fmt.Errorf("failed to watch %s: %w", d.dir, err)
	}

	d.mu.Lock()
	d.watcher = watcher
	d.done = make(chan struct{})
	d.mu.Unlock()

	if newest := d.newestFile(); newest != "" {
		if err := d.load(newest); err != nil {
			log.Warn().Err(err).Str("path", newest).Msg("Failed to load existing image")
		}
	}

	d.wg.Add(1)
	go d.watch(ctx, watcher)

	log.Info().Str("source", d.Name()).Str("dir", d.dir).Msg("Watching directory for frames")
	return nil
}

// Stop closes the watcher
func (d *Directory) Stop() error {
	d.mu.Lock()
	watcher := d.watcher
	done := d.done
	d.watcher = nil
	d.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(done)
	err := watcher.Close()
	d.wg.Wait()

	d.mu.Lock()
	d.latest = nil
	d.health = Initializing
	d.mu.Unlock()
	return err
}

func (d *Directory) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer d.wg.Done()
	log := logger.WithComponent("capture")

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !imageExts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			if err := d.load(event.Name); err != nil {
				// Writers often emit Create before the file is complete
				log.Debug().Err(err).Str("path", event.Name).Msg("Image not readable yet")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Directory watcher error")
		}
	}
}

func (d *Directory) load(path string) error {
	img, err := imgio.Open(path)
	if err != nil {
		return err
	}
	frame := toRGBA(img)

	d.mu.Lock()
	d.latest = frame
	d.path = path
	d.health = Ready
	d.mu.Unlock()

	logger.WithComponent("capture").Debug().
		Str("path", path).
		Int("width", frame.Bounds().Dx()).
		Int("height", frame.Bounds().Dy()).
		Msg("Loaded frame from directory")
	return nil
}

func (d *Directory) newestFile() string {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(d.dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

func (d *Directory) setHealth(h Health) {
	d.mu.Lock()
	d.health = h
	d.mu.Unlock()
}

// CurrentFrame returns a copy of the newest loaded image
func (d *Directory) CurrentFrame() (*image.RGBA, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.latest == nil {
		return nil, ErrUnavailable
	}
	return clone.AsRGBA(d.latest), nil
}

// Health returns the readiness state
func (d *Directory) Health() Health {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

// Size returns the dimensions of the newest image
func (d *Directory) Size() (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.latest == nil {
		return 0, 0
	}
	b := d.latest.Bounds()
	return b.Dx(), b.Dy()
}

// Name returns the source name
func (d *Directory) Name() string {
	return "directory"
}
