package output

import (
	"bufio"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/overlay"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

type fakeSource struct {
	frame  *image.RGBA
	health capture.Health
}

func (f *fakeSource) Start(ctx context.Context) error { return nil }
func (f *fakeSource) Stop() error                     { return nil }
func (f *fakeSource) Name() string                    { return "fake" }
func (f *fakeSource) Health() capture.Health          { return f.health }

func (f *fakeSource) CurrentFrame() (*image.RGBA, error) {
	if f.frame == nil {
		return nil, capture.ErrUnavailable
	}
	out := image.NewRGBA(f.frame.Bounds())
	copy(out.Pix, f.frame.Pix)
	return out, nil
}

func (f *fakeSource) Size() (int, int) {
	if f.frame == nil {
		return 0, 0
	}
	return f.frame.Bounds().Dx(), f.frame.Bounds().Dy()
}

type fakeBooth struct {
	state    booth.State
	settings booth.Settings
}

func (b *fakeBooth) State() booth.State       { return b.state }
func (b *fakeBooth) Settings() booth.Settings { return b.settings }

func TestMJPEGWriteBeforeStart(t *testing.T) {
	m := NewMJPEGOutput(Config{FPS: 10})
	if err := m.WriteFrame(solid(4, 4, color.RGBA{1, 2, 3, 255})); err == nil {
		t.Error("WriteFrame before Start should fail")
	}
	rec := httptest.NewRecorder()
	m.StreamHandler()(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d before Start", rec.Code)
	}
}

func TestMJPEGStream(t *testing.T) {
	m := NewMJPEGOutput(Config{FPS: 10})
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	if err := m.WriteFrame(solid(16, 8, color.RGBA{200, 10, 10, 255})); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	srv := httptest.NewServer(m.StreamHandler())
	defer srv.Close()
	defer m.Stop()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("content type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(boundary) != "--frame" {
		t.Fatalf("boundary = %q, %v", boundary, err)
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		if line == "\r\n" {
			break
		}
	}
	img, err := jpeg.Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	st := m.Stats()
	if !st.Running || st.Frames != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPreviewRenderFrame(t *testing.T) {
	src := &fakeSource{frame: solid(64, 48, color.RGBA{100, 150, 200, 255}), health: capture.Ready}
	b := &fakeBooth{state: booth.State{Phase: booth.Idle}, settings: booth.DefaultSettings()}
	b.settings.Filter = filter.Grayscale

	ov := overlay.NewManager()
	p := NewPreview(src, b, ov, NewMJPEGOutput(Config{}), PreviewConfig{FPS: 10})

	frame := p.RenderFrame()
	want := filter.Pixel(filter.Grayscale, color.RGBA{100, 150, 200, 255})
	// no vignette on the preview: corners match the center
	for _, pt := range []image.Point{{0, 0}, {32, 24}, {63, 47}} {
		if got := frame.RGBAAt(pt.X, pt.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", pt, got, want)
		}
	}
	if ov.Status().Filter != "B&W" {
		t.Errorf("status filter = %q", ov.Status().Filter)
	}
}

func TestPreviewMirrorsAndFlashes(t *testing.T) {
	frame := solid(20, 10, color.RGBA{255, 0, 0, 255})
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			frame.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	src := &fakeSource{frame: frame, health: capture.Ready}
	b := &fakeBooth{state: booth.State{Phase: booth.Idle}, settings: booth.DefaultSettings()}
	p := NewPreview(src, b, overlay.NewManager(), NewMJPEGOutput(Config{}), PreviewConfig{Mirror: true})

	out := p.RenderFrame()
	if c := out.RGBAAt(0, 5); c.B != 255 || c.R != 0 {
		t.Errorf("left pixel = %v, preview not mirrored", c)
	}

	b.state = booth.State{Phase: booth.Flashing}
	ov := overlay.NewManager()
	if err := ov.AddWidget(overlay.NewFlashWidget("flash")); err != nil {
		t.Fatal(err)
	}
	p = NewPreview(src, b, ov, NewMJPEGOutput(Config{}), PreviewConfig{})
	out = p.RenderFrame()
	if c := out.RGBAAt(19, 9); c.G < 200 {
		t.Errorf("pixel = %v, flash not rendered", c)
	}
}

func TestPreviewPlaceholder(t *testing.T) {
	src := &fakeSource{health: capture.PermissionDenied}
	b := &fakeBooth{state: booth.State{Phase: booth.Idle}, settings: booth.DefaultSettings()}
	ov := overlay.NewDefaultManager()
	p := NewPreview(src, b, ov, NewMJPEGOutput(Config{}), PreviewConfig{})

	frame := p.RenderFrame()
	if frame.Bounds().Dx() != capture.FallbackWidth/2 {
		t.Errorf("placeholder bounds = %v", frame.Bounds())
	}
	if ov.Status().Message != capture.PermissionDenied.Message() {
		t.Errorf("status message = %q", ov.Status().Message)
	}
}

func TestPreviewRun(t *testing.T) {
	src := &fakeSource{frame: solid(8, 8, color.RGBA{9, 9, 9, 255}), health: capture.Ready}
	b := &fakeBooth{state: booth.State{Phase: booth.Idle}, settings: booth.DefaultSettings()}
	out := NewMJPEGOutput(Config{})
	out.Start()
	defer out.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	p := NewPreview(src, b, nil, out, PreviewConfig{FPS: 50})
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if out.Stats().Frames == 0 {
		t.Error("no frames written")
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "strips")
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatal(err)
	}

	at := time.UnixMilli(1700000000000)
	s, err := strip.Compose([]image.Image{solid(30, 40, color.RGBA{50, 60, 70, 255})}, strip.Options{Layout: strip.Vertical}, at)
	if err != nil {
		t.Fatal(err)
	}

	path, err := sink.Save(s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "photo-strip-1700000000000.png" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	img, err := imgio.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != s.Bounds() {
		t.Errorf("saved bounds = %v, want %v", img.Bounds(), s.Bounds())
	}

	if _, err := sink.Save(nil); err == nil {
		t.Error("Save(nil) should fail")
	}
	if _, err := NewFileSink(""); err == nil {
		t.Error("empty dir should fail")
	}
}
