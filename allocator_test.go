package atlas

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/atlas/surface"
	"github.com/gogpu/gputypes"
)

// --- Test fakes ---

type fakeImage struct {
	name string
	w, h int
}

func (f *fakeImage) Name() string { return f.name }
func (f *fakeImage) Width() int   { return f.w }
func (f *fakeImage) Height() int  { return f.h }

func img(name string, w, h int) *fakeImage {
	return &fakeImage{name: name, w: w, h: h}
}

type fakeSurface struct {
	w, h   int
	format gputypes.TextureFormat
	live   bool
}

func (s *fakeSurface) Width() int                     { return s.w }
func (s *fakeSurface) Height() int                    { return s.h }
func (s *fakeSurface) Format() gputypes.TextureFormat { return s.format }
func (s *fakeSurface) Live() bool                     { return s.live }

type blitRecord struct {
	name string
	rect image.Rectangle
}

type fakeProvider struct {
	created    int
	destroyed  int
	copies     int
	blits      []blitRecord
	failCreate bool
	failBlit   bool
}

var errFakeProvider = errors.New("fake provider failure")

func (p *fakeProvider) Create(w, h int, format gputypes.TextureFormat) (surface.Surface, error) {
	if p.failCreate {
		return nil, errFakeProvider
	}
	p.created++
	return &fakeSurface{w: w, h: h, format: format, live: true}, nil
}

func (p *fakeProvider) Destroy(s surface.Surface) {
	if s != nil {
		p.destroyed++
	}
}

func (p *fakeProvider) Blit(src surface.Image, dst image.Rectangle, s surface.Surface) error {
	if p.failBlit {
		return errFakeProvider
	}
	fs := s.(*fakeSurface)
	if dst.Min.X < 0 || dst.Min.Y < 0 || dst.Max.X > fs.w || dst.Max.Y > fs.h {
		return errFakeProvider
	}
	fs.live = true
	p.blits = append(p.blits, blitRecord{name: src.Name(), rect: dst})
	return nil
}

func (p *fakeProvider) CopyRegions(src surface.Surface, srcRects []image.Rectangle, dst surface.Surface, dstRects []image.Rectangle) error {
	if len(srcRects) != len(dstRects) {
		return errFakeProvider
	}
	p.copies++
	return nil
}

// blitCount returns how many times name was blitted.
func (p *fakeProvider) blitCount(name string) int {
	n := 0
	for _, b := range p.blits {
		if b.name == name {
			n++
		}
	}
	return n
}

func newTestFreeForm(t *testing.T, p *fakeProvider, initial, max int) *Atlas {
	t.Helper()
	cfg := DefaultFreeFormConfig()
	cfg.InitialWidth = initial
	cfg.InitialHeight = initial
	cfg.MaxWidth = max
	cfg.MaxHeight = max
	a, err := NewFreeForm(p, cfg)
	if err != nil {
		t.Fatalf("NewFreeForm: %v", err)
	}
	return a
}

// --- Constructor validation ---

func TestNew_NilProvider(t *testing.T) {
	if _, err := NewFreeForm(nil, DefaultFreeFormConfig()); !errors.Is(err, ErrNilProvider) {
		t.Errorf("NewFreeForm(nil) = %v, want ErrNilProvider", err)
	}
	if _, err := NewGrid(nil, DefaultGridConfig()); !errors.Is(err, ErrNilProvider) {
		t.Errorf("NewGrid(nil) = %v, want ErrNilProvider", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultFreeFormConfig()
	cfg.MaxWidth = 1000 // not a power of two
	_, err := NewFreeForm(&fakeProvider{}, cfg)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("NewFreeForm with bad config = %v, want ConfigError", err)
	}
	if ce.Field != "MaxWidth" {
		t.Errorf("ConfigError.Field = %q, want MaxWidth", ce.Field)
	}
}

// --- Reference counting ---

func TestAtlas_RefCountMatchesAcquireMinusRelease(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	sprite := img("hero", 32, 32)

	// Releases before any acquire are no-ops.
	a.Release("hero")
	a.Release("hero")

	for i := 0; i < 3; i++ {
		if err := a.Acquire(sprite); err != nil {
			t.Fatalf("Acquire #%d: %v", i, err)
		}
	}
	if got := a.UsedCount(); got != 1 {
		t.Fatalf("UsedCount = %d, want 1", got)
	}

	// Two releases leave one reference: still used.
	a.Release("hero")
	a.Release("hero")
	if got := a.UsedCount(); got != 1 {
		t.Errorf("UsedCount after partial release = %d, want 1", got)
	}

	// Third release hits zero: unused but still present.
	a.Release("hero")
	if got := a.UsedCount(); got != 0 {
		t.Errorf("UsedCount after full release = %d, want 0", got)
	}
	if !a.Contains("hero") {
		t.Error("slot should survive release to zero")
	}

	// Extra releases stay clamped at zero.
	a.Release("hero")
	if got := a.UsedCount(); got != 0 {
		t.Errorf("UsedCount after extra release = %d, want 0", got)
	}
}

func TestAtlas_AcquireBatchIdempotentOnIdentity(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	batch := []surface.Image{
		img("a", 30, 20),
		img("b", 50, 40),
		img("c", 10, 60),
	}
	if err := a.AcquireBatch(batch); err != nil {
		t.Fatalf("first AcquireBatch: %v", err)
	}

	rects := make(map[string]Region)
	for _, im := range batch {
		r, ok := a.Lookup(im.Name())
		if !ok {
			t.Fatalf("missing slot %q", im.Name())
		}
		rects[im.Name()] = r
	}
	blitsAfterFirst := len(p.blits)

	// Second acquisition re-references every name without moving
	// anything or creating duplicates.
	if err := a.AcquireBatch(batch); err != nil {
		t.Fatalf("second AcquireBatch: %v", err)
	}
	if got := a.SlotCount(); got != 3 {
		t.Errorf("SlotCount = %d, want 3", got)
	}
	if len(p.blits) != blitsAfterFirst {
		t.Errorf("second batch blitted %d more times, want 0", len(p.blits)-blitsAfterFirst)
	}
	for name, want := range rects {
		got, _ := a.Lookup(name)
		if got != want {
			t.Errorf("slot %q moved: %v -> %v", name, want, got)
		}
	}

	st := a.Stats()
	if st.Hits != 3 || st.Misses != 3 {
		t.Errorf("Stats hits/misses = %d/%d, want 3/3", st.Hits, st.Misses)
	}
}

func TestAtlas_NilImagesFiltered(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	batch := []surface.Image{nil, img("a", 10, 10), nil}
	if err := a.AcquireBatch(batch); err != nil {
		t.Fatalf("AcquireBatch: %v", err)
	}
	if got := a.SlotCount(); got != 1 {
		t.Errorf("SlotCount = %d, want 1", got)
	}

	// An all-nil batch is trivially successful and creates no surface.
	b := newTestFreeForm(t, &fakeProvider{}, 256, 1024)
	if err := b.AcquireBatch([]surface.Image{nil, nil}); err != nil {
		t.Fatalf("all-nil AcquireBatch: %v", err)
	}
	if !b.IsEmpty() {
		t.Error("all-nil batch should not create a surface")
	}
}

// --- Clear and Destroy ---

func TestAtlas_ClearKeepsSlotsAndSurface(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	if err := a.AcquireBatch([]surface.Image{img("a", 10, 10), img("b", 20, 20)}); err != nil {
		t.Fatalf("AcquireBatch: %v", err)
	}
	a.Release("a")

	a.Clear()
	if got := a.UsedCount(); got != 0 {
		t.Errorf("UsedCount after Clear = %d, want 0", got)
	}
	if got := a.SlotCount(); got != 2 {
		t.Errorf("SlotCount after Clear = %d, want 2", got)
	}
	if a.IsEmpty() {
		t.Error("Clear must not release the surface")
	}
}

func TestAtlas_DestroyThenReuse(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	if err := a.Acquire(img("a", 10, 10)); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if a.IsEmpty() {
		t.Fatal("expected active surface")
	}

	a.Destroy()
	if !a.IsEmpty() {
		t.Error("IsEmpty after Destroy = false, want true")
	}
	if a.Contains("a") {
		t.Error("Destroy must clear the registry")
	}
	if p.destroyed != 1 {
		t.Errorf("provider.destroyed = %d, want 1", p.destroyed)
	}

	// Behaves as freshly constructed: surface lazily re-created.
	if err := a.Acquire(img("b", 10, 10)); err != nil {
		t.Fatalf("Acquire after Destroy: %v", err)
	}
	if a.IsEmpty() || !a.Contains("b") {
		t.Error("allocator unusable after Destroy")
	}
}

// --- Lost slot recovery ---

func TestAtlas_SweepMarksSlotsLost(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	if err := a.AcquireBatch([]surface.Image{img("a", 10, 10), img("b", 20, 20)}); err != nil {
		t.Fatalf("AcquireBatch: %v", err)
	}

	// A live surface sweeps clean.
	if a.Sweep() {
		t.Fatal("Sweep on live surface reported loss")
	}

	a.Surface().(*fakeSurface).live = false
	if !a.Sweep() {
		t.Fatal("Sweep did not detect dead surface")
	}
	if got := a.UsedCount(); got != 0 {
		t.Errorf("UsedCount after sweep = %d, want 0", got)
	}
	if got := a.SlotCount(); got != 2 {
		t.Errorf("SlotCount after sweep = %d, want 2", got)
	}
}

func TestAtlas_LostSlotRestoredExactlyOnce(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	sprite := img("hero", 32, 32)
	if err := a.Acquire(sprite); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	placed, _ := a.Lookup("hero")
	before := p.blitCount("hero")

	a.Surface().(*fakeSurface).live = false
	a.Sweep()

	// Acquiring the lost name twice in the same batch window must blit
	// exactly once; the second acquisition only bumps the count.
	if err := a.Acquire(sprite); err != nil {
		t.Fatalf("first re-acquire: %v", err)
	}
	if err := a.Acquire(sprite); err != nil {
		t.Fatalf("second re-acquire: %v", err)
	}

	if got := p.blitCount("hero") - before; got != 1 {
		t.Errorf("restore blits = %d, want 1", got)
	}
	after, _ := a.Lookup("hero")
	if after != placed {
		t.Errorf("lost slot moved during restore: %v -> %v", placed, after)
	}
	if got := a.UsedCount(); got != 1 {
		t.Errorf("UsedCount = %d, want 1", got)
	}
}

func TestAtlas_ReleaseBatchUnknownNamesNoop(t *testing.T) {
	p := &fakeProvider{}
	a := newTestFreeForm(t, p, 256, 1024)

	if err := a.Acquire(img("a", 10, 10)); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	a.ReleaseBatch([]string{"nope", "a", "also-nope"})
	if got := a.UsedCount(); got != 0 {
		t.Errorf("UsedCount = %d, want 0", got)
	}
	if got := a.SlotCount(); got != 1 {
		t.Errorf("SlotCount = %d, want 1", got)
	}
}
