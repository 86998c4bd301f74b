// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/atlas/surface"
	"github.com/gogpu/gputypes"
)

type spriteStub struct {
	name string
	w, h int
}

func (s *spriteStub) Name() string { return s.name }
func (s *spriteStub) Width() int   { return s.w }
func (s *spriteStub) Height() int  { return s.h }

// newTestProvider uses a 1 MB budget: one 512x512 RGBA texture fills it
// exactly.
func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(NullDeviceHandle{}, Config{MaxMemoryMB: 1, Label: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew_NilDevice(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil) = %v, want ErrNilDevice", err)
	}
}

func TestProvider_CreateDestroy(t *testing.T) {
	p := newTestProvider(t)

	if _, err := p.Create(0, 64, gputypes.TextureFormatRGBA8Unorm); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Create(0,64) = %v, want ErrInvalidDimensions", err)
	}

	s, err := p.Create(64, 32, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tex := s.(*Texture)
	if tex.Width() != 64 || tex.Height() != 32 {
		t.Errorf("texture = %dx%d, want 64x32", tex.Width(), tex.Height())
	}
	if !tex.Live() {
		t.Error("fresh texture not live")
	}
	if tex.SizeBytes() != 64*32*4 {
		t.Errorf("SizeBytes = %d, want %d", tex.SizeBytes(), 64*32*4)
	}
	if tex.Label() != "test-1" {
		t.Errorf("Label = %q, want test-1", tex.Label())
	}

	st := p.MemoryStats()
	if st.UsedBytes != tex.SizeBytes() || st.TextureCount != 1 {
		t.Errorf("stats = %v", st)
	}

	p.Destroy(s)
	if tex.Live() {
		t.Error("destroyed texture still live")
	}
	st = p.MemoryStats()
	if st.UsedBytes != 0 || st.TextureCount != 0 {
		t.Errorf("stats after destroy = %v", st)
	}
	// Double destroy is a no-op.
	p.Destroy(s)
	if got := p.MemoryStats().EvictionCount; got != 0 {
		t.Errorf("destroy counted as eviction: %d", got)
	}
}

func TestProvider_BudgetEvictsLRU(t *testing.T) {
	p := newTestProvider(t)

	first, _ := p.Create(512, 512, gputypes.TextureFormatRGBA8Unorm)
	second, _ := p.Create(512, 512, gputypes.TextureFormatRGBA8Unorm)

	if first.Live() {
		t.Error("oldest texture survived past the budget")
	}
	if !second.Live() {
		t.Error("newest texture was evicted")
	}

	st := p.MemoryStats()
	if st.EvictionCount != 1 || st.TextureCount != 1 {
		t.Errorf("stats = %v, want 1 eviction / 1 texture", st)
	}

	// Writing to the evicted texture restores it, pushing the other out.
	src := &spriteStub{name: "s", w: 8, h: 8}
	if err := p.Blit(src, image.Rect(0, 0, 8, 8), first); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	if !first.Live() {
		t.Error("blit did not restore the evicted texture")
	}
	if second.Live() {
		t.Error("restore did not evict the least recently used texture")
	}
}

func TestProvider_BlitValidation(t *testing.T) {
	p := newTestProvider(t)
	s, _ := p.Create(32, 32, gputypes.TextureFormatRGBA8Unorm)
	src := &spriteStub{name: "s", w: 8, h: 8}

	if err := p.Blit(src, image.Rect(28, 0, 36, 8), s); !errors.Is(err, ErrRegionOutOfBounds) {
		t.Errorf("out-of-bounds blit = %v, want ErrRegionOutOfBounds", err)
	}

	p.Destroy(s)
	if err := p.Blit(src, image.Rect(0, 0, 8, 8), s); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("blit to destroyed = %v, want ErrSurfaceDestroyed", err)
	}

	if err := p.Blit(src, image.Rect(0, 0, 8, 8), foreignSurface{}); !errors.Is(err, ErrForeignSurface) {
		t.Errorf("foreign blit = %v, want ErrForeignSurface", err)
	}
}

type foreignSurface struct{}

func (foreignSurface) Width() int                     { return 1 }
func (foreignSurface) Height() int                    { return 1 }
func (foreignSurface) Format() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (foreignSurface) Live() bool                     { return true }

func TestProvider_CopyRegionsValidation(t *testing.T) {
	p := newTestProvider(t)
	a, _ := p.Create(32, 32, gputypes.TextureFormatRGBA8Unorm)
	b, _ := p.Create(64, 64, gputypes.TextureFormatRGBA8Unorm)

	ok := p.CopyRegions(a,
		[]image.Rectangle{image.Rect(0, 0, 8, 8)},
		b,
		[]image.Rectangle{image.Rect(8, 8, 16, 16)})
	if ok != nil {
		t.Fatalf("CopyRegions: %v", ok)
	}

	err := p.CopyRegions(a,
		[]image.Rectangle{image.Rect(0, 0, 8, 8)},
		b,
		[]image.Rectangle{image.Rect(0, 0, 4, 8)})
	if !errors.Is(err, ErrRegionMismatch) {
		t.Errorf("size mismatch = %v, want ErrRegionMismatch", err)
	}

	err = p.CopyRegions(a,
		[]image.Rectangle{image.Rect(0, 0, 8, 8)},
		b,
		[]image.Rectangle{image.Rect(60, 60, 68, 68)})
	if !errors.Is(err, ErrRegionOutOfBounds) {
		t.Errorf("out-of-bounds copy = %v, want ErrRegionOutOfBounds", err)
	}
}

func TestProvider_Registered(t *testing.T) {
	if _, err := surface.NewProviderByName("wgpu", surface.Options{}); !errors.Is(err, ErrNilDevice) {
		t.Errorf("factory without device = %v, want ErrNilDevice", err)
	}

	p, err := surface.NewProviderByName("wgpu", surface.Options{Device: NullDeviceHandle{}})
	if err != nil {
		t.Fatalf("NewProviderByName: %v", err)
	}
	if _, ok := p.(*Provider); !ok {
		t.Errorf("registered provider has type %T", p)
	}
}

func TestTexture_String(t *testing.T) {
	p := newTestProvider(t)
	s, _ := p.Create(16, 16, gputypes.TextureFormatRGBA8Unorm)
	tex := s.(*Texture)

	if got := tex.String(); got == "" {
		t.Fatal("empty String")
	}
	p.Destroy(s)
	if got := tex.String(); got == "" || got == (&Texture{}).String() {
		t.Errorf("String after destroy = %q", got)
	}
}
