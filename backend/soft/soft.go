// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft provides a pure-CPU surface provider backed by
// *image.RGBA. It is the reference implementation of the atlas
// collaborator interfaces and the default backend for tests, tools and
// headless use.
//
// Blits use image/draw; when a sprite's pixel dimensions differ from
// the destination rectangle, the blit scales with x/image/draw's
// bilinear kernel instead of clipping.
package soft

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/atlas/surface"
	"github.com/gogpu/gputypes"
)

// Provider errors.
var (
	// ErrInvalidDimensions is returned for non-positive surface sizes.
	ErrInvalidDimensions = errors.New("soft: surface dimensions must be positive")

	// ErrNoPixels is returned when a source image carries no pixel data.
	ErrNoPixels = errors.New("soft: source image does not expose pixels")

	// ErrForeignSurface is returned when a surface was not created by
	// this provider.
	ErrForeignSurface = errors.New("soft: surface was not created by this provider")

	// ErrSurfaceDestroyed is returned when blitting to a destroyed surface.
	ErrSurfaceDestroyed = errors.New("soft: surface has been destroyed")

	// ErrRegionMismatch is returned when CopyRegions gets rect lists of
	// different shapes.
	ErrRegionMismatch = errors.New("soft: source and destination regions do not match")
)

func init() {
	surface.Register("soft", 10, func(surface.Options) (surface.Provider, error) {
		return New(), nil
	}, nil)
}

// PixelSource is the richer interface the provider looks for on a
// surface.Image to reach actual pixel data.
type PixelSource interface {
	Source() image.Image
}

// Sprite is a surface.Image backed by an image.Image.
type Sprite struct {
	name string
	src  image.Image
}

// NewSprite wraps an image as a named sprite.
func NewSprite(name string, src image.Image) *Sprite {
	return &Sprite{name: name, src: src}
}

// Name returns the sprite's unique key.
func (s *Sprite) Name() string { return s.name }

// Width returns the sprite width in pixels.
func (s *Sprite) Width() int { return s.src.Bounds().Dx() }

// Height returns the sprite height in pixels.
func (s *Sprite) Height() int { return s.src.Bounds().Dy() }

// Source returns the backing image.
func (s *Sprite) Source() image.Image { return s.src }

// Provider is a CPU surface provider. The zero value is not usable;
// call New.
type Provider struct{}

// New creates a software surface provider.
func New() *Provider {
	return &Provider{}
}

// Create allocates a new in-memory surface.
func (p *Provider) Create(width, height int, format gputypes.TextureFormat) (surface.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		format: format,
		live:   true,
	}, nil
}

// Destroy releases a surface. Destroying nil or twice is a no-op.
func (p *Provider) Destroy(s surface.Surface) {
	if ss, ok := s.(*Surface); ok && ss != nil {
		ss.destroyed = true
		ss.live = false
		ss.img = nil
	}
}

// Blit copies one source sprite into the dst region of s. The source
// must implement PixelSource. Sources whose size differs from dst are
// scaled bilinearly.
func (p *Provider) Blit(src surface.Image, dst image.Rectangle, s surface.Surface) error {
	ss, ok := s.(*Surface)
	if !ok || ss == nil {
		return ErrForeignSurface
	}
	if ss.destroyed {
		return ErrSurfaceDestroyed
	}

	ps, ok := src.(PixelSource)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoPixels, src.Name())
	}
	pix := ps.Source()
	b := pix.Bounds()

	if b.Dx() == dst.Dx() && b.Dy() == dst.Dy() {
		draw.Draw(ss.img, dst, pix, b.Min, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(ss.img, dst, pix, b, xdraw.Src, nil)
	}

	// Writing pixels restores a host-invalidated surface.
	ss.live = true
	return nil
}

// CopyRegions copies rectangles between two surfaces, pairwise.
func (p *Provider) CopyRegions(src surface.Surface, srcRects []image.Rectangle, dst surface.Surface, dstRects []image.Rectangle) error {
	from, ok := src.(*Surface)
	if !ok || from == nil {
		return ErrForeignSurface
	}
	to, ok := dst.(*Surface)
	if !ok || to == nil {
		return ErrForeignSurface
	}
	if from.destroyed || to.destroyed {
		return ErrSurfaceDestroyed
	}
	if len(srcRects) != len(dstRects) {
		return fmt.Errorf("%w: %d source vs %d destination", ErrRegionMismatch, len(srcRects), len(dstRects))
	}

	for i := range srcRects {
		if srcRects[i].Dx() != dstRects[i].Dx() || srcRects[i].Dy() != dstRects[i].Dy() {
			return fmt.Errorf("%w: region %d differs in size", ErrRegionMismatch, i)
		}
		draw.Draw(to.img, dstRects[i], from.img, srcRects[i].Min, draw.Src)
	}
	to.live = true
	return nil
}

// Surface is a CPU surface backed by an *image.RGBA.
type Surface struct {
	img       *image.RGBA
	format    gputypes.TextureFormat
	live      bool
	destroyed bool
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	if s.img == nil {
		return 0
	}
	return s.img.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	if s.img == nil {
		return 0
	}
	return s.img.Bounds().Dy()
}

// Format returns the surface pixel format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Live reports whether the surface currently holds valid pixels.
func (s *Surface) Live() bool { return s.live }

// Invalidate simulates the host discarding the surface contents, as a
// GPU driver would under memory pressure. The next blit restores
// liveness.
func (s *Surface) Invalidate() {
	s.live = false
}

// RGBA returns the backing pixels. Nil after Destroy. The caller must
// not resize the image; reading is safe between allocator operations.
func (s *Surface) RGBA() *image.RGBA { return s.img }
