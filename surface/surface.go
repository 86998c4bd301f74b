// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Image describes a source sprite to be placed into an atlas.
//
// The allocator treats images as opaque: it only needs a stable unique
// name and the pixel dimensions. Providers may type-assert an Image to
// a richer interface to reach the actual pixel data (see backend/soft).
type Image interface {
	// Name returns the unique key identifying this sprite.
	Name() string

	// Width returns the sprite width in pixels.
	Width() int

	// Height returns the sprite height in pixels.
	Height() int
}

// Surface is an opaque backing surface holding packed sprite pixels.
//
// A Surface is exclusively owned by one allocator instance. It is
// created lazily on first successful insertion, destroyed and recreated
// on growth, and explicitly destroyed on allocator teardown.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Format returns the surface pixel format.
	Format() gputypes.TextureFormat

	// Live reports whether the backing store still holds its pixels.
	// A surface stops being live when the host invalidates it out from
	// under the allocator (GPU memory pressure, device loss). The
	// allocator's recovery sweep polls Live and marks slots lost.
	Live() bool
}

// Provider creates and destroys surfaces and moves pixels onto them.
//
// All operations are synchronous and block the caller until complete.
// Providers are NOT required to be safe for concurrent use; each
// allocator drives its provider from a single control thread.
type Provider interface {
	// Create allocates a new surface of the given size and format.
	Create(width, height int, format gputypes.TextureFormat) (Surface, error)

	// Destroy releases a surface created by this provider.
	// Destroying a nil or already-destroyed surface is a no-op.
	Destroy(s Surface)

	// Blit copies one source image into the dst region of s.
	// The dst rectangle uses surface pixel coordinates.
	Blit(src Image, dst image.Rectangle, s Surface) error

	// CopyRegions copies rectangular regions between two surfaces.
	// srcRects and dstRects must have equal length and pairwise equal
	// sizes. Used when reflowing an old atlas into a newly grown one.
	CopyRegions(src Surface, srcRects []image.Rectangle, dst Surface, dstRects []image.Rectangle) error
}
