// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu provides a GPU surface provider for the atlas allocator.
//
// Surfaces are GPU textures tracked through wgpu resource IDs. The
// provider enforces a texture memory budget: when a new surface would
// exceed it, the least recently touched surfaces are evicted, meaning
// their pixel contents are discarded while the logical handle survives.
// An
// evicted surface reports Live() == false, which the allocator's
// recovery sweep turns into lost slots; the pixels come back when the
// sprites are re-acquired and blitted again.
//
// The GPU device is injected at construction via gpucontext's
// DeviceProvider; the provider never creates its own device.
package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/atlas/surface"
)

// Provider errors.
var (
	// ErrNilDevice is returned when constructing a provider without a
	// device handle.
	ErrNilDevice = errors.New("wgpu: device provider is nil")

	// ErrInvalidDimensions is returned for non-positive surface sizes.
	ErrInvalidDimensions = errors.New("wgpu: surface dimensions must be positive")

	// ErrForeignSurface is returned when a surface was not created by
	// this provider.
	ErrForeignSurface = errors.New("wgpu: surface was not created by this provider")

	// ErrSurfaceDestroyed is returned when operating on a destroyed surface.
	ErrSurfaceDestroyed = errors.New("wgpu: surface has been destroyed")

	// ErrRegionOutOfBounds is returned when a blit or copy rectangle is
	// outside surface bounds.
	ErrRegionOutOfBounds = errors.New("wgpu: region is outside surface bounds")

	// ErrRegionMismatch is returned when CopyRegions gets rect lists of
	// different shapes.
	ErrRegionMismatch = errors.New("wgpu: source and destination regions do not match")
)

// DeviceHandle provides GPU device access from the host application,
// following the gpucontext ecosystem convention: the host owns the
// device, the atlas provider only borrows it.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Useful for tests and for exercising the logical-texture path without
// a real GPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo returns zero-value adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// DefaultTextureUsage is the usage for atlas textures: sampled in draw
// calls and both source and destination of copies during repacks.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

func init() {
	surface.Register("wgpu", 100, func(opts surface.Options) (surface.Provider, error) {
		if opts.Device == nil {
			return nil, ErrNilDevice
		}
		return New(opts.Device, DefaultConfig())
	}, nil)
}

// Config holds provider configuration.
type Config struct {
	// MaxMemoryMB is the texture memory budget in megabytes.
	// Surfaces past the budget evict older surfaces. Default: 256
	MaxMemoryMB int

	// Label prefixes debug labels of created textures.
	Label string
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{MaxMemoryMB: 256, Label: "atlas"}
}

// Provider is a GPU surface provider. Construct with New.
type Provider struct {
	handle  DeviceHandle
	budget  *memoryBudget
	label   string
	created uint64
}

// New creates a GPU surface provider on the given device handle.
func New(handle DeviceHandle, cfg Config) (*Provider, error) {
	if handle == nil {
		return nil, ErrNilDevice
	}
	if cfg.MaxMemoryMB < 1 {
		cfg.MaxMemoryMB = DefaultConfig().MaxMemoryMB
	}
	return &Provider{
		handle: handle,
		budget: newMemoryBudget(uint64(cfg.MaxMemoryMB) * 1024 * 1024),
		label:  cfg.Label,
	}, nil
}

// MemoryStats returns a snapshot of the provider's texture memory use.
func (p *Provider) MemoryStats() MemoryStats {
	return p.budget.stats()
}

// Create allocates a new GPU texture surface.
func (p *Provider) Create(width, height int, format gputypes.TextureFormat) (surface.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	p.created++
	t := &Texture{
		provider: p,
		width:    width,
		height:   height,
		format:   format,
		// 4 bytes per pixel is correct for the 8-bit formats atlases
		// use; exotic formats only skew the budget accounting.
		sizeBytes: uint64(width) * uint64(height) * 4,
		label:     fmt.Sprintf("%s-%d", p.label, p.created),
		live:      true,
	}

	// TODO: real texture creation once wgpu texture support lands:
	//
	//   desc := &gputypes.TextureDescriptor{
	//       Label:  t.label,
	//       Size:   gputypes.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	//       Format: format,
	//       Usage:  DefaultTextureUsage,
	//   }
	//   t.textureID, err = core.CreateTexture(p.handle.Device(), desc)
	//
	// Until then the texture is logical: IDs stay zero and uploads are
	// tracked but not performed.

	p.budget.register(t)
	return t, nil
}

// Destroy releases a surface. Destroying nil or twice is a no-op.
func (p *Provider) Destroy(s surface.Surface) {
	t, ok := s.(*Texture)
	if !ok || t == nil || t.destroyed {
		return
	}
	t.destroyed = true
	t.live = false
	p.budget.unregister(t)

	// TODO: drop GPU resources once wgpu texture support lands:
	//
	//   if !t.viewID.IsZero() { core.TextureViewDrop(t.viewID) }
	//   if !t.textureID.IsZero() { core.TextureDrop(t.textureID) }

	t.textureID = core.TextureID{}
	t.viewID = core.TextureViewID{}
}

// Blit copies one source sprite into the dst region of s. Writing to an
// evicted surface re-registers it with the budget and restores liveness.
func (p *Provider) Blit(src surface.Image, dst image.Rectangle, s surface.Surface) error {
	t, ok := s.(*Texture)
	if !ok || t == nil {
		return ErrForeignSurface
	}
	if t.destroyed {
		return ErrSurfaceDestroyed
	}
	if dst.Min.X < 0 || dst.Min.Y < 0 || dst.Max.X > t.width || dst.Max.Y > t.height {
		return fmt.Errorf("%w: %v exceeds %dx%d", ErrRegionOutOfBounds, dst, t.width, t.height)
	}

	if !t.live {
		p.budget.register(t)
		t.live = true
	} else {
		p.budget.touch(t)
	}

	// TODO: queue upload once wgpu texture support lands, mirroring the
	// region write layout:
	//
	//   core.QueueWriteTexture(p.handle.Queue(), ..., &gputypes.Origin3D{
	//       X: uint32(dst.Min.X), Y: uint32(dst.Min.Y),
	//   }, ...)

	_ = src
	return nil
}

// CopyRegions copies rectangles between two surfaces, pairwise.
func (p *Provider) CopyRegions(src surface.Surface, srcRects []image.Rectangle, dst surface.Surface, dstRects []image.Rectangle) error {
	from, ok := src.(*Texture)
	if !ok || from == nil {
		return ErrForeignSurface
	}
	to, ok := dst.(*Texture)
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
		if dstRects[i].Min.X < 0 || dstRects[i].Min.Y < 0 ||
			dstRects[i].Max.X > to.width || dstRects[i].Max.Y > to.height {
			return fmt.Errorf("%w: %v exceeds %dx%d", ErrRegionOutOfBounds, dstRects[i], to.width, to.height)
		}
	}

	if !to.live {
		p.budget.register(to)
		to.live = true
	} else {
		p.budget.touch(to)
	}

	// TODO: encode texture-to-texture copies once wgpu command encoding
	// lands (one CopyTextureToTexture per region pair).

	return nil
}

// Texture is a GPU-backed atlas surface.
type Texture struct {
	provider *Provider

	textureID core.TextureID
	viewID    core.TextureViewID

	width     int
	height    int
	format    gputypes.TextureFormat
	sizeBytes uint64
	label     string

	live      bool
	destroyed bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texture pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Live reports whether the texture still holds its pixels. Evicted or
// destroyed textures are not live.
func (t *Texture) Live() bool { return t.live }

// SizeBytes returns the texture size charged against the budget.
func (t *Texture) SizeBytes() uint64 { return t.sizeBytes }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// TextureID returns the underlying wgpu texture ID.
// Returns a zero ID for logical textures.
func (t *Texture) TextureID() core.TextureID { return t.textureID }

// String returns a string representation of the texture.
func (t *Texture) String() string {
	status := "live"
	switch {
	case t.destroyed:
		status = "destroyed"
	case !t.live:
		status = "evicted"
	}
	return fmt.Sprintf("Texture[%s %dx%d %d bytes %s]", t.label, t.width, t.height, t.sizeBytes, status)
}
