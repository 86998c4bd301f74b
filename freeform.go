package atlas

import (
	"fmt"
	"image"

	"github.com/gogpu/atlas/surface"
)

// NewFreeForm creates an atlas with variable-size placement backed by a
// MaxRects bin packer, including a full evict-and-repack pass when the
// surface has to grow.
func NewFreeForm(p surface.Provider, cfg FreeFormConfig) (*Atlas, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Atlas{
		provider:  p,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		format:    defaultFormat(cfg.Format),
	}
	a.strategy = &freeFormPlacer{
		initialWidth:  cfg.InitialWidth,
		initialHeight: cfg.InitialHeight,
	}
	return a, nil
}

// freeFormPlacer delegates placement to a Packer. The fast path inserts
// only the new sprites into the existing free space; the slow path
// evicts unused slots and repacks the whole surface at a grown size.
type freeFormPlacer struct {
	initialWidth  int
	initialHeight int

	// packer mirrors the free space of the active surface.
	packer *Packer
}

func (f *freeFormPlacer) reset() {
	f.packer = nil
}

func (f *freeFormPlacer) place(a *Atlas, images []surface.Image) error {
	// Fast path: only when the doubling-derived size estimate for the
	// full population still matches the current bin, insert just the
	// new sprites; nothing that is already placed moves.
	if a.state == stateActive && f.packer != nil {
		area := paddedSlotArea(a.reg.slots) + paddedImageArea(images)
		w, h, ok := growToFit(f.initialWidth, f.initialHeight, a.maxWidth, a.maxHeight, area)
		if ok && w == f.packer.Width() && h == f.packer.Height() {
			if done, err := f.fastPath(a, images); done {
				return err
			}
			// Insert failed: fall through to a full repack, exactly as
			// if the slow path had been triggered from a clean state.
		}
	}
	return f.repack(a, images)
}

// fastPath tries to insert only the new sprites into the current free
// space. The first return value reports whether placement happened (and
// the error, if any, is final); false means the caller should repack.
func (f *freeFormPlacer) fastPath(a *Atlas, images []surface.Image) (bool, error) {
	pos, ok := f.packer.Insert(paddedImageSizes(images))
	if !ok {
		return false, nil
	}

	for i, img := range images {
		dst := spriteRect(pos[i], img)
		if err := a.provider.Blit(img, dst, a.surf); err != nil {
			return true, fmt.Errorf("atlas: blitting %q: %w", img.Name(), err)
		}
	}
	for i, img := range images {
		a.addSlot(img.Name(), spriteRect(pos[i], img))
	}
	Logger().Debug("atlas: fast-path placement", "sprites", len(images))
	return true, nil
}

// repack is the slow path: evict every unused slot, grow the bin by
// edge doubling until the packer fits the union of surviving slots (in
// registry order) and the new sprites, then rebuild the surface.
// Nothing is mutated until packing and surface creation have succeeded.
func (f *freeFormPlacer) repack(a *Atlas, images []surface.Image) error {
	survivors := make([]*slot, 0, a.reg.len())
	for _, s := range a.reg.slots {
		if !s.unused() {
			survivors = append(survivors, s)
		}
	}

	area := paddedSlotArea(survivors) + paddedImageArea(images)

	w, h := f.initialWidth, f.initialHeight
	if a.state == stateActive {
		w, h = a.surf.Width(), a.surf.Height()
	}
	w, h, ok := growToFit(w, h, a.maxWidth, a.maxHeight, area)
	if !ok {
		Logger().Warn("atlas: required area exceeds maximum surface",
			"area", area, "maxWidth", a.maxWidth, "maxHeight", a.maxHeight)
		return ErrCapacityExceeded
	}

	sizes := make([]image.Point, 0, len(survivors)+len(images))
	for _, s := range survivors {
		sizes = append(sizes, image.Pt(s.Width+2*Padding, s.Height+2*Padding))
	}
	sizes = append(sizes, paddedImageSizes(images)...)

	// The area estimate is a lower bound, not a guarantee; the packer
	// is the authority on feasibility. Keep doubling until it succeeds.
	trial := NewPacker(w, h)
	var pos []image.Point
	for {
		if pos, ok = trial.Insert(sizes); ok {
			break
		}
		if w, h, ok = doubleEdge(w, h, a.maxWidth, a.maxHeight); !ok {
			Logger().Warn("atlas: packing infeasible at maximum surface",
				"sprites", len(sizes), "maxWidth", a.maxWidth, "maxHeight", a.maxHeight)
			return ErrPackingInfeasible
		}
		trial.Reset(w, h)
	}

	newSurf, err := a.createSurface(w, h)
	if err != nil {
		return err
	}

	// Move surviving pixels, order-preserving.
	if a.state == stateActive && len(survivors) > 0 {
		srcRects := make([]image.Rectangle, len(survivors))
		dstRects := make([]image.Rectangle, len(survivors))
		for i, s := range survivors {
			srcRects[i] = s.Rect()
			r := image.Rect(pos[i].X+Padding, pos[i].Y+Padding,
				pos[i].X+Padding+s.Width, pos[i].Y+Padding+s.Height)
			dstRects[i] = r
		}
		if err := a.provider.CopyRegions(a.surf, srcRects, newSurf, dstRects); err != nil {
			a.provider.Destroy(newSurf)
			return fmt.Errorf("atlas: repacking surface: %w", err)
		}
	}

	for i, img := range images {
		dst := spriteRect(pos[len(survivors)+i], img)
		if err := a.provider.Blit(img, dst, newSurf); err != nil {
			a.provider.Destroy(newSurf)
			return fmt.Errorf("atlas: blitting %q: %w", img.Name(), err)
		}
	}

	// Commit: evicted slots leave the registry, survivors take their
	// packed rectangles, new sprites gain slots, old surface goes away.
	evicted := a.reg.len() - len(survivors)
	a.reg.removeWhere(func(s *slot) bool { return s.unused() })
	a.unusedSlots = 0
	for i, s := range survivors {
		s.setRect(pos[i].X+Padding, pos[i].Y+Padding, s.Width, s.Height)
	}
	a.swapSurface(newSurf)
	for i, img := range images {
		a.addSlot(img.Name(), spriteRect(pos[len(survivors)+i], img))
	}
	f.packer = trial

	Logger().Info("atlas: surface repacked",
		"width", w, "height", h,
		"survivors", len(survivors), "evicted", evicted, "added", len(images))
	return nil
}

// spriteRect converts a packed padded position to the sprite rectangle.
func spriteRect(pos image.Point, img surface.Image) image.Rectangle {
	x := pos.X + Padding
	y := pos.Y + Padding
	return image.Rect(x, y, x+img.Width(), y+img.Height())
}

// paddedImageSizes returns the padded placement size of each image.
func paddedImageSizes(images []surface.Image) []image.Point {
	sizes := make([]image.Point, len(images))
	for i, img := range images {
		sizes[i] = image.Pt(img.Width()+2*Padding, img.Height()+2*Padding)
	}
	return sizes
}

// paddedImageArea sums (w+2p)*(h+2p) over the images.
func paddedImageArea(images []surface.Image) int {
	area := 0
	for _, img := range images {
		area += (img.Width() + 2*Padding) * (img.Height() + 2*Padding)
	}
	return area
}

// paddedSlotArea sums (w+2p)*(h+2p) over the slots.
func paddedSlotArea(slots []*slot) int {
	area := 0
	for _, s := range slots {
		area += (s.Width + 2*Padding) * (s.Height + 2*Padding)
	}
	return area
}

// growToFit doubles edges starting from (w, h) until the bin area
// reaches at least area, or reports failure once neither edge may grow.
func growToFit(w, h, maxW, maxH, area int) (int, int, bool) {
	for w*h < area {
		var ok bool
		if w, h, ok = doubleEdge(w, h, maxW, maxH); !ok {
			return 0, 0, false
		}
	}
	return w, h, true
}

// doubleEdge doubles the smaller edge, falling back to whichever edge
// still fits the maximum.
func doubleEdge(w, h, maxW, maxH int) (int, int, bool) {
	switch {
	case w <= h && w*2 <= maxW:
		return w * 2, h, true
	case h*2 <= maxH:
		return w, h * 2, true
	case w*2 <= maxW:
		return w * 2, h, true
	default:
		return 0, 0, false
	}
}
