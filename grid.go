package atlas

import (
	"fmt"
	"image"

	"github.com/gogpu/atlas/surface"
)

// NewGrid creates an atlas with fixed-cell placement: every sprite
// occupies one cell of cfg.CellWidth x cfg.CellHeight pixels and cell
// positions are pure index arithmetic. Sprites larger than the cell are
// the caller's problem; the blit clips or scales per the provider.
func NewGrid(p surface.Provider, cfg GridConfig) (*Atlas, error) {
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
	a.strategy = &gridPlacer{
		cellWidth:  cfg.CellWidth,
		cellHeight: cfg.CellHeight,
		initialCap: cfg.InitialCapacity,
	}
	return a, nil
}

// gridPlacer is the fixed-cell strategy. Cell i sits at column
// i % perRow, row i / perRow, with perRow fixed by the surface width.
// The slot count never shrinks: shrinking would invalidate the cell
// index arithmetic for surviving slots, so unused cells are recycled
// by renaming their slot.
type gridPlacer struct {
	cellWidth  int
	cellHeight int
	initialCap int

	// Layout of the active surface.
	perRow   int
	capacity int
}

func (g *gridPlacer) reset() {
	g.perRow = 0
	g.capacity = 0
}

// pitchX is the horizontal distance between cell origins.
func (g *gridPlacer) pitchX() int { return g.cellWidth + 2*Padding }

// pitchY is the vertical distance between cell origins.
func (g *gridPlacer) pitchY() int { return g.cellHeight + 2*Padding }

// cellRect returns the sprite rectangle for cell index i under a layout
// with perRow columns. The padding border stays outside the rectangle.
func (g *gridPlacer) cellRect(perRow, i int) image.Rectangle {
	col := i % perRow
	row := i / perRow
	x := col*g.pitchX() + Padding
	y := row*g.pitchY() + Padding
	return image.Rect(x, y, x+g.cellWidth, y+g.cellHeight)
}

// sizeFor computes the minimal surface that fits target cells: cells
// pack left-to-right filling rows within the maximum width, then width
// and height are independently rounded up to the next power of two.
func (g *gridPlacer) sizeFor(a *Atlas, target int) (w, h, perRow int, err error) {
	maxPerRow := a.maxWidth / g.pitchX()
	if maxPerRow < 1 {
		return 0, 0, 0, ErrCapacityExceeded
	}

	perRow = target
	if perRow > maxPerRow {
		perRow = maxPerRow
	}
	if perRow < 1 {
		perRow = 1
	}

	w = nextPow2(perRow * g.pitchX())
	perRow = w / g.pitchX()

	rows := (target + perRow - 1) / perRow
	if rows < 1 {
		rows = 1
	}
	h = nextPow2(rows * g.pitchY())

	// Exactly at the maximum is allowed; any excess is a hard failure.
	if w > a.maxWidth || h > a.maxHeight {
		return 0, 0, 0, ErrCapacityExceeded
	}
	return w, h, perRow, nil
}

func (g *gridPlacer) place(a *Atlas, images []surface.Image) error {
	// Slot count never shrinks.
	target := a.reg.len()
	if n := len(images) + a.UsedCount(); n > target {
		target = n
	}
	if g.initialCap > target {
		target = g.initialCap
	}

	w, h, perRow, err := g.sizeFor(a, target)
	if err != nil {
		Logger().Warn("atlas: grid cannot fit cells within maximum",
			"cells", target, "maxWidth", a.maxWidth, "maxHeight", a.maxHeight)
		return err
	}

	switch {
	case a.state != stateActive:
		surf, err := a.createSurface(w, h)
		if err != nil {
			return err
		}
		a.swapSurface(surf)
		g.setLayout(w, h)
	case a.surf.Width() < w || a.surf.Height() < h:
		if err := g.grow(a, w, h, perRow); err != nil {
			return err
		}
	}

	// Assign cells up front so a failure cannot strand a half-placed
	// batch in the registry.
	type assignment struct {
		img     surface.Image
		rect    image.Rectangle
		recycle *slot // unused slot whose cell is reused; nil to append
	}
	assigns := make([]assignment, 0, len(images))
	next := a.reg.len()
	var taken map[*slot]struct{}
	for _, img := range images {
		if next < g.capacity {
			assigns = append(assigns, assignment{img: img, rect: g.cellRect(g.perRow, next)})
			next++
			continue
		}
		s := g.findUnused(a, taken)
		if s == nil {
			// sizeFor guaranteed room for target cells.
			return ErrCapacityExceeded
		}
		if taken == nil {
			taken = make(map[*slot]struct{})
		}
		taken[s] = struct{}{}
		assigns = append(assigns, assignment{img: img, rect: s.Rect(), recycle: s})
	}

	for _, as := range assigns {
		if err := a.provider.Blit(as.img, as.rect, a.surf); err != nil {
			return fmt.Errorf("atlas: blitting %q: %w", as.img.Name(), err)
		}
	}

	for _, as := range assigns {
		if as.recycle != nil {
			a.reg.rename(as.recycle.Name, as.img.Name())
			as.recycle.reset()
			a.refSlot(as.recycle)
			continue
		}
		a.addSlot(as.img.Name(), as.rect)
	}
	return nil
}

// grow creates a larger surface and reflows every existing slot's
// pixels into its new cell position under the new layout, then destroys
// the old surface.
func (g *gridPlacer) grow(a *Atlas, w, h, perRow int) error {
	newSurf, err := a.createSurface(w, h)
	if err != nil {
		return err
	}

	if n := a.reg.len(); n > 0 {
		srcRects := make([]image.Rectangle, n)
		dstRects := make([]image.Rectangle, n)
		for i, s := range a.reg.slots {
			srcRects[i] = s.Rect()
			dstRects[i] = g.cellRect(perRow, i)
		}
		if err := a.provider.CopyRegions(a.surf, srcRects, newSurf, dstRects); err != nil {
			a.provider.Destroy(newSurf)
			return fmt.Errorf("atlas: reflowing grid: %w", err)
		}
		for i, s := range a.reg.slots {
			r := g.cellRect(perRow, i)
			s.setRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		}
	}

	a.swapSurface(newSurf)
	g.setLayout(w, h)
	Logger().Info("atlas: grid surface grown", "width", w, "height", h, "cells", g.capacity)
	return nil
}

// setLayout records the cell layout implied by the surface size.
func (g *gridPlacer) setLayout(w, h int) {
	g.perRow = w / g.pitchX()
	g.capacity = g.perRow * (h / g.pitchY())
}

// findUnused returns an unused slot whose cell can be recycled,
// skipping slots already claimed by the current batch.
func (g *gridPlacer) findUnused(a *Atlas, taken map[*slot]struct{}) *slot {
	for _, s := range a.reg.slots {
		if !s.unused() {
			continue
		}
		if _, claimed := taken[s]; claimed {
			continue
		}
		return s
	}
	return nil
}
