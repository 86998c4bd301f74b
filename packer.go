package atlas

import "image"

// Packer is a free-rectangle bin packer (MaxRects subdivision with
// best-short-side-fit scoring). Given a bin size and a batch of
// requested rectangle sizes it returns either a full set of
// non-overlapping placements or failure.
//
// Insert is transactional: placements are computed against a copy of
// the free-space structure and committed only when every requested size
// found a home. A failed Insert leaves the packer untouched, so the
// caller may Reset to a larger bin and try again.
//
// Packer is NOT safe for concurrent use; each instance is exclusively
// owned by one allocator.
type Packer struct {
	width  int
	height int
	free   []image.Rectangle
}

// NewPacker creates a packer for a bin of the given size.
func NewPacker(width, height int) *Packer {
	p := &Packer{}
	p.Reset(width, height)
	return p
}

// Reset reinitializes the packer to an empty bin of the given size,
// discarding all prior placements.
func (p *Packer) Reset(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	p.width = width
	p.height = height
	p.free = p.free[:0]
	if width > 0 && height > 0 {
		p.free = append(p.free, image.Rect(0, 0, width, height))
	}
}

// Width returns the current bin width.
func (p *Packer) Width() int { return p.width }

// Height returns the current bin height.
func (p *Packer) Height() int { return p.height }

// Insert places the given sizes into the bin. On success it returns one
// top-left position per input size, in input order; all placements lie
// within the bin and are pairwise non-overlapping. On failure it
// returns (nil, false) and the packer keeps its prior state.
//
// Sizes must be positive in both dimensions; a non-positive size fails
// the whole batch.
func (p *Packer) Insert(sizes []image.Point) ([]image.Point, bool) {
	free := append([]image.Rectangle(nil), p.free...)
	positions := make([]image.Point, len(sizes))

	for i, sz := range sizes {
		if sz.X <= 0 || sz.Y <= 0 {
			return nil, false
		}
		j, ok := bestShortSideFit(free, sz)
		if !ok {
			return nil, false
		}
		used := image.Rectangle{Min: free[j].Min, Max: free[j].Min.Add(sz)}
		positions[i] = used.Min
		free = subdivide(free, used)
	}

	p.free = free
	return positions, true
}

// FreeCount returns the number of free rectangles currently tracked.
func (p *Packer) FreeCount() int { return len(p.free) }

// bestShortSideFit scans the free rectangles for the one whose shorter
// leftover side after placing sz is smallest, breaking ties by the
// longer leftover side.
func bestShortSideFit(free []image.Rectangle, sz image.Point) (int, bool) {
	const maxInt = int(^uint(0) >> 1)
	best := -1
	bestShort, bestLong := maxInt, maxInt

	for j, fr := range free {
		leftoverW := fr.Dx() - sz.X
		leftoverH := fr.Dy() - sz.Y
		if leftoverW < 0 || leftoverH < 0 {
			continue
		}
		short, long := leftoverW, leftoverH
		if short > long {
			short, long = long, short
		}
		if short < bestShort || (short == bestShort && long < bestLong) {
			best, bestShort, bestLong = j, short, long
		}
	}
	return best, best >= 0
}

// subdivide splits every free rectangle overlapped by used into its
// leftover strips (maxrects-style: strips span the full extent of the
// parent free rectangle, so they may overlap each other) and prunes
// rectangles fully contained in another.
func subdivide(free []image.Rectangle, used image.Rectangle) []image.Rectangle {
	next := make([]image.Rectangle, 0, len(free)+4)

	for _, fr := range free {
		if !fr.Overlaps(used) {
			next = append(next, fr)
			continue
		}
		if used.Min.X > fr.Min.X {
			next = append(next, image.Rect(fr.Min.X, fr.Min.Y, used.Min.X, fr.Max.Y))
		}
		if used.Max.X < fr.Max.X {
			next = append(next, image.Rect(used.Max.X, fr.Min.Y, fr.Max.X, fr.Max.Y))
		}
		if used.Min.Y > fr.Min.Y {
			next = append(next, image.Rect(fr.Min.X, fr.Min.Y, fr.Max.X, used.Min.Y))
		}
		if used.Max.Y < fr.Max.Y {
			next = append(next, image.Rect(fr.Min.X, used.Max.Y, fr.Max.X, fr.Max.Y))
		}
	}

	return pruneContained(next)
}

// pruneContained removes free rectangles fully contained in another.
// Exact duplicates keep their first occurrence.
func pruneContained(rects []image.Rectangle) []image.Rectangle {
	kept := make([]image.Rectangle, 0, len(rects))
outer:
	for i, r := range rects {
		for j, other := range rects {
			if i == j {
				continue
			}
			if r == other {
				if i > j {
					continue outer
				}
				continue
			}
			if r.In(other) {
				continue outer
			}
		}
		kept = append(kept, r)
	}
	return kept
}
