package atlas

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/atlas/surface"
	"github.com/gogpu/gputypes"
)

// surfaceState tracks the backing-surface lifecycle explicitly rather
// than using a nil surface as an implicit flag.
type surfaceState uint8

const (
	// stateUninitialized means no surface has been created yet.
	stateUninitialized surfaceState = iota

	// stateActive means a surface exists and holds slot pixels.
	stateActive

	// stateDestroyed means Destroy was called; the next placement
	// lazily re-creates the surface as if freshly constructed.
	stateDestroyed
)

// placer is the placement strategy behind an Atlas: fixed-grid cell
// arithmetic or free-form bin packing. Implementations place a batch of
// new images, growing or repacking the surface as needed, and must
// guarantee that a failed placement leaves the registry and the
// reference accounting exactly as they were.
type placer interface {
	place(a *Atlas, images []surface.Image) error

	// reset drops all placement state after Destroy.
	reset()
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	// Hits counts acquisitions resolved by an existing slot.
	Hits uint64

	// Misses counts acquisitions that required a placement.
	Misses uint64

	// Slots is the total slot count.
	Slots int

	// Used is the number of slots with a positive reference count.
	Used int

	// Unused is the number of slots with zero references.
	Unused int
}

// Atlas places named sprites on a single backing surface and tracks
// each sprite's region with a reference count. The placement strategy
// is fixed at construction; see NewGrid and NewFreeForm.
//
// Atlas is NOT safe for concurrent use.
type Atlas struct {
	provider surface.Provider
	strategy placer

	reg   slotRegistry
	surf  surface.Surface
	state surfaceState

	maxWidth  int
	maxHeight int
	format    gputypes.TextureFormat

	// unusedSlots always equals the number of slots with refs == 0.
	unusedSlots int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Acquire attempts to place or re-reference a single image.
// Acquiring a nil image is a no-op.
func (a *Atlas) Acquire(img surface.Image) error {
	if img == nil {
		return nil
	}
	return a.AcquireBatch([]surface.Image{img})
}

// AcquireBatch attempts to place or re-reference a batch of images,
// which must be unique by name. Nil entries are filtered out.
//
// Images already present as slots get their reference count bumped; a
// slot marked lost is instead overwritten in place (its pixels blitted
// back at the existing rectangle, exactly once). The remaining images
// are placed together by the strategy, in the order given: either the
// whole remainder lands on the surface or none of it does, and a
// failure (ErrCapacityExceeded, ErrPackingInfeasible) leaves the
// allocator in its pre-call state, safe to retry after releases.
func (a *Atlas) AcquireBatch(images []surface.Image) error {
	var pending []surface.Image
	var seen map[string]struct{}

	for _, img := range images {
		if img == nil {
			continue
		}
		name := img.Name()
		if s := a.reg.lookup(name); s != nil {
			a.hits.Add(1)
			if s.lost {
				if err := a.restoreLost(s, img); err != nil {
					return err
				}
				continue
			}
			a.refSlot(s)
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, len(images))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		a.misses.Add(1)
		pending = append(pending, img)
	}

	if len(pending) == 0 {
		return nil
	}
	return a.strategy.place(a, pending)
}

// Release decrements the reference count of the named slot.
// Releasing an unknown or already-unused name is a no-op.
func (a *Atlas) Release(name string) {
	if s := a.reg.lookup(name); s != nil && s.release() {
		a.unusedSlots++
	}
}

// ReleaseBatch releases a batch of names, which must be unique.
func (a *Atlas) ReleaseBatch(names []string) {
	for _, name := range names {
		a.Release(name)
	}
}

// Contains reports whether a slot exists for name, regardless of its
// used or lost state.
func (a *Atlas) Contains(name string) bool {
	return a.reg.lookup(name) != nil
}

// Lookup returns the region recorded for name.
func (a *Atlas) Lookup(name string) (Region, bool) {
	if s := a.reg.lookup(name); s != nil {
		return s.Region, true
	}
	return Region{}, false
}

// Clear forces every slot to unused (count zero, lost cleared) without
// removing slots or releasing the surface.
func (a *Atlas) Clear() {
	for _, s := range a.reg.slots {
		s.reset()
	}
	a.unusedSlots = a.reg.len()
}

// Destroy clears the registry entirely and releases the backing
// surface. Subsequent operations behave as if the allocator were
// freshly constructed: the next placement lazily creates a new surface.
func (a *Atlas) Destroy() {
	a.reg.clear()
	a.unusedSlots = 0
	if a.state == stateActive {
		a.provider.Destroy(a.surf)
	}
	a.surf = nil
	a.state = stateDestroyed
	a.strategy.reset()
	Logger().Debug("atlas: destroyed")
}

// SlotCount returns the total number of slots, used or not.
func (a *Atlas) SlotCount() int {
	return a.reg.len()
}

// UsedCount returns the number of slots with a positive reference count.
func (a *Atlas) UsedCount() int {
	return a.reg.len() - a.unusedSlots
}

// IsEmpty reports whether no backing surface is currently active.
func (a *Atlas) IsEmpty() bool {
	return a.state != stateActive
}

// Surface returns the active backing surface, or nil if none exists.
func (a *Atlas) Surface() surface.Surface {
	return a.surf
}

// Stats returns a snapshot of allocator counters.
func (a *Atlas) Stats() Stats {
	return Stats{
		Hits:   a.hits.Load(),
		Misses: a.misses.Load(),
		Slots:  a.reg.len(),
		Used:   a.UsedCount(),
		Unused: a.unusedSlots,
	}
}

// refSlot increments a slot's reference count, maintaining the
// unused-slot counter.
func (a *Atlas) refSlot(s *slot) {
	if s.unused() {
		a.unusedSlots--
	}
	s.acquire()
}

// addSlot registers a new slot at the given rectangle and references it.
func (a *Atlas) addSlot(name string, r image.Rectangle) *slot {
	s := &slot{Region: Region{Name: name, X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}}
	a.reg.add(s)
	a.unusedSlots++
	a.refSlot(s)
	return s
}

// restoreLost re-acquires a lost slot in place: the sprite is blitted
// back at the slot's existing rectangle without involving placement,
// then the lost flag is cleared. The first caller to do this for a
// given name wins; later acquisitions observe lost == false and only
// increment the reference count.
func (a *Atlas) restoreLost(s *slot, img surface.Image) error {
	if a.state == stateActive {
		if err := a.provider.Blit(img, s.Rect(), a.surf); err != nil {
			return fmt.Errorf("atlas: restoring lost slot %q: %w", s.Name, err)
		}
	}
	s.lost = false
	a.refSlot(s)
	Logger().Debug("atlas: restored lost slot", "name", s.Name)
	return nil
}

// createSurface asks the provider for a new surface.
func (a *Atlas) createSurface(w, h int) (surface.Surface, error) {
	s, err := a.provider.Create(w, h, a.format)
	if err != nil {
		return nil, fmt.Errorf("atlas: creating %dx%d surface: %w", w, h, err)
	}
	Logger().Info("atlas: surface created", "width", w, "height", h)
	return s, nil
}

// swapSurface installs a new active surface, destroying the old one.
func (a *Atlas) swapSurface(s surface.Surface) {
	if a.state == stateActive && a.surf != nil {
		a.provider.Destroy(a.surf)
	}
	a.surf = s
	a.state = stateActive
}
