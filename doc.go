// Package atlas packs many variable- or fixed-size 2D sprites into a
// small number of large backing surfaces at runtime, so a renderer can
// batch draw calls.
//
// An Atlas keeps a name-indexed table of reference-counted slots: the
// first acquisition of a name places the sprite and blits its pixels,
// later acquisitions only bump the reference count. Releasing a name to
// zero references makes its slot reclaimable; reclaimable slots are
// recycled or evicted when the surface must grow.
//
// Two placement strategies are available, selected at construction:
//
//   - NewGrid: every sprite occupies one fixed-size cell. Placement is
//     pure index arithmetic, no packing state. Best for uniform sprites
//     such as tiles or glyph cells.
//   - NewFreeForm: variable-size sprites placed by a MaxRects bin
//     packer with best-short-side-fit scoring, including a full
//     evict-and-repack pass when the surface has to grow.
//
// Pixel movement is delegated to a surface.Provider; see backend/soft
// and backend/wgpu.
//
// An Atlas is NOT safe for concurrent use. Drive it from a single
// control thread (typically once per frame) or synchronize externally.
//
// Example:
//
//	prov := soft.New()
//	a, err := atlas.NewFreeForm(prov, atlas.DefaultFreeFormConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Destroy()
//
//	if err := a.Acquire(sprite); err != nil {
//	    // surface cannot grow any further; release sprites and retry
//	}
//	r, _ := a.Lookup(sprite.Name())
//	// r.X, r.Y, r.Width, r.Height locate the sprite on a.Surface()
package atlas
