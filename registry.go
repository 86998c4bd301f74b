package atlas

// slotRegistry is a name-indexed collection of slots.
//
// The slice order is significant: it is the insertion/packing order and
// parallels the packer's output order during a repack. The name index
// is built lazily from the slice on first use and invalidated whenever
// the slice is cleared.
//
// Absent-name operations are no-ops, never errors; the registry is a
// best-effort cache-like structure.
type slotRegistry struct {
	slots []*slot
	index map[string]*slot
}

// ensureIndex builds the name index from the slice if needed.
func (r *slotRegistry) ensureIndex() {
	if r.index != nil {
		return
	}
	r.index = make(map[string]*slot, len(r.slots))
	for _, s := range r.slots {
		r.index[s.Name] = s
	}
}

// lookup returns the slot for name, or nil.
func (r *slotRegistry) lookup(name string) *slot {
	r.ensureIndex()
	return r.index[name]
}

// add appends a slot. No-op if the name is already present.
func (r *slotRegistry) add(s *slot) {
	r.ensureIndex()
	if _, ok := r.index[s.Name]; ok {
		return
	}
	r.slots = append(r.slots, s)
	r.index[s.Name] = s
}

// rename atomically rekeys a slot: the old key is removed, the slot
// mutated, and the new key inserted. No-op if oldName is absent or
// newName is already taken by another slot.
func (r *slotRegistry) rename(oldName, newName string) {
	r.ensureIndex()
	s, ok := r.index[oldName]
	if !ok {
		return
	}
	if other, taken := r.index[newName]; taken && other != s {
		return
	}
	delete(r.index, oldName)
	s.Name = newName
	r.index[newName] = s
}

// removeWhere removes all slots matching pred from both the slice and
// the index, preserving the relative order of survivors.
func (r *slotRegistry) removeWhere(pred func(*slot) bool) {
	r.ensureIndex()
	kept := r.slots[:0]
	for _, s := range r.slots {
		if pred(s) {
			delete(r.index, s.Name)
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(r.slots); i++ {
		r.slots[i] = nil
	}
	r.slots = kept
}

// clear drops every slot and invalidates the index.
func (r *slotRegistry) clear() {
	r.slots = nil
	r.index = nil
}

// len returns the number of slots.
func (r *slotRegistry) len() int {
	return len(r.slots)
}
