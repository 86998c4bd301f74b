package atlas

// slot is the unit the allocator manages: a placed region plus a
// reference count and a lost flag.
//
// refs == 0 means the slot is unused and eligible for recycling or
// eviction. lost marks a slot whose pixels were invalidated together
// with the backing surface; the next acquisition of its name restores
// them in place.
type slot struct {
	Region

	refs int
	lost bool
}

// acquire increments the reference count. Negative counts are clamped
// to zero first; a correct caller never produces them.
func (s *slot) acquire() {
	if s.refs < 0 {
		s.refs = 0
	}
	s.refs++
}

// release decrements the reference count, clamped at zero. It reports
// whether the slot transitioned from used to unused.
func (s *slot) release() bool {
	if s.refs <= 0 {
		s.refs = 0
		return false
	}
	s.refs--
	return s.refs == 0
}

// unused reports whether the slot holds no references.
func (s *slot) unused() bool {
	return s.refs <= 0
}

// reset forces the slot back to unused with no pending loss.
func (s *slot) reset() {
	s.refs = 0
	s.lost = false
}
