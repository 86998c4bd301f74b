package atlas

// Sweep is the out-of-band recovery check for host-invalidated surfaces.
// Call it periodically (e.g. once per frame) or from a device-loss
// event. When the backing surface is no longer live, every slot is
// atomically marked unused-and-lost and the reference accounting is
// zeroed; actual pixel restoration is deferred to the next acquisition
// of each name. Sweep reports whether a loss was detected.
//
// Surface loss is never surfaced as an error from Acquire or Release;
// this sweep is the only path that reacts to it.
func (a *Atlas) Sweep() bool {
	if a.state != stateActive || a.surf.Live() {
		return false
	}

	for _, s := range a.reg.slots {
		s.refs = 0
		s.lost = true
	}
	a.unusedSlots = a.reg.len()

	Logger().Warn("atlas: backing surface lost, slots marked for restore",
		"slots", a.reg.len(),
		"width", a.surf.Width(),
		"height", a.surf.Height())
	return true
}
