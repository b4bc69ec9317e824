package session

// Registry tracks the current session for each purpose.
//
// INVARIANTS:
//   - Each slot holds at most one ID, and only an ID of the slot's purpose.
//   - An event is relevant only if its raw id matches the slot(s) its kind
//     is routed to; everything else is stale and must be dropped unchanged.
//
// Not safe for concurrent use; owned by the live manager's loop.
type Registry struct {
	play   ID
	export ID
	stats  ID
}

// Set makes id the current session for its purpose.
// Returns the ID it replaced (zero if the slot was empty).
func (r *Registry) Set(id ID) ID {
	slot := r.slot(id.Purpose())
	if slot == nil {
		return ID{}
	}
	prev := *slot
	*slot = id
	return prev
}

// Clear empties the slot for purpose.
func (r *Registry) Clear(purpose Purpose) {
	if slot := r.slot(purpose); slot != nil {
		*slot = ID{}
	}
}

// Reset empties every slot.
func (r *Registry) Reset() {
	*r = Registry{}
}

// Play returns the current play session.
func (r *Registry) Play() ID { return r.play }

// Export returns the current export session.
func (r *Registry) Export() ID { return r.export }

// Stats returns the current stats session.
func (r *Registry) Stats() ID { return r.stats }

// IsPlay reports whether raw is the current play session.
func (r *Registry) IsPlay(raw string) bool {
	return r.play.Matches(raw)
}

// IsExport reports whether raw is the current export session.
func (r *Registry) IsExport(raw string) bool {
	return r.export.Matches(raw)
}

// IsStats reports whether raw is the current stats session.
func (r *Registry) IsStats(raw string) bool {
	return r.stats.Matches(raw)
}

// IsPlayOrExport reports whether raw is the current play or export session.
// Diagnostics and fatal errors are routed here since both paths compile ink
// and can fail with ink-level errors.
func (r *Registry) IsPlayOrExport(raw string) bool {
	return r.IsPlay(raw) || r.IsExport(raw)
}

func (r *Registry) slot(p Purpose) *ID {
	switch p {
	case PurposePlay:
		return &r.play
	case PurposeExport:
		return &r.export
	case PurposeStats:
		return &r.stats
	default:
		return nil
	}
}
