package live

import "github.com/roach88/inklive/internal/session"

// slot holds at most one outstanding callback and the session it was sent to.
//
// Replacing an occupied slot hands the old callback back so the caller can
// complete it with ErrSuperseded; nothing is silently orphaned.
type slot[F any] struct {
	cb   F
	id   session.ID
	used bool
}

// put stores cb for id and returns the callback it displaced, if any.
func (s *slot[F]) put(id session.ID, cb F) (prev F, replaced bool) {
	prev, replaced = s.cb, s.used
	s.cb, s.id, s.used = cb, id, true
	return prev, replaced
}

// take empties the slot if it is occupied by raw and returns its callback.
// An empty slot, or a slot for another session, is left alone.
func (s *slot[F]) take(raw string) (F, bool) {
	var zero F
	if !s.used || !s.id.Matches(raw) {
		return zero, false
	}
	cb := s.cb
	*s = slot[F]{}
	return cb, true
}

// drain empties the slot and returns the callback it held, if any.
func (s *slot[F]) drain() (F, bool) {
	cb, ok := s.cb, s.used
	*s = slot[F]{}
	return cb, ok
}
