package live

// replayState is the choice sequence and the cursor into it.
//
// INVARIANTS:
//   - cursor == -1 means no play-through has started (fresh or rewound).
//   - Live choices append to seq and advance cursor together.
//   - While replaying, cursor counts how many recorded choices have been
//     resubmitted to the current session.
type replayState struct {
	seq       []int
	cursor    int
	replaying bool
}

func newReplayState() replayState {
	return replayState{cursor: -1}
}

// restart prepares a replay of the whole sequence against a new session.
func (r *replayState) restart() {
	r.replaying = true
	r.cursor = 0
}

// next returns the recorded choice to resubmit and advances the cursor.
// ok is false when the sequence is used up.
func (r *replayState) next() (choice int, ok bool) {
	if r.cursor < 0 || r.cursor >= len(r.seq) {
		return 0, false
	}
	choice = r.seq[r.cursor]
	r.cursor++
	return choice, true
}

// caughtUp reports whether every recorded choice has been resubmitted.
func (r *replayState) caughtUp() bool {
	return r.cursor >= len(r.seq)
}

// record appends a live choice.
func (r *replayState) record(choice int) {
	r.seq = append(r.seq, choice)
	r.cursor++
}

// clear forgets the play-through.
func (r *replayState) clear() {
	r.seq = nil
	r.cursor = -1
}

// dropLast removes the most recent choice, if any.
func (r *replayState) dropLast() {
	if n := len(r.seq); n > 0 {
		r.seq = r.seq[:n-1]
	}
}

// abandon stops replaying. Returns true if a replay was in progress.
func (r *replayState) abandon() bool {
	was := r.replaying
	r.replaying = false
	return was
}

// sequence returns a copy of the recorded choices.
func (r *replayState) sequence() []int {
	if len(r.seq) == 0 {
		return nil
	}
	out := make([]int, len(r.seq))
	copy(out, r.seq)
	return out
}
