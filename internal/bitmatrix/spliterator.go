package bitmatrix

import "iter"

// Spliterator traverses one row or one column of a Matrix. It can hand off
// the first half of its remaining range with TrySplit; traversing the prefix
// and then the receiver yields the same cursors, in the same order, as an
// unsplit traversal.
//
// A Spliterator is not safe for concurrent use, but the halves produced by
// TrySplit are independent and may be consumed on different goroutines.
type Spliterator struct {
	m        *Matrix
	fixed    int
	vertical bool
	pos      int
	end      int
}

// TryAdvance emits the next cursor to fn. It reports false when exhausted.
func (s *Spliterator) TryAdvance(fn func(Cursor)) bool {
	if s.pos >= s.end {
		return false
	}
	fn(s.cursor(s.pos))
	s.pos++
	return true
}

// ForEachRemaining emits every remaining cursor to fn.
func (s *Spliterator) ForEachRemaining(fn func(Cursor)) {
	for ; s.pos < s.end; s.pos++ {
		fn(s.cursor(s.pos))
	}
}

// TrySplit detaches the lower half of the remaining range into a new
// Spliterator and keeps the upper half. It returns nil when fewer than two
// cursors remain.
func (s *Spliterator) TrySplit() *Spliterator {
	remaining := s.end - s.pos
	if remaining < 2 {
		return nil
	}
	mid := s.pos + remaining/2
	prefix := &Spliterator{m: s.m, fixed: s.fixed, vertical: s.vertical, pos: s.pos, end: mid}
	s.pos = mid
	return prefix
}

// EstimateSize returns the exact number of remaining cursors.
func (s *Spliterator) EstimateSize() int {
	return s.end - s.pos
}

// All adapts the remaining traversal to a range-over-func sequence.
func (s *Spliterator) All() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		for ; s.pos < s.end; s.pos++ {
			if !yield(s.cursor(s.pos)) {
				s.pos++
				return
			}
		}
	}
}

// replay returns a sequence that can be ranged over repeatedly, each time from
// the spliterator's current position.
func (s *Spliterator) replay() iter.Seq[Cursor] {
	start := *s
	return func(yield func(Cursor) bool) {
		t := start
		t.All()(yield)
	}
}

func (s *Spliterator) cursor(i int) Cursor {
	if s.vertical {
		return Cursor{Row: i, Column: s.fixed, Value: s.m.bits.Test(s.m.index(i, s.fixed))}
	}
	return Cursor{Row: s.fixed, Column: i, Value: s.m.bits.Test(s.m.index(s.fixed, i))}
}
