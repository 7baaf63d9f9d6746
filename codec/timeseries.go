package codec

// TimeState carries the TIME stream's delta-of-delta state across the
// blocks of a single segment (SPEC_FULL.md §4.2, §5, §9; DESIGN.md Open
// Question 4). A fresh TimeState must be used for every segment.
//
// The state turns raw absolute timestamps into an "effective sequence":
// the very first timestamp ever seen in the segment is emitted as-is, the
// second is emitted as a delta from the first, and every timestamp after
// that is emitted as a delta-of-delta continuing the running state. That
// effective sequence — not the raw timestamps — is what gets handed to
// the same generic Trial used by every other stream, so TIME's state
// management and the inner-codec trial remain two independent steps
// rather than one codec silently double-applying DoD.
type TimeState struct {
	seen      int64
	lastTS    int64
	lastDelta int64
}

// NewTimeState returns a TimeState ready for the first block of a segment.
func NewTimeState() *TimeState {
	return &TimeState{}
}

// Absorb writes the effective sequence for one block's raw absolute
// timestamps into dst (which must have the same length) and advances the
// running state. Call once per block, in segment order.
func (s *TimeState) Absorb(rawTimestamps []int64, dst []float64) {
	for i, ts := range rawTimestamps {
		switch {
		case s.seen == 0:
			dst[i] = float64(ts)
			s.lastTS = ts
		case s.seen == 1:
			delta := ts - s.lastTS
			dst[i] = float64(delta)
			s.lastDelta = delta
			s.lastTS = ts
		default:
			delta := ts - s.lastTS
			dod := delta - s.lastDelta
			dst[i] = float64(dod)
			s.lastDelta = delta
			s.lastTS = ts
		}
		s.seen++
	}
}

// Restore inverts Absorb: given the effective sequence for one block (in
// segment order) it reconstructs the raw absolute timestamps into dst,
// advancing the same running state a matching Absorb call would have.
func (s *TimeState) Restore(effective []float64, dst []int64) {
	for i, v := range effective {
		switch {
		case s.seen == 0:
			ts := int64(v)
			dst[i] = ts
			s.lastTS = ts
		case s.seen == 1:
			delta := int64(v)
			ts := s.lastTS + delta
			dst[i] = ts
			s.lastDelta = delta
			s.lastTS = ts
		default:
			dod := int64(v)
			delta := s.lastDelta + dod
			ts := s.lastTS + delta
			dst[i] = ts
			s.lastDelta = delta
			s.lastTS = ts
		}
		s.seen++
	}
}
