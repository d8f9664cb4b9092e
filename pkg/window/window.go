// Package window implements the per-tag correlation window: the fixed-size,
// newest-first array of slots that buckets angle reports by sequence number
// until enough locators have reported for a slot to fire (spec.md §4.3).
package window

import (
	"github.com/marmos91/multilocator/pkg/angle"
	"github.com/marmos91/multilocator/pkg/sequence"
)

// EmptySequence marks a slot as unused.
const EmptySequence int32 = -1

// Slot holds angles for a single sequence number across locators.
type Slot struct {
	Sequence  int32 // EmptySequence (-1) when unused
	Angles    []angle.Angle
	Present   []bool
	NumAngles int
}

func newSlot(locatorCount int) Slot {
	return Slot{
		Sequence: EmptySequence,
		Angles:   make([]angle.Angle, locatorCount),
		Present:  make([]bool, locatorCount),
	}
}

func (s *Slot) reset() {
	s.Sequence = EmptySequence
	s.NumAngles = 0
	for i := range s.Present {
		s.Present[i] = false
	}
}

// Window is the per-tag correlation window: MaxSequenceIDs slots ordered
// newest-first, plus the bookkeeping needed to feed the estimator in
// strictly non-decreasing sequence order.
type Window struct {
	ID             string
	Slots          []Slot
	OldestSequence uint16
	MaxDiff        int32
	LocatorCount   int
	hasOldest      bool
}

// New creates an empty window with numSlots slots, one per locator up to
// locatorCount wide.
func New(id string, numSlots, locatorCount int, maxDiff int32) *Window {
	slots := make([]Slot, numSlots)
	for i := range slots {
		slots[i] = newSlot(locatorCount)
	}
	return &Window{
		ID:           id,
		Slots:        slots,
		MaxDiff:      maxDiff,
		LocatorCount: locatorCount,
	}
}

// EvictStale implements spec.md §4.3(a): scanning newest to oldest, clears
// the first slot whose distance from newSeq is stale, and every slot older
// than it (older slots cannot be newer than an already-too-far slot).
// Reports whether any slot was evicted, for staleness metrics.
func (w *Window) EvictStale(newSeq uint16) bool {
	for i := range w.Slots {
		if w.Slots[i].Sequence == EmptySequence {
			continue
		}
		if sequence.Diff(uint16(w.Slots[i].Sequence), newSeq, w.MaxDiff) == sequence.Stale {
			for j := i; j < len(w.Slots); j++ {
				w.Slots[j].reset()
			}
			return true
		}
	}
	return false
}

// LocateSlot implements spec.md §4.3(b): returns the index of the slot whose
// sequence equals newSeq, or 0 if no slot matches. The caller distinguishes
// match from miss by comparing the stored sequence to newSeq in InsertOrMerge.
//
// Known limitation (O1, see DESIGN.md): a sequence older than every stored
// slot, but not yet stale, also returns 0 and will shift existing slots down
// — this mirrors the reference implementation's documented behavior rather
// than silently special-casing it.
func (w *Window) LocateSlot(newSeq uint16) int {
	for i := range w.Slots {
		if w.Slots[i].Sequence == int32(newSeq) {
			return i
		}
	}
	return 0
}

// InsertOrMerge implements spec.md §4.3(c).
func (w *Window) InsertOrMerge(a angle.Angle, slotIdx, locIdx int) {
	if slotIdx < 0 {
		return
	}

	slot := &w.Slots[slotIdx]
	if slot.Sequence != int32(a.Sequence) {
		// Insertion case: shift slots[slotIdx..end-1] down by one, discarding
		// the oldest slot, then re-initialise slots[slotIdx].
		for i := len(w.Slots) - 1; i > slotIdx; i-- {
			w.Slots[i] = w.Slots[i-1]
		}
		w.Slots[slotIdx] = newSlot(w.LocatorCount)
		slot = &w.Slots[slotIdx]
		slot.Sequence = int32(a.Sequence)
	}

	// Corrected behaviour (see DESIGN.md Open Question O-ANGLE): only
	// increment NumAngles the first time this locator reports into the slot.
	if !slot.Present[locIdx] {
		slot.NumAngles++
	}
	slot.Angles[locIdx] = a
	slot.Present[locIdx] = true
}

// RipeSlot is one slot that reached its expected angle count during a
// FlushRipe scan, ready for estimation and publish.
type RipeSlot struct {
	Index int
	Slot  Slot
}

// FlushRipe implements spec.md §4.3(d): scans from the oldest slot down to
// fromIdx, collecting every slot whose NumAngles equals its expected count.
// Callers must run estimation/publish for each returned RipeSlot (in the
// order given: oldest to newest) and then call ClearThrough with the
// returned lastFired index (the newest, i.e. lowest-index, slot that
// fired). Window.OldestSequence is NOT updated here — the caller (the
// dispatcher) updates it via SetOldestSequence after each slot's estimation
// (spec.md §4.6 step 4), before ClearThrough is called.
func (w *Window) FlushRipe(fromIdx int, expected []int) (ripe []RipeSlot, lastFired int, fired bool) {
	lastFired = -1
	for idx := len(w.Slots) - 1; idx >= fromIdx; idx-- {
		s := w.Slots[idx]
		if s.Sequence == EmptySequence {
			continue
		}
		if s.NumAngles == expected[idx] {
			ripe = append(ripe, RipeSlot{Index: idx, Slot: s})
			// Iterating from oldest (highest index) to fromIdx, so the last
			// match assigned here is the smallest (newest) index that fired.
			lastFired = idx
		}
	}
	return ripe, lastFired, lastFired >= 0
}

// ClearThrough clears slots [lastFired, end) — all slots at or older than
// the newest slot that fired in the preceding FlushRipe call. Firing a newer
// slot invalidates older pending slots because estimator state must advance
// monotonically in sequence.
func (w *Window) ClearThrough(lastFired int) {
	if lastFired < 0 {
		return
	}
	for i := lastFired; i < len(w.Slots); i++ {
		w.Slots[i].reset()
	}
}

// SetOldestSequence records the last sequence actually pushed to the
// estimator; this defines the time-step base for the next estimation.
func (w *Window) SetOldestSequence(seq uint16) {
	w.OldestSequence = seq
	w.hasOldest = true
}

// HasOldestSequence reports whether any sequence has ever been pushed to the
// estimator for this tag (false only before the first slot ever fires).
func (w *Window) HasOldestSequence() bool {
	return w.hasOldest
}
