// Package locator holds the immutable, load-time-fixed set of locators the
// core correlates angle reports across.
package locator

import "fmt"

// Vector3 is a simple (x, y, z) tuple used for locator coordinate/orientation.
type Vector3 struct {
	X, Y, Z float64
}

// Config describes one locator's identity and physical placement.
// Immutable after load (spec.md §3).
type Config struct {
	ID          string
	Coordinate  Vector3
	Orientation Vector3
}

// Set is the bounded, ordered, immutable collection of locators the process
// was configured with. Bounded to MaxLocators (reference value 6).
type Set struct {
	byID  map[string]Config
	order []Config
}

// NewSet builds a Set from an ordered list of locator configs. Returns an
// error if the list is empty, exceeds maxLocators, or contains a duplicate ID.
func NewSet(configs []Config, maxLocators int) (*Set, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("locator set: at least one locator is required")
	}
	if maxLocators > 0 && len(configs) > maxLocators {
		return nil, fmt.Errorf("locator set: %d locators exceeds max_locators %d", len(configs), maxLocators)
	}

	byID := make(map[string]Config, len(configs))
	for _, c := range configs {
		if c.ID == "" {
			return nil, fmt.Errorf("locator set: empty locator id")
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("locator set: duplicate locator id %q", c.ID)
		}
		byID[c.ID] = c
	}

	return &Set{byID: byID, order: append([]Config(nil), configs...)}, nil
}

// Count returns the number of configured locators (L in spec.md's notation).
func (s *Set) Count() int {
	return len(s.order)
}

// Index returns the stable index of a locator ID within the set, used as the
// loc_idx into a Slot's angles/present arrays. ok is false for unknown IDs.
func (s *Set) Index(id string) (idx int, ok bool) {
	for i, c := range s.order {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Contains reports whether id names a configured locator.
func (s *Set) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// All returns the ordered locator configs. The returned slice is a copy.
func (s *Set) All() []Config {
	return append([]Config(nil), s.order...)
}

// Get returns the config for a locator ID.
func (s *Set) Get(id string) (Config, bool) {
	c, ok := s.byID[id]
	return c, ok
}
