// Package angle defines the per-locator angle measurement and its wire
// encoding (spec.md §6's angle payload schema).
package angle

import (
	"encoding/json"
	"fmt"
)

// Angle is one measurement from one locator for one CTE.
// Only azimuth/elevation are always fed to the estimator; distance is used
// only when exactly one locator is configured (spec.md §3, §4.6).
type Angle struct {
	Sequence  uint16  `json:"sequence"`
	Azimuth   float32 `json:"azimuth"`   // radians
	Elevation float32 `json:"elevation"` // radians
	Distance  float32 `json:"distance"`  // metres
	RSSI      int32   `json:"rssi"`      // dBm, scaled
}

// Decode parses a raw JSON angle payload. Malformed payloads return an
// error; the dispatcher logs and drops them (spec.md §7.3) rather than
// propagating the error to the core.
func Decode(payload []byte) (Angle, error) {
	var a Angle
	if err := json.Unmarshal(payload, &a); err != nil {
		return Angle{}, fmt.Errorf("decode angle payload: %w", err)
	}
	return a, nil
}
