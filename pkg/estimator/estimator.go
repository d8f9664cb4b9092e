// Package estimator implements the EstimatorAdapter (spec.md §4.6): a narrow
// façade around a position estimator and its per-axis filters. Each tracked
// tag owns one Handle, created on first sight and fed one ripe slot at a
// time.
//
// The reference implementation delegates to Silicon Labs' proprietary RTL
// library (sl_rtl_loc_*, sl_rtl_util_*), which has no Go binding. Handle
// reimplements the same estimation shape — per-locator azimuth/elevation/
// distance measurements, a time-stepped process call, per-axis smoothing —
// using the standard closest-point-to-multiple-rays solve (see DESIGN.md).
package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/marmos91/multilocator/pkg/locator"
	"github.com/marmos91/multilocator/pkg/sequence"
	"github.com/marmos91/multilocator/pkg/window"
)

// Mode selects the estimator's operating profile (config.EstimationConfig.Mode).
const (
	ModeTwoDim               = "two_dim"
	ModeThreeDim             = "three_dim"
	ModeThreeDimHighAccuracy = "three_dim_high_accuracy"
)

// Axis identifies one of the tracked position axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	axisCount
)

// Position is a point in the shared locator coordinate frame.
type Position struct {
	X, Y, Z float64
}

// Filter is an exponential smoothing filter over one axis, the Go
// equivalent of sl_rtl_util_filter. Amount is the weight given to
// accumulated history: 0 disables smoothing, closer to 1 smooths more
// aggressively at the cost of responsiveness.
type Filter struct {
	amount float64
	value  float64
	seeded bool
}

// NewFilter creates a filter with the given filtering amount (reference
// value 0.1, config.EstimationConfig.FilteringAmount).
func NewFilter(amount float64) *Filter {
	return &Filter{amount: amount}
}

// Apply feeds a new raw sample and returns the filtered value. The first
// sample seeds the filter and passes through unchanged.
func (f *Filter) Apply(raw float64) float64 {
	if !f.seeded {
		f.value = raw
		f.seeded = true
		return f.value
	}
	f.value = f.amount*f.value + (1-f.amount)*raw
	return f.value
}

type measurement struct {
	present          bool
	azimuth          float64
	elevation        float64
	distance         float64
	hasDistance      bool
}

// Handle is the per-tag estimator state: one per Tag, created by NewHandle
// on first sight (spec.md §4.6 "per-tag initialisation").
type Handle struct {
	locators     []locator.Config
	mode         string
	measurements []measurement
	filters      [axisCount]*Filter
}

// NewHandle creates and initialises a per-tag estimator handle: it registers
// the configured locators and creates one filter per axis, mirroring
// init_asset_tag in the reference implementation.
func NewHandle(locators []locator.Config, mode string, filteringAmount float64) (*Handle, error) {
	if len(locators) == 0 {
		return nil, fmt.Errorf("estimator: at least one locator is required")
	}
	switch mode {
	case ModeTwoDim, ModeThreeDim, ModeThreeDimHighAccuracy:
	default:
		return nil, fmt.Errorf("estimator: unknown mode %q", mode)
	}

	h := &Handle{
		locators:     locators,
		mode:         mode,
		measurements: make([]measurement, len(locators)),
	}
	for i := range h.filters {
		h.filters[i] = NewFilter(filteringAmount)
	}
	return h, nil
}

// setMeasurement records azimuth/elevation (and, single-locator mode,
// distance) for one locator index. Step 1 of spec.md §4.6's per-slot
// pipeline.
func (h *Handle) setMeasurement(locIdx int, a window.Slot) {
	ang := a.Angles[locIdx]
	m := measurement{
		present:   true,
		azimuth:   float64(ang.Azimuth),
		elevation: float64(ang.Elevation),
	}
	if len(h.locators) == 1 {
		m.distance = float64(ang.Distance)
		m.hasDistance = true
	}
	h.measurements[locIdx] = m
}

// clearMeasurements resets all recorded measurements. Step 7.
func (h *Handle) clearMeasurements() {
	for i := range h.measurements {
		h.measurements[i] = measurement{}
	}
}

// timeStep computes the process() time step per spec.md §4.6 step 2.
func timeStep(slotSeq uint16, oldestSeq uint16, hasOldest bool, maxDiff int32, intervalSec float64) float64 {
	if !hasOldest {
		return intervalSec
	}
	d := sequence.Diff(oldestSeq, slotSeq, maxDiff)
	if d == sequence.Stale {
		return intervalSec
	}
	return math.Abs(float64(d)) * intervalSec
}

// RunEstimation implements spec.md §4.6's per-slot pipeline (steps 1-3,
// 5-7; step 4, updating the window's oldest sequence, is the caller's
// responsibility since it must happen atomically with ClearThrough — see
// window.Window.FlushRipe's doc comment). Any error here is fatal to this
// slot only; the handle remains usable for the next one.
func (h *Handle) RunEstimation(slot window.Slot, oldestSeq uint16, hasOldest bool, maxDiff int32, intervalSec float64) (Position, error) {
	for locIdx, present := range slot.Present {
		if present {
			h.setMeasurement(locIdx, slot)
		}
	}

	ts := timeStep(uint16(slot.Sequence), oldestSeq, hasOldest, maxDiff, intervalSec)
	pos, err := h.process(ts)
	if err != nil {
		h.clearMeasurements()
		return Position{}, err
	}

	pos.X = h.filters[AxisX].Apply(pos.X)
	pos.Y = h.filters[AxisY].Apply(pos.Y)
	pos.Z = h.filters[AxisZ].Apply(pos.Z)

	h.clearMeasurements()
	return pos, nil
}

// process solves for the position implied by the current measurements.
// timeStepSec is accepted to preserve the reference pipeline's shape (a
// velocity-aware RTL implementation would integrate over it); the
// geometric solve below is memoryless and does not use it directly.
func (h *Handle) process(timeStepSec float64) (Position, error) {
	if timeStepSec <= 0 {
		return Position{}, fmt.Errorf("estimator: non-positive time step %f", timeStepSec)
	}

	if len(h.locators) == 1 && h.measurements[0].present && h.measurements[0].hasDistance {
		return h.positionFromSingleLocator(), nil
	}

	origins := make([][3]float64, 0, len(h.locators))
	dirs := make([][3]float64, 0, len(h.locators))
	for i, m := range h.measurements {
		if !m.present {
			continue
		}
		origins = append(origins, [3]float64{h.locators[i].Coordinate.X, h.locators[i].Coordinate.Y, h.locators[i].Coordinate.Z})
		dirs = append(dirs, rayDirection(h.locators[i].Orientation, m.azimuth, m.elevation))
	}
	if len(origins) == 0 {
		return Position{}, fmt.Errorf("estimator: no measurements present")
	}
	if len(origins) == 1 {
		// A single ray with no distance measurement: fall back to a point
		// along the ray at a fixed nominal range of 1 m. Rare in
		// practice — multilocator mode expects 2+ reporting locators per
		// ripe slot by construction of the expected-count schedule.
		const nominalRange = 1.0
		o, d := origins[0], dirs[0]
		pos := Position{X: o[0] + d[0]*nominalRange, Y: o[1] + d[1]*nominalRange, Z: o[2] + d[2]*nominalRange}
		return clampMode(pos, h.mode), nil
	}

	p, err := intersectRays(origins, dirs)
	if err != nil {
		return Position{}, fmt.Errorf("estimator: ray intersection: %w", err)
	}
	return clampMode(Position{X: p[0], Y: p[1], Z: p[2]}, h.mode), nil
}

func (h *Handle) positionFromSingleLocator() Position {
	m := h.measurements[0]
	loc := h.locators[0]
	dir := rayDirection(loc.Orientation, m.azimuth, m.elevation)
	return clampMode(Position{
		X: loc.Coordinate.X + dir[0]*m.distance,
		Y: loc.Coordinate.Y + dir[1]*m.distance,
		Z: loc.Coordinate.Z + dir[2]*m.distance,
	}, h.mode)
}

// clampMode zeroes Z under two_dim mode, matching a planar deployment where
// elevation is not trusted.
func clampMode(p Position, mode string) Position {
	if mode == ModeTwoDim {
		p.Z = 0
	}
	return p
}

// rayDirection turns a locator-relative azimuth/elevation (radians, per
// angle.Angle's wire units) into a unit direction vector in the shared
// coordinate frame, using the locator's orientation vector as the
// azimuth/elevation-zero forward ray and world +Z as the reference "up"
// used to build the local frame.
func rayDirection(orientation locator.Vector3, azimuth, elevation float64) [3]float64 {
	forward := normalize([3]float64{orientation.X, orientation.Y, orientation.Z})
	if forward == ([3]float64{}) {
		forward = [3]float64{1, 0, 0}
	}
	worldUp := [3]float64{0, 0, 1}

	right := normalize(cross(forward, worldUp))
	if right == ([3]float64{}) {
		right = normalize(cross(forward, [3]float64{0, 1, 0}))
	}
	up := cross(right, forward)

	cosEl := math.Cos(elevation)

	d := add3(
		scale3(forward, cosEl*math.Cos(azimuth)),
		add3(scale3(right, cosEl*math.Sin(azimuth)), scale3(up, math.Sin(elevation))),
	)
	return normalize(d)
}

// intersectRays finds the least-squares point closest to every ray
// (origin + t*dir, t >= 0 ignored) by solving the normal equations for the
// classic closest-point-to-multiple-lines problem:
//
//	sum_i (I - d_i d_i^T) x = sum_i (I - d_i d_i^T) p_i
func intersectRays(origins, dirs [][3]float64) ([3]float64, error) {
	a := mat.NewDense(3, 3, nil)
	b := mat.NewVecDense(3, nil)

	for i := range origins {
		d := normalize(dirs[i])
		var proj [3][3]float64
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				id := 0.0
				if r == c {
					id = 1.0
				}
				proj[r][c] = id - d[r]*d[c]
			}
		}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				a.Set(r, c, a.At(r, c)+proj[r][c])
			}
			rhs := 0.0
			for c := 0; c < 3; c++ {
				rhs += proj[r][c] * origins[i][c]
			}
			b.SetVec(r, b.AtVec(r)+rhs)
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return [3]float64{}, err
	}
	return [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}, nil
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return [3]float64{}
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
