// Package dispatcher implements the Dispatcher (spec.md §4.5): the single
// event loop that drains ingress angle reports and drives each tag's
// correlation window, estimator, and publish pipeline. Exactly one
// goroutine ever calls HandleEvent, so no locking is needed inside it
// (spec.md §5).
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/multilocator/internal/logger"
	"github.com/marmos91/multilocator/internal/telemetry"
	"github.com/marmos91/multilocator/pkg/angle"
	"github.com/marmos91/multilocator/pkg/estimator"
	"github.com/marmos91/multilocator/pkg/locator"
	"github.com/marmos91/multilocator/pkg/position"
	"github.com/marmos91/multilocator/pkg/registry"
	"github.com/marmos91/multilocator/pkg/window"
)

// IngressEvent is one decoded angle report ready for dispatch: the unit the
// Dispatcher consumes (SPEC_FULL.md §3.1).
type IngressEvent struct {
	LocatorID string
	TagID     string
	Angle     angle.Angle
}

// Ingress is the narrow transport-facing interface the Dispatcher depends
// on (SPEC_FULL.md §4.9).
type Ingress interface {
	Subscribe(ctx context.Context, locatorID string) error
	Events() <-chan IngressEvent
}

// Egress publishes a tag's estimated position.
type Egress interface {
	Publish(ctx context.Context, tagID string, pos position.Position) error
}

// Result classifies how one ingress event was handled, for metrics
// (SPEC_FULL.md §4.11's multilocator_events_total{result}).
type Result string

const (
	ResultProcessed             Result = "processed"
	ResultDroppedUnknownLocator Result = "dropped_unknown_locator"
	ResultDroppedTagSaturated   Result = "dropped_tag_saturated"
	ResultDroppedParseError     Result = "dropped_parse_error"
	ResultDroppedEstimatorError Result = "dropped_estimator_error"
	ResultDroppedPublishError   Result = "dropped_publish_error"
)

// Recorder is the metrics sink the dispatcher reports through. A no-op
// implementation is used when metrics are disabled.
type Recorder interface {
	RecordEvent(result Result)
	RecordSlotFired()
	RecordPositionPublished()
	SetTagsActive(n int)
	ObserveEstimationDuration(seconds float64)
	ObservePublishDuration(seconds float64)
	RecordStaleness()
}

// NoopRecorder discards every metric. Used when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) RecordEvent(Result)              {}
func (NoopRecorder) RecordSlotFired()                {}
func (NoopRecorder) RecordPositionPublished()        {}
func (NoopRecorder) SetTagsActive(int)               {}
func (NoopRecorder) ObserveEstimationDuration(float64) {}
func (NoopRecorder) ObservePublishDuration(float64)  {}
func (NoopRecorder) RecordStaleness()                {}

// Config bundles the tunables the dispatcher needs beyond the locator set
// and registry, mirroring config.LimitsConfig and config.EstimationConfig.
type Config struct {
	NumSlots        int
	MaxDiff         int32
	EstimationMode  string
	IntervalSec     float64
	FilteringAmount float64
}

// Dispatcher wires Registry, TagWindow, EstimatorAdapter and
// PublisherAdapter together, implementing spec.md §4.5's per-event
// pipeline.
type Dispatcher struct {
	locators *locator.Set
	registry *registry.Registry
	schedule []int
	cfg      Config
	egress   Egress
	metrics  Recorder
}

// New creates a Dispatcher. schedule is the precomputed expected-count
// table (pkg/schedule.Build), shared read-only across all tags.
func New(locators *locator.Set, reg *registry.Registry, schedule []int, cfg Config, egress Egress, metrics Recorder) *Dispatcher {
	if metrics == nil {
		metrics = NoopRecorder{}
	}
	return &Dispatcher{
		locators: locators,
		registry: reg,
		schedule: schedule,
		cfg:      cfg,
		egress:   egress,
		metrics:  metrics,
	}
}

// newTag builds a freshly initialised Tag: a correlation window sized to
// cfg.NumSlots/locator count, and a per-tag estimator handle
// (spec.md §4.6 "per-tag initialisation, once, on first sight of a tag").
func (d *Dispatcher) newTag(id string) *registry.Tag {
	w := window.New(id, d.cfg.NumSlots, d.locators.Count(), d.cfg.MaxDiff)
	handle, err := estimator.NewHandle(d.locators.All(), d.cfg.EstimationMode, d.cfg.FilteringAmount)
	if err != nil {
		// Config validation guarantees a known mode and a non-empty locator
		// set by the time the dispatcher runs; reaching here means a
		// programmer error, not a runtime condition.
		panic(fmt.Sprintf("dispatcher: initializing estimator for tag %q: %v", id, err))
	}
	return &registry.Tag{ID: id, Window: w, EstimatorState: handle}
}

// Run drains ingress.Events() until the channel closes or ctx is canceled.
// This is the process's single event loop (spec.md §5); the only
// suspension point is the channel receive.
func (d *Dispatcher) Run(ctx context.Context, ingress Ingress) error {
	events := ingress.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent implements spec.md §4.5's per-(locator, tag, angle) pipeline:
// locator lookup, tag lookup-or-create, then the TagWindow operations (a)
// through (d) in sequence.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev IngressEvent) {
	ctx, span := telemetry.StartSpan(ctx, "multilocator.dispatch")
	defer span.End()

	lc := logger.NewLogContext(ev.LocatorID, ev.TagID).WithSequence(int32(ev.Angle.Sequence))
	ctx = logger.WithContext(ctx, lc)

	locIdx, ok := d.locators.Index(ev.LocatorID)
	if !ok {
		logger.WarnCtx(ctx, "dropping angle from unknown locator", logger.Reason("locator %q is not configured", ev.LocatorID))
		d.metrics.RecordEvent(ResultDroppedUnknownLocator)
		telemetry.SetStatus(ctx, codes.Error, "unknown locator")
		return
	}

	tag, created, ok := d.registry.GetOrCreate(ev.TagID, d.newTag)
	if !ok {
		logger.WarnCtx(ctx, "dropping angle, tag table saturated", logger.Reason("max_tags %d reached", d.registry.MaxTags()))
		d.metrics.RecordEvent(ResultDroppedTagSaturated)
		telemetry.SetStatus(ctx, codes.Error, "tag table saturated")
		return
	}
	if created {
		d.metrics.SetTagsActive(d.registry.Count())
	}

	evicted := tag.Window.EvictStale(ev.Angle.Sequence)
	if evicted {
		d.metrics.RecordStaleness()
	}

	slotIdx := tag.Window.LocateSlot(ev.Angle.Sequence)
	tag.Window.InsertOrMerge(ev.Angle, slotIdx, locIdx)

	ripe, lastFired, fired := tag.Window.FlushRipe(slotIdx, d.schedule)
	if !fired {
		d.metrics.RecordEvent(ResultProcessed)
		return
	}

	handle, _ := tag.EstimatorState.(*estimator.Handle)
	lastCleared := -1
	for _, r := range ripe {
		if err := d.fireSlot(ctx, tag, handle, r); err != nil {
			logger.ErrorCtx(ctx, "aborting event after slot pipeline error", logger.Err(err))
			// ripe is ordered oldest-to-newest; everything before r already
			// published successfully and must be cleared so it can't be
			// found ripe and re-fired on a later event, even though r
			// itself (and anything after it) never fired.
			tag.Window.ClearThrough(lastCleared)
			return
		}
		lastCleared = r.Index
	}

	tag.Window.ClearThrough(lastFired)
	d.metrics.RecordEvent(ResultProcessed)
}

// fireSlot runs estimation and publish for one ripe slot: spec.md §4.3(d)
// steps 1-3 plus the EstimatorAdapter/PublisherAdapter pipelines they
// delegate to (§4.6, §4.7).
func (d *Dispatcher) fireSlot(ctx context.Context, tag *registry.Tag, handle *estimator.Handle, r window.RipeSlot) error {
	estCtx, estSpan := telemetry.StartSpan(ctx, "multilocator.estimate")
	start := time.Now()
	pos, err := handle.RunEstimation(r.Slot, tag.Window.OldestSequence, tag.Window.HasOldestSequence(), tag.Window.MaxDiff, d.cfg.IntervalSec)
	d.metrics.ObserveEstimationDuration(time.Since(start).Seconds())
	estSpan.End()
	if err != nil {
		telemetry.RecordError(estCtx, err)
		d.metrics.RecordEvent(ResultDroppedEstimatorError)
		return fmt.Errorf("estimate slot %d: %w", r.Index, err)
	}
	d.metrics.RecordSlotFired()

	tag.Window.SetOldestSequence(uint16(r.Slot.Sequence))

	pubCtx, pubSpan := telemetry.StartSpan(ctx, "multilocator.publish")
	pubStart := time.Now()
	wire := position.Position{X: pos.X, Y: pos.Y, Z: pos.Z}
	err = d.egress.Publish(pubCtx, tag.ID, wire)
	d.metrics.ObservePublishDuration(time.Since(pubStart).Seconds())
	pubSpan.End()
	if err != nil {
		telemetry.RecordError(pubCtx, err)
		d.metrics.RecordEvent(ResultDroppedPublishError)
		return fmt.Errorf("publish slot %d: %w", r.Index, err)
	}
	d.metrics.RecordPositionPublished()

	return nil
}
