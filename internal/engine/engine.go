// Package engine turns momentary geometric matches into debounced,
// idempotently published interaction events. Each context (one per camera)
// holds a map of tracked entities fed asynchronously by the detection feed
// and a map of event records reconciled on a periodic tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cobryan05/Yolo2Mqtt/internal/matcher"
	"github.com/cobryan05/Yolo2Mqtt/internal/observability/metrics"
	"github.com/cobryan05/Yolo2Mqtt/internal/tracked"
)

// Event identifies one interaction occurrence: the template name plus the
// ordered labels that filled its slots. Identity is the label sequence;
// different physical entities producing the same sequence are the same
// event.
type Event struct {
	Name  string
	Slots []string
}

// Key returns the canonical identity "name/slot1/slot2/...". It doubles as
// the event's topic path segment.
func (ev Event) Key() string {
	return strings.Join(append([]string{ev.Name}, ev.Slots...), "/")
}

// Emitter receives event state transitions. Implementations deliver them
// outward (MQTT, logs, tests). A returned error is logged and dropped: a
// failed delivery never rolls back the state transition that caused it.
type Emitter interface {
	Activated(contextName string, event Event) error
	Cleared(contextName string, event Event) error
}

// eventRecord is the per-key debounce state. Lifecycle: created on first
// sighting (pending), published once sustained past MinSustain, removed
// once absent longer than ExpireAfter. A pending record that expires
// before sustaining is dropped without ever emitting.
type eventRecord struct {
	event     Event
	first     time.Time
	last      time.Time
	published bool
}

// Context is an isolated per-source universe of entities and events.
type Context struct {
	name     string
	entities map[string]*tracked.Entity
	events   map[string]*eventRecord
}

// Engine owns all contexts and reconciles matcher output against event
// records. Ingestion (UpdateEntity/RemoveEntity) and evaluation are
// serialized by a single mutex; all work is in-memory and CPU-bound.
type Engine struct {
	mu        sync.Mutex
	contexts  map[string]*Context
	matcher   *matcher.Matcher
	templates map[string]matcher.Template
	emitter   Emitter
	logger    *slog.Logger
	metrics   *metrics.TrackerMetrics

	// now is sampled once per evaluation pass so every key evaluated in
	// the same tick sees a consistent clock. Overridable in tests.
	now func() time.Time
}

// New creates an engine for the given interaction templates. trackerMetrics
// may be nil when telemetry is disabled.
func New(templates []matcher.Template, emitter Emitter, logger *slog.Logger, trackerMetrics *metrics.TrackerMetrics) (*Engine, error) {
	m, err := matcher.New(templates)
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}

	byName := make(map[string]matcher.Template, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
		if len(t.Slots) > 2 {
			logger.Warn("interaction template has more than two slots and can never fully match",
				"interaction", t.Name, "slots", len(t.Slots))
		}
	}

	return &Engine{
		contexts:  make(map[string]*Context),
		matcher:   m,
		templates: byName,
		emitter:   emitter,
		logger:    logger,
		metrics:   trackerMetrics,
		now:       time.Now,
	}, nil
}

// UpdateEntity stores the latest entity snapshot for an object id,
// creating the context on first sight of a new source name.
func (e *Engine) UpdateEntity(contextName, id string, rec tracked.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, ok := e.contexts[contextName]
	if !ok {
		ctx = &Context{
			name:     contextName,
			entities: make(map[string]*tracked.Entity),
			events:   make(map[string]*eventRecord),
		}
		e.contexts[contextName] = ctx
	}

	if _, known := ctx.entities[id]; !known {
		e.logger.Info("tracking new object", "context", contextName, "id", id,
			"label", rec.Label, "tracked", len(ctx.entities)+1)
	}
	ctx.entities[id] = tracked.FromRecord(rec)

	if e.metrics != nil {
		e.metrics.IncrementDetectionsReceived()
		e.metrics.SetTrackedEntities(e.entityCountLocked())
	}
}

// RemoveEntity drops an object id from a context. Unknown contexts and ids
// are ignored.
func (e *Engine) RemoveEntity(contextName, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, ok := e.contexts[contextName]
	if !ok {
		return
	}
	if _, known := ctx.entities[id]; known {
		delete(ctx.entities, id)
		e.logger.Info("removed object", "context", contextName, "id", id,
			"tracked", len(ctx.entities))
	}

	if e.metrics != nil {
		e.metrics.SetTrackedEntities(e.entityCountLocked())
	}
}

func (e *Engine) entityCountLocked() int {
	var n int
	for _, ctx := range e.contexts {
		n += len(ctx.entities)
	}
	return n
}

// Evaluate runs one reconciliation tick over every context. The returned
// error is fatal (pathological slot configuration); transient emit
// failures are logged and swallowed.
func (e *Engine) Evaluate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	start := time.Now()

	for _, ctx := range e.contexts {
		if err := e.evaluateContext(ctx, now); err != nil {
			return fmt.Errorf("context %q: %w", ctx.name, err)
		}
	}

	if e.metrics != nil {
		e.metrics.ObserveEvaluationDuration(time.Since(start).Seconds())
		e.metrics.SetActiveEvents(e.activeEventCountLocked())
	}
	return nil
}

func (e *Engine) evaluateContext(ctx *Context, now time.Time) error {
	snapshot := make([]*tracked.Entity, 0, len(ctx.entities))
	ids := make([]string, 0, len(ctx.entities))
	for id := range ctx.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snapshot = append(snapshot, ctx.entities[id])
	}

	matches, err := e.matcher.FindMatches(snapshot)
	if err != nil {
		return err
	}

	// Several slot permutations can resolve to the same key within one
	// tick; only the first occurrence counts. This collapsing is
	// intentional.
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		event := Event{Name: match.Template.Name, Slots: match.Labels}
		key := event.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		rec, ok := ctx.events[key]
		if !ok {
			rec = &eventRecord{event: event, first: now}
			ctx.events[key] = rec
			e.logger.Debug("event pending", "context", ctx.name, "event", key)
		} else if !rec.published && now.Sub(rec.first) >= match.Template.MinSustain {
			rec.published = true
			e.emitActivated(ctx.name, event)
		}
		rec.last = now
	}

	// Expire keys absent from this tick.
	for key, rec := range ctx.events {
		if _, active := seen[key]; active {
			continue
		}
		// A template removed from the configuration makes its records
		// immediately expirable.
		var expireAfter time.Duration
		if tmpl, ok := e.templates[rec.event.Name]; ok {
			expireAfter = tmpl.ExpireAfter
		}
		if now.Sub(rec.last) > expireAfter {
			if rec.published {
				e.emitCleared(ctx.name, rec.event)
			}
			delete(ctx.events, key)
		}
	}

	return nil
}

func (e *Engine) emitActivated(contextName string, event Event) {
	e.logger.Info("event activated", "context", contextName, "event", event.Key())
	if e.metrics != nil {
		e.metrics.IncrementActivations()
	}
	if err := e.emitter.Activated(contextName, event); err != nil {
		e.logger.Error("failed to emit activation", "context", contextName,
			"event", event.Key(), "error", err)
	}
}

func (e *Engine) emitCleared(contextName string, event Event) {
	e.logger.Info("event cleared", "context", contextName, "event", event.Key())
	if e.metrics != nil {
		e.metrics.IncrementClears()
	}
	if err := e.emitter.Cleared(contextName, event); err != nil {
		e.logger.Error("failed to emit clear", "context", contextName,
			"event", event.Key(), "error", err)
	}
}

func (e *Engine) activeEventCountLocked() int {
	var n int
	for _, ctx := range e.contexts {
		for _, rec := range ctx.events {
			if rec.published {
				n++
			}
		}
	}
	return n
}
