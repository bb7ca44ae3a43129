// Package cadence wires timezone inference and the contact-timing
// estimator into one evaluation over a contact snapshot. The CLI and the
// API server both drive this engine; the statistical core underneath
// stays pure.
package cadence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/replymint/cadence/pkg/timing"
	"github.com/replymint/cadence/pkg/timezone"
)

// LocationResolver is the optional LLM fallback for locations the static
// city table misses.
type LocationResolver interface {
	Resolve(ctx context.Context, locationText string) (timezone.Inference, error)
}

// Snapshot is one contact's state as the platform sync layer hands it
// over: profile signals plus the raw interaction history. Timestamps are
// absolute; hour-of-week bins are recomputed here on every evaluation.
type Snapshot struct {
	ContactID            string                `json:"contact_id"`
	LocationText         string                `json:"location_text,omitempty"`
	Locale               string                `json:"locale,omitempty"`
	DefaultTimezone      string                `json:"default_timezone,omitempty"`
	PriorityScore        float64               `json:"priority_score"`
	LastPositiveSignalAt *time.Time            `json:"last_positive_signal_at,omitempty"`
	Events               []timing.ContactEvent `json:"events"`
	SegmentPriors        []timing.SegmentPrior `json:"segment_priors,omitempty"`

	// Config overrides the shipped defaults when present.
	Config *timing.Config `json:"config,omitempty"`
}

// EffectiveConfig returns the snapshot's config override, or the shipped
// defaults when none is set.
func (s Snapshot) EffectiveConfig() timing.Config {
	if s.Config != nil {
		return *s.Config
	}
	return timing.DefaultConfig()
}

// Evaluation is the full outcome for one contact.
type Evaluation struct {
	ContactID string             `json:"contact_id"`
	Timezone  timezone.Inference `json:"timezone"`
	Result    timing.Result      `json:"result"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocationResolver plugs in the LLM location fallback.
func WithLocationResolver(r LocationResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// Engine evaluates contact snapshots. Safe for concurrent use: it holds
// no per-evaluation state.
type Engine struct {
	logger   *slog.Logger
	resolver LocationResolver
}

// New builds an Engine.
func New(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate infers the contact's timezone, localizes the event history
// into hour-of-week bins, and runs the estimator. now anchors every age
// computation so repeated runs over the same snapshot agree.
func (e *Engine) Evaluate(ctx context.Context, snap Snapshot, now time.Time) (Evaluation, error) {
	timestamps := make([]time.Time, 0, len(snap.Events))
	for _, ev := range snap.Events {
		if !ev.OccurredAt.IsZero() {
			timestamps = append(timestamps, ev.OccurredAt)
		}
	}

	defaultTZ := snap.DefaultTimezone
	if !timezone.IsValid(defaultTZ) {
		defaultTZ = "UTC"
	}

	inference := timezone.InferBest(timestamps, snap.LocationText, snap.Locale, defaultTZ)

	// The LLM fallback only runs when the cheap signals came up empty and
	// there is location text it could do better with.
	if inference.Confidence == timezone.ConfidenceLow && e.resolver != nil && snap.LocationText != "" {
		resolved, err := e.resolver.Resolve(ctx, snap.LocationText)
		switch {
		case err != nil:
			e.logger.Debug("location resolver declined", "contact", snap.ContactID, "error", err)
		case timezone.IsValid(resolved.Timezone):
			inference = resolved
		}
	}

	loc, err := time.LoadLocation(inference.Timezone)
	if err != nil {
		// Inference output should always validate; treat failure as a bug
		// worth logging but keep the evaluation total.
		e.logger.Warn("inferred zone failed to load, using UTC",
			"contact", snap.ContactID, "timezone", inference.Timezone, "error", err)
		loc = time.UTC
	}

	cfg := snap.EffectiveConfig()

	priors := make(map[int]timing.SegmentPrior, len(snap.SegmentPriors))
	for _, p := range snap.SegmentPriors {
		if p.HourOfWeek < 0 || p.HourOfWeek >= timing.HoursPerWeek {
			return Evaluation{}, fmt.Errorf("segment prior bin %d out of range", p.HourOfWeek)
		}
		priors[p.HourOfWeek] = p
	}

	result := timing.Compute(timing.Input{
		Events:               timing.LocalizeEvents(snap.Events, loc),
		SegmentPriors:        priors,
		Config:               cfg,
		LastPositiveSignalAt: snap.LastPositiveSignalAt,
		PriorityScore:        snap.PriorityScore,
		Now:                  now,
	})

	e.logger.Debug("evaluated contact",
		"contact", snap.ContactID,
		"timezone", inference.Timezone,
		"confidence", inference.Confidence,
		"windows", len(result.RecommendedWindows),
		"composite", result.CompositeScore)

	return Evaluation{
		ContactID: snap.ContactID,
		Timezone:  inference,
		Result:    result,
	}, nil
}
