// Package timing implements the per-contact best-time-to-message model:
// hour-of-week response-probability estimation with Bayesian smoothing,
// hierarchical shrinkage, recency decay, and diversity-filtered ranking.
package timing

import "time"

// HoursPerWeek is the number of hour-of-week bins. Bin 0 is Monday 00:00
// in the contact's local timezone; bin 167 is Sunday 23:00.
const HoursPerWeek = 168

// EventType tags what happened in a contact interaction.
type EventType string

const (
	EventMessageSent EventType = "message_sent"
	EventReply       EventType = "reply"
	EventClick       EventType = "click"
	EventOpen        EventType = "open"
)

// ContactEvent is one observed interaction with a contact.
type ContactEvent struct {
	Type EventType `json:"event_type"`

	// OccurredAt is the absolute instant of the event, timezone independent.
	OccurredAt time.Time `json:"event_timestamp"`

	// RespondedAt is the instant a reply to this event arrived, if any.
	RespondedAt *time.Time `json:"response_timestamp,omitempty"`

	// Outbound marks events the business initiated (a send attempt).
	Outbound bool `json:"is_outbound"`

	// Success marks positive signals (reply, click, open).
	Success bool `json:"is_success"`

	// SuccessWeight in [0,1] grades how strong a success signal this is.
	// Zero means "use the canonical weight for the event type".
	SuccessWeight float64 `json:"success_weight"`

	// HourOfWeek in [0,167] is day*24+hour in the contact's local
	// timezone, recomputed by the caller before every estimator run.
	HourOfWeek int `json:"hour_of_week"`
}

// Config holds the immutable tunables for one estimator run. Every field
// is required; the estimator applies no implicit defaults. Validation is
// the owner's job before a run begins.
type Config struct {
	// LambdaFast and LambdaSlow are exponential decay rates per day for
	// the fast-learning and slow-stabilizing recency weightings.
	LambdaFast float64 `json:"lambda_fast"`
	LambdaSlow float64 `json:"lambda_slow"`

	// AlphaPrior and BetaPrior are Beta-distribution pseudo-counts used
	// to smooth sparse bins.
	AlphaPrior float64 `json:"alpha_prior"`
	BetaPrior  float64 `json:"beta_prior"`

	// HierarchicalKappa is the strength, in pseudo-observations, with
	// which a segment prior pulls a contact bin toward the population rate.
	HierarchicalKappa float64 `json:"hierarchical_kappa"`

	// EpsilonExploration reserves score mass for under-sampled bins.
	EpsilonExploration float64 `json:"epsilon_exploration"`

	// Canonical success weights applied when an event carries none.
	SuccessWeightReply float64 `json:"success_weight_reply"`
	SuccessWeightClick float64 `json:"success_weight_click"`
	SuccessWeightOpen  float64 `json:"success_weight_open"`

	// SurvivalGamma is the decay exponent penalizing bins the longer it
	// has been since the contact's last positive signal.
	SurvivalGamma float64 `json:"survival_gamma"`

	// TopKWindows is the number of ranked windows to return.
	TopKWindows int `json:"top_k_windows"`

	// MinSpacingHours is the minimum circular distance between any two
	// returned windows.
	MinSpacingHours int `json:"min_spacing_hours"`

	// Attempt caps are not enforced here; they ride through to the result
	// as context for send schedulers.
	DailyAttemptCap  int `json:"daily_attempt_cap"`
	WeeklyAttemptCap int `json:"weekly_attempt_cap"`

	// SuccessWindowHours is how long after an outbound attempt a response
	// still counts as attributable success.
	SuccessWindowHours float64 `json:"success_window_hours"`

	// W1Confidence, W2Recency and W3Priority combine max confidence,
	// recency and priority into the composite score. They need not sum
	// to 1; normalization is the caller's concern.
	W1Confidence float64 `json:"w1_confidence"`
	W2Recency    float64 `json:"w2_recency"`
	W3Priority   float64 `json:"w3_priority"`
}

// DefaultConfig returns the tuning the platform ships with. Callers that
// persist per-page overrides start from this and patch fields.
func DefaultConfig() Config {
	return Config{
		LambdaFast:         0.15,
		LambdaSlow:         0.02,
		AlphaPrior:         1.0,
		BetaPrior:          9.0,
		HierarchicalKappa:  10.0,
		EpsilonExploration: 0.05,
		SuccessWeightReply: 1.0,
		SuccessWeightClick: 0.5,
		SuccessWeightOpen:  0.25,
		SurvivalGamma:      0.03,
		TopKWindows:        5,
		MinSpacingHours:    4,
		DailyAttemptCap:    2,
		WeeklyAttemptCap:   6,
		SuccessWindowHours: 24,
		W1Confidence:       0.5,
		W2Recency:          0.3,
		W3Priority:         0.2,
	}
}

// SegmentPrior carries aggregate response statistics for one hour-of-week
// bin across a population of contacts (segment or global level).
type SegmentPrior struct {
	HourOfWeek   int     `json:"hour_of_week"`
	TrialsCount  float64 `json:"trials_count"`
	SuccessCount float64 `json:"success_count"`
	ResponseRate float64 `json:"response_rate"`
}

// Bin is the per-contact state of one hour-of-week bin after a run.
type Bin struct {
	HourOfWeek int `json:"hour_of_week"`

	// Trials and Successes are recency-weighted counts, so fractional.
	Trials    float64 `json:"trials_count"`
	Successes float64 `json:"success_count"`

	// Raw is Successes/Trials, zero when the bin has no trials.
	Raw float64 `json:"raw_probability"`

	// Smoothed is the Beta-smoothed estimate, shrunk toward the segment
	// prior when one exists for this bin. Always in [0,1].
	Smoothed float64 `json:"smoothed_probability"`

	// Calibrated is Smoothed after survival decay and the exploration
	// bonus; it is the score the ranking sorts on.
	Calibrated float64 `json:"calibrated_probability"`
}

// Window is one recommended contact slot.
type Window struct {
	HourOfWeek int     `json:"hour_of_week"`
	Day        int     `json:"day"`  // 0 = Monday
	Hour       int     `json:"hour"` // 0-23 local
	Score      float64 `json:"score"`
}

// Input bundles everything one estimator run consumes. All data arrives
// upfront; Compute reads no clock and mutates nothing it is handed.
type Input struct {
	// Events already localized to hour-of-week bins by the caller.
	Events []ContactEvent

	// SegmentPriors maps hour-of-week to population statistics. Nil or
	// sparse maps are fine; bins without a prior keep their own estimate.
	SegmentPriors map[int]SegmentPrior

	Config Config

	// LastPositiveSignalAt is the contact's most recent reply/click/open,
	// nil when the contact has never engaged. Absence carries no penalty.
	LastPositiveSignalAt *time.Time

	// PriorityScore is caller-computed and opaque to the model.
	PriorityScore float64

	// Now anchors all age computations so runs are reproducible.
	Now time.Time
}

// Result is the output of one estimator run.
type Result struct {
	// Bins always holds all 168 entries, empty ones included.
	Bins []Bin `json:"bins"`

	// RecommendedWindows is ranked, diversity filtered, and at most
	// TopKWindows long.
	RecommendedWindows []Window `json:"recommended_windows"`

	MaxConfidence float64 `json:"max_confidence"`

	// RecencyScore grows from 0 toward 1 as the last outbound attempt
	// recedes into the past: a high score signals room to re-engage.
	RecencyScore float64 `json:"recency_score"`

	// PriorityScore echoes the input.
	PriorityScore float64 `json:"priority_score"`

	CompositeScore float64 `json:"composite_score"`

	// Caps ride through from config for downstream send schedulers.
	DailyAttemptCap  int `json:"daily_attempt_cap"`
	WeeklyAttemptCap int `json:"weekly_attempt_cap"`
}
