package timing

import (
	"math"
	"sort"
	"time"
)

const hoursPerDay = 24.0

// recencyHalfLifeDays controls how fast RecencyScore saturates toward 1
// as the last outbound attempt ages. At 7 days without an attempt the
// score reaches ~0.63.
const recencyHalfLifeDays = 7.0

// Compute runs the full estimation pipeline for one contact. It is a pure
// function of its input: no clock reads, no I/O, no mutation of anything
// it receives. Callers evaluating many contacts can fan out invocations
// freely.
func Compute(in Input) Result {
	cfg := in.Config
	bins := aggregateBins(in)

	decay := survivalDecay(cfg.SurvivalGamma, in.LastPositiveSignalAt, in.Now)
	for i := range bins {
		b := &bins[i]
		b.Smoothed = smoothBin(b, cfg, in.SegmentPriors)
		// Calibrated folds in both the survival decay and the
		// exploration bonus for under-sampled bins.
		bonus := explorationBonus(cfg.EpsilonExploration, b.Trials)
		b.Calibrated = clamp01(b.Smoothed*decay + bonus)
	}

	order := rankBins(bins)
	windows := selectWindows(bins, order, cfg.TopKWindows, cfg.MinSpacingHours)

	recency := recencyScore(lastAttemptAt(in.Events), in.Now)
	maxConfidence := bins[order[0]].Calibrated
	composite := cfg.W1Confidence*maxConfidence +
		cfg.W2Recency*recency +
		cfg.W3Priority*in.PriorityScore

	return Result{
		Bins:               bins,
		RecommendedWindows: windows,
		MaxConfidence:      maxConfidence,
		RecencyScore:       recency,
		PriorityScore:      in.PriorityScore,
		CompositeScore:     composite,
		DailyAttemptCap:    cfg.DailyAttemptCap,
		WeeklyAttemptCap:   cfg.WeeklyAttemptCap,
	}
}

// eventWeight blends the fast and slow exponential decays into one recency
// weight. The blend is the arithmetic mean of the two kernels: the fast
// term reacts to recent behavior while the slow term keeps long-run signal
// from washing out entirely. This choice is fixed; changing it changes
// every downstream number.
func eventWeight(cfg Config, occurredAt, now time.Time) float64 {
	ageDays := now.Sub(occurredAt).Hours() / hoursPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	fast := math.Exp(-cfg.LambdaFast * ageDays)
	slow := math.Exp(-cfg.LambdaSlow * ageDays)
	return (fast + slow) / 2
}

// successWeight resolves the signal strength of a success event, falling
// back to the canonical per-type weight when the event carries none.
func successWeight(cfg Config, e ContactEvent) float64 {
	if e.SuccessWeight > 0 {
		return e.SuccessWeight
	}
	switch e.Type {
	case EventClick:
		return cfg.SuccessWeightClick
	case EventOpen:
		return cfg.SuccessWeightOpen
	default:
		// Replies and anything unclassified count at full reply strength.
		return cfg.SuccessWeightReply
	}
}

// aggregateBins groups events into the 168 hour-of-week bins with
// recency-weighted trial and success counts.
//
// An outbound event adds its recency weight to its bin's trials. Success
// mass accrues two ways, matching the two encodings the sync layer emits:
// an outbound event carrying RespondedAt within SuccessWindowHours credits
// its own bin at reply strength, and a standalone success event credits
// its bin when an outbound attempt exists in the same bin no more than
// SuccessWindowHours before it.
func aggregateBins(in Input) []Bin {
	cfg := in.Config
	bins := make([]Bin, HoursPerWeek)
	for h := range bins {
		bins[h].HourOfWeek = h
	}

	// Outbound attempt instants per bin, for success attribution.
	attempts := make(map[int][]time.Time)
	for _, e := range in.Events {
		if e.Outbound && e.HourOfWeek >= 0 && e.HourOfWeek < HoursPerWeek {
			attempts[e.HourOfWeek] = append(attempts[e.HourOfWeek], e.OccurredAt)
		}
	}

	window := time.Duration(cfg.SuccessWindowHours * float64(time.Hour))
	for _, e := range in.Events {
		if e.HourOfWeek < 0 || e.HourOfWeek >= HoursPerWeek {
			continue // caller bug; skip rather than corrupt a bin
		}
		w := eventWeight(cfg, e.OccurredAt, in.Now)
		b := &bins[e.HourOfWeek]

		if e.Outbound {
			b.Trials += w
			if e.RespondedAt != nil {
				lag := e.RespondedAt.Sub(e.OccurredAt)
				if lag >= 0 && lag <= window {
					b.Successes += w * cfg.SuccessWeightReply
				}
			}
			continue
		}

		if e.Success && attributable(e.OccurredAt, attempts[e.HourOfWeek], window) {
			b.Successes += w * successWeight(cfg, e)
		}
	}

	for i := range bins {
		if bins[i].Trials > 0 {
			bins[i].Raw = bins[i].Successes / bins[i].Trials
		}
	}
	return bins
}

// attributable reports whether a success at t follows any attempt in the
// same bin within the attribution window.
func attributable(t time.Time, attempts []time.Time, window time.Duration) bool {
	for _, at := range attempts {
		lag := t.Sub(at)
		if lag >= 0 && lag <= window {
			return true
		}
	}
	return false
}

// smoothBin applies Beta smoothing and, when a segment prior exists for
// the bin, shrinks the estimate toward the population response rate with
// strength HierarchicalKappa relative to the contact's own trial mass.
func smoothBin(b *Bin, cfg Config, priors map[int]SegmentPrior) float64 {
	smoothed := (b.Successes + cfg.AlphaPrior) / (b.Trials + cfg.AlphaPrior + cfg.BetaPrior)
	smoothed = clamp01(smoothed)

	if prior, ok := priors[b.HourOfWeek]; ok {
		denom := cfg.HierarchicalKappa + b.Trials
		if denom > 0 {
			smoothed = (cfg.HierarchicalKappa*prior.ResponseRate + b.Trials*smoothed) / denom
			smoothed = clamp01(smoothed)
		}
	}
	return smoothed
}

// survivalDecay penalizes the whole profile the longer the contact has
// gone without a positive signal. A contact with no history of positive
// signals is not penalized at all: absence of history is not evidence of
// disengagement.
func survivalDecay(gamma float64, lastPositive *time.Time, now time.Time) float64 {
	if lastPositive == nil {
		return 1
	}
	days := now.Sub(*lastPositive).Hours() / hoursPerDay
	if days < 0 {
		days = 0
	}
	return math.Exp(-gamma * days)
}

// explorationBonus lifts under-sampled bins so the ranking keeps probing
// windows the model has barely tried. The bonus fades as trial mass grows.
func explorationBonus(epsilon, trials float64) float64 {
	if epsilon <= 0 {
		return 0
	}
	return epsilon / (1 + trials)
}

// rankBins returns bin indices sorted by calibrated score descending.
// Ties break on higher trial mass, then lower hour-of-week, so the order
// is fully deterministic even on a flat no-data profile.
func rankBins(bins []Bin) []int {
	order := make([]int, len(bins))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := bins[order[i]], bins[order[j]]
		if a.Calibrated != b.Calibrated {
			return a.Calibrated > b.Calibrated
		}
		if a.Trials != b.Trials {
			return a.Trials > b.Trials
		}
		return a.HourOfWeek < b.HourOfWeek
	})
	return order
}

// selectWindows walks the ranked bins greedily, keeping a bin only when it
// sits at least minSpacing hours (circular, mod 168) from every window
// already accepted, until topK windows are chosen or the list runs out.
func selectWindows(bins []Bin, order []int, topK, minSpacing int) []Window {
	windows := make([]Window, 0, max(topK, 0))
	for _, idx := range order {
		if len(windows) >= topK {
			break
		}
		h := bins[idx].HourOfWeek
		tooClose := false
		for _, w := range windows {
			if CircularDistance(h, w.HourOfWeek) < minSpacing {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		windows = append(windows, Window{
			HourOfWeek: h,
			Day:        h / 24,
			Hour:       h % 24,
			Score:      bins[idx].Calibrated,
		})
	}
	return windows
}

// CircularDistance returns the shortest distance between two hour-of-week
// bins on the 168-hour ring, so Sunday 23:00 and Monday 00:00 are one
// hour apart.
func CircularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= HoursPerWeek
	if d > HoursPerWeek/2 {
		d = HoursPerWeek - d
	}
	return d
}

// lastAttemptAt finds the newest outbound event, or nil when the contact
// has never been messaged.
func lastAttemptAt(events []ContactEvent) *time.Time {
	var last *time.Time
	for i := range events {
		e := &events[i]
		if !e.Outbound {
			continue
		}
		if last == nil || e.OccurredAt.After(*last) {
			last = &e.OccurredAt
		}
	}
	return last
}

// recencyScore maps time since the last outbound attempt onto [0,1).
// The score rises as the attempt recedes: 0 right after a send, ~0.63 at
// seven days, saturating toward 1. A contact never messaged scores 1,
// maximum re-engagement opportunity.
func recencyScore(lastAttempt *time.Time, now time.Time) float64 {
	if lastAttempt == nil {
		return 1
	}
	days := now.Sub(*lastAttempt).Hours() / hoursPerDay
	if days < 0 {
		days = 0
	}
	return 1 - math.Exp(-days/recencyHalfLifeDays)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
