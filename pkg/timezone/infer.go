// Package timezone infers a contact's IANA timezone from weak signals:
// message-activity timestamps and free-text profile location or locale.
// Every operation is total; missing or garbage input produces a
// low-confidence default, never an error.
package timezone

import (
	"strings"
	"time"
)

// Confidence grades how much an inference should be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Inference provenance tags.
const (
	SourceActivity = "activity"
	SourceLocation = "location"
	SourceDefault  = "default"
)

// Inference is a best-guess timezone with an honest confidence label and
// the signal it came from.
type Inference struct {
	Timezone   string     `json:"timezone"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
}

// Minimum timestamps before activity inference is attempted, and the
// count at which a table match is trusted as high confidence.
const (
	minActivitySamples  = 3
	highActivitySamples = 10
)

// assumedPeakLocalHour is the local hour the modal activity peak is
// assumed to represent: late morning, when most people are awake and
// responsive on their phones.
const assumedPeakLocalHour = 11

// InferFromActivity guesses a timezone from the UTC hour-of-day
// distribution of a contact's message timestamps. Fewer than three
// samples, or a peak outside every covered delta range, falls back to
// defaultTZ at low confidence.
//
// The heuristic is deliberately coarse: the modal UTC hour is treated as
// the contact's local late-morning peak and the implied shift is looked up
// in a sparse table of representative zones. Many shifts map to no zone at
// all; that coverage gap is intentional, not a defect to paper over.
func InferFromActivity(timestamps []time.Time, defaultTZ string) Inference {
	if len(timestamps) < minActivitySamples {
		return Inference{Timezone: defaultTZ, Confidence: ConfidenceLow, Source: SourceDefault}
	}

	var hourCounts [24]int
	for _, ts := range timestamps {
		hourCounts[ts.UTC().Hour()]++
	}

	// Modal hour; ties break on the earliest hour scanning 0..23.
	peak := 0
	for h := 1; h < 24; h++ {
		if hourCounts[h] > hourCounts[peak] {
			peak = h
		}
	}

	delta := (peak - assumedPeakLocalHour + 24) % 24
	zone, ok := zoneForDelta(delta)
	if !ok {
		return Inference{Timezone: defaultTZ, Confidence: ConfidenceLow, Source: SourceDefault}
	}

	confidence := ConfidenceMedium
	if len(timestamps) >= highActivitySamples {
		confidence = ConfidenceHigh
	}
	return Inference{Timezone: zone, Confidence: confidence, Source: SourceActivity}
}

// InferFromProfile matches free-text location and locale against the
// curated city/region table. Any match is high confidence; no usable
// input yields UTC at low confidence.
func InferFromProfile(location, locale string) Inference {
	combined := strings.ToLower(strings.TrimSpace(location + " " + locale))
	if combined != "" {
		for _, entry := range cityZones {
			if strings.Contains(combined, entry.pattern) {
				return Inference{Timezone: entry.zone, Confidence: ConfidenceHigh, Source: SourceLocation}
			}
		}
	}
	return Inference{Timezone: "UTC", Confidence: ConfidenceLow, Source: SourceDefault}
}

// InferBest combines profile and activity inference. Profile wins
// outright at high confidence; otherwise a high-confidence activity read
// wins; otherwise the higher confidence of the two, with profile as the
// tie-break since an explicit location is a more deterministic signal
// than inferred behavior.
func InferBest(timestamps []time.Time, location, locale, defaultTZ string) Inference {
	profile := InferFromProfile(location, locale)
	if profile.Confidence == ConfidenceHigh {
		return profile
	}

	activity := InferFromActivity(timestamps, defaultTZ)
	if activity.Confidence == ConfidenceHigh {
		return activity
	}

	if confidenceRank(activity.Confidence) > confidenceRank(profile.Confidence) {
		return activity
	}
	return profile
}

func confidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}
