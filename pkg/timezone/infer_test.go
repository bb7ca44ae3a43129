package timezone

import (
	"testing"
	"time"
)

// stampsAtUTCHour builds n timestamps all falling in the same UTC hour,
// spread across different days so the fixture looks like real traffic.
func stampsAtUTCHour(hour, n int) []time.Time {
	base := time.Date(2025, 3, 3, hour, 12, 0, 0, time.UTC)
	stamps := make([]time.Time, n)
	for i := range stamps {
		stamps[i] = base.AddDate(0, 0, i)
	}
	return stamps
}

func TestInferFromActivity(t *testing.T) {
	tests := []struct {
		name           string
		timestamps     []time.Time
		defaultTZ      string
		wantTimezone   string
		wantConfidence Confidence
		wantSource     string
	}{
		{
			name:           "no timestamps falls back to default",
			timestamps:     nil,
			defaultTZ:      "America/Chicago",
			wantTimezone:   "America/Chicago",
			wantConfidence: ConfidenceLow,
			wantSource:     SourceDefault,
		},
		{
			name:           "one timestamp is below the sample floor",
			timestamps:     stampsAtUTCHour(14, 1),
			defaultTZ:      "UTC",
			wantTimezone:   "UTC",
			wantConfidence: ConfidenceLow,
			wantSource:     SourceDefault,
		},
		{
			name:           "three samples at UTC 14 give a medium Eastern read",
			timestamps:     stampsAtUTCHour(14, 3),
			defaultTZ:      "UTC",
			wantTimezone:   "America/New_York",
			wantConfidence: ConfidenceMedium,
			wantSource:     SourceActivity,
		},
		{
			name:           "ten samples at UTC 14 upgrade to high",
			timestamps:     stampsAtUTCHour(14, 10),
			defaultTZ:      "UTC",
			wantTimezone:   "America/New_York",
			wantConfidence: ConfidenceHigh,
			wantSource:     SourceActivity,
		},
		{
			name:           "ten samples at UTC 8 read as London",
			timestamps:     stampsAtUTCHour(8, 10),
			defaultTZ:      "UTC",
			wantTimezone:   "Europe/London",
			wantConfidence: ConfidenceHigh,
			wantSource:     SourceActivity,
		},
		{
			name:           "ten samples at UTC 18 read as Pacific",
			timestamps:     stampsAtUTCHour(18, 10),
			defaultTZ:      "UTC",
			wantTimezone:   "America/Los_Angeles",
			wantConfidence: ConfidenceHigh,
			wantSource:     SourceActivity,
		},
		{
			name:           "ten samples at UTC 5 read as Kolkata",
			timestamps:     stampsAtUTCHour(5, 10),
			defaultTZ:      "UTC",
			wantTimezone:   "Asia/Kolkata",
			wantConfidence: ConfidenceHigh,
			wantSource:     SourceActivity,
		},
		{
			name:           "ten samples at UTC 2 read as Singapore",
			timestamps:     stampsAtUTCHour(2, 10),
			defaultTZ:      "UTC",
			wantTimezone:   "Asia/Singapore",
			wantConfidence: ConfidenceHigh,
			wantSource:     SourceActivity,
		},
		{
			name: "peak outside every covered band falls back",
			// Peak at UTC 11 is a zero shift, which no band covers.
			timestamps:     stampsAtUTCHour(11, 10),
			defaultTZ:      "Europe/Paris",
			wantTimezone:   "Europe/Paris",
			wantConfidence: ConfidenceLow,
			wantSource:     SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferFromActivity(tt.timestamps, tt.defaultTZ)
			if got.Timezone != tt.wantTimezone {
				t.Errorf("Timezone = %q, want %q", got.Timezone, tt.wantTimezone)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %q, want %q", got.Confidence, tt.wantConfidence)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
		})
	}
}

func TestInferFromActivityModalTieBreak(t *testing.T) {
	// Equal counts at UTC 8 and UTC 14: the scan from hour 0 keeps the
	// earlier peak, so the London band wins deterministically.
	stamps := append(stampsAtUTCHour(8, 5), stampsAtUTCHour(14, 5)...)
	got := InferFromActivity(stamps, "UTC")
	if got.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want Europe/London", got.Timezone)
	}
}

func TestInferFromProfile(t *testing.T) {
	tests := []struct {
		name           string
		location       string
		locale         string
		wantTimezone   string
		wantConfidence Confidence
		wantSource     string
	}{
		{"new york with state", "New York, NY", "", "America/New_York", ConfidenceHigh, SourceLocation},
		{"uppercase new york", "NEW YORK", "", "America/New_York", ConfidenceHigh, SourceLocation},
		{"lowercase new york", "new york", "", "America/New_York", ConfidenceHigh, SourceLocation},
		{"mumbai", "Mumbai, India", "", "Asia/Kolkata", ConfidenceHigh, SourceLocation},
		{"singapore", "Singapore", "", "Asia/Singapore", ConfidenceHigh, SourceLocation},
		{"london", "London, UK", "", "Europe/London", ConfidenceHigh, SourceLocation},
		{"paris", "Paris, France", "", "Europe/Paris", ConfidenceHigh, SourceLocation},
		{"berlin", "Berlin", "", "Europe/Berlin", ConfidenceHigh, SourceLocation},
		{"tokyo", "Tokyo, Japan", "", "Asia/Tokyo", ConfidenceHigh, SourceLocation},
		{"sydney", "Sydney, Australia", "", "Australia/Sydney", ConfidenceHigh, SourceLocation},
		{"locale only", "", "en_GB", "Europe/London", ConfidenceHigh, SourceLocation},
		{"unknown location", "Atlantis", "", "UTC", ConfidenceLow, SourceDefault},
		{"no input at all", "", "", "UTC", ConfidenceLow, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferFromProfile(tt.location, tt.locale)
			if got.Timezone != tt.wantTimezone {
				t.Errorf("Timezone = %q, want %q", got.Timezone, tt.wantTimezone)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %q, want %q", got.Confidence, tt.wantConfidence)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
		})
	}
}

func TestInferBest(t *testing.T) {
	tests := []struct {
		name         string
		timestamps   []time.Time
		location     string
		locale       string
		defaultTZ    string
		wantTimezone string
		wantSource   string
	}{
		{
			name: "high profile beats high activity that disagrees",
			// Activity says Eastern, the stated location says Tokyo.
			timestamps:   stampsAtUTCHour(14, 10),
			location:     "Tokyo, Japan",
			defaultTZ:    "UTC",
			wantTimezone: "Asia/Tokyo",
			wantSource:   SourceLocation,
		},
		{
			name:         "high activity beats missing profile",
			timestamps:   stampsAtUTCHour(14, 10),
			defaultTZ:    "UTC",
			wantTimezone: "America/New_York",
			wantSource:   SourceActivity,
		},
		{
			name:         "medium activity beats low profile",
			timestamps:   stampsAtUTCHour(8, 4),
			location:     "Atlantis",
			defaultTZ:    "UTC",
			wantTimezone: "Europe/London",
			wantSource:   SourceActivity,
		},
		{
			name:         "equal low confidence prefers the profile result",
			timestamps:   stampsAtUTCHour(11, 10), // uncovered band, low
			location:     "Atlantis",
			defaultTZ:    "America/Chicago",
			wantTimezone: "UTC",
			wantSource:   SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferBest(tt.timestamps, tt.location, tt.locale, tt.defaultTZ)
			if got.Timezone != tt.wantTimezone {
				t.Errorf("Timezone = %q, want %q", got.Timezone, tt.wantTimezone)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
		})
	}
}
