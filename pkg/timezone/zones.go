package timezone

import "time"

// IsValid reports whether tz names a zone the runtime's timezone database
// knows. The empty string is rejected explicitly because LoadLocation
// treats it as UTC.
func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// DisplayName returns a short human label for the zone at the current
// instant, e.g. "EST" or "BST". Anything unresolvable comes back
// unchanged so callers can always render something.
func DisplayName(tz string) string {
	return DisplayNameAt(tz, time.Now())
}

// DisplayNameAt is DisplayName with an explicit instant, so DST-sensitive
// labels are reproducible in tests.
func DisplayNameAt(tz string, at time.Time) string {
	if tz == "" {
		return tz
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return tz
	}
	name, _ := at.In(loc).Zone()
	if name == "" {
		return tz
	}
	return name
}

// OffsetHours returns the zone's current UTC offset in hours, DST
// included. Invalid zones return 0.
func OffsetHours(tz string) float64 {
	return OffsetHoursAt(tz, time.Now())
}

// OffsetHoursAt is OffsetHours with an explicit instant. Half-hour zones
// like Asia/Kolkata come back fractional.
func OffsetHoursAt(tz string, at time.Time) float64 {
	if tz == "" {
		return 0
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0
	}
	_, offsetSeconds := at.In(loc).Zone()
	return float64(offsetSeconds) / 3600
}
