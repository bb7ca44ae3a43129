package timing

import "time"

// HourOfWeek maps an instant to its hour-of-week bin in the given
// location. Bin 0 is Monday 00:00 local; the week wraps at Sunday 23:00.
func HourOfWeek(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	// time.Weekday puts Sunday first; shift so Monday is day 0.
	day := (int(lt.Weekday()) + 6) % 7
	return day*24 + lt.Hour()
}

// LocalizeEvents returns a copy of events with HourOfWeek recomputed in
// the given location. Stale bins from an earlier timezone guess must never
// reach the estimator, so callers re-localize before every run.
func LocalizeEvents(events []ContactEvent, loc *time.Location) []ContactEvent {
	out := make([]ContactEvent, len(events))
	for i, e := range events {
		e.HourOfWeek = HourOfWeek(e.OccurredAt, loc)
		out[i] = e
	}
	return out
}
