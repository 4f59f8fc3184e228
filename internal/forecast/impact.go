package forecast

import "time"

// Impact is the peak demand multiplier within a window and the event behind it.
type Impact struct {
	Multiplier float64
	EventName  string
}

// NoImpact is the baseline used when no event raises demand.
func NoImpact() Impact {
	return Impact{Multiplier: 1.0}
}

// ResolveImpact picks the event with the strictly greatest multiplier among
// events dated within [windowStart, windowStart+windowDays]. Ties keep the
// earlier event in the slice.
func ResolveImpact(events []Event, windowStart time.Time, windowDays int) Impact {
	first := dateOf(windowStart)
	last := first.AddDate(0, 0, windowDays)

	best := NoImpact()
	for _, ev := range events {
		day := dateOf(ev.Date)
		if day.Before(first) || day.After(last) {
			continue
		}
		if ev.ImpactMultiplier > best.Multiplier {
			best = Impact{Multiplier: ev.ImpactMultiplier, EventName: ev.Name}
		}
	}
	return best
}

// dateOf truncates t to its calendar day in t's own location, returned in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
