package availability

import "time"

// Slots returns start times on the step grid of the window where a block of
// length duration fits entirely inside one free interval. Starts before now
// are skipped.
func Slots(window DayWindow, free []FreeInterval, duration, step time.Duration, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for _, f := range free {
		if f.Start.Add(duration).After(f.End) {
			continue
		}
		for t := alignUp(window.Start(), f.Start, step); !t.Add(duration).After(f.End); t = t.Add(step) {
			if t.Before(now) {
				continue
			}
			slots = append(slots, t)
		}
	}
	return slots
}

func alignUp(origin, t time.Time, step time.Duration) time.Time {
	off := t.Sub(origin)
	if off <= 0 {
		return origin
	}
	if rem := off % step; rem != 0 {
		off += step - rem
	}
	return origin.Add(off)
}
