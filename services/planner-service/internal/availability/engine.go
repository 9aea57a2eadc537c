package availability

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// ComputeAvailability returns the parts of the window not covered by any busy
// interval, in ascending order. The result does not depend on input order.
func ComputeAvailability(window DayWindow, busy ...[]BusyInterval) []FreeInterval {
	sorted := ClipAndSort(window, busy...)

	free := make([]FreeInterval, 0, len(sorted)+1)
	cursor := window.Start()
	for _, b := range sorted {
		if b.Start.After(cursor) {
			free = append(free, FreeInterval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End()) {
		free = append(free, FreeInterval{Start: cursor, End: window.End()})
	}
	return free
}

// ClipAndSort merges the collections, clips each interval to the window, drops
// what falls outside it and sorts by start, end, source id and source kind.
func ClipAndSort(window DayWindow, busy ...[]BusyInterval) []BusyInterval {
	n := 0
	for _, group := range busy {
		n += len(group)
	}
	out := make([]BusyInterval, 0, n)
	for _, group := range busy {
		for _, b := range group {
			if b.Start.Before(window.Start()) {
				b.Start = window.Start()
			}
			if b.End.After(window.End()) {
				b.End = window.End()
			}
			if !b.Start.Before(b.End) {
				continue
			}
			out = append(out, b)
		}
	}
	slices.SortFunc(out, compareBusy)
	return out
}

func compareBusy(a, b BusyInterval) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := a.End.Compare(b.End); c != 0 {
		return c
	}
	if c := strings.Compare(a.SourceID, b.SourceID); c != 0 {
		return c
	}
	return cmp.Compare(a.SourceKind, b.SourceKind)
}

// Coalesce merges overlapping or touching busy intervals into blocks.
func Coalesce(window DayWindow, busy ...[]BusyInterval) []FreeInterval {
	sorted := ClipAndSort(window, busy...)
	var blocks []FreeInterval
	for _, b := range sorted {
		if n := len(blocks); n > 0 && !b.Start.After(blocks[n-1].End) {
			if b.End.After(blocks[n-1].End) {
				blocks[n-1].End = b.End
			}
			continue
		}
		blocks = append(blocks, FreeInterval{Start: b.Start, End: b.End})
	}
	return blocks
}

// Summary aggregates a computed day.
type Summary struct {
	BusyMinutes      int
	FreeMinutes      int
	OverflowCount    int
	LargestFreeBlock FreeInterval
}

func Summarize(window DayWindow, busy []BusyInterval, free []FreeInterval) Summary {
	var s Summary
	var busyTotal, freeTotal time.Duration
	for _, blk := range Coalesce(window, busy) {
		busyTotal += blk.Duration()
	}
	for _, b := range busy {
		if b.OverflowsDay {
			s.OverflowCount++
		}
	}
	for _, f := range free {
		freeTotal += f.Duration()
		if f.Duration() > s.LargestFreeBlock.Duration() {
			s.LargestFreeBlock = f
		}
	}
	s.BusyMinutes = int(busyTotal / time.Minute)
	s.FreeMinutes = int(freeTotal / time.Minute)
	return s
}

func minuteDuration(m int) time.Duration { return time.Duration(m) * time.Minute }
