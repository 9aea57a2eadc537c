// Package icsexport renders a computed day as an iCalendar feed.
package icsexport

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
)

const productID = "-//clevery//dayplanner//EN"

type Options struct {
	// Namespace keeps UIDs unique across accounts.
	Namespace   string
	Stamp       time.Time
	IncludeFree bool
	// ShowNames puts item names in busy summaries instead of "Busy".
	ShowNames bool
	Names     map[string]string
}

// Build returns a calendar with one opaque VEVENT per busy interval and, when
// requested, one transparent VEVENT per free interval.
func Build(window availability.DayWindow, busy []availability.BusyInterval, free []availability.FreeInterval, opts Options) *ical.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "local"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Availability " + window.String())
	cal.SetXWRTimezone(window.Location().String())

	for i, b := range busy {
		ev := cal.AddEvent(fmt.Sprintf("%s-%s-busy-%d-%s@dayplanner", ns, window.String(), i, b.SourceID))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(b.Start)
		ev.SetEndAt(b.End)
		ev.SetSummary(busySummary(b, opts))
		ev.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(b.SourceKind.String()))
		ev.SetProperty(ical.ComponentProperty("TRANSP"), "OPAQUE")
		if b.OverflowsDay {
			ev.SetDescription("Continues past the end of the day.")
		}
	}
	if opts.IncludeFree {
		for i, f := range free {
			ev := cal.AddEvent(fmt.Sprintf("%s-%s-free-%d@dayplanner", ns, window.String(), i))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(f.Start)
			ev.SetEndAt(f.End)
			ev.SetSummary("Free")
			ev.SetProperty(ical.ComponentPropertyCategories, "FREE")
			ev.SetProperty(ical.ComponentProperty("TRANSP"), "TRANSPARENT")
		}
	}
	return cal
}

// Export serializes Build's calendar.
func Export(window availability.DayWindow, busy []availability.BusyInterval, free []availability.FreeInterval, opts Options) string {
	return Build(window, busy, free, opts).Serialize()
}

func busySummary(b availability.BusyInterval, opts Options) string {
	if opts.ShowNames {
		if name := strings.TrimSpace(opts.Names[b.SourceID]); name != "" {
			return name
		}
	}
	return "Busy"
}
