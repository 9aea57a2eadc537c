package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/sources"
	"gopkg.in/yaml.v3"
)

// itemFile is the YAML document read by plannerctl.
//
//	timezone: Europe/Berlin
//	items:
//	  - id: gym
//	    kind: routine
//	    name: Gym
//	    time: "07:30"
//	    duration: 60
//	    weekday: Monday
type itemFile struct {
	Timezone string     `yaml:"timezone"`
	Items    []fileItem `yaml:"items"`
}

type fileItem struct {
	ID       string `yaml:"id"`
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	Time     string `yaml:"time"`
	Duration int    `yaml:"duration"`
	// Date limits the item to one day (YYYY-MM-DD).
	Date string `yaml:"date"`
	// Weekday limits the item to one day of the week.
	Weekday string `yaml:"weekday"`
}

func loadItems(r io.Reader) (itemFile, error) {
	var f itemFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return itemFile{}, fmt.Errorf("parse items: %w", err)
	}
	for i, it := range f.Items {
		if strings.TrimSpace(it.ID) == "" {
			f.Items[i].ID = fmt.Sprintf("item-%d", i+1)
		}
		if it.Kind == "" {
			f.Items[i].Kind = availability.SourceActivity.String()
		}
		if _, ok := availability.ParseSourceKind(f.Items[i].Kind); !ok {
			return itemFile{}, fmt.Errorf("item %s: unknown kind %q", f.Items[i].ID, it.Kind)
		}
		if it.Date != "" {
			if _, err := time.Parse(time.DateOnly, it.Date); err != nil {
				return itemFile{}, fmt.Errorf("item %s: invalid date %q", f.Items[i].ID, it.Date)
			}
		}
		if it.Weekday != "" {
			if _, ok := sources.ParseWeekday(it.Weekday); !ok {
				return itemFile{}, fmt.Errorf("item %s: invalid weekday %q", f.Items[i].ID, it.Weekday)
			}
		}
	}
	return f, nil
}

// location resolves the zone flag, then the file's timezone, then UTC.
func (f itemFile) location(override string) (*time.Location, error) {
	name := strings.TrimSpace(override)
	if name == "" {
		name = strings.TrimSpace(f.Timezone)
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

func (f itemFile) recordsFor(date time.Time) ([]availability.Record, map[string]string) {
	key := date.Format(time.DateOnly)
	records := make([]availability.Record, 0, len(f.Items))
	names := make(map[string]string, len(f.Items))
	for _, it := range f.Items {
		if it.Date != "" && it.Date != key {
			continue
		}
		if it.Weekday != "" {
			if wd, _ := sources.ParseWeekday(it.Weekday); wd != date.Weekday() {
				continue
			}
		}
		kind, _ := availability.ParseSourceKind(it.Kind)
		records = append(records, availability.Record{
			ID:              it.ID,
			Kind:            kind,
			Name:            it.Name,
			TimeOfDay:       it.Time,
			DurationMinutes: it.Duration,
		})
		names[it.ID] = it.Name
	}
	return records, names
}

type dayResult struct {
	Window   availability.DayWindow
	Busy     []availability.BusyInterval
	Free     []availability.FreeInterval
	Problems []availability.RecordError
	Names    map[string]string
}

func computeDay(f itemFile, date time.Time, loc *time.Location) dayResult {
	window := availability.NewDayWindow(date, loc)
	records, names := f.recordsFor(window.Date())
	busy, problems := availability.NormalizeAll(records, window)
	return dayResult{
		Window:   window,
		Busy:     availability.ClipAndSort(window, busy),
		Free:     availability.ComputeAvailability(window, busy),
		Problems: problems,
		Names:    names,
	}
}

// slotsFor lists candidate starts over the whole day; the CLI does not skip past times.
func slotsFor(res dayResult, duration, step time.Duration) []time.Time {
	return availability.Slots(res.Window, res.Free, duration, step, time.Time{})
}
