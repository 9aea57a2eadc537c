package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
)

const clock = "15:04"

func writeReport(w io.Writer, res dayResult, slots []time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "date\t%s (%s)\n", res.Window, res.Window.Location())

	fmt.Fprintln(tw, "\nBUSY\tSTART\tEND\tKIND\tNAME")
	for _, b := range res.Busy {
		end := b.End.Format(clock)
		if b.OverflowsDay {
			end += " (overflow)"
		}
		fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\n", b.Start.Format(clock), end, b.SourceKind, res.Names[b.SourceID])
	}

	fmt.Fprintln(tw, "\nFREE\tSTART\tEND\tMINUTES\t")
	for _, f := range res.Free {
		fmt.Fprintf(tw, "\t%s\t%s\t%d\t\n", f.Start.Format(clock), f.End.Format(clock), minutes(f.Duration()))
	}

	if len(slots) > 0 {
		fmt.Fprintln(tw, "\nSLOTS\t\t\t\t")
		for _, s := range slots {
			fmt.Fprintf(tw, "\t%s\t\t\t\n", s.Format(clock))
		}
	}

	if len(res.Problems) > 0 {
		fmt.Fprintln(tw, "\nWARNINGS\t\t\t\t")
		for _, p := range res.Problems {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\t%v\n", p.RecordID, p.Kind, p.Name, p.Err)
		}
	}

	s := availability.Summarize(res.Window, res.Busy, res.Free)
	fmt.Fprintf(tw, "\nsummary\tbusy=%dm free=%dm largest=%dm overflows=%d\n",
		s.BusyMinutes, s.FreeMinutes, minutes(s.LargestFreeBlock.Duration()), s.OverflowCount)
	return tw.Flush()
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
