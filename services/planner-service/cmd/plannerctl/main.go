// Command plannerctl computes a day's availability from a YAML file of items,
// without a database.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/clevery/dayplanner/libs/runtime"
	"github.com/clevery/dayplanner/services/planner-service/internal/icsexport"
	"github.com/spf13/cobra"
)

var version = "dev"

type dayFlags struct {
	file     string
	date     string
	tz       string
	duration int
	step     int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "plannerctl",
		Short:        "Inspect daily availability for a set of scheduled items",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.AddCommand(newAvailabilityCmd(), newICSCmd(), newVersionCmd())
	return root
}

func bindDayFlags(cmd *cobra.Command, f *dayFlags) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "YAML file with timezone and items")
	cmd.Flags().StringVar(&f.date, "date", "", "day to compute (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.tz, "tz", "", "IANA timezone, overrides the file")
	_ = cmd.MarkFlagRequired("file")
}

func newAvailabilityCmd() *cobra.Command {
	var f dayFlags
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Print busy and free intervals for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := loadDay(f, time.Now())
			if err != nil {
				return err
			}
			logProblems(res)
			var slots []time.Time
			if f.duration > 0 {
				step := f.step
				if step <= 0 {
					step = 15
				}
				slots = slotsFor(res, time.Duration(f.duration)*time.Minute, time.Duration(step)*time.Minute)
			}
			return writeReport(cmd.OutOrStdout(), res, slots)
		},
	}
	bindDayFlags(cmd, &f)
	cmd.Flags().IntVar(&f.duration, "duration", 0, "list start times for a block of this many minutes")
	cmd.Flags().IntVar(&f.step, "step", 15, "slot grid in minutes")
	return cmd
}

func newICSCmd() *cobra.Command {
	var (
		f         dayFlags
		withFree  bool
		showNames bool
	)
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the day as an iCalendar feed to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := loadDay(f, time.Now())
			if err != nil {
				return err
			}
			logProblems(res)
			_, err = io.WriteString(cmd.OutOrStdout(), icsexport.Export(res.Window, res.Busy, res.Free, icsexport.Options{
				Namespace:   "plannerctl",
				IncludeFree: withFree,
				ShowNames:   showNames,
				Names:       res.Names,
			}))
			return err
		},
	}
	bindDayFlags(cmd, &f)
	cmd.Flags().BoolVar(&withFree, "free", true, "include free blocks as transparent events")
	cmd.Flags().BoolVar(&showNames, "names", false, "use item names as busy summaries")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plannerctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func loadDay(f dayFlags, now time.Time) (dayResult, error) {
	fh, err := os.Open(f.file)
	if err != nil {
		return dayResult{}, err
	}
	defer fh.Close()

	items, err := loadItems(fh)
	if err != nil {
		return dayResult{}, err
	}
	loc, err := items.location(f.tz)
	if err != nil {
		return dayResult{}, err
	}
	date := now.In(loc)
	if f.date != "" {
		date, err = time.ParseInLocation(time.DateOnly, f.date, loc)
		if err != nil {
			return dayResult{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
	}
	return computeDay(items, date, loc), nil
}

// logProblems sends rejected items to stderr; the report lists them too.
func logProblems(res dayResult) {
	if len(res.Problems) == 0 {
		return
	}
	logger := runtime.NewLoggerTo(os.Stderr, "plannerctl")
	for _, p := range res.Problems {
		logger.Warn("item skipped", "id", p.RecordID, "kind", p.Kind.String(), "err", p.Err)
	}
}
