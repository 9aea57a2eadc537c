// Package agenda emits a daily availability summary for every account.
package agenda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clevery/dayplanner/services/planner-service/internal/availability"
	"github.com/clevery/dayplanner/services/planner-service/internal/outbox"
	"github.com/clevery/dayplanner/services/planner-service/internal/planner"
	"github.com/robfig/cron/v3"
)

type Accounts interface {
	ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

type Planner interface {
	Today(ctx context.Context, accountID string) (time.Time, error)
	DayAvailability(ctx context.Context, accountID string, date time.Time) (planner.Availability, error)
}

type EventSink interface {
	Emit(ctx context.Context, evt outbox.Event) error
}

type Config struct {
	Schedule  string
	Location  *time.Location
	BatchSize int
}

type Job struct {
	accounts  Accounts
	planner   Planner
	sink      EventSink
	logger    *slog.Logger
	schedule  string
	location  *time.Location
	batchSize int
}

func NewJob(accounts Accounts, p Planner, sink EventSink, logger *slog.Logger, cfg Config) (*Job, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 6 * * *"
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("agenda schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Job{
		accounts:  accounts,
		planner:   p,
		sink:      sink,
		logger:    logger,
		schedule:  cfg.Schedule,
		location:  cfg.Location,
		batchSize: cfg.BatchSize,
	}, nil
}

// Run fires RunOnce on the schedule until ctx is done. Overlapping runs are skipped.
func (j *Job) Run(ctx context.Context) {
	c := cron.New(
		cron.WithLocation(j.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(j.schedule, func() {
		n, err := j.RunOnce(ctx)
		if err != nil {
			j.logger.Error("agenda run failed", "err", err, "emitted", n)
			return
		}
		j.logger.Info("agenda run finished", "emitted", n)
	})
	if err != nil {
		j.logger.Error("agenda schedule rejected", "err", err)
		return
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

type freeBlock struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

type dailyAgenda struct {
	AccountID        string     `json:"account_id"`
	Date             string     `json:"date"`
	Timezone         string     `json:"timezone"`
	BusyMinutes      int        `json:"busy_minutes"`
	FreeMinutes      int        `json:"free_minutes"`
	OverflowCount    int        `json:"overflow_count"`
	ProblemCount     int        `json:"problem_count"`
	LargestFreeBlock *freeBlock `json:"largest_free_block,omitempty"`
}

// RunOnce emits one agenda event per account. Failures for a single account
// are logged and skipped; listing failures abort the run.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	emitted := 0
	after := ""
	for {
		ids, err := j.accounts.ListAccountIDs(ctx, after, j.batchSize)
		if err != nil {
			return emitted, fmt.Errorf("list accounts: %w", err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return emitted, err
			}
			if err := j.emitFor(ctx, id); err != nil {
				j.logger.Warn("agenda skipped account", "account_id", id, "err", err)
				continue
			}
			emitted++
		}
		if len(ids) < j.batchSize {
			return emitted, nil
		}
		after = ids[len(ids)-1]
	}
}

func (j *Job) emitFor(ctx context.Context, accountID string) error {
	today, err := j.planner.Today(ctx, accountID)
	if err != nil {
		return err
	}
	day, err := j.planner.DayAvailability(planner.WithCaller(ctx, "agenda"), accountID, today)
	if err != nil {
		return err
	}

	evt, err := outbox.NewEvent("account", accountID, outbox.AgendaDaily, summaryPayload(accountID, day))
	if err != nil {
		return err
	}
	return j.sink.Emit(ctx, evt)
}

func summaryPayload(accountID string, day planner.Availability) dailyAgenda {
	s := availability.Summarize(day.Window, day.Busy, day.Free)
	out := dailyAgenda{
		AccountID:     accountID,
		Date:          day.Window.String(),
		Timezone:      day.Window.Location().String(),
		BusyMinutes:   s.BusyMinutes,
		FreeMinutes:   s.FreeMinutes,
		OverflowCount: s.OverflowCount,
		ProblemCount:  len(day.Problems),
	}
	if s.LargestFreeBlock.Duration() > 0 {
		out.LargestFreeBlock = &freeBlock{
			Start:   s.LargestFreeBlock.Start.Format(time.RFC3339),
			End:     s.LargestFreeBlock.End.Format(time.RFC3339),
			Minutes: int(s.LargestFreeBlock.Duration() / time.Minute),
		}
	}
	return out
}
