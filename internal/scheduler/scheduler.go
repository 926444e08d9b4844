// Package scheduler runs the recurring generation worker: it sweeps due
// schedules, claims them, resolves the theme for the run, creates the ebook
// job, and advances the schedule's cadence.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/folio/internal/generator"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/translator"
)

// DefaultInterval is the sweep cadence.
const DefaultInterval = time.Minute

// Starter launches a generation job for an ebook row.
type Starter interface {
	Start(ebookID uint)
}

// Config wires the worker's dependencies.
type Config struct {
	Store    *store.Store
	Pipeline Starter
	LLM      providers.LLMClient // used for trending theme lookups
	Logger   *slog.Logger
	Interval time.Duration

	// DefaultNumChapters is used for scheduled ebooks.
	DefaultNumChapters int
}

// Worker sweeps and executes due schedules.
type Worker struct {
	store       *store.Store
	pipeline    Starter
	gen         *generator.Generator
	logger      *slog.Logger
	interval    time.Duration
	numChapters int

	now func() time.Time
}

// NewWorker creates a scheduler worker.
func NewWorker(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		store:       cfg.Store,
		pipeline:    cfg.Pipeline,
		gen:         generator.New(cfg.LLM, logger),
		logger:      logger,
		interval:    interval,
		numChapters: generator.ClampChapters(cfg.DefaultNumChapters),
		now:         time.Now,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("scheduler started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep processes every schedule that is due right now.
func (w *Worker) Sweep(ctx context.Context) {
	now := w.now()
	due, err := w.store.ListDueSchedules(ctx, now)
	if err != nil {
		w.logger.Error("failed to list due schedules", "error", err)
		return
	}

	for i := range due {
		w.processSchedule(ctx, &due[i], now)
	}
}

// TriggerNow forces a schedule to run on the next sweep and sweeps
// immediately.
func (w *Worker) TriggerNow(ctx context.Context, scheduleID uint) error {
	sched, err := w.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if !sched.Active {
		return fmt.Errorf("schedule %d is not active", scheduleID)
	}
	if err := w.store.SetScheduleNextRun(ctx, scheduleID, w.now()); err != nil {
		return err
	}
	w.Sweep(ctx)
	return nil
}

// processSchedule handles one due schedule: completion check, claim, theme
// resolution, job creation, progress advance.
func (w *Worker) processSchedule(ctx context.Context, sched *store.Schedule, now time.Time) {
	log := w.logger.With("schedule_id", sched.ID, "name", sched.Name)

	if sched.TotalEbooks > 0 && sched.GeneratedCount >= sched.TotalEbooks {
		log.Info("schedule complete, deactivating",
			"generated", sched.GeneratedCount, "total", sched.TotalEbooks)
		if err := w.store.DeactivateSchedule(ctx, sched.ID); err != nil {
			log.Error("failed to deactivate schedule", "error", err)
		}
		return
	}

	next := NextRunAt(sched, now)
	claimed, err := w.store.ClaimSchedule(ctx, sched.ID, sched.NextRunAt, next)
	if err != nil {
		log.Error("failed to claim schedule", "error", err)
		return
	}
	if !claimed {
		// Another instance claimed this run first.
		log.Debug("schedule already claimed")
		return
	}

	theme, err := w.resolveTheme(ctx, sched)
	if err != nil {
		log.Error("failed to resolve theme, skipping run", "error", err)
		return
	}

	languages := sched.LanguageCodes()
	if err := translator.ValidateCodes(languages); err != nil {
		log.Error("schedule has invalid languages, skipping run", "error", err)
		return
	}

	e := &store.Ebook{
		UserID:      sched.UserID,
		Theme:       theme,
		Author:      sched.Author,
		Languages:   sched.Languages,
		NumChapters: w.numChapters,
		Status:      store.StatusProcessing,
	}
	if err := w.store.CreateEbook(ctx, e); err != nil {
		log.Error("failed to create scheduled ebook", "error", err)
		return
	}

	w.pipeline.Start(e.ID)

	if err := w.store.AdvanceSchedule(ctx, sched.ID, now); err != nil {
		log.Error("failed to advance schedule", "error", err)
	}

	if sched.TotalEbooks > 0 && sched.GeneratedCount+1 >= sched.TotalEbooks {
		log.Info("schedule reached its total, deactivating")
		if err := w.store.DeactivateSchedule(ctx, sched.ID); err != nil {
			log.Error("failed to deactivate schedule", "error", err)
		}
	}

	log.Info("scheduled generation started",
		"ebook_id", e.ID,
		"theme", theme,
		"next_run", next)
}

// resolveTheme picks the theme for this run according to the schedule's mode.
func (w *Worker) resolveTheme(ctx context.Context, sched *store.Schedule) (string, error) {
	switch sched.ThemeMode {
	case store.ThemeModeSingle:
		if sched.SingleTheme == "" {
			return "", fmt.Errorf("single_theme schedule has no theme")
		}
		return sched.SingleTheme, nil

	case store.ThemeModeCustom:
		themes := sched.ThemeList()
		if len(themes) == 0 {
			return "", fmt.Errorf("custom_list schedule has no themes")
		}
		// Round-robin through the list by progress count.
		return themes[sched.GeneratedCount%len(themes)], nil

	case store.ThemeModeTrending:
		langs := sched.LanguageCodes()
		lang := "en"
		if len(langs) > 0 {
			lang = langs[0]
		}
		return w.gen.NextTrendingTopic(ctx, lang)

	default:
		return "", fmt.Errorf("unknown theme mode: %s", sched.ThemeMode)
	}
}

// NextRunAt computes the next run time: one cadence step from now, snapped to
// the schedule's preferred time of day when one is set.
func NextRunAt(sched *store.Schedule, now time.Time) time.Time {
	base := now
	if sched.ScheduledTime != "" {
		if t, err := time.Parse("15:04", sched.ScheduledTime); err == nil {
			base = time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), 0, 0, now.Location())
		}
	}

	switch sched.Frequency {
	case store.FrequencyDaily:
		return base.AddDate(0, 0, 1)
	case store.FrequencyWeekly:
		return base.AddDate(0, 0, 7)
	case store.FrequencyMonthly:
		return base.AddDate(0, 1, 0)
	default:
		return base.AddDate(0, 0, 1)
	}
}
