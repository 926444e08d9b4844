package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/store"
)

// fakeStarter records pipeline starts instead of generating.
type fakeStarter struct {
	mu  sync.Mutex
	ids []uint
}

func (f *fakeStarter) Start(ebookID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ebookID)
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func newTestWorker(t *testing.T, llm providers.LLMClient) (*Worker, *store.Store, *fakeStarter) {
	t.Helper()
	s, err := store.Open(store.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	starter := &fakeStarter{}
	if llm == nil {
		llm = providers.NewMockClient()
	}
	w := NewWorker(Config{
		Store:              s,
		Pipeline:           starter,
		LLM:                llm,
		DefaultNumChapters: 5,
	})
	return w, s, starter
}

func baseSchedule(due time.Time) *store.Schedule {
	return &store.Schedule{
		UserID:      1,
		Name:        "test schedule",
		Frequency:   store.FrequencyDaily,
		TotalEbooks: 10,
		ThemeMode:   store.ThemeModeSingle,
		SingleTheme: "Gardening",
		Author:      "Ana",
		Languages:   "pt,en",
		Active:      true,
		NextRunAt:   due,
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("due schedule creates an ebook and advances", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		due := time.Now().Add(-time.Minute)
		sched := baseSchedule(due)
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 1 {
			t.Fatalf("pipeline starts = %d, want 1", starter.count())
		}

		ebooks, _ := s.ListEbooksByUser(ctx, 1)
		if len(ebooks) != 1 {
			t.Fatalf("ebooks = %d, want 1", len(ebooks))
		}
		e := ebooks[0]
		if e.Theme != "Gardening" || e.Author != "Ana" || e.Languages != "pt,en" {
			t.Errorf("ebook = %+v", e)
		}
		if e.NumChapters != 5 {
			t.Errorf("num chapters = %d", e.NumChapters)
		}

		got, _ := s.GetSchedule(ctx, sched.ID)
		if got.GeneratedCount != 1 {
			t.Errorf("generated_count = %d, want 1", got.GeneratedCount)
		}
		if !got.NextRunAt.After(time.Now()) {
			t.Errorf("next_run_at = %v, want future", got.NextRunAt)
		}
		if got.LastRunAt == nil {
			t.Error("last_run_at not stamped")
		}
	})

	t.Run("future schedule is untouched", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(time.Hour))
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 0 {
			t.Errorf("pipeline starts = %d, want 0", starter.count())
		}
	})

	t.Run("second sweep does not double-run", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)
		w.Sweep(ctx)

		if starter.count() != 1 {
			t.Errorf("pipeline starts = %d, want 1", starter.count())
		}
	})

	t.Run("exhausted schedule is deactivated without running", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.TotalEbooks = 2
		sched.GeneratedCount = 2
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 0 {
			t.Errorf("pipeline starts = %d, want 0", starter.count())
		}
		got, _ := s.GetSchedule(ctx, sched.ID)
		if got.Active {
			t.Error("schedule should be deactivated")
		}
	})

	t.Run("final run deactivates the schedule", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.TotalEbooks = 1
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 1 {
			t.Fatalf("pipeline starts = %d, want 1", starter.count())
		}
		got, _ := s.GetSchedule(ctx, sched.ID)
		if got.Active {
			t.Error("schedule should deactivate after its final run")
		}
		if got.GeneratedCount != 1 {
			t.Errorf("generated_count = %d", got.GeneratedCount)
		}
	})

	t.Run("invalid languages skip the run", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.Languages = "pt,xx"
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 0 {
			t.Errorf("pipeline starts = %d, want 0", starter.count())
		}
		ebooks, _ := s.ListEbooksByUser(ctx, 1)
		if len(ebooks) != 0 {
			t.Errorf("ebooks = %d, want 0", len(ebooks))
		}
	})
}

func TestThemeModes(t *testing.T) {
	ctx := context.Background()

	t.Run("custom list rotates round-robin", func(t *testing.T) {
		w, s, _ := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.ThemeMode = store.ThemeModeCustom
		sched.SingleTheme = ""
		sched.SetThemes([]string{"A", "B", "C"})
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		// Run five sweeps, forcing the schedule due each time.
		for i := 0; i < 5; i++ {
			if err := s.SetScheduleNextRun(ctx, sched.ID, time.Now().Add(-time.Minute)); err != nil {
				t.Fatal(err)
			}
			w.Sweep(ctx)
		}

		ebooks, _ := s.ListEbooksByUser(ctx, 1)
		if len(ebooks) != 5 {
			t.Fatalf("ebooks = %d, want 5", len(ebooks))
		}
		// ListEbooksByUser is newest-first; reverse into creation order.
		var themes []string
		for i := len(ebooks) - 1; i >= 0; i-- {
			themes = append(themes, ebooks[i].Theme)
		}
		want := []string{"A", "B", "C", "A", "B"}
		for i := range want {
			if themes[i] != want[i] {
				t.Fatalf("themes = %v, want %v", themes, want)
			}
		}
	})

	t.Run("custom list with no themes skips", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.ThemeMode = store.ThemeModeCustom
		sched.SingleTheme = ""
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 0 {
			t.Errorf("pipeline starts = %d, want 0", starter.count())
		}
	})

	t.Run("trending asks the llm for a topic", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.Handler = func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
			parsed, _ := json.Marshal(map[string]any{"topics": []string{"Indoor Hydroponics"}})
			return &providers.ChatResult{Success: true, Content: string(parsed), ParsedJSON: parsed}, nil
		}

		w, s, starter := newTestWorker(t, mock)
		sched := baseSchedule(time.Now().Add(-time.Minute))
		sched.ThemeMode = store.ThemeModeTrending
		sched.SingleTheme = ""
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		w.Sweep(ctx)

		if starter.count() != 1 {
			t.Fatalf("pipeline starts = %d, want 1", starter.count())
		}
		ebooks, _ := s.ListEbooksByUser(ctx, 1)
		if ebooks[0].Theme != "Indoor Hydroponics" {
			t.Errorf("theme = %q", ebooks[0].Theme)
		}
	})
}

func TestTriggerNow(t *testing.T) {
	ctx := context.Background()

	t.Run("runs a schedule immediately", func(t *testing.T) {
		w, s, starter := newTestWorker(t, nil)
		sched := baseSchedule(time.Now().Add(24 * time.Hour))
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		if err := w.TriggerNow(ctx, sched.ID); err != nil {
			t.Fatal(err)
		}
		if starter.count() != 1 {
			t.Errorf("pipeline starts = %d, want 1", starter.count())
		}
	})

	t.Run("rejects inactive schedules", func(t *testing.T) {
		w, s, _ := newTestWorker(t, nil)
		sched := baseSchedule(time.Now())
		sched.Active = false
		if err := s.CreateSchedule(ctx, sched); err != nil {
			t.Fatal(err)
		}

		if err := w.TriggerNow(ctx, sched.ID); err == nil {
			t.Error("expected error for inactive schedule")
		}
	})
}

func TestNextRunAt(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, loc) // Sunday

	tests := []struct {
		name  string
		sched store.Schedule
		want  time.Time
	}{
		{
			name:  "daily without preferred time",
			sched: store.Schedule{Frequency: store.FrequencyDaily},
			want:  time.Date(2025, 6, 16, 14, 30, 0, 0, loc),
		},
		{
			name:  "daily snaps to preferred time",
			sched: store.Schedule{Frequency: store.FrequencyDaily, ScheduledTime: "08:00"},
			want:  time.Date(2025, 6, 16, 8, 0, 0, 0, loc),
		},
		{
			name:  "weekly",
			sched: store.Schedule{Frequency: store.FrequencyWeekly, ScheduledTime: "09:15"},
			want:  time.Date(2025, 6, 22, 9, 15, 0, 0, loc),
		},
		{
			name:  "monthly",
			sched: store.Schedule{Frequency: store.FrequencyMonthly},
			want:  time.Date(2025, 7, 15, 14, 30, 0, 0, loc),
		},
		{
			name:  "malformed time ignored",
			sched: store.Schedule{Frequency: store.FrequencyDaily, ScheduledTime: "not-a-time"},
			want:  time.Date(2025, 6, 16, 14, 30, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRunAt(&tt.sched, now)
			if !got.Equal(tt.want) {
				t.Errorf("NextRunAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeactivatedScheduleIgnoredByRunLoop(t *testing.T) {
	ctx := context.Background()
	w, s, starter := newTestWorker(t, nil)
	sched := baseSchedule(time.Now().Add(-time.Minute))
	if err := s.CreateSchedule(ctx, sched); err != nil {
		t.Fatal(err)
	}
	if err := s.DeactivateSchedule(ctx, sched.ID); err != nil {
		t.Fatal(err)
	}

	w.Sweep(ctx)

	if starter.count() != 0 {
		t.Errorf("pipeline starts = %d, want 0", starter.count())
	}
}
