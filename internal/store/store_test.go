package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEbookLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("create defaults to processing", func(t *testing.T) {
		e := &Ebook{UserID: 1, Theme: "Home Gardening", Author: "Ana", Languages: "pt,en", NumChapters: 5}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatalf("CreateEbook: %v", err)
		}
		if e.ID == 0 {
			t.Fatal("expected assigned ID")
		}
		got, err := s.GetEbook(ctx, e.ID)
		if err != nil {
			t.Fatalf("GetEbook: %v", err)
		}
		if got.Status != StatusProcessing {
			t.Errorf("status = %q, want %q", got.Status, StatusProcessing)
		}
		if codes := got.LanguageCodes(); len(codes) != 2 || codes[0] != "pt" {
			t.Errorf("LanguageCodes = %v, want [pt en]", codes)
		}
	})

	t.Run("complete is write-once", func(t *testing.T) {
		e := &Ebook{UserID: 1, Theme: "Chess Openings"}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}
		if err := s.CompleteEbook(ctx, e.ID, "Chess for Beginners", "e.epub", "p.pdf", "c.png", "{}"); err != nil {
			t.Fatalf("CompleteEbook: %v", err)
		}
		// A late failure report must not overwrite the completed state.
		if err := s.FailEbook(ctx, e.ID, "late failure"); err != nil {
			t.Fatalf("FailEbook: %v", err)
		}
		got, _ := s.GetEbook(ctx, e.ID)
		if got.Status != StatusCompleted {
			t.Errorf("status = %q, want %q after late failure report", got.Status, StatusCompleted)
		}
		if got.Title != "Chess for Beginners" {
			t.Errorf("title = %q", got.Title)
		}
		if got.ErrorMessage != "" {
			t.Errorf("error_message = %q, want empty", got.ErrorMessage)
		}
	})

	t.Run("fail is write-once", func(t *testing.T) {
		e := &Ebook{UserID: 1, Theme: "Bread Baking"}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}
		if err := s.FailEbook(ctx, e.ID, "all languages failed"); err != nil {
			t.Fatal(err)
		}
		if err := s.CompleteEbook(ctx, e.ID, "Bread", "", "", "", ""); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetEbook(ctx, e.ID)
		if got.Status != StatusFailed {
			t.Errorf("status = %q, want %q", got.Status, StatusFailed)
		}
	})

	t.Run("list scoped to owner", func(t *testing.T) {
		if err := s.CreateEbook(ctx, &Ebook{UserID: 42, Theme: "Astronomy"}); err != nil {
			t.Fatal(err)
		}
		mine, err := s.ListEbooksByUser(ctx, 42)
		if err != nil {
			t.Fatal(err)
		}
		if len(mine) != 1 {
			t.Fatalf("got %d ebooks for user 42, want 1", len(mine))
		}
		others, _ := s.ListEbooksByUser(ctx, 9999)
		if len(others) != 0 {
			t.Errorf("got %d ebooks for unknown user, want 0", len(others))
		}
	})

	t.Run("delete removes dependents", func(t *testing.T) {
		e := &Ebook{UserID: 1, Theme: "Woodworking"}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}
		if err := s.CreateEbookFile(ctx, &EbookFile{EbookID: e.ID, LanguageCode: "pt", Status: StatusCompleted}); err != nil {
			t.Fatal(err)
		}
		if err := s.CreateMetadata(ctx, &EbookMetadata{EbookID: e.ID, OptimizedTitle: "Woodworking Made Easy"}); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteEbook(ctx, e.ID); err != nil {
			t.Fatalf("DeleteEbook: %v", err)
		}
		if _, err := s.GetEbook(ctx, e.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetEbook after delete = %v, want ErrNotFound", err)
		}
		files, _ := s.ListEbookFiles(ctx, e.ID)
		if len(files) != 0 {
			t.Errorf("got %d files after delete, want 0", len(files))
		}
		if _, err := s.GetMetadataByEbook(ctx, e.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetMetadataByEbook after delete = %v, want ErrNotFound", err)
		}
		exists, err := s.EbookExists(ctx, e.ID)
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Error("EbookExists = true after delete")
		}
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		if _, err := s.GetEbook(ctx, 123456); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}

func TestMetadataListColumns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := &Ebook{UserID: 1, Theme: "Urban Beekeeping"}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	m := &EbookMetadata{EbookID: e.ID, OptimizedTitle: "Bees in the City"}
	m.SetKeywords([]string{"bees", "urban", "honey"})
	m.SetCategories([]string{"Hobbies", "Nature"})
	if err := s.CreateMetadata(ctx, m); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMetadataByEbook(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	kw := got.KeywordList()
	if len(kw) != 3 || kw[0] != "bees" || kw[2] != "honey" {
		t.Errorf("KeywordList = %v", kw)
	}
	cats := got.CategoryList()
	if len(cats) != 2 || cats[1] != "Nature" {
		t.Errorf("CategoryList = %v", cats)
	}
}

func TestScheduleClaim(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	due := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	next := due.AddDate(0, 0, 1)

	sched := &Schedule{
		UserID:      1,
		Name:        "daily gardening",
		Frequency:   FrequencyDaily,
		TotalEbooks: 10,
		ThemeMode:   ThemeModeSingle,
		SingleTheme: "Gardening",
		Author:      "Ana",
		Languages:   "pt",
		Active:      true,
		NextRunAt:   due,
	}
	if err := s.CreateSchedule(ctx, sched); err != nil {
		t.Fatal(err)
	}

	t.Run("appears in due sweep", func(t *testing.T) {
		got, err := s.ListDueSchedules(ctx, due.Add(time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != sched.ID {
			t.Fatalf("due sweep = %v", got)
		}
	})

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := s.ClaimSchedule(ctx, sched.ID, due, next)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected first claim to succeed")
		}
	})

	t.Run("stale claim loses", func(t *testing.T) {
		// A second worker that observed the same next_run_at must not claim
		// the row again.
		ok, err := s.ClaimSchedule(ctx, sched.ID, due, next)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected stale claim to fail")
		}
	})

	t.Run("claimed schedule leaves the due window", func(t *testing.T) {
		got, err := s.ListDueSchedules(ctx, due.Add(time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Fatalf("due sweep after claim = %v, want empty", got)
		}
	})

	t.Run("advance bumps progress", func(t *testing.T) {
		ranAt := due.Add(2 * time.Second)
		if err := s.AdvanceSchedule(ctx, sched.ID, ranAt); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetSchedule(ctx, sched.ID)
		if got.GeneratedCount != 1 {
			t.Errorf("generated_count = %d, want 1", got.GeneratedCount)
		}
		if got.LastRunAt == nil || !got.LastRunAt.Equal(ranAt) {
			t.Errorf("last_run_at = %v, want %v", got.LastRunAt, ranAt)
		}
	})

	t.Run("deactivated schedule never sweeps", func(t *testing.T) {
		if err := s.SetScheduleNextRun(ctx, sched.ID, due); err != nil {
			t.Fatal(err)
		}
		if err := s.DeactivateSchedule(ctx, sched.ID); err != nil {
			t.Fatal(err)
		}
		got, err := s.ListDueSchedules(ctx, due.Add(time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Fatalf("inactive schedule swept: %v", got)
		}
		ok, err := s.ClaimSchedule(ctx, sched.ID, due, next)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("claimed an inactive schedule")
		}
	})
}

func TestScheduleThemes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sched := &Schedule{
		UserID:      1,
		Name:        "rotation",
		Frequency:   FrequencyWeekly,
		TotalEbooks: 3,
		ThemeMode:   ThemeModeCustom,
		Author:      "Ana",
		Active:      true,
		NextRunAt:   time.Now(),
	}
	sched.SetThemes([]string{"Cooking", "Fitness", "Finance"})
	if err := s.CreateSchedule(ctx, sched); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSchedule(ctx, sched.ID)
	if err != nil {
		t.Fatal(err)
	}
	themes := got.ThemeList()
	if len(themes) != 3 || themes[1] != "Fitness" {
		t.Errorf("ThemeList = %v", themes)
	}
}

func TestPublications(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := &Ebook{UserID: 1, Theme: "Calligraphy"}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	t.Run("create stamps published_at", func(t *testing.T) {
		p := &Publication{EbookID: e.ID, Platform: "amazon_kdp", Published: true}
		if err := s.CreatePublication(ctx, p); err != nil {
			t.Fatal(err)
		}
		if p.PublishedAt.IsZero() {
			t.Error("published_at not stamped")
		}
	})

	t.Run("update missing row returns not found", func(t *testing.T) {
		err := s.UpdatePublication(ctx, 98765, map[string]any{"sales_count": 3})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("update and list", func(t *testing.T) {
		p := &Publication{EbookID: e.ID, Platform: "hotmart"}
		if err := s.CreatePublication(ctx, p); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdatePublication(ctx, p.ID, map[string]any{"sales_count": 7, "revenue": "149.00"}); err != nil {
			t.Fatal(err)
		}
		all, err := s.ListPublicationsByEbook(ctx, e.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Fatalf("got %d publications, want 2", len(all))
		}
		if all[1].SalesCount != 7 || all[1].Revenue != "149.00" {
			t.Errorf("updated row = %+v", all[1])
		}
	})

	t.Run("delete", func(t *testing.T) {
		p := &Publication{EbookID: e.ID, Platform: "eduzz"}
		if err := s.CreatePublication(ctx, p); err != nil {
			t.Fatal(err)
		}
		if err := s.DeletePublication(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
		if err := s.DeletePublication(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete = %v, want ErrNotFound", err)
		}
	})
}

func TestFinancialUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := &Ebook{UserID: 1, Theme: "Sourdough"}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertFinancial(ctx, &FinancialMetric{EbookID: e.ID, TrafficCost: "10.00", Revenue: "50.00"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertFinancial(ctx, &FinancialMetric{EbookID: e.ID, TrafficCost: "12.50", OtherCosts: "3.00", Revenue: "80.00", Notes: "ads"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.GetFinancialByEbook(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TrafficCost != "12.50" || got.Revenue != "80.00" || got.Notes != "ads" {
		t.Errorf("rollup = %+v", got)
	}

	var count int64
	if err := s.db.Model(&FinancialMetric{}).Where("ebook_id = ?", e.ID).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rollup rows, want 1", count)
	}
}

func TestEbookFileUniquePerLanguage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := &Ebook{UserID: 1, Theme: "Origami"}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEbookFile(ctx, &EbookFile{EbookID: e.ID, LanguageCode: "pt", Status: StatusCompleted}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEbookFile(ctx, &EbookFile{EbookID: e.ID, LanguageCode: "pt", Status: StatusFailed}); err == nil {
		t.Error("expected duplicate (ebook, language) insert to fail")
	}
	if err := s.CreateEbookFile(ctx, &EbookFile{EbookID: e.ID, LanguageCode: "en", Status: StatusCompleted}); err != nil {
		t.Errorf("different language rejected: %v", err)
	}
}
