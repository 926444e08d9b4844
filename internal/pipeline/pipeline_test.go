package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/storage"
	"github.com/jackzampolin/folio/internal/store"
)

// scriptedLLM answers the generation calls in order: structure, sections,
// then one translation per non-base language, then metadata.
func scriptedLLM(numChapters int) *providers.MockClient {
	mock := providers.NewMockClient()
	mock.Handler = func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
		prompt := req.Messages[len(req.Messages)-1].Content

		switch {
		case strings.Contains(prompt, "Design a book"):
			titles := make([]string, numChapters)
			for i := range titles {
				titles[i] = fmt.Sprintf("Chapter Title %d", i+1)
			}
			return structuredResult(map[string]any{"title": "Base Title", "chapter_titles": titles})

		case strings.Contains(prompt, "Write the full content"):
			fields := map[string]string{}
			for i := 0; i < numChapters; i++ {
				for _, key := range book.SectionKeys() {
					fields[fmt.Sprintf("chapter_%d_%s", i+1, key)] = "text"
				}
			}
			return structuredResult(fields)

		case strings.Contains(prompt, "Translate all fields"):
			var src map[string]string
			start := strings.Index(prompt, "{")
			json.Unmarshal([]byte(prompt[start:]), &src)
			out := map[string]string{}
			for k, v := range src {
				out[k] = "translated " + v
			}
			return structuredResult(out)

		case strings.Contains(prompt, "publishing metadata"):
			return structuredResult(map[string]any{
				"optimized_title":   "Optimized",
				"short_description": "s",
				"long_description":  "l",
				"keywords":          []string{"k1", "k2"},
				"categories":        []string{"c1"},
				"suggested_price":   "9.99",
				"target_audience":   "everyone",
				"platform_recommendations": []map[string]any{
					{"platform": "amazon_kdp", "suitable": true, "reasoning": "r"},
				},
			})

		default:
			return nil, fmt.Errorf("unexpected prompt: %s", prompt[:min(len(prompt), 80)])
		}
	}
	return mock
}

func structuredResult(v any) (*providers.ChatResult, error) {
	parsed, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &providers.ChatResult{Success: true, Content: string(parsed), ParsedJSON: parsed}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func newTestPipeline(t *testing.T, mock *providers.MockClient, objects *storage.Mock) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	p := New(Config{
		Store:   s,
		Storage: objects,
		LLM:     mock,
		Images:  providers.NewMockImageClient(),
	})
	return p, s
}

func TestRunHappyPath(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMock()
	p, s := newTestPipeline(t, scriptedLLM(3), objects)

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Author: "Ana", Languages: "pt,en", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	got, err := s.GetEbook(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusCompleted {
		t.Fatalf("status = %q (%s)", got.Status, got.ErrorMessage)
	}
	if got.Title != "Base Title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.EpubURL == "" || got.PdfURL == "" || got.CoverURL == "" {
		t.Errorf("artifact urls missing: %+v", got)
	}
	if got.Content == "" {
		t.Error("content not stored")
	}

	files, _ := s.ListEbookFiles(ctx, e.ID)
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	for _, f := range files {
		if f.Status != store.StatusCompleted {
			t.Errorf("file %s status = %q", f.LanguageCode, f.Status)
		}
	}

	meta, err := s.GetMetadataByEbook(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.OptimizedTitle != "Optimized" {
		t.Errorf("metadata title = %q", meta.OptimizedTitle)
	}
	if kw := meta.KeywordList(); len(kw) != 2 {
		t.Errorf("keywords = %v", kw)
	}

	// epub + html + cover per language.
	if objects.Len() != 6 {
		t.Errorf("stored objects = %d (%v), want 6", objects.Len(), objects.Paths())
	}
}

func TestRunPerLanguageCovers(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMock()
	p, s := newTestPipeline(t, scriptedLLM(3), objects)
	images := p.images.(*providers.MockImageClient)

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Author: "Ana", Languages: "pt,en", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	if got := images.RequestCount(); got != 2 {
		t.Fatalf("cover image calls = %d, want one per language", got)
	}

	// The base language cover uses the original title; the translated
	// language's cover uses its translated title.
	prompts := images.Prompts()
	if !strings.Contains(prompts[0], "Base Title") || strings.Contains(prompts[0], "translated") {
		t.Errorf("pt cover prompt = %q, want original title", prompts[0])
	}
	if !strings.Contains(prompts[1], "translated Base Title") {
		t.Errorf("en cover prompt = %q, want translated title", prompts[1])
	}

	files, _ := s.ListEbookFiles(ctx, e.ID)
	byLang := map[string]store.EbookFile{}
	for _, f := range files {
		byLang[f.LanguageCode] = f
	}
	if !strings.Contains(byLang["pt"].CoverURL, "/pt/cover.png") {
		t.Errorf("pt cover url = %q", byLang["pt"].CoverURL)
	}
	if !strings.Contains(byLang["en"].CoverURL, "/en/cover.png") {
		t.Errorf("en cover url = %q", byLang["en"].CoverURL)
	}
	if byLang["pt"].CoverURL == byLang["en"].CoverURL {
		t.Error("languages must not share a cover url")
	}

	got, _ := s.GetEbook(ctx, e.ID)
	if got.CoverURL != byLang["pt"].CoverURL {
		t.Errorf("ebook cover url = %q, want primary language cover %q", got.CoverURL, byLang["pt"].CoverURL)
	}
}

func TestRunPartialLanguageFailure(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMock()
	// The middle language's uploads fail; its siblings must not be affected.
	objects.FailPaths = []string{"/es/"}
	p, s := newTestPipeline(t, scriptedLLM(3), objects)

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Author: "Ana", Languages: "pt,es,en", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	got, _ := s.GetEbook(ctx, e.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("status = %q, want completed when at least one language succeeds", got.Status)
	}

	files, _ := s.ListEbookFiles(ctx, e.ID)
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3", len(files))
	}
	byLang := map[string]store.EbookFile{}
	for _, f := range files {
		byLang[f.LanguageCode] = f
	}
	if byLang["pt"].Status != store.StatusCompleted || byLang["en"].Status != store.StatusCompleted {
		t.Error("sibling languages should complete")
	}
	if byLang["es"].Status != store.StatusFailed {
		t.Errorf("es status = %q, want failed", byLang["es"].Status)
	}
	if byLang["es"].ErrorMessage == "" {
		t.Error("failed language should record an error message")
	}

	// Primary artifacts come from the first successful language.
	if !strings.Contains(got.EpubURL, "/pt/") {
		t.Errorf("primary epub url = %q", got.EpubURL)
	}
}

func TestRunAllLanguagesFail(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMock()
	objects.FailAll = true
	p, s := newTestPipeline(t, scriptedLLM(3), objects)

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt,en", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	got, _ := s.GetEbook(ctx, e.ID)
	if got.Status != store.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "all languages failed" {
		t.Errorf("error = %q", got.ErrorMessage)
	}

	files, _ := s.ListEbookFiles(ctx, e.ID)
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	for _, f := range files {
		if f.Status != store.StatusFailed {
			t.Errorf("file %s status = %q", f.LanguageCode, f.Status)
		}
	}
}

func TestRunGenerationFailure(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.ShouldFail = true
	p, s := newTestPipeline(t, mock, storage.NewMock())

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	got, _ := s.GetEbook(ctx, e.ID)
	if got.Status != store.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "content generation failed") {
		t.Errorf("error = %q", got.ErrorMessage)
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	p, s := newTestPipeline(t, mock, storage.NewMock())

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt,xx", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, e.ID)

	got, _ := s.GetEbook(ctx, e.ID)
	if got.Status != store.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("llm calls = %d, want 0 for invalid language list", mock.RequestCount())
	}
}

func TestRunCoverFailureFailsLanguage(t *testing.T) {
	ctx := context.Background()

	t.Run("image generation failure", func(t *testing.T) {
		objects := storage.NewMock()
		s, err := store.Open(store.Config{Type: "sqlite", DSN: ":memory:"})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })

		failingImages := providers.NewMockImageClient()
		failingImages.ShouldFail = true

		p := New(Config{
			Store:   s,
			Storage: objects,
			LLM:     scriptedLLM(3),
			Images:  failingImages,
		})

		e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt", NumChapters: 3}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}

		p.Run(ctx, e.ID)

		got, _ := s.GetEbook(ctx, e.ID)
		if got.Status != store.StatusFailed {
			t.Fatalf("status = %q, want failed when the only language's cover fails", got.Status)
		}

		files, _ := s.ListEbookFiles(ctx, e.ID)
		if len(files) != 1 {
			t.Fatalf("files = %d, want 1", len(files))
		}
		if files[0].Status != store.StatusFailed {
			t.Errorf("pt status = %q, want failed", files[0].Status)
		}
		if !strings.Contains(files[0].ErrorMessage, "cover generation failed") {
			t.Errorf("pt error = %q", files[0].ErrorMessage)
		}
	})

	t.Run("cover upload failure isolates one language", func(t *testing.T) {
		objects := storage.NewMock()
		objects.FailPaths = []string{"/en/cover.png"}
		p, s := newTestPipeline(t, scriptedLLM(3), objects)

		e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt,en", NumChapters: 3}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}

		p.Run(ctx, e.ID)

		got, _ := s.GetEbook(ctx, e.ID)
		if got.Status != store.StatusCompleted {
			t.Fatalf("status = %q, want completed via the surviving language", got.Status)
		}

		files, _ := s.ListEbookFiles(ctx, e.ID)
		byLang := map[string]store.EbookFile{}
		for _, f := range files {
			byLang[f.LanguageCode] = f
		}
		if byLang["pt"].Status != store.StatusCompleted {
			t.Errorf("pt status = %q, want completed", byLang["pt"].Status)
		}
		if byLang["en"].Status != store.StatusFailed {
			t.Errorf("en status = %q, want failed", byLang["en"].Status)
		}
	})

	t.Run("no image client skips covers", func(t *testing.T) {
		objects := storage.NewMock()
		s, err := store.Open(store.Config{Type: "sqlite", DSN: ":memory:"})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })

		p := New(Config{
			Store:   s,
			Storage: objects,
			LLM:     scriptedLLM(3),
		})

		e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt", NumChapters: 3}
		if err := s.CreateEbook(ctx, e); err != nil {
			t.Fatal(err)
		}

		p.Run(ctx, e.ID)

		got, _ := s.GetEbook(ctx, e.ID)
		if got.Status != store.StatusCompleted {
			t.Fatalf("status = %q, disabled covers must not fail the run", got.Status)
		}
		if got.CoverURL != "" {
			t.Errorf("cover url = %q, want empty", got.CoverURL)
		}
	})
}

func TestRunDeletedEbookNotResurrected(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMock()
	p, s := newTestPipeline(t, scriptedLLM(3), objects)

	e := &store.Ebook{UserID: 1, Theme: "Gardening", Languages: "pt", NumChapters: 3}
	if err := s.CreateEbook(ctx, e); err != nil {
		t.Fatal(err)
	}
	id := e.ID

	// Simulate a delete racing the generation by deleting before the run's
	// terminal write.
	if err := s.DeleteEbook(ctx, id); err != nil {
		t.Fatal(err)
	}

	p.Run(ctx, id)

	if _, err := s.GetEbook(ctx, id); err == nil {
		t.Error("deleted ebook should stay deleted")
	}
}
