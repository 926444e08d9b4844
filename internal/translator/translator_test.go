package translator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/providers"
)

func TestLanguageAllowList(t *testing.T) {
	t.Run("supported codes", func(t *testing.T) {
		for _, code := range []string{"pt", "en", "es", "zh", "hi", "ar", "bn", "ru", "ja", "de", "fr"} {
			if !IsSupported(code) {
				t.Errorf("%s should be supported", code)
			}
		}
	})

	t.Run("case and whitespace tolerant", func(t *testing.T) {
		if !IsSupported(" PT ") {
			t.Error("lookup should normalize case and whitespace")
		}
	})

	t.Run("unsupported codes rejected", func(t *testing.T) {
		for _, code := range []string{"ko", "it", "xx", ""} {
			if IsSupported(code) {
				t.Errorf("%s should not be supported", code)
			}
		}
	})

	t.Run("validate names the offending code", func(t *testing.T) {
		err := ValidateCodes([]string{"pt", "ko"})
		if err == nil {
			t.Fatal("expected error")
		}
		if got := err.Error(); got != "unsupported language: ko" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("validate rejects empty list", func(t *testing.T) {
		if err := ValidateCodes(nil); err == nil {
			t.Error("expected error for empty list")
		}
	})
}

func testBook() *book.Book {
	return &book.Book{
		Title:    "Jardinagem para Iniciantes",
		Theme:    "Gardening",
		Author:   "Ana",
		Language: "pt",
		Chapters: []book.Chapter{
			{
				Title:             "Solo",
				Introduction:      "intro pt",
				Development:       "dev pt",
				PracticalExamples: "ex pt",
				Conclusion:        "conc pt",
			},
		},
	}
}

func TestTranslate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unsupported target", func(t *testing.T) {
		tr := New(providers.NewMockClient())
		if _, err := tr.Translate(ctx, testBook(), "ko"); err == nil {
			t.Error("expected error for unsupported target")
		}
	})

	t.Run("same language returns copy without llm call", func(t *testing.T) {
		mock := providers.NewMockClient()
		tr := New(mock)
		got, err := tr.Translate(ctx, testBook(), "pt")
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Jardinagem para Iniciantes" {
			t.Errorf("title = %q", got.Title)
		}
		if mock.RequestCount() != 0 {
			t.Errorf("llm calls = %d, want 0", mock.RequestCount())
		}
	})

	t.Run("maps translated fields back into the book", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.Handler = func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
			if req.ResponseFormat == nil {
				t.Error("expected structured output request")
			}
			parsed, _ := json.Marshal(map[string]string{
				"title":                        "Gardening for Beginners",
				"chapter_1_title":              "Soil",
				"chapter_1_introduction":       "intro en",
				"chapter_1_development":        "dev en",
				"chapter_1_practical_examples": "ex en",
				"chapter_1_conclusion":         "conc en",
			})
			return &providers.ChatResult{Success: true, Content: string(parsed), ParsedJSON: parsed}, nil
		}

		got, err := New(mock).Translate(ctx, testBook(), "en")
		if err != nil {
			t.Fatal(err)
		}
		if got.Language != "en" {
			t.Errorf("language = %q", got.Language)
		}
		if got.Title != "Gardening for Beginners" {
			t.Errorf("title = %q", got.Title)
		}
		ch := got.Chapters[0]
		if ch.Title != "Soil" || ch.Introduction != "intro en" || ch.Conclusion != "conc en" {
			t.Errorf("chapter = %+v", ch)
		}
		// Author and theme are not translated.
		if got.Author != "Ana" || got.Theme != "Gardening" {
			t.Errorf("author/theme changed: %q %q", got.Author, got.Theme)
		}
	})
}

func TestTranslationSchema(t *testing.T) {
	raw, err := translationSchema(2)
	if err != nil {
		t.Fatal(err)
	}

	var wrapper struct {
		Schema struct {
			Required []string `json:"required"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		t.Fatal(err)
	}

	// title + 2 chapters x (title + 4 sections)
	if len(wrapper.Schema.Required) != 11 {
		t.Errorf("required fields = %d, want 11", len(wrapper.Schema.Required))
	}
}
