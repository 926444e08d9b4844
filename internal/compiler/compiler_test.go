package compiler

import (
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/book"
)

func sampleBook() *book.Book {
	return &book.Book{
		Title:    "Gardening <for> Beginners",
		Author:   "Ana & Co",
		Language: "en",
		Chapters: []book.Chapter{
			{
				Title:             "Soil & Light",
				Introduction:      "First paragraph.\n\nSecond paragraph.",
				Development:       "Core material.",
				PracticalExamples: "Try this at home.",
				Conclusion:        "Wrapping up.",
			},
			{
				Title:        "Watering",
				Introduction: "Water wisely.",
			},
		},
	}
}

func TestCompileHTML(t *testing.T) {
	out := CompileHTML(sampleBook())

	t.Run("escapes content", func(t *testing.T) {
		if strings.Contains(out, "<for>") {
			t.Error("title not escaped")
		}
		if !strings.Contains(out, "Gardening &lt;for&gt; Beginners") {
			t.Error("escaped title missing")
		}
		if !strings.Contains(out, "Ana &amp; Co") {
			t.Error("escaped author missing")
		}
	})

	t.Run("has cover page and page breaks", func(t *testing.T) {
		if !strings.Contains(out, `class="cover"`) {
			t.Error("cover page missing")
		}
		if !strings.Contains(out, "page-break-before: always") {
			t.Error("chapter page-break rule missing")
		}
	})

	t.Run("numbers chapters and renders sections in order", func(t *testing.T) {
		if !strings.Contains(out, "<h1>1. Soil &amp; Light</h1>") {
			t.Error("chapter 1 heading missing")
		}
		if !strings.Contains(out, "<h1>2. Watering</h1>") {
			t.Error("chapter 2 heading missing")
		}
		intro := strings.Index(out, "<h2>Introduction</h2>")
		dev := strings.Index(out, "<h2>Development</h2>")
		ex := strings.Index(out, "<h2>Practical Examples</h2>")
		conc := strings.Index(out, "<h2>Conclusion</h2>")
		if !(intro < dev && dev < ex && ex < conc) {
			t.Errorf("sections out of order: %d %d %d %d", intro, dev, ex, conc)
		}
	})

	t.Run("splits paragraphs on blank lines", func(t *testing.T) {
		if !strings.Contains(out, "<p>First paragraph.</p>") ||
			!strings.Contains(out, "<p>Second paragraph.</p>") {
			t.Error("paragraphs not split")
		}
	})

	t.Run("empty sections are skipped", func(t *testing.T) {
		// Chapter 2 only has an introduction.
		if strings.Count(out, "<h2>Conclusion</h2>") != 1 {
			t.Error("empty conclusion section should be skipped")
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		if CompileHTML(sampleBook()) != out {
			t.Error("output differs between runs")
		}
	})

	t.Run("declares language", func(t *testing.T) {
		if !strings.Contains(out, `<html lang="en">`) {
			t.Error("lang attribute missing")
		}
	})
}

func TestCompileEPUB(t *testing.T) {
	data, err := CompileEPUB(sampleBook())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty epub")
	}
	// EPUB files are ZIP containers.
	if string(data[:2]) != "PK" {
		t.Errorf("not a zip container: % x", data[:4])
	}
}
