// Package generator produces complete book content from a theme using two
// LLM calls: one for the book structure (title and chapter titles) and one
// batched call for every section of every chapter.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/translator"
)

const (
	// Chapter count bounds enforced on every request.
	MinChapters = 3
	MaxChapters = 10
	// DefaultChapters is used when a request does not specify a count.
	DefaultChapters = 5
)

// Generator turns a theme into a complete book.
type Generator struct {
	llm    providers.LLMClient
	logger *slog.Logger
}

// New creates a generator backed by the given LLM client.
func New(llm providers.LLMClient, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, logger: logger}
}

// ClampChapters snaps a requested chapter count into the supported range.
func ClampChapters(n int) int {
	switch {
	case n == 0:
		return DefaultChapters
	case n < MinChapters:
		return MinChapters
	case n > MaxChapters:
		return MaxChapters
	default:
		return n
	}
}

// GenerateBook produces a complete book for the theme in the given language.
// The result always has exactly numChapters chapters.
func (g *Generator) GenerateBook(ctx context.Context, theme, author, language string, numChapters int) (*book.Book, error) {
	numChapters = ClampChapters(numChapters)

	langName, ok := translator.LanguageName(language)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}

	structure, err := g.generateStructure(ctx, theme, langName, numChapters)
	if err != nil {
		return nil, fmt.Errorf("structure generation failed: %w", err)
	}

	b := &book.Book{
		Title:    structure.Title,
		Theme:    theme,
		Author:   author,
		Language: language,
		Chapters: make([]book.Chapter, numChapters),
	}
	for i, title := range structure.ChapterTitles {
		b.Chapters[i].Title = title
	}

	if err := g.generateSections(ctx, b, langName); err != nil {
		return nil, fmt.Errorf("section generation failed: %w", err)
	}

	g.logger.Info("generated book content",
		"theme", theme,
		"language", language,
		"chapters", numChapters,
		"title", b.Title)
	return b, nil
}

// bookStructure is the result of the first generation call.
type bookStructure struct {
	Title         string
	ChapterTitles []string
}

// generateStructure asks for the book title and chapter titles, then
// normalizes the list to exactly numChapters entries: extras are dropped,
// missing entries are filled with numbered placeholders.
func (g *Generator) generateStructure(ctx context.Context, theme, langName string, numChapters int) (*bookStructure, error) {
	schema, err := structureSchema(numChapters)
	if err != nil {
		return nil, err
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role: "system",
				Content: "You are an experienced non-fiction author and editor. " +
					"You design practical, well-organized books for a general audience.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf("Design a book about %q written in %s. "+
					"Produce a compelling book title and exactly %d chapter titles that "+
					"progress logically from fundamentals to advanced practice.",
					theme, langName, numChapters),
			},
		},
		Temperature:    0.8,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
	}

	res, err := g.llm.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title         string   `json:"title"`
		ChapterTitles []string `json:"chapter_titles"`
	}
	if err := json.Unmarshal(res.ParsedJSON, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse structure response: %w", err)
	}
	if strings.TrimSpace(parsed.Title) == "" {
		return nil, fmt.Errorf("structure response has empty title")
	}

	titles := parsed.ChapterTitles
	if len(titles) > numChapters {
		g.logger.Warn("structure returned extra chapters, truncating",
			"got", len(titles), "want", numChapters)
		titles = titles[:numChapters]
	}
	for len(titles) < numChapters {
		titles = append(titles, fmt.Sprintf("Chapter %d", len(titles)+1))
	}

	return &bookStructure{Title: parsed.Title, ChapterTitles: titles}, nil
}

// generateSections fills every chapter section with one batched structured
// call. All fields are required in the schema, so a response missing any
// section fails validation rather than leaving holes in the book.
func (g *Generator) generateSections(ctx context.Context, b *book.Book, langName string) error {
	schema, err := sectionsSchema(len(b.Chapters))
	if err != nil {
		return err
	}

	var outline strings.Builder
	for i, ch := range b.Chapters {
		fmt.Fprintf(&outline, "%d. %s\n", i+1, ch.Title)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role: "system",
				Content: "You are an experienced non-fiction author. Write substantial, " +
					"practical prose. Each section should be several paragraphs of " +
					"plain text with no markdown headings.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf("Write the full content of the book %q about %q in %s.\n\n"+
					"Chapters:\n%s\n"+
					"For every chapter write four sections: an introduction, a development "+
					"section covering the core material, practical examples, and a conclusion. "+
					"Fill every field.",
					b.Title, b.Theme, langName, outline.String()),
			},
		},
		Temperature:    0.7,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
	}

	res, err := g.llm.Chat(ctx, req)
	if err != nil {
		return err
	}

	var fields map[string]string
	if err := json.Unmarshal(res.ParsedJSON, &fields); err != nil {
		return fmt.Errorf("failed to parse sections response: %w", err)
	}

	for i := range b.Chapters {
		for _, key := range book.SectionKeys() {
			b.Chapters[i].SetSection(key, fields[chapterField(i, key)])
		}
	}
	return nil
}

// CoverPrompt builds the image-generation prompt for a book cover.
func CoverPrompt(title, theme string) string {
	return fmt.Sprintf("Professional ebook cover design for a book titled %q about %s. "+
		"Modern, clean composition with strong typography space, rich colors, "+
		"no text, no letters, no words in the image. Portrait orientation.",
		title, theme)
}

// structureSchema is the schema for the first call: book title plus the
// chapter title list.
func structureSchema(numChapters int) (json.RawMessage, error) {
	wrapper := map[string]any{
		"name":   "book_structure",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"chapter_titles": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": numChapters,
					"maxItems": numChapters,
				},
			},
			"required":             []string{"title", "chapter_titles"},
			"additionalProperties": false,
		},
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to build structure schema: %w", err)
	}
	return raw, nil
}

// sectionsSchema is the flat schema for the batched section call, with one
// required string field per (chapter, section) pair.
func sectionsSchema(numChapters int) (json.RawMessage, error) {
	properties := map[string]any{}
	required := []string{}

	for i := 0; i < numChapters; i++ {
		for _, key := range book.SectionKeys() {
			name := chapterField(i, key)
			properties[name] = map[string]any{"type": "string"}
			required = append(required, name)
		}
	}

	wrapper := map[string]any{
		"name":   "book_sections",
		"strict": true,
		"schema": map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to build sections schema: %w", err)
	}
	return raw, nil
}

func chapterField(index int, key string) string {
	return fmt.Sprintf("chapter_%d_%s", index+1, key)
}
