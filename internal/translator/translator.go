// Package translator renders generated book content into the supported
// target languages using a single structured LLM call per book.
package translator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/providers"
)

// Translator translates complete books between supported languages.
type Translator struct {
	llm providers.LLMClient
}

// New creates a translator backed by the given LLM client.
func New(llm providers.LLMClient) *Translator {
	return &Translator{llm: llm}
}

// Translate returns the book rendered in the target language. Translating
// into the book's own language returns a copy unchanged. The target must be
// on the allow-list; anything else is a hard error, never a silent fallback.
func (t *Translator) Translate(ctx context.Context, b *book.Book, target string) (*book.Book, error) {
	name, ok := LanguageName(target)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", target)
	}

	if target == b.Language {
		cp := *b
		cp.Chapters = append([]book.Chapter(nil), b.Chapters...)
		return &cp, nil
	}

	schema, err := translationSchema(len(b.Chapters))
	if err != nil {
		return nil, err
	}

	source, err := json.MarshalIndent(translationFields(b), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize source content: %w", err)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role: "system",
				Content: "You are a professional literary translator. Translate every field " +
					"faithfully, preserving tone, formatting, and paragraph breaks. " +
					"Do not summarize, shorten, or add content.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf("Translate all fields of this book into %s. "+
					"Return the same field names with translated values.\n\n%s", name, source),
			},
		},
		Temperature:    0.3,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
	}

	res, err := t.llm.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("translation to %s failed: %w", target, err)
	}

	var fields map[string]string
	if err := json.Unmarshal(res.ParsedJSON, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse translation response: %w", err)
	}

	out := &book.Book{
		Title:    fields["title"],
		Theme:    b.Theme,
		Author:   b.Author,
		Language: target,
		Chapters: make([]book.Chapter, len(b.Chapters)),
	}
	for i := range b.Chapters {
		ch := &out.Chapters[i]
		ch.Title = fields[chapterField(i, "title")]
		for _, key := range book.SectionKeys() {
			ch.SetSection(key, fields[chapterField(i, key)])
		}
	}
	return out, nil
}

// translationFields flattens a book into the field map sent to the model.
func translationFields(b *book.Book) map[string]string {
	fields := map[string]string{"title": b.Title}
	for i, ch := range b.Chapters {
		fields[chapterField(i, "title")] = ch.Title
		for _, key := range book.SectionKeys() {
			fields[chapterField(i, key)] = ch.Section(key)
		}
	}
	return fields
}

// translationSchema builds the flat structured-output schema covering the
// book title and every chapter field. All fields are required so a partial
// translation fails validation instead of producing holes.
func translationSchema(numChapters int) (json.RawMessage, error) {
	properties := map[string]any{
		"title": map[string]any{"type": "string"},
	}
	required := []string{"title"}

	for i := 0; i < numChapters; i++ {
		fields := append([]string{"title"}, book.SectionKeys()...)
		for _, key := range fields {
			name := chapterField(i, key)
			properties[name] = map[string]any{"type": "string"}
			required = append(required, name)
		}
	}

	wrapper := map[string]any{
		"name":   "book_translation",
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
		return nil, fmt.Errorf("failed to build translation schema: %w", err)
	}
	return raw, nil
}

func chapterField(index int, key string) string {
	return fmt.Sprintf("chapter_%d_%s", index+1, key)
}
