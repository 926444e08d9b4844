package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/providers"
)

// Platforms folio knows how to recommend for.
var Platforms = []string{"amazon_kdp", "hotmart", "eduzz", "monetizze"}

// Metadata is SEO and monetization metadata for a finished book.
type Metadata struct {
	OptimizedTitle   string   `json:"optimized_title"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description"`
	Keywords         []string `json:"keywords"`
	Categories       []string `json:"categories"`
	SuggestedPrice   string   `json:"suggested_price"`
	TargetAudience   string   `json:"target_audience"`

	PlatformRecommendations []PlatformRecommendation `json:"platform_recommendations"`
}

// PlatformRecommendation scores one publishing platform for a book.
type PlatformRecommendation struct {
	Platform  string `json:"platform"`
	Suitable  bool   `json:"suitable"`
	Reasoning string `json:"reasoning"`
}

// GenerateMetadata derives publishing metadata from a finished book in one
// structured call.
func (g *Generator) GenerateMetadata(ctx context.Context, b *book.Book) (*Metadata, error) {
	schema, err := metadataSchema()
	if err != nil {
		return nil, err
	}

	var outline string
	for i, ch := range b.Chapters {
		outline += fmt.Sprintf("%d. %s\n", i+1, ch.Title)
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role: "system",
				Content: "You are a digital publishing and SEO specialist for self-published " +
					"ebooks. You know the Amazon KDP, Hotmart, Eduzz, and Monetizze " +
					"marketplaces well.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf("Produce publishing metadata for the book %q about %q "+
					"(language: %s).\n\nChapters:\n%s\n"+
					"Include an SEO-optimized title, short and long descriptions, 5-10 "+
					"keywords, 2-4 marketplace categories, a suggested price in USD, the "+
					"target audience, and a suitability recommendation for each of these "+
					"platforms: amazon_kdp, hotmart, eduzz, monetizze.",
					b.Title, b.Theme, b.Language, outline),
			},
		},
		Temperature:    0.5,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
	}

	res, err := g.llm.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("metadata generation failed: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(res.ParsedJSON, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}
	return &meta, nil
}

func metadataSchema() (json.RawMessage, error) {
	stringArray := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	wrapper := map[string]any{
		"name":   "book_metadata",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"optimized_title":   map[string]any{"type": "string"},
				"short_description": map[string]any{"type": "string"},
				"long_description":  map[string]any{"type": "string"},
				"keywords":          stringArray,
				"categories":        stringArray,
				"suggested_price":   map[string]any{"type": "string"},
				"target_audience":   map[string]any{"type": "string"},
				"platform_recommendations": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"platform":  map[string]any{"type": "string", "enum": Platforms},
							"suitable":  map[string]any{"type": "boolean"},
							"reasoning": map[string]any{"type": "string"},
						},
						"required":             []string{"platform", "suitable", "reasoning"},
						"additionalProperties": false,
					},
				},
			},
			"required": []string{
				"optimized_title", "short_description", "long_description",
				"keywords", "categories", "suggested_price", "target_audience",
				"platform_recommendations",
			},
			"additionalProperties": false,
		},
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata schema: %w", err)
	}
	return raw, nil
}
