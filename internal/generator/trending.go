package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/folio/internal/providers"
)

// trendingTopicCount is how many candidate topics one trending call asks for.
const trendingTopicCount = 10

// FindTrendingTopics asks the LLM for currently popular ebook topics. Used by
// schedules in trending theme mode.
func (g *Generator) FindTrendingTopics(ctx context.Context, language string) ([]string, error) {
	schema, err := trendingSchema()
	if err != nil {
		return nil, err
	}

	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role: "system",
				Content: "You are a digital publishing market analyst. You track which " +
					"non-fiction topics sell well on self-publishing platforms.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf("List %d non-fiction ebook topics that are currently in "+
					"high demand and suitable for a practical how-to book (language "+
					"market: %s). Favor evergreen subjects with active buyer interest. "+
					"Return concise topic names only.", trendingTopicCount, language),
			},
		},
		Temperature:    0.9,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
	}

	res, err := g.llm.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("trending topics lookup failed: %w", err)
	}

	var parsed struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(res.ParsedJSON, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse trending response: %w", err)
	}
	if len(parsed.Topics) == 0 {
		return nil, fmt.Errorf("trending response contained no topics")
	}
	return parsed.Topics, nil
}

// NextTrendingTopic picks one trending topic for a scheduled run.
func (g *Generator) NextTrendingTopic(ctx context.Context, language string) (string, error) {
	topics, err := g.FindTrendingTopics(ctx, language)
	if err != nil {
		return "", err
	}
	return topics[0], nil
}

func trendingSchema() (json.RawMessage, error) {
	wrapper := map[string]any{
		"name":   "trending_topics",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topics": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 1,
				},
			},
			"required":             []string{"topics"},
			"additionalProperties": false,
		},
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to build trending schema: %w", err)
	}
	return raw, nil
}
