package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIImageName         = "openai"
	openAIImageDefaultModel = string(openai.ImageModelDallE3)
	// Portrait, book-cover aspect ratio.
	openAIImageDefaultSize = "1024x1792"
)

// OpenAIImageConfig holds configuration for the OpenAI image client.
type OpenAIImageConfig struct {
	APIKey     string
	Model      string // "dall-e-3" (default)
	Size       string // "1024x1792" (default)
	RPM        int    // Requests per minute
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIImageClient implements ImageClient using the official OpenAI SDK.
type OpenAIImageClient struct {
	apiKey  string
	model   string
	size    string
	limiter *RateLimiter
	client  openai.Client
}

// NewOpenAIImageClient creates a new OpenAI image client.
func NewOpenAIImageClient(cfg OpenAIImageConfig) *OpenAIImageClient {
	if cfg.Model == "" {
		cfg.Model = openAIImageDefaultModel
	}
	if cfg.Size == "" {
		cfg.Size = openAIImageDefaultSize
	}
	if cfg.RPM <= 0 {
		// dall-e-3 accounts are typically limited to a handful per minute.
		cfg.RPM = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIImageClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		size:    cfg.Size,
		limiter: NewRateLimiter(cfg.RPM),
		client:  openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIImageClient) Name() string {
	return OpenAIImageName
}

// GenerateImage renders one image and returns the decoded PNG bytes.
func (c *OpenAIImageClient) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	start := time.Now()

	result := &ImageResult{Provider: OpenAIImageName}

	if req == nil || req.Prompt == "" {
		err := fmt.Errorf("prompt is required")
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	size := req.Size
	if size == "" {
		size = c.size
	}

	params := openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(size),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		err := fmt.Errorf("image response contained no data")
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("failed to decode image data: %w", err)
	}

	result.Success = true
	result.Data = data
	result.ContentType = "image/png"
	result.ModelUsed = model
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// Verify interface
var _ ImageClient = (*OpenAIImageClient)(nil)
