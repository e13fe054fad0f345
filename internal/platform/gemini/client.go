// Package gemini wraps the Gemini API for structured copy and image
// generation.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/yungbote/detailpage-backend/internal/observability"
	"github.com/yungbote/detailpage-backend/internal/platform/envutil"
	"github.com/yungbote/detailpage-backend/internal/platform/httpx"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"

	// burst lets one gallery fan-out start without waiting on the limiter
	limiterBurst = 4
)

var (
	ErrNotConfigured = errors.New("GEMINI_API_KEY is not set")
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoImage       = errors.New("model returned no image")
)

type ImageGeneration struct {
	Bytes    []byte
	MimeType string
}

type Client interface {
	// GenerateJSON asks the text model for a single JSON object.
	GenerateJSON(ctx context.Context, system string, user string) (map[string]any, error)
	GenerateImage(ctx context.Context, prompt string, aspectRatio string) (ImageGeneration, error)
}

type Config struct {
	APIKey        string
	TextModel     string
	ImageModel    string
	RatePerMinute int
	MaxRetries    int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:        envutil.String("GEMINI_API_KEY", ""),
		TextModel:     envutil.String("GEMINI_MODEL", DefaultTextModel),
		ImageModel:    envutil.String("GEMINI_IMAGE_MODEL", DefaultImageModel),
		RatePerMinute: envutil.Int("AI_RATE_PER_MINUTE", 30),
		MaxRetries:    envutil.Int("AI_MAX_RETRIES", 2),
	}
}

// contentGenerator is the slice of genai.Models the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type client struct {
	log        *logger.Logger
	models     contentGenerator
	textModel  string
	imageModel string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newClient(log, gc.Models, cfg), nil
}

func newClient(log *logger.Logger, models contentGenerator, cfg Config) *client {
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	c := &client{
		log:        log.With("client", "GeminiClient"),
		models:     models,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		limiter:    rate.NewLimiter(limit, limiterBurst),
		maxRetries: cfg.MaxRetries,
		backoff:    1 * time.Second,
	}
	c.log.Info("Gemini client ready", "text_model", c.textModel, "image_model", c.imageModel, "rate_per_minute", cfg.RatePerMinute)
	return c
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string) (map[string]any, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := c.generate(ctx, c.textModel, user, cfg)
	if err != nil {
		return nil, err
	}
	text := stripCodeFence(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("gemini decode error: %w; raw=%s", err, text)
	}
	return out, nil
}

func (c *client) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (ImageGeneration, error) {
	var out ImageGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	resp, err := c.generate(ctx, c.imageModel, prompt, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspectRatio},
	})
	if err != nil {
		return out, err
	}
	blob := firstInlineImage(resp)
	if blob == nil {
		return out, ErrNoImage
	}
	out.Bytes = blob.Data
	out.MimeType = blob.MIMEType
	if out.MimeType == "" {
		out.MimeType = "image/png"
	}
	return out, nil
}

func (c *client) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (_ *genai.GenerateContentResponse, err error) {
	ctx, span := observability.Tracer("gemini").Start(ctx, "gemini.GenerateContent",
		trace.WithAttributes(attribute.String("gemini.model", model)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for attempt := 0; ; attempt++ {
		span.SetAttributes(attribute.Int("gemini.attempt", attempt+1))
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err == nil {
			return resp, nil
		}
		err = wrapAPIError(err)
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			return nil, err
		}
		sleepFor := httpx.Backoff(c.backoff, attempt+1, 10*time.Second)
		c.log.Warn("Gemini request retrying",
			"model", model,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
	}
}

func firstInlineImage(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models still emit.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// StatusError carries the HTTP status of a failed Gemini call.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string { return e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Code }

func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &StatusError{Code: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return &StatusError{Code: apiErrPtr.Code, Err: err}
	}
	return err
}
