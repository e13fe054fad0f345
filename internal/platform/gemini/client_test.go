package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/detailpage-backend/internal/platform/logger"
)

type fakeModels struct {
	mu      sync.Mutex
	calls   int
	models  []string
	configs []*genai.GenerateContentConfig
	respond func(call int) (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.models = append(f.models, model)
	f.configs = append(f.configs, cfg)
	f.mu.Unlock()
	return f.respond(call)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestClient(f *fakeModels, retries int) *client {
	c := newClient(logger.Nop(), f, Config{MaxRetries: retries})
	c.backoff = time.Millisecond
	return c
}

func TestGenerateJSON(t *testing.T) {
	f := &fakeModels{respond: func(int) (*genai.GenerateContentResponse, error) {
		return textResponse("```json\n{\"headline\":\"hi\"}\n```"), nil
	}}
	c := newTestClient(f, 0)

	out, err := c.GenerateJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out["headline"] != "hi" {
		t.Fatalf("headline: got=%v", out["headline"])
	}
	if f.models[0] != DefaultTextModel {
		t.Fatalf("model: got=%q want=%q", f.models[0], DefaultTextModel)
	}
	cfg := f.configs[0]
	if cfg.ResponseMIMEType != "application/json" || cfg.SystemInstruction == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestGenerateJSONEmpty(t *testing.T) {
	f := &fakeModels{respond: func(int) (*genai.GenerateContentResponse, error) {
		return textResponse("  "), nil
	}}
	c := newTestClient(f, 0)
	if _, err := c.GenerateJSON(context.Background(), "", "user"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	f := &fakeModels{respond: func(int) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}}},
				}},
			}},
		}, nil
	}}
	c := newTestClient(f, 0)

	img, err := c.GenerateImage(context.Background(), "a pillow", "")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.MimeType != "image/jpeg" || len(img.Bytes) != 3 {
		t.Fatalf("unexpected image: %+v", img)
	}
	cfg := f.configs[0]
	if cfg.ImageConfig == nil || cfg.ImageConfig.AspectRatio != "1:1" {
		t.Fatalf("aspect ratio not defaulted: %+v", cfg.ImageConfig)
	}
	if f.models[0] != DefaultImageModel {
		t.Fatalf("model: got=%q", f.models[0])
	}
}

func TestGenerateImageNoInlineData(t *testing.T) {
	f := &fakeModels{respond: func(int) (*genai.GenerateContentResponse, error) {
		return textResponse("sorry"), nil
	}}
	c := newTestClient(f, 0)
	if _, err := c.GenerateImage(context.Background(), "a pillow", "1:1"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestRetriesRetryableStatus(t *testing.T) {
	f := &fakeModels{respond: func(call int) (*genai.GenerateContentResponse, error) {
		if call < 3 {
			return nil, genai.APIError{Code: 503, Message: "unavailable"}
		}
		return textResponse(`{"ok":true}`), nil
	}}
	c := newTestClient(f, 2)

	if _, err := c.GenerateJSON(context.Background(), "", "user"); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if f.calls != 3 {
		t.Fatalf("calls: got=%d want=3", f.calls)
	}
}

func TestDoesNotRetryClientError(t *testing.T) {
	f := &fakeModels{respond: func(int) (*genai.GenerateContentResponse, error) {
		return nil, genai.APIError{Code: 400, Message: "bad request"}
	}}
	c := newTestClient(f, 5)

	_, err := c.GenerateJSON(context.Background(), "", "user")
	var se *StatusError
	if !errors.As(err, &se) || se.HTTPStatusCode() != 400 {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("calls: got=%d want=1", f.calls)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), logger.Nop(), Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q): got=%q want=%q", in, got, want)
		}
	}
}
