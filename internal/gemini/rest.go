package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harutofu/shiori/internal/compose"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// REST is a Backend over the Gemini generateContent HTTP API.
type REST struct {
	APIKey string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL    string
	HTTPClient *http.Client
	// Timeout bounds each request. Zero means 60s.
	Timeout time.Duration
	// Temperature and MaxOutputTokens apply to every request. Zero values
	// mean 0.7 and 2048.
	Temperature     float64
	MaxOutputTokens int
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one generateContent request for model. System turns become
// the system instruction; assistant turns map onto the "model" role.
func (r *REST) Generate(ctx context.Context, model string, turns []compose.Turn) (string, error) {
	if r.APIKey == "" {
		return "", fmt.Errorf("gemini: api key is required")
	}
	model = NormalizeModel(model)
	if model == "" {
		return "", fmt.Errorf("gemini: model is required")
	}

	var req geminiRequest
	for _, t := range turns {
		switch t.Role {
		case compose.RoleSystem:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, geminiPart{Text: t.Content})
		case compose.RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: t.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: t.Content}}})
		}
	}
	req.GenerationConfig.Temperature = r.Temperature
	if req.GenerationConfig.Temperature == 0 {
		req.GenerationConfig.Temperature = 0.7
	}
	req.GenerationConfig.MaxOutputTokens = r.MaxOutputTokens
	if req.GenerationConfig.MaxOutputTokens == 0 {
		req.GenerationConfig.MaxOutputTokens = 2048
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	base := r.BaseURL
	if base == "" {
		base = geminiEndpoint
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, model, r.APIKey)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	hc := r.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", &APIError{Status: resp.StatusCode, Body: string(body), Err: ErrNotFound}
	case http.StatusTooManyRequests:
		return "", &APIError{Status: resp.StatusCode, Body: string(body), Err: ErrRateLimited}
	default:
		return "", &APIError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", &APIError{Status: parsed.Error.Code, Body: parsed.Error.Message}
	}

	var b strings.Builder
	for _, c := range parsed.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func snippet(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
