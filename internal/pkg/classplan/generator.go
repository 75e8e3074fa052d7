package classplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taekup/taekup-server/internal/pkg/env"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Client calls an OpenAI-compatible chat-completions endpoint to draft class
// plans. The endpoint is configurable so self-hosted models work too.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

// Request describes the class plan to generate.
type Request struct {
	ClubName        string
	Focus           string
	AgeGroup        string
	DurationMinutes int
}

// Result is the generated plan plus the model that produced it.
type Result struct {
	Title   string
	Content string
	Model   string
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENAI_BASE_URL", defaultBaseURL), "/"),
		Model:   env.GetEnv("CLASSPLAN_MODEL", defaultModel),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate builds the prompt, calls the model and returns the drafted plan.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("class plan generation failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("class plan generation failed: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, errors.New("class plan generation returned no content")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	model := out.Model
	if model == "" {
		model = c.Model
	}
	return &Result{
		Title:   TitleFor(req),
		Content: content,
		Model:   model,
	}, nil
}

const systemPrompt = "You are an experienced martial arts instructor. " +
	"Write practical, safe class plans with a warm-up, technique blocks, " +
	"drills and a cool-down. Use clear section headings and keep timings " +
	"realistic for the class duration."

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d minute martial arts class plan", req.DurationMinutes)
	if req.ClubName != "" {
		fmt.Fprintf(&b, " for %s", req.ClubName)
	}
	b.WriteString(".")
	if req.Focus != "" {
		fmt.Fprintf(&b, " The class focus is: %s.", req.Focus)
	}
	if req.AgeGroup != "" {
		fmt.Fprintf(&b, " The students are in the %s age group.", req.AgeGroup)
	}
	b.WriteString(" Include warm-up, main techniques with timings, partner drills and cool-down.")
	return b.String()
}

// TitleFor derives a short display title from the request.
func TitleFor(req Request) string {
	parts := []string{}
	if req.Focus != "" {
		parts = append(parts, req.Focus)
	}
	if req.AgeGroup != "" {
		parts = append(parts, req.AgeGroup)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d Minute Class Plan", req.DurationMinutes)
	}
	return fmt.Sprintf("%s (%d min)", strings.Join(parts, " - "), req.DurationMinutes)
}
