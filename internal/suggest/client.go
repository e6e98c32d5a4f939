// Package suggest asks a generative-text service for logistics advice and
// menu ideas. Failures never propagate: callers get a placeholder or nil.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/anniversary-planner/backend/internal/catering"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// LogisticsPlaceholder is returned when no logistics text could be generated.
const LogisticsPlaceholder = "Logistics suggestions are unavailable right now. Please try again later."

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible Responses endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        zerolog.Logger

	inflight singleflight.Group
}

// New creates a client. Without an API key every call degrades immediately.
func New(opts Options, log zerolog.Logger) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		httpClient: opts.HTTPClient,
		log:        log.With().Str("component", "suggest").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Course is one dish in a menu suggestion.
type Course struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Menu is a structured menu suggestion.
type Menu struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Courses     []Course `json:"courses"`
}

var menuSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"title", "description", "courses"},
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"courses": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"name", "description"},
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// Logistics returns free-text advice on transport and room allocation for
// the confirmed guests, or LogisticsPlaceholder.
func (c *Client) Logistics(ctx context.Context, guests []models.Guest, rooms []models.RoomDetail) string {
	v, err, _ := c.inflight.Do("logistics", func() (any, error) {
		return c.generate(ctx, logisticsSystem, logisticsPrompt(guests, rooms), nil)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("logistics suggestion failed")
		return LogisticsPlaceholder
	}
	return v.(string)
}

// MenuIdeas returns a menu for the gala headcount and dietary notes, or nil.
func (c *Client) MenuIdeas(ctx context.Context, b catering.Breakdown, notes []string) *Menu {
	v, err, _ := c.inflight.Do("menu", func() (any, error) {
		text, err := c.generate(ctx, menuSystem, menuPrompt(b, notes), menuSchema)
		if err != nil {
			return nil, err
		}
		var m Menu
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return nil, fmt.Errorf("parsing menu JSON: %w", err)
		}
		if strings.TrimSpace(m.Title) == "" || len(m.Courses) == 0 {
			return nil, errors.New("menu without title or courses")
		}
		return &m, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("menu suggestion failed")
		return nil
	}
	return v.(*Menu)
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format"`
	} `json:"text,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *Client) generate(ctx context.Context, system, user string, schema map[string]any) (string, error) {
	if !c.Enabled() {
		return "", errors.New("no API key configured")
	}

	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
	}
	if schema != nil {
		req.Text = &struct {
			Format map[string]any `json:"format"`
		}{Format: map[string]any{
			"type":   "json_schema",
			"name":   "menu",
			"schema": schema,
			"strict": true,
		}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling responses endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("responses endpoint: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", out.Refusal)
	}
	text := extractOutputText(out)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no output_text found in response")
	}
	return text, nil
}
