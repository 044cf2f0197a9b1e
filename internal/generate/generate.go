// Package generate turns raw article text into the structured fields an
// aggregated article carries, using an OpenAI-compatible chat API.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spravodaj/spravodaj/config"
)

// Structured is the generated representation of a newly crawled article.
type Structured struct {
	Title    string   `json:"title"`
	Intro    string   `json:"intro"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Merged is the refreshed text produced when a new source is folded into
// an existing article.
type Merged struct {
	Intro   string `json:"intro"`
	Summary string `json:"summary"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

// NewClient builds the generation client from normalized configuration.
func NewClient(cfg config.LLMConfig) *Client {
	cfg = cfg.Normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const structureSystemPrompt = `Si redakčný asistent slovenského spravodajského agregátora.
Z textu článku vytvoríš štruktúrovaný výstup v slovenčine.

PRAVIDLÁ:
1. Titulok je vecný a krátky, bez clickbaitu.
2. Úvod (intro) má jednu až dve vety.
3. Súhrn (summary) má aspoň tri vety a zachytáva všetky podstatné fakty.
4. Kategória je jedno slovo, napríklad "politika", "ekonomika", "šport".
5. Tagy sú tri až sedem krátkych hesiel.

FORMÁT ODPOVEDE:
Odpovedz IBA platným JSON v tvare:
{"title": "...", "intro": "...", "summary": "...", "category": "...", "tags": ["..."]}
Žiadny iný text.`

// Structure summarizes raw article text into the stored article fields.
func (c *Client) Structure(ctx context.Context, text string) (*Structured, error) {
	raw, err := c.send(ctx, []message{
		{Role: "system", Content: structureSystemPrompt},
		{Role: "user", Content: "TEXT ČLÁNKU:\n" + text},
	})
	if err != nil {
		return nil, err
	}
	var out Structured
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse structured output: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("structured output missing summary")
	}
	return &out, nil
}

const mergeSystemPrompt = `Si redakčný asistent slovenského spravodajského agregátora.
Dostaneš existujúci súhrn článku a text nového zdroja o tej istej udalosti.
Zlúč ich do jedného aktualizovaného súhrnu: zachovaj fakty z pôvodného súhrnu
a doplň nové informácie zo zdroja. Nič si nevymýšľaj.

FORMÁT ODPOVEDE:
Odpovedz IBA platným JSON v tvare:
{"intro": "...", "summary": "..."}
Žiadny iný text.`

// Merge folds a new source's text into an existing summary.
func (c *Client) Merge(ctx context.Context, existingSummary, newText string) (*Merged, error) {
	raw, err := c.send(ctx, []message{
		{Role: "system", Content: mergeSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("EXISTUJÚCI SÚHRN:\n%s\n\nNOVÝ ZDROJ:\n%s", existingSummary, newText)},
	})
	if err != nil {
		return nil, err
	}
	var out Merged
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse merged output: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("merged output missing summary")
	}
	return &out, nil
}

func (c *Client) send(ctx context.Context, messages []message) (string, error) {
	body := chatRequest{
		Model:       c.cfg.CompletionModel,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON trims markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}
