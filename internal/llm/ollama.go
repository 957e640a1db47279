package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for the Ollama client.
type Config struct {
	BaseURL     string        // default http://localhost:11434
	Model       string        // default "llama3"
	Temperature float32       // 0 keeps the mapping deterministic
	Timeout     time.Duration // http client timeout
}

// Client implements Translator against a local Ollama server.
type Client struct {
	cfg    Config
	stores []string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, stores []string, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		stores: stores,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Translate sends the few-shot prompt to /api/generate and returns the raw
// completion text unparsed.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.translate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	body := map[string]any{
		"model":  c.cfg.Model,
		"prompt": BuildPrompt(c.stores, text),
		"stream": false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.translate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var gen struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		c.logger.Error("llm.translate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	c.logger.Info("llm.translate.ok",
		"req_id", rid,
		"response_len", len(gen.Response),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return gen.Response, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("ollama response body close error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, truncate(string(raw), 2<<10))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
