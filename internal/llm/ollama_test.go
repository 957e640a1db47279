package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStores = []string{"829", "899", "436", "499", "407", "115", "712"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testStores, "ship to store: 436 po: 10432")

	assert.Contains(t, p, "829, 899, 436, 499, 407, 115, 712")
	assert.Contains(t, p, `"ship to store: 436 po: 10432"`)
	assert.Contains(t, p, `{"translated_po": "UNKNOWN"}`)
	assert.Contains(t, p, `{"translated_po": "436-10432"}`)
	// the document text comes last so the completion follows it
	assert.Regexp(t, `Output:\n$`, p)
}

func TestClientTranslate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    "llama3",
			"response": `{"translated_po": "436-10432"}`,
			"done":     true,
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, testStores, discardLogger())
	out, err := c.Translate(context.Background(), "ship to store: 436 po: 10432")
	require.NoError(t, err)
	assert.Equal(t, `{"translated_po": "436-10432"}`, out)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, false, got["stream"])
	prompt, _ := got["prompt"].(string)
	assert.Contains(t, prompt, "ship to store: 436 po: 10432")
	opts, _ := got["options"].(map[string]any)
	require.NotNil(t, opts)
	assert.Equal(t, float64(0), opts["temperature"])
}

func TestClientTranslateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, testStores, discardLogger())
	_, err := c.Translate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClientTranslateBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, testStores, discardLogger())
	_, err := c.Translate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode ollama response")
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, testStores, nil)
	assert.Equal(t, "http://localhost:11434", c.cfg.BaseURL)
	assert.Equal(t, "llama3", c.cfg.Model)
	assert.Equal(t, 120*time.Second, c.cfg.Timeout)
}
