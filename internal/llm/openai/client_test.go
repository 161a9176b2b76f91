package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"lexguard-backend/internal/llm"
)

func reviewInput() llm.ReviewInput {
	return llm.ReviewInput{
		SectionTitle:   "Payment Terms",
		SectionContent: "Payment is due within 30 days.",
		SectionLevel:   2,
		DocumentName:   "msa.md",
		PromptVersion:  "v1",
	}
}

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestReviewSectionReturnsValidJSON(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var lastBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		mu.Lock()
		lastBody = payload
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"issues":[]}`)))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := client.ReviewSection(context.Background(), reviewInput())
	if err != nil {
		t.Fatalf("ReviewSection: %v", err)
	}
	if string(raw) != `{"issues":[]}` {
		t.Fatalf("unexpected raw output: %s", raw)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := lastBody["model"]; got != "gpt-5-mini" {
		t.Fatalf("expected model gpt-5-mini, got %v", got)
	}
	format, ok := lastBody["response_format"].(map[string]any)
	if !ok || format["type"] != "json_object" {
		t.Fatalf("expected response_format json_object, got %v", lastBody["response_format"])
	}
	messages, ok := lastBody["messages"].([]any)
	if !ok || len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %v", lastBody["messages"])
	}
}

func TestReviewSectionRepairsInvalidJSON(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_, _ = w.Write([]byte(chatReply(`{"issues": [`)))
			return
		}
		_, _ = w.Write([]byte(chatReply(`{"issues":[]}`)))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := client.ReviewSection(context.Background(), reviewInput())
	if err != nil {
		t.Fatalf("ReviewSection: %v", err)
	}
	if string(raw) != `{"issues":[]}` {
		t.Fatalf("unexpected raw output: %s", raw)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 calls (review + fix), got %d", calls)
	}
}

func TestReviewSectionFailsWhenRepairInvalid(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`not json at all`)))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.ReviewSection(context.Background(), reviewInput()); err == nil {
		t.Fatalf("expected error when both responses are invalid JSON")
	}
}

func TestReviewSectionSurfacesAPIError(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.ReviewSection(context.Background(), reviewInput()); err == nil {
		t.Fatalf("expected API error to be surfaced")
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("key", ""); err == nil {
		t.Fatalf("expected error for empty model")
	}
	if _, err := NewClient("", "gpt-5-mini"); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}
