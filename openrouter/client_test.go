package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key", "test-model")
	client.BaseURL = server.URL
	return client
}

func completionReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		t.Fatalf("encoding reply: %v", err)
	}
}

func TestComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test key", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		completionReply(t, w, "hello there")
	})

	content, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.3, 100)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "hello there" {
		t.Errorf("content = %q, want %q", content, "hello there")
	}
}

func TestCompleteRetriesThrottling(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		completionReply(t, w, "second time lucky")
	})

	content, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.3, 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "second time lucky" {
		t.Errorf("content = %q", content)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.3, 0); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient("", "test-model")
	if _, err := client.Complete(context.Background(), nil, 0, 0); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestCompleteJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionReply(t, w, "```json\n{\"name\": \"Acme\", \"size\": \"11-50\"}\n```")
	})

	var out struct {
		Name string `json:"name"`
		Size string `json:"size"`
	}
	if err := client.CompleteJSON(context.Background(), []Message{{Role: "user", Content: "extract"}}, 0.2, 0, &out); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if out.Name != "Acme" || out.Size != "11-50" {
		t.Errorf("out = %+v", out)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", "{}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
