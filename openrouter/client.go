// Package openrouter provides a typed HTTP client for the OpenRouter
// chat-completions API. The search, scrape, and comparison engines use it for
// structured extraction and analysis.
package openrouter

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

	"github.com/sethvargo/go-retry"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Client wraps the OpenRouter chat-completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	// Referer and Title populate OpenRouter's attribution headers.
	Referer string
	Title   string

	httpClient *http.Client
	maxRetries uint64
}

// NewClient creates a client for the given key and model. A zero model is
// rejected at call time, not here, so construction never fails.
func NewClient(apiKey, model string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxRetries: 3,
	}
}

// Message is a single chat turn (role + content).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest maps to POST /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse is the subset of the completion response the engines consume.
type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// statusError marks HTTP-level failures so the retry policy can distinguish
// throttling and server errors from permanent ones.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openrouter %d: %s", e.code, e.body)
}

// Complete sends the messages and returns the model's reply content.
// Throttled (429) and server-side (5xx) failures are retried with fibonacci
// backoff; anything else fails immediately.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("openrouter api key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request : %w", err)
	}

	var content string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		reply, err := c.complete(ctx, body)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		content = reply
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completing chat : %w", err)
	}
	return content, nil
}

// CompleteJSON sends the messages, strips any markdown code fences from the
// reply, and unmarshals the remaining JSON into out. Models regularly wrap
// JSON replies in ``` fences despite instructions not to.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message, temperature float64, maxTokens int, out any) error {
	content, err := c.Complete(ctx, messages, temperature, maxTokens)
	if err != nil {
		return err
	}

	cleaned := StripFences(content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("unmarshalling model reply : %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request : %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.Referer)
	}
	if c.Title != "" {
		httpReq.Header.Set("X-Title", c.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("doing request : %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: string(b)}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response : %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openrouter error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// retryable reports whether err warrants another attempt. Network-level
// failures and throttling or server-side status codes qualify.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return strings.Contains(err.Error(), "doing request")
}

// StripFences removes a wrapping markdown code fence (``` or ```json) from
// model output, leaving the inner JSON untouched.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	} else if strings.HasPrefix(content, "```") {
		content = content[len("```"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-len("```")]
	}
	return strings.TrimSpace(content)
}
