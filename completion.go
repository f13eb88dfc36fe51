package zhishi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Completer issues a single chat-completion exchange against the model
// endpoint. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionClient implements Completer against an OpenAI-style
// chat-completions endpoint. It is a deliberately minimal boundary:
// one request, no retry, no timeout beyond the transport's. Resilience
// lives one layer up, in the feed and session controllers.
type CompletionClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewCompletionClient creates a completion client from the given config.
// The config is expected to have passed WithDefaults.
func NewCompletionClient(cfg Config) *CompletionClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionClient{
		baseURL:     cfg.APIBaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:      logger,
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *CompletionClient) WithHTTPClient(client *http.Client) *CompletionClient {
	c.httpClient = client
	return c
}

// Complete sends the prompt as a single user turn and returns the first
// candidate's text. Transport failures and non-success statuses surface as
// *RemoteCallError.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		c.logger.Debug("completion call finished",
			zap.String("measure", "glm.completion"),
			zap.Duration("elapsed", time.Since(start)))
	}()

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &RemoteCallError{Operation: "completion", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &RemoteCallError{Operation: "completion", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RemoteCallError{Operation: "completion", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", &RemoteCallError{
			Operation:  "completion",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &RemoteCallError{Operation: "completion", Err: err}
	}
	if len(result.Choices) == 0 {
		return "", &RemoteCallError{Operation: "completion", Err: fmt.Errorf("response contains no choices")}
	}

	return result.Choices[0].Message.Content, nil
}
