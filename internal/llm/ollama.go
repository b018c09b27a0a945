// Package llm wraps the Ollama API for report generation and question
// answering.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// Token is one streamed fragment of a generation. Err is set at most once,
// on the final token.
type Token struct {
	Content string
	Done    bool
	Err     error
}

// NewClient connects to Ollama at baseURL, or via OLLAMA_HOST when baseURL
// is empty.
func NewClient(baseURL, model string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	var client *api.Client
	if baseURL != "" {
		parsedURL, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		client = api.NewClient(parsedURL, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client from environment: %w", err)
		}
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate runs a single prompt to completion and returns the full response.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}

	var fullResponse strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		fullResponse.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(fullResponse.String()), nil
}

// GenerateStream runs the prompt and sends fragments on the returned channel
// as they arrive. The channel closes after the final token; callers must
// drain it.
func (c *Client) GenerateStream(ctx context.Context, prompt string, temperature float64) <-chan Token {
	tokens := make(chan Token)

	go func() {
		defer close(tokens)
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		stream := true
		req := &api.GenerateRequest{
			Model:  c.model,
			Prompt: prompt,
			Stream: &stream,
			Options: map[string]interface{}{
				"temperature": temperature,
			},
		}

		err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
			select {
			case tokens <- Token{Content: resp.Response, Done: resp.Done}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			tokens <- Token{Err: fmt.Errorf("generation failed: %w", err), Done: true}
		}
	}()

	return tokens
}
