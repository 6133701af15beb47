// Package llm adapts a gollem LLM client to the embedding and completion
// providers consumed by the engine.
package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// Client implements interfaces.EmbeddingProvider and interfaces.Completer
type Client struct {
	llmClient gollem.LLMClient
	dimension int
}

var (
	_ interfaces.EmbeddingProvider = &Client{}
	_ interfaces.Completer         = &Client{}
)

// Option is a functional option for Client configuration
type Option func(*Client)

// WithDimension sets the embedding dimension requested from the provider
func WithDimension(dim int) Option {
	return func(c *Client) {
		c.dimension = dim
	}
}

// New creates a new provider adapter
func New(llmClient gollem.LLMClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", c.dimension))
	}

	return c, nil
}

// Embed generates an embedding for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("dimension", c.dimension))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(model.ErrPermanentProvider, "empty embedding returned")
	}

	vector := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Complete runs a single-turn completion and returns the response text
func (c *Client) Complete(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
	var sessionOpts []gollem.SessionOption
	if opts.SystemPrompt != "" {
		sessionOpts = append(sessionOpts, gollem.WithSessionSystemPrompt(opts.SystemPrompt))
	}
	if opts.JSON {
		sessionOpts = append(sessionOpts, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	}

	session, err := c.llmClient.NewSession(ctx, sessionOpts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}

	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.Wrap(model.ErrPermanentProvider, "LLM returned no text")
	}

	return strings.Join(resp.Texts, ""), nil
}
