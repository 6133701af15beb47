// Package embedding generates and compares text embeddings through an
// external provider.
package embedding

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/metrics"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxChars   = 8000
	DefaultChunkSize  = 5
	DefaultChunkDelay = time.Second

	providerName = "embedding"
)

// Client wraps an EmbeddingProvider with truncation, retry, rate-limited
// batching and an optional cache.
type Client struct {
	provider   interfaces.EmbeddingProvider
	maxChars   int
	chunkSize  int
	chunkDelay time.Duration
	policy     retry.Policy
	cacheSize  int64
	cache      *ristretto.Cache
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithMaxChars sets the character budget applied before calling the provider
func WithMaxChars(n int) Option {
	return func(c *Client) {
		c.maxChars = n
	}
}

// WithChunkSize sets how many texts BatchGenerate issues concurrently
func WithChunkSize(n int) Option {
	return func(c *Client) {
		c.chunkSize = n
	}
}

// WithChunkDelay sets the pause between BatchGenerate chunks
func WithChunkDelay(d time.Duration) Option {
	return func(c *Client) {
		c.chunkDelay = d
	}
}

// WithRetryPolicy overrides the retry policy around provider calls
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
		c.policy.Provider = providerName
	}
}

// WithCache enables an in-process cache holding up to size embeddings
func WithCache(size int64) Option {
	return func(c *Client) {
		c.cacheSize = size
	}
}

// New creates an embedding Client
func New(provider interfaces.EmbeddingProvider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, goerr.New("embedding provider is required")
	}

	c := &Client{
		provider:   provider,
		maxChars:   DefaultMaxChars,
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		policy:     retry.DefaultPolicy(providerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxChars <= 0 {
		return nil, goerr.New("max chars must be positive", goerr.V("max_chars", c.maxChars))
	}
	if c.chunkSize <= 0 {
		return nil, goerr.New("chunk size must be positive", goerr.V("chunk_size", c.chunkSize))
	}

	if c.cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: c.cacheSize * 10,
			MaxCost:     c.cacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create embedding cache")
		}
		c.cache = cache
	}

	return c, nil
}

// Generate returns the embedding of text, or nil when the provider fails
// after retries. A nil result means "not yet available"; the backfill job
// picks such memories up later.
func (c *Client) Generate(ctx context.Context, text string) []float32 {
	logger := logging.From(ctx)

	input := truncate(text, c.maxChars)
	if input == "" {
		logger.Debug("skip embedding for empty text")
		return nil
	}

	if cached := c.cached(input); cached != nil {
		metrics.EmbeddingCacheHit()
		return cached
	}

	vector, err := retry.Do(ctx, c.policy, func(ctx context.Context) ([]float32, error) {
		return c.provider.Embed(ctx, input)
	})
	if err != nil {
		logger.Warn("failed to generate embedding",
			"error", err,
			"chars", utf8.RuneCountInString(input),
		)
		return nil
	}
	if len(vector) == 0 {
		logger.Warn("provider returned empty embedding")
		return nil
	}

	c.store(input, vector)
	return vector
}

// BatchGenerate embeds texts in fixed-size chunks. Items of a chunk run
// concurrently and a failed item yields nil without affecting the others.
// Chunks run one after another separated by the configured delay. The result
// has the same length and order as texts. An error is returned only when ctx
// is cancelled; items not yet processed are nil in that case.
func (c *Client) BatchGenerate(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	logger := logging.From(ctx)

	chunks := chunkTexts(len(texts), c.chunkSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return results, goerr.Wrap(err, "batch embedding cancelled", goerr.V("chunk", i))
		}

		var g errgroup.Group
		for idx := chunk.start; idx < chunk.end; idx++ {
			g.Go(func() error {
				results[idx] = c.Generate(ctx, texts[idx])
				return nil
			})
		}
		_ = g.Wait()

		logger.Debug("embedding chunk done",
			"chunk", i+1,
			"chunks", len(chunks),
			"size", chunk.end-chunk.start,
		)

		if i == len(chunks)-1 || c.chunkDelay <= 0 {
			continue
		}

		timer := time.NewTimer(c.chunkDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return results, goerr.Wrap(ctx.Err(), "batch embedding cancelled", goerr.V("chunk", i+1))
		case <-timer.C:
		}
	}

	return results, nil
}

type chunkRange struct {
	start int
	end   int
}

func chunkTexts(n, size int) []chunkRange {
	var chunks []chunkRange
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		chunks = append(chunks, chunkRange{start: start, end: end})
	}
	return chunks
}

func (c *Client) cached(key string) []float32 {
	if c.cache == nil {
		return nil
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil
	}
	vector, ok := v.([]float32)
	if !ok {
		return nil
	}
	return copyVector(vector)
}

func (c *Client) store(key string, vector []float32) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, copyVector(vector), 1)
	c.cache.Wait()
}

func copyVector(v []float32) []float32 {
	copied := make([]float32, len(v))
	copy(copied, v)
	return copied
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
