package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/usecase"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
	"github.com/urfave/cli/v3"
)

// EngineConfig holds the tuning knobs of the extraction and analysis engine
type EngineConfig struct {
	MaxRetries         int    `toml:"max_retries"`
	RetryBaseDelay     string `toml:"retry_base_delay"`
	EmbedMaxChars      int    `toml:"embed_max_chars"`
	BatchChunkSize     int    `toml:"batch_chunk_size"`
	BatchChunkDelay    string `toml:"batch_chunk_delay"`
	DedupDelay         string `toml:"dedup_delay"`
	EmbeddingDimension int    `toml:"embedding_dimension"`
	EmbeddingCacheSize int64  `toml:"embedding_cache_size"`
	BackfillLimit      int    `toml:"backfill_limit"`

	retryBaseDelay  time.Duration
	batchChunkDelay time.Duration
	dedupDelay      time.Duration
}

// DefaultEngineConfig returns the built-in engine settings
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{
		MaxRetries:         retry.DefaultMaxRetries,
		RetryBaseDelay:     retry.DefaultBaseDelay.String(),
		EmbedMaxChars:      embedding.DefaultMaxChars,
		BatchChunkSize:     embedding.DefaultChunkSize,
		BatchChunkDelay:    embedding.DefaultChunkDelay.String(),
		DedupDelay:         usecase.DefaultDedupDelay.String(),
		EmbeddingDimension: model.EmbeddingDimension,
		EmbeddingCacheSize: 10000,
		BackfillLimit:      usecase.DefaultBackfillLimit,
	}
	// defaults always validate
	_ = cfg.Validate()
	return cfg
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V(FieldKey, field), goerr.V("value", value))
	}
	if d < 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "duration must not be negative", goerr.V(FieldKey, field), goerr.V("value", value))
	}
	return d, nil
}

// Validate checks the ranges of every field and parses the durations
func (e *EngineConfig) Validate() error {
	if e.MaxRetries < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_retries must not be negative", goerr.V(FieldKey, "max_retries"))
	}
	if e.EmbedMaxChars <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "embed_max_chars must be positive", goerr.V(FieldKey, "embed_max_chars"))
	}
	if e.BatchChunkSize <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "batch_chunk_size must be positive", goerr.V(FieldKey, "batch_chunk_size"))
	}
	if e.EmbeddingDimension <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "embedding_dimension must be positive", goerr.V(FieldKey, "embedding_dimension"))
	}
	if e.EmbeddingCacheSize < 0 {
		return goerr.Wrap(ErrInvalidConfig, "embedding_cache_size must not be negative", goerr.V(FieldKey, "embedding_cache_size"))
	}
	if e.BackfillLimit <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "backfill_limit must be positive", goerr.V(FieldKey, "backfill_limit"))
	}

	var err error
	if e.retryBaseDelay, err = parseDuration("retry_base_delay", e.RetryBaseDelay); err != nil {
		return err
	}
	if e.batchChunkDelay, err = parseDuration("batch_chunk_delay", e.BatchChunkDelay); err != nil {
		return err
	}
	if e.dedupDelay, err = parseDuration("dedup_delay", e.DedupDelay); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the retry policy for the named provider
func (e *EngineConfig) RetryPolicy(provider string) retry.Policy {
	return retry.Policy{
		MaxRetries: e.MaxRetries,
		BaseDelay:  e.retryBaseDelay,
		Provider:   provider,
	}
}

// EmbeddingOptions returns the options for embedding.New
func (e *EngineConfig) EmbeddingOptions() []embedding.Option {
	opts := []embedding.Option{
		embedding.WithMaxChars(e.EmbedMaxChars),
		embedding.WithChunkSize(e.BatchChunkSize),
		embedding.WithChunkDelay(e.batchChunkDelay),
		embedding.WithRetryPolicy(e.RetryPolicy("embedding")),
	}
	if e.EmbeddingCacheSize > 0 {
		opts = append(opts, embedding.WithCache(e.EmbeddingCacheSize))
	}
	return opts
}

// UseCaseOptions returns the engine-level options for usecase.New
func (e *EngineConfig) UseCaseOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithDedupDelay(e.dedupDelay),
		usecase.WithBackfillLimit(e.BackfillLimit),
		usecase.WithChatRetryPolicy(e.RetryPolicy("completion")),
	}
}

// LogValue implements slog.LogValuer
func (e *EngineConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_retries", e.MaxRetries),
		slog.String("retry_base_delay", e.RetryBaseDelay),
		slog.Int("embed_max_chars", e.EmbedMaxChars),
		slog.Int("batch_chunk_size", e.BatchChunkSize),
		slog.String("batch_chunk_delay", e.BatchChunkDelay),
		slog.String("dedup_delay", e.DedupDelay),
		slog.Int("embedding_dimension", e.EmbeddingDimension),
		slog.Int64("embedding_cache_size", e.EmbeddingCacheSize),
	)
}

// LoadEngineConfig reads a TOML file over the defaults
func LoadEngineConfig(path string) (*EngineConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "engine config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	cfg := DefaultEngineConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return cfg, nil
}

// Engine holds the CLI flag pointing at the engine tuning file
type Engine struct {
	path string
}

// Flags returns CLI flags for engine configuration
func (e *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "engine-config",
			Usage:       "Path to the engine tuning TOML file",
			Sources:     cli.EnvVars("MNEMOS_ENGINE_CONFIG"),
			Destination: &e.path,
		},
	}
}

// Configure loads the tuning file, or returns the defaults when none is set
func (e *Engine) Configure() (*EngineConfig, error) {
	if e.path == "" {
		return DefaultEngineConfig(), nil
	}
	return LoadEngineConfig(e.path)
}
