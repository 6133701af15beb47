package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/mnemos/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the completion and embedding provider
type LLM struct {
	provider       string
	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider for extraction, chat and embeddings (gemini, openai). Empty disables them",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOS_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOS_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMOS_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MNEMOS_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration. The API key is
// never logged.
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.String("gemini_project", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
		slog.Bool("openai_api_key_set", l.openaiAPIKey != ""),
	}
}

// Configure creates the provider adapter. Returns nil when no provider is
// configured; extraction, chat and embeddings are then disabled.
func (l *LLM) Configure(ctx context.Context, dimension int) (*llm.Client, error) {
	var client gollem.LLMClient

	switch l.provider {
	case "":
		return nil, nil

	case "gemini":
		if l.geminiProject == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required when using gemini provider")
		}
		c, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		client = c

	case "openai":
		if l.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "openai-api-key is required when using openai provider")
		}
		c, err := openai.New(ctx, l.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		client = c

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid llm provider", goerr.V("provider", l.provider))
	}

	adapter, err := llm.New(client, llm.WithDimension(dimension))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM adapter")
	}
	return adapter, nil
}
