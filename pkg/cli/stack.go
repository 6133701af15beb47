package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/cli/config"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/service/extract"
	"github.com/secmon-lab/mnemos/pkg/usecase"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// stack groups the configuration every command needs to build use cases
type stack struct {
	repo    config.Repository
	llm     config.LLM
	engine  config.Engine
	storage config.Storage
}

func (s *stack) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, s.repo.Flags()...)
	flags = append(flags, s.llm.Flags()...)
	flags = append(flags, s.engine.Flags()...)
	flags = append(flags, s.storage.Flags()...)
	return flags
}

// build wires repository, providers and use cases. The returned function
// releases every client it opened.
func (s *stack) build(ctx context.Context) (*usecase.UseCases, func(), error) {
	logger := logging.Default()
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	engineCfg, err := s.engine.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load engine configuration")
	}
	logger.Info("Engine configuration", "engine", engineCfg)

	repo, err := s.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closers = append(closers, func() { safe.Close(ctx, repo, "target", "repository") })

	logger.Debug("Repository configured", slog.GroupAttrs("repository", s.repo.LogAttrs()...))

	opts := engineCfg.UseCaseOptions()

	provider, err := s.llm.Configure(ctx, engineCfg.EmbeddingDimension)
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to configure LLM provider")
	}
	if provider != nil {
		embedder, err := embedding.New(provider, engineCfg.EmbeddingOptions()...)
		if err != nil {
			closeAll()
			return nil, nil, goerr.Wrap(err, "failed to create embedding client")
		}
		extractor, err := extract.New(provider, extract.WithRetryPolicy(engineCfg.RetryPolicy("completion")))
		if err != nil {
			closeAll()
			return nil, nil, goerr.Wrap(err, "failed to create extractor")
		}
		opts = append(opts,
			usecase.WithEmbedding(embedder),
			usecase.WithExtractor(extractor),
			usecase.WithCompleter(provider),
		)
		logger.Info("LLM provider enabled", slog.GroupAttrs("llm", s.llm.LogAttrs()...))
	} else {
		logger.Warn("LLM provider not configured, extraction, chat and embeddings are disabled")
	}

	store, closeStore, err := s.storage.Configure(ctx)
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to configure conversation storage")
	}
	closers = append(closers, closeStore)
	if store != nil {
		opts = append(opts, usecase.WithConversationStore(store))
		logger.Info("Conversation storage enabled", slog.GroupAttrs("storage", s.storage.LogAttrs()...))
	}

	return usecase.New(repo, opts...), closeAll, nil
}
