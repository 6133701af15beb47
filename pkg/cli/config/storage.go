package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/service/conversation"
	"github.com/secmon-lab/mnemos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Storage holds CLI flags for the chat conversation store
type Storage struct {
	bucket string
	prefix string
}

// Flags returns CLI flags for storage configuration
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "conversation-bucket",
			Usage:       "Cloud Storage bucket for chat conversations. Conversations are not persisted when empty",
			Category:    "Storage",
			Sources:     cli.EnvVars("MNEMOS_CONVERSATION_BUCKET"),
			Destination: &s.bucket,
		},
		&cli.StringFlag{
			Name:        "conversation-prefix",
			Usage:       "Object name prefix for chat conversations",
			Category:    "Storage",
			Value:       conversation.DefaultPrefix,
			Sources:     cli.EnvVars("MNEMOS_CONVERSATION_PREFIX"),
			Destination: &s.prefix,
		},
	}
}

// LogAttrs returns log attributes for the storage configuration
func (s *Storage) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("bucket", s.bucket),
		slog.String("prefix", s.prefix),
	}
}

// Configure creates the conversation store. Returns a nil store and a no-op
// closer when no bucket is configured.
func (s *Storage) Configure(ctx context.Context) (*conversation.Store, func(), error) {
	if s.bucket == "" {
		return nil, func() {}, nil
	}

	backend, err := conversation.NewGCS(ctx, s.bucket)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize conversation storage", goerr.V("bucket", s.bucket))
	}

	closer := func() { safe.Close(ctx, backend, "bucket", s.bucket) }

	return conversation.New(backend, conversation.WithPrefix(s.prefix)), closer, nil
}
