package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/repository/memory"
	"github.com/secmon-lab/mnemos/pkg/service/conversation"
	"github.com/secmon-lab/mnemos/pkg/usecase"
)

func seedJournal(t *testing.T, repo *memory.Memory, userID string, n int) {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := repo.Journal().Create(context.Background(), userID, &model.JournalEntry{
			Content:   fmt.Sprintf("journal entry number %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		gt.NoError(t, err).Required()
	}
}

func TestChatSend(t *testing.T) {
	t.Run("answers with recent journal context", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		seedJournal(t, repo, "user-1", 7)

		var gotPrompt string
		var gotOpts interfaces.CompleteOptions
		uc := usecase.New(repo, usecase.WithCompleter(&mockCompleter{
			CompleteFn: func(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
				gotPrompt = prompt
				gotOpts = opts
				return "That sounds exhausting.", nil
			},
		}))

		reply, err := uc.Chat.Send(ctx, "user-1", "", "I feel tired")
		gt.NoError(t, err).Required()

		gt.String(t, reply.SessionID).NotEqual("")
		gt.Value(t, reply.Message.Role).Equal(model.ChatRoleAssistant)
		gt.Value(t, reply.Message.Content).Equal("That sounds exhausting.")
		gt.Value(t, gotPrompt).Equal("I feel tired")

		gt.Array(t, reply.Context.RecentEntries).Length(5)
		gt.Value(t, reply.Context.RecentEntries[0].Content).Equal("journal entry number 6")
		gt.Array(t, reply.Context.Messages).Length(2)

		gt.S(t, gotOpts.SystemPrompt).Contains("journal entry number 6")
		gt.S(t, gotOpts.SystemPrompt).Contains("journal entry number 2")
		gt.S(t, gotOpts.SystemPrompt).NotContains("journal entry number 1")
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		uc := usecase.New(memory.New(),
			usecase.WithChatRetryPolicy(fastPolicy()),
			usecase.WithCompleter(&mockCompleter{
				CompleteFn: func(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
					calls++
					if calls < 3 {
						return "", errors.New("rate limit exceeded")
					}
					return "ok", nil
				},
			}),
		)

		reply, err := uc.Chat.Send(context.Background(), "user-1", "s1", "hello")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Message.Content).Equal("ok")
		gt.Value(t, calls).Equal(3)
	})

	t.Run("surfaces a single unavailable error", func(t *testing.T) {
		calls := 0
		uc := usecase.New(memory.New(),
			usecase.WithChatRetryPolicy(fastPolicy()),
			usecase.WithCompleter(&mockCompleter{
				CompleteFn: func(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
					calls++
					return "", errors.New("invalid request")
				},
			}),
		)

		_, err := uc.Chat.Send(context.Background(), "user-1", "s1", "hello")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrChatUnavailable)).True()
		gt.Value(t, calls).Equal(1)
	})

	t.Run("unavailable without completer", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Chat.Send(context.Background(), "user-1", "s1", "hello")
		gt.Bool(t, errors.Is(err, model.ErrChatUnavailable)).True()
	})

	t.Run("rejects empty message", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Chat.Send(context.Background(), "user-1", "s1", " ")
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})

	t.Run("keeps a five message window across turns", func(t *testing.T) {
		ctx := context.Background()
		store := conversation.New(conversation.NewMemory())
		turn := 0
		uc := usecase.New(memory.New(),
			usecase.WithConversationStore(store),
			usecase.WithCompleter(&mockCompleter{
				CompleteFn: func(ctx context.Context, prompt string, opts interfaces.CompleteOptions) (string, error) {
					turn++
					return fmt.Sprintf("reply %d", turn), nil
				},
			}),
		)

		for i := 1; i <= 3; i++ {
			_, err := uc.Chat.Send(ctx, "user-1", "session-1", fmt.Sprintf("message %d", i))
			gt.NoError(t, err).Required()
		}

		saved, err := store.Load(ctx, "user-1", "session-1")
		gt.NoError(t, err).Required()
		gt.Array(t, saved.Messages).Length(5)
		gt.Value(t, saved.Messages[0].Content).Equal("reply 1")
		gt.Value(t, saved.Messages[4].Content).Equal("reply 3")
	})
}

func TestBuildChatSystemPrompt(t *testing.T) {
	chatCtx := model.NewChatContext("user-1", "s1", nil)
	prompt, err := usecase.BuildChatSystemPrompt(chatCtx)
	gt.NoError(t, err).Required()
	gt.S(t, prompt).Contains("has not written any journal entries")
}
