package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/service/extract"
	"github.com/secmon-lab/mnemos/pkg/utils/async"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

const chatProviderName = "completion"

// ChatReply is the result of one chat turn
type ChatReply struct {
	SessionID string
	Message   model.ChatMessage
	Context   *model.ChatContext
}

type ChatUseCase struct {
	repo      interfaces.Repository
	completer interfaces.Completer
	policy    retry.Policy
	store     interfaces.ConversationStore
	extractor *extract.Extractor
	memory    *MemoryUseCase
}

func NewChatUseCase(repo interfaces.Repository, completer interfaces.Completer, policy retry.Policy, store interfaces.ConversationStore, extractor *extract.Extractor, memory *MemoryUseCase) *ChatUseCase {
	return &ChatUseCase{
		repo:      repo,
		completer: completer,
		policy:    policy,
		store:     store,
		extractor: extractor,
		memory:    memory,
	}
}

// Send answers a user message using the recent journal context. Completion
// failures surface as model.ErrChatUnavailable once retries are exhausted.
func (uc *ChatUseCase) Send(ctx context.Context, userID, sessionID, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "chat message is empty", goerr.V(model.UserIDKey, userID))
	}
	if uc.completer == nil {
		return nil, goerr.Wrap(model.ErrChatUnavailable, "completion provider is not configured")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	logger := logging.From(ctx)

	chatCtx, err := uc.buildContext(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	systemPrompt, err := buildChatSystemPrompt(chatCtx)
	if err != nil {
		return nil, err
	}

	userMsg := model.ChatMessage{
		ID:        model.NewChatMessageID(),
		Role:      model.ChatRoleUser,
		Content:   message,
		CreatedAt: time.Now().UTC(),
	}

	reply, err := retry.Do(ctx, uc.policy, func(ctx context.Context) (string, error) {
		return uc.completer.Complete(ctx, message, interfaces.CompleteOptions{
			SystemPrompt: systemPrompt,
		})
	})
	if err != nil {
		logger.Error("chat completion failed",
			"user_id", userID,
			"session_id", sessionID,
			"error", err,
		)
		return nil, goerr.Wrap(model.ErrChatUnavailable, "chat completion failed",
			goerr.V(SessionIDKey, sessionID),
			goerr.V("cause", err.Error()),
		)
	}

	assistantMsg := model.ChatMessage{
		ID:        model.NewChatMessageID(),
		Role:      model.ChatRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	updated := chatCtx.WithMessages(userMsg, assistantMsg)

	if uc.store != nil {
		if err := uc.store.Save(ctx, updated); err != nil {
			logger.Warn("failed to save conversation",
				"session_id", sessionID,
				"error", err,
			)
		}
	}

	if uc.extractor != nil {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.extractMemories(ctx, userID, userMsg)
		})
	}

	return &ChatReply{
		SessionID: sessionID,
		Message:   assistantMsg,
		Context:   updated,
	}, nil
}

// buildContext loads the latest journal entries and, when a store is
// configured, the previous messages of the session.
func (uc *ChatUseCase) buildContext(ctx context.Context, userID, sessionID string) (*model.ChatContext, error) {
	entries, err := uc.repo.Journal().ListRecent(ctx, userID, model.ChatContextEntryLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent journal entries", goerr.V(model.UserIDKey, userID))
	}

	chatCtx := model.NewChatContext(userID, sessionID, entries)
	if uc.store == nil {
		return chatCtx, nil
	}

	prev, err := uc.store.Load(ctx, userID, sessionID)
	if err != nil {
		logging.From(ctx).Warn("failed to load conversation, starting fresh",
			"session_id", sessionID,
			"error", err,
		)
		return chatCtx, nil
	}
	if prev != nil {
		chatCtx = chatCtx.WithMessages(prev.Messages...)
	}
	return chatCtx, nil
}

// extractMemories stores memories found in a user chat message
func (uc *ChatUseCase) extractMemories(ctx context.Context, userID string, msg model.ChatMessage) error {
	candidates, err := uc.extractor.Extract(ctx, extract.Source{
		Type: types.SourceTypeChatMessage,
		ID:   string(msg.ID),
		Text: msg.Content,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to extract memories from chat message")
	}

	result, err := uc.memory.Ingest(ctx, userID, candidates)
	if err != nil {
		return goerr.Wrap(err, "failed to ingest chat memories")
	}

	logging.From(ctx).Debug("memories extracted from chat",
		"created", len(result.Created),
		"rejected", result.Rejected,
	)
	return nil
}

type chatPromptEntry struct {
	Date    string
	Content string
}

type chatPromptMessage struct {
	Role    string
	Content string
}

type chatPromptData struct {
	Entries  []chatPromptEntry
	Messages []chatPromptMessage
}

func buildChatSystemPrompt(chatCtx *model.ChatContext) (string, error) {
	var data chatPromptData
	for _, e := range chatCtx.RecentEntries {
		data.Entries = append(data.Entries, chatPromptEntry{
			Date:    e.CreatedAt.Format("2006-01-02 15:04"),
			Content: e.Content,
		})
	}
	for _, m := range chatCtx.Messages {
		data.Messages = append(data.Messages, chatPromptMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute chat system prompt template")
	}
	return buf.String(), nil
}
