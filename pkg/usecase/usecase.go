package usecase

import (
	"time"

	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/service/embedding"
	"github.com/secmon-lab/mnemos/pkg/service/extract"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
)

// DefaultDedupDelay is the wait before reconciling draft memories of a new
// journal entry. The trigger is not guaranteed to finish within it.
const DefaultDedupDelay = 2 * time.Second

type UseCases struct {
	repo        interfaces.Repository
	embedder    *embedding.Client
	extractor   *extract.Extractor
	completer   interfaces.Completer
	convStore   interfaces.ConversationStore
	dedupDelay  time.Duration
	chatPolicy  retry.Policy
	backfillMax int

	Memory   *MemoryUseCase
	Journal  *JournalUseCase
	Dedup    *DedupUseCase
	Backfill *BackfillUseCase
	Insight  *InsightUseCase
	Chat     *ChatUseCase
}

type Option func(*UseCases)

// WithEmbedding enables embedding generation for new memories
func WithEmbedding(client *embedding.Client) Option {
	return func(uc *UseCases) {
		uc.embedder = client
	}
}

// WithExtractor enables memory extraction from chat messages
func WithExtractor(ex *extract.Extractor) Option {
	return func(uc *UseCases) {
		uc.extractor = ex
	}
}

// WithCompleter sets the completion provider used by chat
func WithCompleter(c interfaces.Completer) Option {
	return func(uc *UseCases) {
		uc.completer = c
	}
}

// WithConversationStore persists chat contexts between turns
func WithConversationStore(store interfaces.ConversationStore) Option {
	return func(uc *UseCases) {
		uc.convStore = store
	}
}

// WithDedupDelay overrides DefaultDedupDelay
func WithDedupDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.dedupDelay = d
	}
}

// WithChatRetryPolicy overrides the retry policy around chat completions
func WithChatRetryPolicy(p retry.Policy) Option {
	return func(uc *UseCases) {
		uc.chatPolicy = p
		uc.chatPolicy.Provider = chatProviderName
	}
}

// WithBackfillLimit caps how many pending memories one backfill run handles
func WithBackfillLimit(n int) Option {
	return func(uc *UseCases) {
		uc.backfillMax = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:        repo,
		dedupDelay:  DefaultDedupDelay,
		chatPolicy:  retry.DefaultPolicy(chatProviderName),
		backfillMax: DefaultBackfillLimit,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Memory = NewMemoryUseCase(repo, uc.embedder)
	uc.Dedup = NewDedupUseCase(repo, uc.dedupDelay)
	uc.Journal = NewJournalUseCase(repo, uc.Dedup, uc.embedder)
	uc.Backfill = NewBackfillUseCase(repo, uc.embedder, uc.backfillMax)
	uc.Insight = NewInsightUseCase(repo)
	uc.Chat = NewChatUseCase(repo, uc.completer, uc.chatPolicy, uc.convStore, uc.extractor, uc.Memory)

	return uc
}
