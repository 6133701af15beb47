package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
)

// Collection layout: {prefix}users/{userID}/memories and
// {prefix}users/{userID}/journal_entries
const (
	usersCollection   = "users"
	memoriesSubcol    = "memories"
	journalSubcol     = "journal_entries"
	defaultDatabaseID = "(default)"
)

type Firestore struct {
	client  *firestore.Client
	memory  *memoryRepository
	journal *journalRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates collections, mainly for tests sharing a database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.memory.collectionPrefix = prefix
		f.journal.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = defaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:  client,
		memory:  newMemoryRepository(client),
		journal: newJournalRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Memory() interfaces.MemoryRepository {
	return f.memory
}

func (f *Firestore) Journal() interfaces.JournalRepository {
	return f.journal
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func userDoc(client *firestore.Client, prefix, userID string) *firestore.DocumentRef {
	return client.Collection(prefix + usersCollection).Doc(userID)
}

// persistenceErr tags a store failure with model.ErrPersistence while keeping
// the original error reachable through errors.Is
func persistenceErr(err error) error {
	return fmt.Errorf("%w: %w", model.ErrPersistence, err)
}
