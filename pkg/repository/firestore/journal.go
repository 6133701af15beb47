package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type journalDoc struct {
	ID        model.JournalEntryID `firestore:"ID"`
	UserID    string               `firestore:"UserID"`
	Content   string               `firestore:"Content"`
	CreatedAt time.Time            `firestore:"CreatedAt"`
}

type journalRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newJournalRepository(client *firestore.Client) *journalRepository {
	return &journalRepository{client: client}
}

func (r *journalRepository) entriesCollection(userID string) *firestore.CollectionRef {
	return userDoc(r.client, r.collectionPrefix, userID).Collection(journalSubcol)
}

func (r *journalRepository) Create(ctx context.Context, userID string, entry *model.JournalEntry) (*model.JournalEntry, error) {
	created := *entry
	if created.ID == "" {
		created.ID = model.NewJournalEntryID()
	}
	created.UserID = userID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	doc := &journalDoc{
		ID:        created.ID,
		UserID:    created.UserID,
		Content:   created.Content,
		CreatedAt: created.CreatedAt,
	}
	if _, err := r.entriesCollection(userID).Doc(string(created.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(persistenceErr(err), "failed to create journal entry",
			goerr.V(model.UserIDKey, userID),
			goerr.V("entry_id", created.ID),
		)
	}

	return &created, nil
}

func (r *journalRepository) Get(ctx context.Context, userID string, entryID model.JournalEntryID) (*model.JournalEntry, error) {
	snap, err := r.entriesCollection(userID).Doc(string(entryID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "journal entry not found", goerr.V("entry_id", entryID))
		}
		return nil, goerr.Wrap(persistenceErr(err), "failed to get journal entry", goerr.V("entry_id", entryID))
	}

	var d journalDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(persistenceErr(err), "failed to unmarshal journal entry", goerr.V("entry_id", entryID))
	}

	return &model.JournalEntry{
		ID:        d.ID,
		UserID:    d.UserID,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (r *journalRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	q := r.entriesCollection(userID).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.JournalEntry, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(persistenceErr(err), "failed to iterate journal entries")
		}

		var d journalDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(persistenceErr(err), "failed to unmarshal journal entry")
		}

		entries = append(entries, &model.JournalEntry{
			ID:        d.ID,
			UserID:    d.UserID,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
		})
	}

	return entries, nil
}
