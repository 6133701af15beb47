package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32 for FindNearest vector search.
type memoryDoc struct {
	ID             model.MemoryID     `firestore:"ID"`
	UserID         string             `firestore:"UserID"`
	Category       string             `firestore:"Category"`
	Fact           string             `firestore:"Fact"`
	Confidence     float64            `firestore:"Confidence"`
	SourceType     string             `firestore:"SourceType"`
	SourceID       string             `firestore:"SourceID"`
	Context        string             `firestore:"Context,omitempty"`
	Verified       bool               `firestore:"Verified"`
	NeedsEmbedding bool               `firestore:"NeedsEmbedding"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	LastUpdated    time.Time          `firestore:"LastUpdated"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		ID:             m.ID,
		UserID:         m.UserID,
		Category:       m.Category.String(),
		Fact:           m.Fact,
		Confidence:     m.Confidence,
		SourceType:     m.SourceType.String(),
		SourceID:       m.SourceID,
		Context:        m.Context,
		Verified:       m.Verified,
		NeedsEmbedding: m.NeedsEmbedding,
		CreatedAt:      m.CreatedAt,
		LastUpdated:    m.LastUpdated,
	}
	if len(m.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(m.Embedding)
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		ID:             d.ID,
		UserID:         d.UserID,
		Category:       types.Category(d.Category),
		Fact:           d.Fact,
		Confidence:     d.Confidence,
		SourceType:     types.SourceType(d.SourceType),
		SourceID:       d.SourceID,
		Context:        d.Context,
		Verified:       d.Verified,
		NeedsEmbedding: d.NeedsEmbedding,
		CreatedAt:      d.CreatedAt,
		LastUpdated:    d.LastUpdated,
	}
	if len(d.Embedding) > 0 {
		m.Embedding = []float32(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMemoryRepository(client *firestore.Client) *memoryRepository {
	return &memoryRepository{client: client}
}

func (r *memoryRepository) memoriesCollection(userID string) *firestore.CollectionRef {
	return userDoc(r.client, r.collectionPrefix, userID).Collection(memoriesSubcol)
}

func (r *memoryRepository) Create(ctx context.Context, userID string, mem *model.Memory) (*model.Memory, error) {
	created := mem.Copy()
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	created.UserID = userID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.LastUpdated.IsZero() {
		created.LastUpdated = created.CreatedAt
	}

	docRef := r.memoriesCollection(userID).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toMemoryDoc(created)); err != nil {
		return nil, goerr.Wrap(persistenceErr(err), "failed to create memory",
			goerr.V(model.UserIDKey, userID),
			goerr.V(model.MemoryIDKey, created.ID),
		)
	}

	return created, nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error) {
	doc, err := r.memoriesCollection(userID).Doc(string(memoryID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V(model.MemoryIDKey, memoryID))
		}
		return nil, goerr.Wrap(persistenceErr(err), "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(persistenceErr(err), "failed to unmarshal memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	return fromMemoryDoc(&d), nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	docRef := r.memoriesCollection(userID).Doc(string(memoryID))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory not found", goerr.V(model.MemoryIDKey, memoryID))
		}
		return goerr.Wrap(persistenceErr(err), "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(persistenceErr(err), "failed to delete memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	return nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	iter := r.memoriesCollection(userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	return collectMemories(iter)
}

func (r *memoryRepository) ListBySource(ctx context.Context, userID string, sourceType types.SourceType, sourceID string) ([]*model.Memory, error) {
	iter := r.memoriesCollection(userID).
		Where("SourceType", "==", sourceType.String()).
		Where("SourceID", "==", sourceID).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)

	memories, err := collectMemories(iter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories by source",
			goerr.V(model.SourceTypeKey, sourceType),
			goerr.V(model.SourceIDKey, sourceID),
		)
	}
	return memories, nil
}

func (r *memoryRepository) ListPendingEmbedding(ctx context.Context, userID string, limit int) ([]*model.Memory, error) {
	q := r.memoriesCollection(userID).
		Where("NeedsEmbedding", "==", true).
		OrderBy("CreatedAt", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return collectMemories(q.Documents(ctx))
}

func (r *memoryRepository) update(ctx context.Context, userID string, memoryID model.MemoryID, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "LastUpdated", Value: time.Now().UTC()})

	if _, err := r.memoriesCollection(userID).Doc(string(memoryID)).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory not found", goerr.V(model.MemoryIDKey, memoryID))
		}
		return goerr.Wrap(persistenceErr(err), "failed to update memory", goerr.V(model.MemoryIDKey, memoryID))
	}
	return nil
}

func (r *memoryRepository) UpdateEmbedding(ctx context.Context, userID string, memoryID model.MemoryID, embedding []float32) error {
	return r.update(ctx, userID, memoryID, []firestore.Update{
		{Path: "Embedding", Value: firestore.Vector32(embedding)},
		{Path: "NeedsEmbedding", Value: false},
	})
}

func (r *memoryRepository) SetVerified(ctx context.Context, userID string, memoryID model.MemoryID, verified bool) error {
	return r.update(ctx, userID, memoryID, []firestore.Update{
		{Path: "Verified", Value: verified},
	})
}

func (r *memoryRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error) {
	vq := r.memoriesCollection(userID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	memories, err := collectMemories(vq.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories by embedding", goerr.V(model.UserIDKey, userID))
	}
	return memories, nil
}

func collectMemories(iter *firestore.DocumentIterator) ([]*model.Memory, error) {
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(persistenceErr(err), "failed to iterate memories")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(persistenceErr(err), "failed to unmarshal memory", goerr.V("docID", doc.Ref.ID))
		}

		memories = append(memories, fromMemoryDoc(&d))
	}

	return memories, nil
}
