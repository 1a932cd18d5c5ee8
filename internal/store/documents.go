package store

import (
	"context"
	"time"

	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentSource is the narrow primary-store contract the retrieval core
// consumes: point lookups, bounded listings ordered by creation time, and
// simple field updates. Any method may fail with a generic store error; the
// DocumentStore wrapper converts those into fallback behavior.
type DocumentSource interface {
	Insert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	ListRecent(ctx context.Context, limit int) ([]models.Document, error)
	ReplaceChunks(ctx context.Context, id string, chunks []models.Chunk, status string) error
}

// MongoDocumentSource is the production DocumentSource.
type MongoDocumentSource struct {
	collection *mongo.Collection
}

func NewMongoDocumentSource(db *mongo.Database) *MongoDocumentSource {
	return &MongoDocumentSource{collection: db.Collection("documents")}
}

func (s *MongoDocumentSource) Insert(ctx context.Context, doc *models.Document) error {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, doc)
	return err
}

func (s *MongoDocumentSource) Get(ctx context.Context, id string) (*models.Document, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MongoDocumentSource) ListRecent(ctx context.Context, limit int) ([]models.Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.M{"created_at": -1}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoDocumentSource) ReplaceChunks(ctx context.Context, id string, chunks []models.Chunk, status string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"chunks":     chunks,
			"status":     status,
			"updated_at": time.Now(),
		}})
	return err
}

// DocumentStore applies the dual-path pattern to document reads and writes:
// attempt the primary source, and on failure serve the fallback registry's
// "documents" domain instead, without surfacing the failure.
type DocumentStore struct {
	primary  DocumentSource
	registry *FallbackRegistry
	failover *Failover
}

func NewDocumentStore(primary DocumentSource, registry *FallbackRegistry, failover *Failover) *DocumentStore {
	return &DocumentStore{
		primary:  primary,
		registry: registry,
		failover: failover,
	}
}

// Save persists a document, reporting success even when only the fallback
// path took the write. Pre-provisioning deployments run entirely on the
// registry this way.
func (s *DocumentStore) Save(ctx context.Context, doc *models.Document) {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	s.failover.Attempt(ctx, "save_document", DomainDocuments,
		func(ctx context.Context) error {
			return s.primary.Insert(ctx, doc)
		},
		func() {
			s.registry.Put(DomainDocuments, doc.ID.Hex(), *doc)
		})
}

// SetChunks attaches the ingested chunks to a document. On primary failure
// the full document, chunks included, lands in the registry so retrieval
// keeps read-your-writes within the process.
func (s *DocumentStore) SetChunks(ctx context.Context, doc *models.Document, chunks []models.Chunk) {
	doc.Chunks = chunks
	doc.Status = models.StatusCompleted

	s.failover.Attempt(ctx, "set_chunks", DomainDocuments,
		func(ctx context.Context) error {
			return s.primary.ReplaceChunks(ctx, doc.ID.Hex(), chunks, models.StatusCompleted)
		},
		func() {
			s.registry.Put(DomainDocuments, doc.ID.Hex(), *doc)
		})
}

// MarkFailed records that ingestion of a document did not produce chunks.
func (s *DocumentStore) MarkFailed(ctx context.Context, doc *models.Document) {
	doc.Status = models.StatusFailed

	s.failover.Attempt(ctx, "mark_failed", DomainDocuments,
		func(ctx context.Context) error {
			return s.primary.ReplaceChunks(ctx, doc.ID.Hex(), nil, models.StatusFailed)
		},
		func() {
			s.registry.Put(DomainDocuments, doc.ID.Hex(), *doc)
		})
}

// ListRecent returns up to limit documents, newest first. Primary failure
// degrades silently to whatever the registry holds; an empty slice is a
// normal answer.
func (s *DocumentStore) ListRecent(ctx context.Context, limit int) []models.Document {
	var docs []models.Document

	s.failover.Attempt(ctx, "list_documents", DomainDocuments,
		func(ctx context.Context) error {
			listed, err := s.primary.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			docs = listed
			return nil
		},
		func() {
			for _, e := range s.registry.List(DomainDocuments) {
				if len(docs) >= limit {
					break
				}
				if doc, ok := e.Value.(models.Document); ok {
					docs = append(docs, doc)
				}
			}
		})

	return docs
}
