package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrSessionNotFound distinguishes a missing record from a store failure.
// Authorization fails closed on the latter.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds bearer-token session records. Unlike the document and
// preference paths, session reads do NOT fall back: an unreadable session
// store must never validate a token.
type SessionStore interface {
	Get(ctx context.Context, token string) (*models.Session, error)
	Put(ctx context.Context, session models.Session) error
	SetExpiry(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type MongoSessionStore struct {
	collection *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{collection: db.Collection("sessions")}
}

func (s *MongoSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.collection.FindOne(ctx, bson.M{"token": token}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MongoSessionStore) Put(ctx context.Context, session models.Session) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"token": session.Token},
		bson.M{"$set": session},
		options.Update().SetUpsert(true))
	return err
}

func (s *MongoSessionStore) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"expires_at": expiresAt}})
	return err
}

func (s *MongoSessionStore) Delete(ctx context.Context, token string) error {
	// Deleting an absent token is a no-op success
	_, err := s.collection.DeleteOne(ctx, bson.M{"token": token})
	return err
}

func (s *MongoSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MemorySessionStore keeps sessions in a process-local map. It backs tests
// and fallback-mode boots where Mongo was never reachable.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := session
	return &copied, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *MemorySessionStore) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	s.sessions[token] = session
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemorySessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(before) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
