package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore backs sign-in. Like sessions, it has no fallback path: failed
// credential lookups reject, never degrade.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type MongoUserStore struct {
	collection *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{collection: db.Collection("users")}
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.collection.InsertOne(ctx, user)
	return err
}

func (s *MongoUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MemoryUserStore backs tests and fallback-mode boots.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := user
	return &copied, nil
}
