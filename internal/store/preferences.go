package store

import (
	"context"

	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PreferenceSource is the primary-store contract for tenant preferences.
type PreferenceSource interface {
	Get(ctx context.Context, tenantID string) (*models.Preferences, error)
	Put(ctx context.Context, tenantID string, prefs models.Preferences) error
}

type MongoPreferenceSource struct {
	collection *mongo.Collection
}

func NewMongoPreferenceSource(db *mongo.Database) *MongoPreferenceSource {
	return &MongoPreferenceSource{collection: db.Collection("preferences")}
}

func (s *MongoPreferenceSource) Get(ctx context.Context, tenantID string) (*models.Preferences, error) {
	var doc struct {
		TenantID    string             `bson:"_id"`
		Preferences models.Preferences `bson:"preferences"`
	}
	err := s.collection.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.Preferences, nil
}

func (s *MongoPreferenceSource) Put(ctx context.Context, tenantID string, prefs models.Preferences) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": tenantID},
		bson.M{"$set": bson.M{"preferences": prefs}},
		options.Update().SetUpsert(true))
	return err
}

// PreferenceStore is the dual-path preference surface. Reads merge whatever
// record was found (primary or fallback) onto the documented defaults, so a
// missing or partial record always yields a complete preference set.
type PreferenceStore struct {
	primary  PreferenceSource
	registry *FallbackRegistry
	failover *Failover
}

func NewPreferenceStore(primary PreferenceSource, registry *FallbackRegistry, failover *Failover) *PreferenceStore {
	return &PreferenceStore{
		primary:  primary,
		registry: registry,
		failover: failover,
	}
}

func (s *PreferenceStore) Get(ctx context.Context, tenantID string) models.Preferences {
	var found *models.Preferences

	s.failover.Attempt(ctx, "get_preferences", DomainPreferences,
		func(ctx context.Context) error {
			prefs, err := s.primary.Get(ctx, tenantID)
			if err != nil {
				return err
			}
			found = prefs
			return nil
		},
		func() {
			if value, ok := s.registry.Get(DomainPreferences, tenantID); ok {
				if prefs, ok := value.(models.Preferences); ok {
					found = &prefs
				}
			}
		})

	if found == nil {
		return models.DefaultPreferences()
	}
	return found.Merge(models.DefaultPreferences())
}

// Put stores the full merged preference set. Degraded writes land in the
// registry and succeed from the caller's point of view.
func (s *PreferenceStore) Put(ctx context.Context, tenantID string, prefs models.Preferences) models.Preferences {
	merged := prefs.Merge(models.DefaultPreferences())

	s.failover.Attempt(ctx, "put_preferences", DomainPreferences,
		func(ctx context.Context) error {
			return s.primary.Put(ctx, tenantID, merged)
		},
		func() {
			s.registry.Put(DomainPreferences, tenantID, merged)
		})

	return merged
}
