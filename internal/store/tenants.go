package store

import (
	"context"
	"time"

	"chatbot-retrieval-core/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TenantSource is the primary-store contract for tenant provisioning.
type TenantSource interface {
	Upsert(ctx context.Context, tenant models.Tenant) error
	Get(ctx context.Context, id string) (*models.Tenant, error)
	List(ctx context.Context, limit int) ([]models.Tenant, error)
}

type MongoTenantSource struct {
	collection *mongo.Collection
}

func NewMongoTenantSource(db *mongo.Database) *MongoTenantSource {
	return &MongoTenantSource{collection: db.Collection("tenants")}
}

func (s *MongoTenantSource) Upsert(ctx context.Context, tenant models.Tenant) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": tenant.ID},
		bson.M{"$set": tenant},
		options.Update().SetUpsert(true))
	return err
}

func (s *MongoTenantSource) Get(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tenant)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *MongoTenantSource) List(ctx context.Context, limit int) ([]models.Tenant, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.M{"provisioned_at": -1}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tenants := make([]models.Tenant, 0)
	if err := cursor.All(ctx, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// TenantStore provisions tenants dual-path. A tenant provisioned while the
// primary store is down exists only in this process until the store comes
// back; requests racing to provision the same tenant converge
// last-write-wins, which is the accepted outcome.
type TenantStore struct {
	primary  TenantSource
	registry *FallbackRegistry
	failover *Failover
}

func NewTenantStore(primary TenantSource, registry *FallbackRegistry, failover *Failover) *TenantStore {
	return &TenantStore{
		primary:  primary,
		registry: registry,
		failover: failover,
	}
}

// Provision creates or refreshes the tenant record, reporting success on
// both paths. Re-provisioning an existing tenant is a no-op overwrite.
func (s *TenantStore) Provision(ctx context.Context, tenant models.Tenant) models.Tenant {
	if tenant.Plan == "" {
		tenant.Plan = "trial"
	}
	if tenant.ProvisionedAt.IsZero() {
		tenant.ProvisionedAt = time.Now()
	}

	s.failover.Attempt(ctx, "provision_tenant", DomainTenants,
		func(ctx context.Context) error {
			return s.primary.Upsert(ctx, tenant)
		},
		func() {
			s.registry.Put(DomainTenants, tenant.ID, tenant)
		})

	return tenant
}

// Get resolves a tenant from either path; nil means not provisioned.
func (s *TenantStore) Get(ctx context.Context, id string) *models.Tenant {
	var found *models.Tenant

	s.failover.Attempt(ctx, "get_tenant", DomainTenants,
		func(ctx context.Context) error {
			tenant, err := s.primary.Get(ctx, id)
			if err != nil {
				return err
			}
			found = tenant
			return nil
		},
		func() {
			if value, ok := s.registry.Get(DomainTenants, id); ok {
				if tenant, ok := value.(models.Tenant); ok {
					found = &tenant
				}
			}
		})

	return found
}

// List returns provisioned tenants, newest first, from whichever path
// answered.
func (s *TenantStore) List(ctx context.Context, limit int) []models.Tenant {
	var tenants []models.Tenant

	s.failover.Attempt(ctx, "list_tenants", DomainTenants,
		func(ctx context.Context) error {
			listed, err := s.primary.List(ctx, limit)
			if err != nil {
				return err
			}
			tenants = listed
			return nil
		},
		func() {
			for _, e := range s.registry.List(DomainTenants) {
				if len(tenants) >= limit {
					break
				}
				if tenant, ok := e.Value.(models.Tenant); ok {
					tenants = append(tenants, tenant)
				}
			}
		})

	return tenants
}
