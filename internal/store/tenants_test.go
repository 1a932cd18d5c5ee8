package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatbot-retrieval-core/models"
)

type failingTenantSource struct{}

func (failingTenantSource) Upsert(ctx context.Context, tenant models.Tenant) error {
	return errors.New("primary store down")
}
func (failingTenantSource) Get(ctx context.Context, id string) (*models.Tenant, error) {
	return nil, errors.New("primary store down")
}
func (failingTenantSource) List(ctx context.Context, limit int) ([]models.Tenant, error) {
	return nil, errors.New("primary store down")
}

func newDegradedTenantStore() *TenantStore {
	registry := NewFallbackRegistry(0, nil)
	failover := NewFailover("test-tenants", 100*time.Millisecond, nil)
	return NewTenantStore(failingTenantSource{}, registry, failover)
}

func TestProvisionThroughFallback(t *testing.T) {
	s := newDegradedTenantStore()

	provisioned := s.Provision(context.Background(), models.Tenant{ID: "acme", Name: "Acme"})
	if provisioned.Plan != "trial" {
		t.Fatalf("expected default plan trial, got %q", provisioned.Plan)
	}
	if provisioned.ProvisionedAt.IsZero() {
		t.Fatalf("provision timestamp not set")
	}

	got := s.Get(context.Background(), "acme")
	if got == nil || got.Name != "Acme" {
		t.Fatalf("read-your-writes failed through fallback: %+v", got)
	}
}

func TestProvisionIsIdempotentConvergent(t *testing.T) {
	s := newDegradedTenantStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "Acme"
			if i%2 == 1 {
				name = "Acme Renamed"
			}
			s.Provision(context.Background(), models.Tenant{ID: "acme", Name: name})
		}(i)
	}
	wg.Wait()

	got := s.Get(context.Background(), "acme")
	if got == nil {
		t.Fatalf("tenant missing after racing provisions")
	}
	if got.Name != "Acme" && got.Name != "Acme Renamed" {
		t.Fatalf("corrupted record after racing provisions: %+v", got)
	}
}

func TestGetUnknownTenant(t *testing.T) {
	s := newDegradedTenantStore()
	if got := s.Get(context.Background(), "nope"); got != nil {
		t.Fatalf("expected nil for unknown tenant, got %+v", got)
	}
}
