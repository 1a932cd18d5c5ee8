package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"chatbot-retrieval-core/internal/clock"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/models"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGuard(t *testing.T) (*SessionGuard, *clock.Fake, store.SessionStore) {
	t.Helper()
	clk := clock.NewFake(testEpoch)
	sessions := store.NewMemorySessionStore()
	return NewSessionGuard(sessions, clk, 7*24*time.Hour, nil), clk, sessions
}

func TestValidateAbsent(t *testing.T) {
	guard, _, _ := newTestGuard(t)

	status, session := guard.Validate(context.Background(), "")
	if status != StatusAbsent {
		t.Fatalf("expected Absent, got %s", status)
	}
	if session != nil {
		t.Fatalf("expected nil session")
	}
}

func TestValidateInvalid(t *testing.T) {
	guard, _, _ := newTestGuard(t)

	status, _ := guard.Validate(context.Background(), "no-such-token")
	if status != StatusInvalid {
		t.Fatalf("expected Invalid, got %s", status)
	}
}

func TestValidateExpired(t *testing.T) {
	guard, clk, sessions := newTestGuard(t)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// One second past expiry is already Expired, and no extension may
	// happen on the way out.
	clk.Set(session.ExpiresAt.Add(time.Second))
	status, _ := guard.Validate(context.Background(), session.Token)
	if status != StatusExpired {
		t.Fatalf("expected Expired, got %s", status)
	}

	stored, err := sessions.Get(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("expired session was extended: %v -> %v", session.ExpiresAt, stored.ExpiresAt)
	}
}

func TestValidateExactlyAtExpiryIsExpired(t *testing.T) {
	guard, clk, _ := newTestGuard(t)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.Set(session.ExpiresAt)
	if status, _ := guard.Validate(context.Background(), session.Token); status != StatusExpired {
		t.Fatalf("expected Expired at the boundary, got %s", status)
	}
}

func TestValidateSlidesExpiry(t *testing.T) {
	guard, clk, sessions := newTestGuard(t)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.Advance(3 * 24 * time.Hour)
	status, validated := guard.Validate(context.Background(), session.Token)
	if status != StatusValid {
		t.Fatalf("expected Valid, got %s", status)
	}

	want := clk.Now().Add(7 * 24 * time.Hour)
	if !validated.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry slid to %v, got %v", want, validated.ExpiresAt)
	}

	stored, err := sessions.Get(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.ExpiresAt.Equal(want) {
		t.Fatalf("slide not persisted: %v", stored.ExpiresAt)
	}
}

func TestValidateExpiryNeverDecreases(t *testing.T) {
	guard, clk, sessions := newTestGuard(t)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	previous := session.ExpiresAt
	for i := 0; i < 5; i++ {
		clk.Advance(time.Hour)
		if status, _ := guard.Validate(context.Background(), session.Token); status != StatusValid {
			t.Fatalf("validation %d not Valid", i)
		}
		stored, err := sessions.Get(context.Background(), session.Token)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if stored.ExpiresAt.Before(previous) {
			t.Fatalf("expiry decreased: %v -> %v", previous, stored.ExpiresAt)
		}
		previous = stored.ExpiresAt
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	guard, _, _ := newTestGuard(t)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := guard.Revoke(context.Background(), session.Token); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := guard.Revoke(context.Background(), session.Token); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}
	if err := guard.Revoke(context.Background(), "never-issued"); err != nil {
		t.Fatalf("revoking unknown token failed: %v", err)
	}

	if status, _ := guard.Validate(context.Background(), session.Token); status != StatusInvalid {
		t.Fatalf("expected Invalid after revoke, got %s", status)
	}
}

type failingSessionStore struct{}

func (failingSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	return nil, errors.New("store down")
}
func (failingSessionStore) Put(ctx context.Context, session models.Session) error {
	return errors.New("store down")
}
func (failingSessionStore) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	return errors.New("store down")
}
func (failingSessionStore) Delete(ctx context.Context, token string) error {
	return errors.New("store down")
}
func (failingSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, errors.New("store down")
}

func TestValidateFailsClosedOnStoreError(t *testing.T) {
	guard := NewSessionGuard(failingSessionStore{}, clock.NewFake(testEpoch), 7*24*time.Hour, nil)

	status, _ := guard.Validate(context.Background(), "some-token")
	if status != StatusInvalid {
		t.Fatalf("expected Invalid on store error, got %s", status)
	}
}

type slideFailStore struct {
	*store.MemorySessionStore
	setExpiryCalls int
}

func (s *slideFailStore) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	s.setExpiryCalls++
	return errors.New("write rejected")
}

func TestSlideFailureKeepsVerdict(t *testing.T) {
	inner := store.NewMemorySessionStore()
	failing := &slideFailStore{MemorySessionStore: inner}
	clk := clock.NewFake(testEpoch)
	guard := NewSessionGuard(failing, clk, 7*24*time.Hour, nil)

	session, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	status, _ := guard.Validate(context.Background(), session.Token)
	if status != StatusValid {
		t.Fatalf("slide failure downgraded the verdict to %s", status)
	}
	if failing.setExpiryCalls != 2 {
		t.Fatalf("expected one retry after failure, got %d calls", failing.setExpiryCalls)
	}
}

func TestPurgeExpired(t *testing.T) {
	guard, clk, _ := newTestGuard(t)

	stale, err := guard.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)
	fresh, err := guard.Issue(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	removed, err := guard.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged, got %d", removed)
	}

	if status, _ := guard.Validate(context.Background(), stale.Token); status != StatusInvalid {
		t.Fatalf("stale session should be gone, got %s", status)
	}
	if status, _ := guard.Validate(context.Background(), fresh.Token); status != StatusValid {
		t.Fatalf("fresh session should survive, got %s", status)
	}
}

func TestExtractTokenHeaderBeatsQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/session?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	if got := ExtractToken(r); got != "header-token" {
		t.Fatalf("expected header token to win, got %q", got)
	}
}

func TestExtractTokenQueryFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/session?token=query-token", nil)
	if got := ExtractToken(r); got != "query-token" {
		t.Fatalf("expected query token, got %q", got)
	}
}

func TestExtractTokenMalformedHeaderFallsThrough(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/session?token=query-token", nil)
	r.Header.Set("Authorization", "NotBearer something")

	if got := ExtractToken(r); got != "query-token" {
		t.Fatalf("expected fall through to query token, got %q", got)
	}
}

func TestExtractTokenNone(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/session", nil)
	if got := ExtractToken(r); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
