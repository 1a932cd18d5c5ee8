package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chatbot-retrieval-core/internal/clock"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/internal/telemetry"
	"chatbot-retrieval-core/models"

	"github.com/google/uuid"
)

// Status is the verdict of a single validation call. There is no persisted
// state machine; each call reconstructs the status from current data.
type Status int

const (
	StatusAbsent Status = iota
	StatusInvalid
	StatusExpired
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusInvalid:
		return "invalid"
	case StatusExpired:
		return "expired"
	case StatusValid:
		return "valid"
	default:
		return "unknown"
	}
}

// SessionGuard validates bearer tokens against session records and slides
// the expiry window forward on each successful validation.
type SessionGuard struct {
	sessions store.SessionStore
	clk      clock.Clock
	ttl      time.Duration
	metrics  *telemetry.Metrics
}

func NewSessionGuard(sessions store.SessionStore, clk clock.Clock, ttl time.Duration, metrics *telemetry.Metrics) *SessionGuard {
	if clk == nil {
		clk = clock.System{}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionGuard{
		sessions: sessions,
		clk:      clk,
		ttl:      ttl,
		metrics:  metrics,
	}
}

// Issue creates a fresh session for a user and returns it.
func (g *SessionGuard) Issue(ctx context.Context, userID string) (*models.Session, error) {
	now := g.clk.Now()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(g.ttl),
		CreatedAt: now,
	}
	if err := g.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Validate reconstructs the session status for a token. On Valid it
// extends the expiry to now + ttl before returning; the extension is
// last-write-wins under concurrent slides and its failure never downgrades
// the verdict already computed for this call.
//
// Store errors other than "not found" yield Invalid: authorization fails
// closed, it is never served from a degraded path.
func (g *SessionGuard) Validate(ctx context.Context, token string) (Status, *models.Session) {
	if token == "" {
		return StatusAbsent, nil
	}

	session, err := g.sessions.Get(ctx, token)
	if err == store.ErrSessionNotFound {
		return StatusInvalid, nil
	}
	if err != nil {
		logger.Error("Session lookup failed, rejecting token", "error", err.Error())
		return StatusInvalid, nil
	}

	now := g.clk.Now()
	if !now.Before(session.ExpiresAt) {
		return StatusExpired, session
	}

	newExpiry := now.Add(g.ttl)
	if err := g.slide(ctx, token, newExpiry); err != nil {
		// Verdict stands; the missed extension is reported, not swallowed.
		logger.Error("Failed to extend session expiry", "error", err.Error())
		g.metrics.RecordSessionSlide(false)
	} else {
		session.ExpiresAt = newExpiry
		g.metrics.RecordSessionSlide(true)
	}

	return StatusValid, session
}

// slide writes the new expiry, retrying once on failure.
func (g *SessionGuard) slide(ctx context.Context, token string, expiresAt time.Time) error {
	err := g.sessions.SetExpiry(ctx, token, expiresAt)
	if err == nil {
		return nil
	}
	return g.sessions.SetExpiry(ctx, token, expiresAt)
}

// Revoke deletes the session record. Revoking an unknown token is a no-op
// success.
func (g *SessionGuard) Revoke(ctx context.Context, token string) error {
	return g.sessions.Delete(ctx, token)
}

// PurgeExpired removes sessions already past their expiry; run by the
// scheduler.
func (g *SessionGuard) PurgeExpired(ctx context.Context) (int64, error) {
	return g.sessions.DeleteExpired(ctx, g.clk.Now())
}

// ExtractToken pulls the bearer token from a request. The Authorization
// header takes priority over the token query parameter.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != header && token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}
