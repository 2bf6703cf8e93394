// internal/activity/tracker.go
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GuestRecord mirrors a row in guest_activity.
type GuestRecord struct {
	GuestID       string    `json:"guest_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	IP            string    `json:"ip"`
	UserAgent     string    `json:"user_agent"`
	RateLimitHits int64     `json:"rate_limit_hits"`
}

// Tracker records guest and user activity in Postgres. All writes on the
// request path go through Dispatch and are fire-and-forget: a failed write
// is logged and dropped, never retried and never surfaced to the caller.
type Tracker struct {
	db      *sql.DB
	logger  *zap.Logger
	timeout time.Duration
}

// NewTracker creates a new activity tracker.
func NewTracker(db *sql.DB, logger *zap.Logger) *Tracker {
	return &Tracker{
		db:      db,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// InitializeSchema creates the activity tables.
func (t *Tracker) InitializeSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS guest_activity (
			guest_id VARCHAR(36) PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMP NOT NULL DEFAULT NOW(),
			ip VARCHAR(45),
			user_agent TEXT,
			rate_limit_hits BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_activity (
			user_id VARCHAR(255) PRIMARY KEY,
			last_seen_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_guest_activity_last_seen ON guest_activity(last_seen_at)`,
	}

	for _, stmt := range statements {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize activity schema: %w", err)
		}
	}

	return nil
}

// RecordGuestActivity upserts a guest row: first sight creates the record,
// later sights bump last_seen_at and the rate-limit hit counter. Retention
// is owned by the store; this subsystem never deletes rows.
func (t *Tracker) RecordGuestActivity(ctx context.Context, guestID, ip, userAgent string, wasLimited bool) error {
	query := `
	INSERT INTO guest_activity (guest_id, ip, user_agent, rate_limit_hits)
	VALUES ($1, $2, $3, CASE WHEN $4 THEN 1 ELSE 0 END)
	ON CONFLICT (guest_id) DO UPDATE SET
		last_seen_at = NOW(),
		ip = EXCLUDED.ip,
		user_agent = EXCLUDED.user_agent,
		rate_limit_hits = guest_activity.rate_limit_hits + CASE WHEN $4 THEN 1 ELSE 0 END`

	_, err := t.db.ExecContext(ctx, query, guestID, ip, userAgent, wasLimited)
	if err != nil {
		return fmt.Errorf("record guest activity: %w", err)
	}
	return nil
}

// RecordUserActivity upserts an authenticated user's last-seen timestamp.
func (t *Tracker) RecordUserActivity(ctx context.Context, userID string) error {
	query := `
	INSERT INTO user_activity (user_id)
	VALUES ($1)
	ON CONFLICT (user_id) DO UPDATE SET last_seen_at = NOW()`

	_, err := t.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("record user activity: %w", err)
	}
	return nil
}

// GetGuest retrieves a guest record, mainly for operational inspection.
func (t *Tracker) GetGuest(ctx context.Context, guestID string) (*GuestRecord, error) {
	query := `
	SELECT guest_id, created_at, last_seen_at, ip, user_agent, rate_limit_hits
	FROM guest_activity
	WHERE guest_id = $1`

	var rec GuestRecord
	var ip, userAgent sql.NullString
	err := t.db.QueryRowContext(ctx, query, guestID).Scan(
		&rec.GuestID, &rec.CreatedAt, &rec.LastSeenAt, &ip, &userAgent, &rec.RateLimitHits)
	if err != nil {
		return nil, fmt.Errorf("get guest: %w", err)
	}
	rec.IP = ip.String
	rec.UserAgent = userAgent.String

	return &rec, nil
}

// Dispatch runs fn on its own goroutine with a bounded deadline and an error
// boundary. The request handler never waits on it; failures are only logged.
func (t *Tracker) Dispatch(fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("activity dispatch panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			t.logger.Warn("activity write dropped", zap.Error(err))
		}
	}()
}
