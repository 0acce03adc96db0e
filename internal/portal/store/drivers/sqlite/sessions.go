package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

type sessionsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	claims, err := json.Marshal(s.Claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	if s.Claims == nil {
		claims = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, user_id, claims, id_token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenHash, s.UserID, string(claims), s.IDToken,
		s.CreatedAt.UnixMilli(), s.ExpiresAt.UnixMilli(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, token_hash, user_id, claims, id_token, created_at, expires_at
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?`,
		hash, r.now().UnixMilli(),
	)

	var (
		s                    domain.Session
		claims               string
		createdAt, expiresAt int64
	)
	if err := row.Scan(&s.ID, &s.TokenHash, &s.UserID, &claims, &s.IDToken, &createdAt, &expiresAt); err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	if err := json.Unmarshal([]byte(claims), &s.Claims); err != nil {
		return domain.Session{}, fmt.Errorf("decode claims: %w", err)
	}
	s.CreatedAt = time.UnixMilli(createdAt).UTC()
	s.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
