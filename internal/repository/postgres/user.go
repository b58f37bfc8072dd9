package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when a user id has no row.
var ErrUserNotFound = errors.New("user not found")

// UserRepo reads the recipient directory.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a Postgres-backed user repository.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetEmail resolves a user id to its email address.
func (r *UserRepo) GetEmail(ctx context.Context, id string) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx,
		`SELECT email FROM phish_users WHERE id = $1`, id).Scan(&email)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user email: %w", err)
	}
	return email, nil
}

// ListIDsByOrganization returns every enrolled user id for an org, the
// default recipient set when a launch request names no users.
func (r *UserRepo) ListIDsByOrganization(ctx context.Context, orgID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM phish_users WHERE organization_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
