package shares

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/pkg/database"
)

const shareColumns = `id, event_id, shared_with_user_id, permission, created_at, updated_at`

// Repository handles share persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a share repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanShare(row pgx.Row) (*models.Share, error) {
	var s models.Share
	err := row.Scan(&s.ID, &s.EventID, &s.SharedWithUserID, &s.Permission, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectShares(rows pgx.Rows) ([]models.Share, error) {
	defer rows.Close()
	var list []models.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// GetShare returns the share for an (event, recipient) pair, or nil if the
// event is not shared with that user.
func (r *Repository) GetShare(ctx context.Context, eventID, recipientID uuid.UUID) (*models.Share, error) {
	s, err := scanShare(r.pool.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE event_id = $1 AND shared_with_user_id = $2`,
		eventID, recipientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListForEvent returns all shares on an event, oldest first.
func (r *Repository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.Share, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	return collectShares(rows)
}

// ListReceived returns all shares granted to a recipient, newest first.
func (r *Repository) ListReceived(ctx context.Context, recipientID uuid.UUID) ([]models.Share, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE shared_with_user_id = $1 ORDER BY created_at DESC`,
		recipientID)
	if err != nil {
		return nil, err
	}
	return collectShares(rows)
}

// ListGiven returns all shares on events the owner owns, newest first.
func (r *Repository) ListGiven(ctx context.Context, ownerID uuid.UUID) ([]models.Share, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.event_id, s.shared_with_user_id, s.permission, s.created_at, s.updated_at
		FROM shares s
		JOIN events e ON e.id = s.event_id
		WHERE e.owner_id = $1
		ORDER BY s.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectShares(rows)
}

// CountForEvent returns how many shares exist on an event.
func (r *Repository) CountForEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM shares WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

// Create inserts a share. A concurrent duplicate surfaces as
// ErrDuplicateShare via the unique constraint.
func (r *Repository) Create(ctx context.Context, s *models.Share) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO shares (event_id, shared_with_user_id, permission)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		s.EventID, s.SharedWithUserID, s.Permission).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if database.IsUniqueViolation(err, "shares_event_recipient_key") {
		return domain.ErrDuplicateShare
	}
	return err
}

// UpdatePermission changes the tier of an existing share in place and
// returns the number of rows updated.
func (r *Repository) UpdatePermission(ctx context.Context, eventID, recipientID uuid.UUID, perm models.Permission) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shares SET permission = $3, updated_at = NOW()
		WHERE event_id = $1 AND shared_with_user_id = $2`,
		eventID, recipientID, perm)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes the share for an (event, recipient) pair and returns the
// number of rows deleted.
func (r *Repository) Delete(ctx context.Context, eventID, recipientID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM shares WHERE event_id = $1 AND shared_with_user_id = $2`,
		eventID, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByRecipient removes all shares granted to a user. Called on account
// deletion.
func (r *Repository) DeleteByRecipient(ctx context.Context, recipientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM shares WHERE shared_with_user_id = $1`, recipientID)
	return err
}
