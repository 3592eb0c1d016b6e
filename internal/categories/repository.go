package categories

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

const categoryColumns = `id, owner_id, name, color, description, created_at, updated_at`

// Repository handles category persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a category repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategory returns a category by ID, or nil if no such category exists.
func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListByOwner returns the owner's categories with their event counts,
// ordered by name.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.owner_id, c.name, c.color, c.description, c.created_at, c.updated_at,
			COUNT(e.id) AS event_count
		FROM categories c
		LEFT JOIN events e ON e.category_id = c.id
		WHERE c.owner_id = $1
		GROUP BY c.id
		ORDER BY c.name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Description,
			&c.CreatedAt, &c.UpdatedAt, &c.EventCount); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountByOwner returns how many categories the owner has.
func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// NameExists reports whether the owner already has a category with this
// exact name, excluding excludeID when non-nil. The comparison is
// case-sensitive.
func (r *Repository) NameExists(ctx context.Context, ownerID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE owner_id = $1 AND name = $2 AND ($3::uuid IS NULL OR id <> $3)
		)`, ownerID, name, excludeID).Scan(&exists)
	return exists, err
}

// CountEvents returns how many events reference the category.
func (r *Repository) CountEvents(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE category_id = $1`, categoryID).Scan(&n)
	return n, err
}

// Create inserts a category. A concurrent duplicate name surfaces as
// ErrDuplicateName via the unique constraint.
func (r *Repository) Create(ctx context.Context, c *models.Category) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (owner_id, name, color, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		c.OwnerID, c.Name, c.Color, c.Description).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if database.IsUniqueViolation(err, "categories_owner_name_key") {
		return domain.ErrDuplicateName
	}
	return err
}

// Update rewrites the category's mutable fields.
func (r *Repository) Update(ctx context.Context, c *models.Category) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, color = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Color, c.Description).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrCategoryNotFound
	}
	if database.IsUniqueViolation(err, "categories_owner_name_key") {
		return domain.ErrDuplicateName
	}
	return err
}

// Delete removes a category and returns the number of rows deleted. The
// foreign key on events restricts deletion of a category still in use.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err, "events_category_id_fkey") {
		return 0, domain.ErrCategoryInUse
	}
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByOwner removes all of a user's categories. The foreign key on
// events restricts the delete while any event still references one, so
// callers purge the owner's events first.
func (r *Repository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE owner_id = $1`, ownerID)
	if database.IsForeignKeyViolation(err, "events_category_id_fkey") {
		return domain.ErrCategoryInUse
	}
	return err
}
