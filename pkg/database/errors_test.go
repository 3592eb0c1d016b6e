package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func pgError(code, constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
}

func TestIsUniqueViolation(t *testing.T) {
	dup := pgError("23505", "categories_owner_name_key")

	assert.True(t, IsUniqueViolation(dup, "categories_owner_name_key"))
	assert.True(t, IsUniqueViolation(dup, ""), "empty constraint matches any unique violation")
	assert.False(t, IsUniqueViolation(dup, "shares_event_recipient_key"))
	assert.False(t, IsUniqueViolation(pgError("23503", "events_category_id_fkey"), "events_category_id_fkey"))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), "categories_owner_name_key"))
	assert.False(t, IsUniqueViolation(nil, "categories_owner_name_key"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := pgError("23503", "events_category_id_fkey")

	assert.True(t, IsForeignKeyViolation(fk, "events_category_id_fkey"))
	assert.True(t, IsForeignKeyViolation(fk, ""))
	assert.False(t, IsForeignKeyViolation(fk, "shares_event_id_fkey"))
	assert.False(t, IsForeignKeyViolation(pgError("23505", "categories_owner_name_key"), "categories_owner_name_key"))
	assert.False(t, IsForeignKeyViolation(nil, "events_category_id_fkey"))
}
