package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
)

const eventColumns = `id, owner_id, title, description, start_time, end_time, location, status, category_id, version, created_at, updated_at`

// Repository handles event and reminder persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.Location, &e.Status, &e.CategoryID, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// GetEvent returns an event by ID, or nil if no such event exists.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListByOwner returns all events owned by ownerID, ordered by start time.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = $1 ORDER BY start_time`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListByOwnerInRange returns the owner's events starting inside [from, to).
func (r *Repository) ListByOwnerInRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE owner_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListByCategory returns the owner's events referencing a category.
func (r *Repository) ListByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE owner_id = $1 AND category_id = $2
		ORDER BY start_time`, ownerID, categoryID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListOverlapping returns the owner's events whose [start_time, end_time]
// intersects [start, end] under boundary-inclusive comparison. excludeID,
// when non-nil, omits that event (editing an event against itself).
func (r *Repository) ListOverlapping(ctx context.Context, ownerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE owner_id = $1 AND start_time <= $3 AND end_time >= $2
		AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY start_time`, ownerID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListSharedWith returns events shared with recipientID, ordered by start time.
func (r *Repository) ListSharedWith(ctx context.Context, recipientID uuid.UUID) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.owner_id, e.title, e.description, e.start_time, e.end_time,
			e.location, e.status, e.category_id, e.version, e.created_at, e.updated_at
		FROM events e
		JOIN shares s ON s.event_id = e.id
		WHERE s.shared_with_user_id = $1
		ORDER BY e.start_time`, recipientID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListShareRecipients returns the user IDs holding a share on the event.
func (r *Repository) ListShareRecipients(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT shared_with_user_id FROM shares WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateEvent inserts an event and its reminder set in one transaction.
func (r *Repository) CreateEvent(ctx context.Context, e *models.Event, reminders []models.Reminder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (owner_id, title, description, start_time, end_time, location, status, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at`
	err = tx.QueryRow(ctx, q, e.OwnerID, e.Title, e.Description, e.StartTime, e.EndTime, e.Location, e.Status, e.CategoryID).
		Scan(&e.ID, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := insertReminders(ctx, tx, e.ID, reminders); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateEvent persists an edited event with an optimistic version check and
// replaces its reminder set wholesale (clear then insert), all in one
// transaction. A version mismatch surfaces as a conflict.
func (r *Repository) UpdateEvent(ctx context.Context, e *models.Event, reminders []models.Reminder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4, location = $5,
			category_id = $6, version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`
	err = tx.QueryRow(ctx, q, e.Title, e.Description, e.StartTime, e.EndTime, e.Location,
		e.CategoryID, e.ID, e.Version).Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("event %s version %d: %w", e.ID, e.Version, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reminders WHERE event_id = $1`, e.ID); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}
	if err := insertReminders(ctx, tx, e.ID, reminders); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateEventStatus sets the status field. Returns the number of rows updated.
func (r *Repository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = $1, version = version + 1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteEvent removes an event. Reminders and shares go with it atomically
// via FK cascade. Returns the number of rows removed.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByOwner removes all events owned by a user (account deletion).
func (r *Repository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE owner_id = $1`, ownerID)
	return err
}

// ListReminders returns an event's reminders ordered by offset.
func (r *Repository) ListReminders(ctx context.Context, eventID uuid.UUID) ([]models.Reminder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, event_id, minutes_before, is_active, dispatched_at, created_at
		FROM reminders WHERE event_id = $1 ORDER BY minutes_before`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.EventID, &rem.MinutesBefore, &rem.IsActive, &rem.DispatchedAt, &rem.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rem)
	}
	return list, rows.Err()
}

// DueReminder is a reminder whose fire time has arrived, joined with its event.
type DueReminder struct {
	ReminderID uuid.UUID
	EventID    uuid.UUID
	OwnerID    uuid.UUID
	Title      string
	StartTime  time.Time
}

// DueReminders returns active, undispatched reminders whose fire time
// (start_time minus offset) is at or before until.
func (r *Repository) DueReminders(ctx context.Context, until time.Time) ([]DueReminder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, e.id, e.owner_id, e.title, e.start_time
		FROM reminders r
		JOIN events e ON e.id = r.event_id
		WHERE r.is_active AND r.dispatched_at IS NULL
		AND e.start_time - make_interval(mins => r.minutes_before) <= $1
		ORDER BY e.start_time`, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.ReminderID, &d.EventID, &d.OwnerID, &d.Title, &d.StartTime); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkReminderDispatched stamps a reminder as delivered.
func (r *Repository) MarkReminderDispatched(ctx context.Context, reminderID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reminders SET dispatched_at = NOW() WHERE id = $1 AND dispatched_at IS NULL`, reminderID)
	return err
}

func insertReminders(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, reminders []models.Reminder) error {
	for i := range reminders {
		const q = `INSERT INTO reminders (event_id, minutes_before, is_active)
			VALUES ($1, $2, $3) RETURNING id, created_at`
		err := tx.QueryRow(ctx, q, eventID, reminders[i].MinutesBefore, reminders[i].IsActive).
			Scan(&reminders[i].ID, &reminders[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
		reminders[i].EventID = eventID
	}
	return nil
}
