// Package events implements the event lifecycle: validated creation and
// update, owner-only deletion with cascade, status changes, calendar list
// projections and advisory overlap detection.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/internal/permissions"
)

// Store is the persistence surface the service needs. *Repository
// implements it against PostgreSQL; tests use an in-memory fake.
type Store interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Event, error)
	ListByOwnerInRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Event, error)
	ListByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) ([]models.Event, error)
	ListOverlapping(ctx context.Context, ownerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Event, error)
	ListSharedWith(ctx context.Context, recipientID uuid.UUID) ([]models.Event, error)
	ListShareRecipients(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	CreateEvent(ctx context.Context, e *models.Event, reminders []models.Reminder) error
	UpdateEvent(ctx context.Context, e *models.Event, reminders []models.Reminder) error
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) (int64, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
	ListReminders(ctx context.Context, eventID uuid.UUID) ([]models.Reminder, error)
}

// Notifier pushes realtime notifications to a user's channel. May be nil.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, payload interface{})
}

// ReminderInput is one reminder in a create/update draft.
type ReminderInput struct {
	MinutesBefore int
	IsActive      bool
}

// Draft carries the caller-supplied event fields for create and update.
// Update replaces the full draft, including the reminder set.
type Draft struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	CategoryID  *uuid.UUID
	Reminders   []ReminderInput
}

// Projection is the service's success result: the event, its reminders and
// any advisory overlap warnings. Overlaps never block the operation.
type Projection struct {
	Event           models.Event      `json:"event"`
	Reminders       []models.Reminder `json:"reminders"`
	OverlapWarnings []models.Event    `json:"overlap_warnings,omitempty"`
}

// Service orchestrates event operations, resolving permissions before any
// mutation and consulting overlap detection as a warning path.
type Service struct {
	store    Store
	resolver *permissions.Resolver
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates an event service. notifier may be nil.
func NewService(store Store, resolver *permissions.Resolver, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, resolver: resolver, notifier: notifier, logger: logger}
}

// Create validates the draft, checks category ownership, records advisory
// overlaps and persists the event with its reminders. Nothing is written
// until every validation has passed.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, draft Draft) (*Projection, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if draft.CategoryID != nil {
		if _, err := s.resolver.ResolveCategoryAccess(ctx, actor, *draft.CategoryID); err != nil {
			return nil, err
		}
	}

	overlaps, err := s.store.ListOverlapping(ctx, actor, draft.StartTime, draft.EndTime, nil)
	if err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	}
	if len(overlaps) > 0 {
		s.logger.Warn("event overlaps existing events",
			zap.String("owner_id", actor.String()),
			zap.Int("overlap_count", len(overlaps)))
	}

	event := &models.Event{
		OwnerID:     actor,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		Location:    draft.Location,
		Status:      models.StatusScheduled,
		CategoryID:  draft.CategoryID,
	}
	reminders := draftReminders(draft)
	if err := s.store.CreateEvent(ctx, event, reminders); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &Projection{Event: *event, Reminders: reminders, OverlapWarnings: overlaps}, nil
}

// Update applies a full draft to an existing event: same validation as
// Create, category re-resolution against the event's owner, wholesale
// reminder replacement and an optimistic version check.
func (s *Service) Update(ctx context.Context, actor, eventID uuid.UUID, draft Draft) (*Projection, error) {
	event, err := s.resolver.ResolveEventEdit(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if draft.CategoryID != nil {
		// The category must belong to the event's owner, also when an
		// EDIT-share collaborator performs the update.
		if _, err := s.resolver.ResolveCategoryAccess(ctx, event.OwnerID, *draft.CategoryID); err != nil {
			return nil, err
		}
	}

	overlaps, err := s.store.ListOverlapping(ctx, event.OwnerID, draft.StartTime, draft.EndTime, &eventID)
	if err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	}
	if len(overlaps) > 0 {
		s.logger.Warn("updated event overlaps existing events",
			zap.String("event_id", eventID.String()),
			zap.Int("overlap_count", len(overlaps)))
	}

	updated := *event
	updated.Title = strings.TrimSpace(draft.Title)
	updated.Description = draft.Description
	updated.StartTime = draft.StartTime
	updated.EndTime = draft.EndTime
	updated.Location = draft.Location
	updated.CategoryID = draft.CategoryID

	reminders := draftReminders(draft)
	if err := s.store.UpdateEvent(ctx, &updated, reminders); err != nil {
		return nil, err
	}
	s.notifyWatchers(ctx, &updated, "event_updated")
	return &Projection{Event: updated, Reminders: reminders, OverlapWarnings: overlaps}, nil
}

// Delete removes an event. Owner only; reminders and shares are removed
// atomically with it.
func (s *Service) Delete(ctx context.Context, actor, eventID uuid.UUID) error {
	event, err := s.resolver.ResolveEventDelete(ctx, actor, eventID)
	if err != nil {
		return err
	}
	recipients, err := s.store.ListShareRecipients(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}
	rows, err := s.store.DeleteEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event %s: %w", eventID, domain.ErrEventNotFound)
	}
	if s.notifier != nil {
		for _, recipient := range recipients {
			s.notifier.NotifyUser(recipient, "event_deleted", map[string]string{
				"event_id": eventID.String(),
				"title":    event.Title,
			})
		}
	}
	return nil
}

// UpdateStatus sets the event status. Authorized like Update: owner or
// EDIT-share collaborator.
func (s *Service) UpdateStatus(ctx context.Context, actor, eventID uuid.UUID, status models.EventStatus) (*models.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	event, err := s.resolver.ResolveEventEdit(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.UpdateEventStatus(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrEventNotFound)
	}
	event.Status = status
	s.notifyWatchers(ctx, event, "event_status_changed")
	return event, nil
}

// Get returns a single event with its reminders, for the owner or any
// share recipient.
func (s *Service) Get(ctx context.Context, actor, eventID uuid.UUID) (*Projection, error) {
	event, err := s.resolver.ResolveEventRead(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	reminders, err := s.store.ListReminders(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return &Projection{Event: *event, Reminders: reminders}, nil
}

// ListMine returns the actor's own events.
func (s *Service) ListMine(ctx context.Context, actor uuid.UUID) ([]models.Event, error) {
	return s.store.ListByOwner(ctx, actor)
}

// ListRange returns the actor's events starting inside [from, to).
func (s *Service) ListRange(ctx context.Context, actor uuid.UUID, from, to time.Time) ([]models.Event, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must precede to", domain.ErrInvalidTimeRange)
	}
	return s.store.ListByOwnerInRange(ctx, actor, from, to)
}

// ListMonth returns the actor's events in the given calendar month (UTC).
func (s *Service) ListMonth(ctx context.Context, actor uuid.UUID, year int, month time.Month) ([]models.Event, error) {
	from, to := MonthWindow(year, month)
	return s.store.ListByOwnerInRange(ctx, actor, from, to)
}

// ListWeek returns the actor's events in the given ISO week (UTC, Monday start).
func (s *Service) ListWeek(ctx context.Context, actor uuid.UUID, year, week int) ([]models.Event, error) {
	if week < 1 || week > 53 {
		return nil, fmt.Errorf("%w: week must be 1..53", domain.ErrValidation)
	}
	from, to := ISOWeekWindow(year, week)
	return s.store.ListByOwnerInRange(ctx, actor, from, to)
}

// ListDay returns the actor's events on the given day.
func (s *Service) ListDay(ctx context.Context, actor uuid.UUID, date time.Time) ([]models.Event, error) {
	from, to := DayWindow(date)
	return s.store.ListByOwnerInRange(ctx, actor, from, to)
}

// ListByCategory returns the actor's events in one of their categories.
func (s *Service) ListByCategory(ctx context.Context, actor, categoryID uuid.UUID) ([]models.Event, error) {
	if _, err := s.resolver.ResolveCategoryAccess(ctx, actor, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListByCategory(ctx, actor, categoryID)
}

// ListShared returns events other owners have shared with the actor.
func (s *Service) ListShared(ctx context.Context, actor uuid.UUID) ([]models.Event, error) {
	return s.store.ListSharedWith(ctx, actor)
}

// FindOverlapping reports the actor's events intersecting [start, end] under
// boundary-inclusive comparison, ordered by start time. Advisory only.
func (s *Service) FindOverlapping(ctx context.Context, actor uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Event, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must precede end", domain.ErrInvalidTimeRange)
	}
	return s.store.ListOverlapping(ctx, actor, start, end, excludeID)
}

// PurgeOwner removes all events a user owns, with their reminders and
// shares. System-triggered on account deletion; no per-event re-check.
func (s *Service) PurgeOwner(ctx context.Context, ownerID uuid.UUID) error {
	return s.store.DeleteByOwner(ctx, ownerID)
}

func (s *Service) notifyWatchers(ctx context.Context, event *models.Event, kind string) {
	if s.notifier == nil {
		return
	}
	recipients, err := s.store.ListShareRecipients(ctx, event.ID)
	if err != nil {
		s.logger.Warn("list recipients for notification", zap.Error(err))
		return
	}
	payload := map[string]string{
		"event_id": event.ID.String(),
		"title":    event.Title,
		"status":   string(event.Status),
	}
	s.notifier.NotifyUser(event.OwnerID, kind, payload)
	for _, recipient := range recipients {
		s.notifier.NotifyUser(recipient, kind, payload)
	}
}

func validateDraft(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title must not be blank", domain.ErrValidation)
	}
	if !d.StartTime.Before(d.EndTime) {
		return fmt.Errorf("%w: start must be strictly before end", domain.ErrInvalidTimeRange)
	}
	if d.EndTime.Sub(d.StartTime) > models.MaxEventDuration {
		return fmt.Errorf("%w: duration exceeds seven days", domain.ErrInvalidTimeRange)
	}
	for _, r := range d.Reminders {
		if !models.ValidReminderMinutes(r.MinutesBefore) {
			return fmt.Errorf("%w: reminder offset %d out of range 0..%d",
				domain.ErrValidation, r.MinutesBefore, models.MaxReminderMinutes)
		}
	}
	return nil
}

func draftReminders(d Draft) []models.Reminder {
	reminders := make([]models.Reminder, len(d.Reminders))
	for i, r := range d.Reminders {
		reminders[i] = models.Reminder{MinutesBefore: r.MinutesBefore, IsActive: r.IsActive}
	}
	return reminders
}

// MonthWindow returns [first of month 00:00 UTC, first of next month).
func MonthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// ISOWeekWindow returns [Monday 00:00 UTC of the ISO week, +7 days).
func ISOWeekWindow(year, week int) (time.Time, time.Time) {
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	week1Monday := jan4.AddDate(0, 0, -offset)
	start := week1Monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 7)
}

// DayWindow returns [date 00:00, next day 00:00) in the date's location.
func DayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
