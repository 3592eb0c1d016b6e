// Package shares manages event sharing: the owner grants, changes and
// revokes per-recipient access at one of two tiers. Shares never grant
// delete or further sharing.
package shares

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/internal/permissions"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetShare(ctx context.Context, eventID, recipientID uuid.UUID) (*models.Share, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.Share, error)
	ListReceived(ctx context.Context, recipientID uuid.UUID) ([]models.Share, error)
	ListGiven(ctx context.Context, ownerID uuid.UUID) ([]models.Share, error)
	CountForEvent(ctx context.Context, eventID uuid.UUID) (int, error)
	Create(ctx context.Context, s *models.Share) error
	UpdatePermission(ctx context.Context, eventID, recipientID uuid.UUID, perm models.Permission) (int64, error)
	Delete(ctx context.Context, eventID, recipientID uuid.UUID) (int64, error)
	DeleteByRecipient(ctx context.Context, recipientID uuid.UUID) error
}

// Users resolves recipient user IDs. A missing user is (nil, nil).
// *auth.Repository implements it.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier pushes realtime notifications to a user's channel. May be nil.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, payload interface{})
}

// Service enforces the sharing rules: owner-only management, no self-shares,
// one share per recipient, a per-event cap and a valid permission tier.
type Service struct {
	store       Store
	users       Users
	resolver    *permissions.Resolver
	notifier    Notifier
	maxPerEvent int
	logger      *zap.Logger
}

// NewService creates a sharing service. notifier may be nil.
func NewService(store Store, users Users, resolver *permissions.Resolver, notifier Notifier, maxPerEvent int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		users:       users,
		resolver:    resolver,
		notifier:    notifier,
		maxPerEvent: maxPerEvent,
		logger:      logger,
	}
}

// Share grants a recipient access to an event. Only the owner may share;
// every precondition is checked before the write, and the unique constraint
// backstops concurrent grants for the same recipient.
func (s *Service) Share(ctx context.Context, actor, eventID, recipientID uuid.UUID, perm models.Permission) (*models.Share, error) {
	if !perm.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", domain.ErrValidation, perm)
	}
	event, err := s.resolver.ResolveEventShareManage(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if recipientID == event.OwnerID {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrSelfShare)
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("user %s: %w", recipientID, domain.ErrUserNotFound)
	}
	existing, err := s.store.GetShare(ctx, eventID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("event %s already shared with %s: %w", eventID, recipientID, domain.ErrDuplicateShare)
	}
	count, err := s.store.CountForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count shares: %w", err)
	}
	if count >= s.maxPerEvent {
		return nil, fmt.Errorf("limit of %d shares reached: %w", s.maxPerEvent, domain.ErrShareLimitExceeded)
	}

	share := &models.Share{
		EventID:          eventID,
		SharedWithUserID: recipientID,
		Permission:       perm,
	}
	if err := s.store.Create(ctx, share); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(recipientID, "event_shared", map[string]string{
			"event_id":   eventID.String(),
			"title":      event.Title,
			"permission": string(perm),
		})
	}
	return share, nil
}

// ChangePermission moves an existing share to a different tier in place.
// Owner only.
func (s *Service) ChangePermission(ctx context.Context, actor, eventID, recipientID uuid.UUID, perm models.Permission) (*models.Share, error) {
	if !perm.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", domain.ErrValidation, perm)
	}
	if _, err := s.resolver.ResolveEventShareManage(ctx, actor, eventID); err != nil {
		return nil, err
	}
	rows, err := s.store.UpdatePermission(ctx, eventID, recipientID, perm)
	if err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("event %s not shared with %s: %w", eventID, recipientID, domain.ErrShareNotFound)
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(recipientID, "share_permission_changed", map[string]string{
			"event_id":   eventID.String(),
			"permission": string(perm),
		})
	}
	return s.store.GetShare(ctx, eventID, recipientID)
}

// Unshare revokes a recipient's access. Owner only; the recipient loses
// access immediately.
func (s *Service) Unshare(ctx context.Context, actor, eventID, recipientID uuid.UUID) error {
	event, err := s.resolver.ResolveEventShareManage(ctx, actor, eventID)
	if err != nil {
		return err
	}
	rows, err := s.store.Delete(ctx, eventID, recipientID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event %s not shared with %s: %w", eventID, recipientID, domain.ErrShareNotFound)
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(recipientID, "event_unshared", map[string]string{
			"event_id": eventID.String(),
			"title":    event.Title,
		})
	}
	return nil
}

// ListForEvent returns all shares on an event. Owner only.
func (s *Service) ListForEvent(ctx context.Context, actor, eventID uuid.UUID) ([]models.Share, error) {
	if _, err := s.resolver.ResolveEventShareManage(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.store.ListForEvent(ctx, eventID)
}

// ListReceived returns the shares granted to the actor.
func (s *Service) ListReceived(ctx context.Context, actor uuid.UUID) ([]models.Share, error) {
	return s.store.ListReceived(ctx, actor)
}

// ListGiven returns the shares the actor has granted across their events.
func (s *Service) ListGiven(ctx context.Context, actor uuid.UUID) ([]models.Share, error) {
	return s.store.ListGiven(ctx, actor)
}

// ListEditable returns the actor's received shares that carry edit rights.
func (s *Service) ListEditable(ctx context.Context, actor uuid.UUID) ([]models.Share, error) {
	received, err := s.store.ListReceived(ctx, actor)
	if err != nil {
		return nil, err
	}
	editable := make([]models.Share, 0, len(received))
	for _, share := range received {
		if share.Permission.CanEdit() {
			editable = append(editable, share)
		}
	}
	return editable, nil
}

// GetShare returns the share for an (event, recipient) pair. Visible to the
// event owner and to the recipient themselves; anyone else is denied.
func (s *Service) GetShare(ctx context.Context, actor, eventID, recipientID uuid.UUID) (*models.Share, error) {
	event, err := s.resolver.ResolveEventRead(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if actor != event.OwnerID && actor != recipientID {
		return nil, fmt.Errorf("share on event %s: %w", eventID, domain.ErrAccessDenied)
	}
	share, err := s.store.GetShare(ctx, eventID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	if share == nil {
		return nil, fmt.Errorf("event %s not shared with %s: %w", eventID, recipientID, domain.ErrShareNotFound)
	}
	return share, nil
}

// IsSharedWith reports whether an event is shared with a user. Same
// visibility as GetShare.
func (s *Service) IsSharedWith(ctx context.Context, actor, eventID, userID uuid.UUID) (bool, error) {
	event, err := s.resolver.ResolveEventRead(ctx, actor, eventID)
	if err != nil {
		return false, err
	}
	if actor != event.OwnerID && actor != userID {
		return false, fmt.Errorf("shares of event %s: %w", eventID, domain.ErrAccessDenied)
	}
	share, err := s.store.GetShare(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("get share: %w", err)
	}
	return share != nil, nil
}

// PurgeRecipient removes every share granted to a user. Called on account
// deletion; shares on the user's own events go with the events themselves.
func (s *Service) PurgeRecipient(ctx context.Context, userID uuid.UUID) error {
	return s.store.DeleteByRecipient(ctx, userID)
}
