// Package permissions decides, for any (actor, entity) pair, whether an
// operation is allowed. Every entry point that touches an event or category
// resolves access here before acting.
package permissions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
)

// EventGetter looks up a single event. A missing event is (nil, nil).
type EventGetter interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// ShareGetter looks up the share for an (event, recipient) pair.
// A missing share is (nil, nil).
type ShareGetter interface {
	GetShare(ctx context.Context, eventID, recipientID uuid.UUID) (*models.Share, error)
}

// CategoryGetter looks up a single category. A missing category is (nil, nil).
type CategoryGetter interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Resolver applies the two-tier permission model: owners hold every right;
// shares grant read (any tier) or read+edit (EDIT tier) and never delete or
// share management. Missing entities resolve to not-found, existing but
// unauthorized to access-denied; the two are never conflated.
type Resolver struct {
	events     EventGetter
	shares     ShareGetter
	categories CategoryGetter
}

// NewResolver creates a permission resolver over the given stores.
func NewResolver(events EventGetter, shares ShareGetter, categories CategoryGetter) *Resolver {
	return &Resolver{events: events, shares: shares, categories: categories}
}

// ResolveEventRead allows the owner or any share recipient.
func (r *Resolver) ResolveEventRead(ctx context.Context, actor, eventID uuid.UUID) (*models.Event, error) {
	event, err := r.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID == actor {
		return event, nil
	}
	share, err := r.shares.GetShare(ctx, eventID, actor)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	if share != nil && share.Permission.CanView() {
		return event, nil
	}
	return nil, fmt.Errorf("read event %s: %w", eventID, domain.ErrAccessDenied)
}

// ResolveEventEdit allows the owner or a recipient holding an EDIT share.
func (r *Resolver) ResolveEventEdit(ctx context.Context, actor, eventID uuid.UUID) (*models.Event, error) {
	event, err := r.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID == actor {
		return event, nil
	}
	share, err := r.shares.GetShare(ctx, eventID, actor)
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	if share != nil && share.Permission.CanEdit() {
		return event, nil
	}
	return nil, fmt.Errorf("edit event %s: %w", eventID, domain.ErrAccessDenied)
}

// ResolveEventDelete allows only the owner. Sharing never grants delete,
// regardless of permission tier.
func (r *Resolver) ResolveEventDelete(ctx context.Context, actor, eventID uuid.UUID) (*models.Event, error) {
	event, err := r.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != actor {
		return nil, fmt.Errorf("delete event %s: %w", eventID, domain.ErrAccessDenied)
	}
	return event, nil
}

// ResolveEventShareManage allows only the owner to create, modify or revoke
// shares on an event.
func (r *Resolver) ResolveEventShareManage(ctx context.Context, actor, eventID uuid.UUID) (*models.Event, error) {
	event, err := r.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != actor {
		return nil, fmt.Errorf("manage shares of event %s: %w", eventID, domain.ErrAccessDenied)
	}
	return event, nil
}

// ResolveCategoryAccess allows only the owner. Categories are never shared.
func (r *Resolver) ResolveCategoryAccess(ctx context.Context, actor, categoryID uuid.UUID) (*models.Category, error) {
	category, err := r.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, domain.ErrCategoryNotFound)
	}
	if category.OwnerID != actor {
		return nil, fmt.Errorf("access category %s: %w", categoryID, domain.ErrAccessDenied)
	}
	return category, nil
}

// CanReadEvent is the non-erroring form of ResolveEventRead.
func (r *Resolver) CanReadEvent(ctx context.Context, actor, eventID uuid.UUID) bool {
	_, err := r.ResolveEventRead(ctx, actor, eventID)
	return err == nil
}

// CanEditEvent is the non-erroring form of ResolveEventEdit.
func (r *Resolver) CanEditEvent(ctx context.Context, actor, eventID uuid.UUID) bool {
	_, err := r.ResolveEventEdit(ctx, actor, eventID)
	return err == nil
}

func (r *Resolver) getEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := r.events.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", id, domain.ErrEventNotFound)
	}
	return event, nil
}
