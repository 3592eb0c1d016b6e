// Package categories manages a user's event categories: bounded per owner,
// uniquely named, color-tagged and protected against deletion while events
// still reference them.
package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/internal/permissions"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	NameExists(ctx context.Context, ownerID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	CountEvents(ctx context.Context, categoryID uuid.UUID) (int, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}

// Input carries the caller-supplied category fields.
type Input struct {
	Name        string
	Color       string
	Description string
}

// Service enforces the category rules: per-owner cap, case-sensitive name
// uniqueness, color validation with a default, and the in-use deletion gate.
type Service struct {
	store      Store
	resolver   *permissions.Resolver
	maxPerUser int
	logger     *zap.Logger
}

// NewService creates a category service.
func NewService(store Store, resolver *permissions.Resolver, maxPerUser int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, resolver: resolver, maxPerUser: maxPerUser, logger: logger}
}

// Create adds a category for the actor. The cap and the duplicate-name check
// both run before any write; the unique constraint backstops concurrent
// creations.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in Input) (*models.Category, error) {
	name, color, err := normalize(in)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountByOwner(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if count >= s.maxPerUser {
		return nil, fmt.Errorf("limit of %d categories reached: %w", s.maxPerUser, domain.ErrCategoryLimitExceeded)
	}
	exists, err := s.store.NameExists(ctx, actor, name, nil)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("category %q: %w", name, domain.ErrDuplicateName)
	}
	category := &models.Category{
		OwnerID:     actor,
		Name:        name,
		Color:       color,
		Description: in.Description,
	}
	if err := s.store.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Update rewrites an existing category. Renaming into an existing name is
// rejected the same way creation is.
func (s *Service) Update(ctx context.Context, actor, categoryID uuid.UUID, in Input) (*models.Category, error) {
	category, err := s.resolver.ResolveCategoryAccess(ctx, actor, categoryID)
	if err != nil {
		return nil, err
	}
	name, color, err := normalize(in)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.NameExists(ctx, actor, name, &categoryID)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("category %q: %w", name, domain.ErrDuplicateName)
	}
	category.Name = name
	category.Color = color
	category.Description = in.Description
	if err := s.store.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. A category still referenced by events cannot be
// deleted; events must be reassigned or deleted first.
func (s *Service) Delete(ctx context.Context, actor, categoryID uuid.UUID) error {
	if _, err := s.resolver.ResolveCategoryAccess(ctx, actor, categoryID); err != nil {
		return err
	}
	count, err := s.store.CountEvents(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("category has %d events: %w", count, domain.ErrCategoryInUse)
	}
	rows, err := s.store.Delete(ctx, categoryID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("category %s: %w", categoryID, domain.ErrCategoryNotFound)
	}
	return nil
}

// Get returns one of the actor's categories with its event count.
func (s *Service) Get(ctx context.Context, actor, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.resolver.ResolveCategoryAccess(ctx, actor, categoryID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountEvents(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	category.EventCount = count
	return category, nil
}

// List returns the actor's categories. When hasEvents is non-nil the result
// is filtered to categories with (true) or without (false) events.
func (s *Service) List(ctx context.Context, actor uuid.UUID, hasEvents *bool) ([]models.Category, error) {
	list, err := s.store.ListByOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if hasEvents == nil {
		return list, nil
	}
	filtered := make([]models.Category, 0, len(list))
	for _, c := range list {
		if (c.EventCount > 0) == *hasEvents {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// IsDuplicateName reports whether creating (excludeID nil) or renaming
// (excludeID set) to name would collide for this owner.
func (s *Service) IsDuplicateName(ctx context.Context, owner uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	return s.store.NameExists(ctx, owner, strings.TrimSpace(name), excludeID)
}

// PurgeOwner removes all of a user's categories. Called on account deletion
// after the user's events are gone.
func (s *Service) PurgeOwner(ctx context.Context, ownerID uuid.UUID) error {
	return s.store.DeleteByOwner(ctx, ownerID)
}

func normalize(in Input) (name, color string, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", fmt.Errorf("%w: name must not be blank", domain.ErrValidation)
	}
	color = in.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}
	if !models.ValidCategoryColor(color) {
		return "", "", fmt.Errorf("%w: invalid color %q", domain.ErrValidation, in.Color)
	}
	return name, color, nil
}
