package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
)

type fakeStore struct {
	events     map[uuid.UUID]*models.Event
	shares     map[uuid.UUID]map[uuid.UUID]*models.Share // eventID -> recipient -> share
	categories map[uuid.UUID]*models.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:     make(map[uuid.UUID]*models.Event),
		shares:     make(map[uuid.UUID]map[uuid.UUID]*models.Share),
		categories: make(map[uuid.UUID]*models.Category),
	}
}

func (f *fakeStore) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	return f.events[id], nil
}

func (f *fakeStore) GetShare(_ context.Context, eventID, recipientID uuid.UUID) (*models.Share, error) {
	return f.shares[eventID][recipientID], nil
}

func (f *fakeStore) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return f.categories[id], nil
}

func (f *fakeStore) addShare(eventID, recipient uuid.UUID, p models.Permission) {
	if f.shares[eventID] == nil {
		f.shares[eventID] = make(map[uuid.UUID]*models.Share)
	}
	f.shares[eventID][recipient] = &models.Share{
		ID: uuid.New(), EventID: eventID, SharedWithUserID: recipient, Permission: p,
	}
}

func TestResolveEventRead(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	store := newFakeStore()
	resolver := NewResolver(store, store, store)

	e1 := &models.Event{
		ID:        uuid.New(),
		OwnerID:   alice,
		Title:     "standup",
		StartTime: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 12, 25, 11, 0, 0, 0, time.UTC),
		Status:    models.StatusScheduled,
	}
	store.events[e1.ID] = e1

	got, err := resolver.ResolveEventRead(ctx, alice, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1, got)

	_, err = resolver.ResolveEventRead(ctx, bob, e1.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// A VIEW_ONLY share opens read but nothing else.
	store.addShare(e1.ID, bob, models.PermissionViewOnly)

	got, err = resolver.ResolveEventRead(ctx, bob, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1, got)

	_, err = resolver.ResolveEventEdit(ctx, bob, e1.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = resolver.ResolveEventDelete(ctx, bob, e1.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// Upgrading to EDIT opens edit; delete stays owner-only.
	store.addShare(e1.ID, bob, models.PermissionEdit)

	_, err = resolver.ResolveEventEdit(ctx, bob, e1.ID)
	require.NoError(t, err)
	_, err = resolver.ResolveEventDelete(ctx, bob, e1.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = resolver.ResolveEventShareManage(ctx, bob, e1.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// Owner keeps every right.
	_, err = resolver.ResolveEventDelete(ctx, alice, e1.ID)
	require.NoError(t, err)
	_, err = resolver.ResolveEventShareManage(ctx, alice, e1.ID)
	require.NoError(t, err)
}

func TestResolveMissingEventIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	resolver := NewResolver(store, store, store)
	actor := uuid.New()
	missing := uuid.New()

	for name, resolve := range map[string]func() error{
		"read":   func() error { _, err := resolver.ResolveEventRead(ctx, actor, missing); return err },
		"edit":   func() error { _, err := resolver.ResolveEventEdit(ctx, actor, missing); return err },
		"delete": func() error { _, err := resolver.ResolveEventDelete(ctx, actor, missing); return err },
		"shares": func() error { _, err := resolver.ResolveEventShareManage(ctx, actor, missing); return err },
	} {
		t.Run(name, func(t *testing.T) {
			err := resolve()
			assert.ErrorIs(t, err, domain.ErrEventNotFound)
			assert.NotErrorIs(t, err, domain.ErrAccessDenied)
		})
	}
}

func TestResolveCategoryAccess(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	store := newFakeStore()
	resolver := NewResolver(store, store, store)

	cat := &models.Category{ID: uuid.New(), OwnerID: alice, Name: "Work", Color: models.DefaultCategoryColor}
	store.categories[cat.ID] = cat

	got, err := resolver.ResolveCategoryAccess(ctx, alice, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, cat, got)

	_, err = resolver.ResolveCategoryAccess(ctx, bob, cat.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = resolver.ResolveCategoryAccess(ctx, alice, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestBooleanPredicates(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	store := newFakeStore()
	resolver := NewResolver(store, store, store)

	e := &models.Event{ID: uuid.New(), OwnerID: alice}
	store.events[e.ID] = e
	store.addShare(e.ID, bob, models.PermissionViewOnly)

	assert.True(t, resolver.CanReadEvent(ctx, alice, e.ID))
	assert.True(t, resolver.CanReadEvent(ctx, bob, e.ID))
	assert.False(t, resolver.CanEditEvent(ctx, bob, e.ID))
	assert.False(t, resolver.CanReadEvent(ctx, bob, uuid.New()))
}
