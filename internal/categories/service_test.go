package categories

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoplan/backend/internal/domain"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/internal/permissions"
)

type fakeStore struct {
	categories  map[uuid.UUID]models.Category
	eventCounts map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:  make(map[uuid.UUID]models.Category),
		eventCounts: make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.OwnerID == ownerID {
			c.EventCount = f.eventCounts[c.ID]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.categories {
		if c.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) NameExists(_ context.Context, ownerID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	for _, c := range f.categories {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.OwnerID == ownerID && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountEvents(_ context.Context, categoryID uuid.UUID) (int, error) {
	return f.eventCounts[categoryID], nil
}

func (f *fakeStore) Create(_ context.Context, c *models.Category) error {
	c.ID = uuid.New()
	f.categories[c.ID] = *c
	return nil
}

func (f *fakeStore) Update(_ context.Context, c *models.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	f.categories[c.ID] = *c
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.categories[id]; !ok {
		return 0, nil
	}
	if f.eventCounts[id] > 0 {
		return 0, domain.ErrCategoryInUse
	}
	delete(f.categories, id)
	return 1, nil
}

func (f *fakeStore) DeleteByOwner(_ context.Context, ownerID uuid.UUID) error {
	for id, c := range f.categories {
		if c.OwnerID == ownerID {
			delete(f.categories, id)
		}
	}
	return nil
}

// noEvents satisfies the resolver's event and share lookups; category tests
// never touch events.
type noEvents struct{}

func (noEvents) GetEvent(context.Context, uuid.UUID) (*models.Event, error) { return nil, nil }
func (noEvents) GetShare(context.Context, uuid.UUID, uuid.UUID) (*models.Share, error) {
	return nil, nil
}

const testMaxCategories = 5

func newTestService(store *fakeStore) *Service {
	resolver := permissions.NewResolver(noEvents{}, noEvents{}, store)
	return NewService(store, resolver, testMaxCategories, nil)
}

func TestCreateDefaultsAndValidatesColor(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategoryColor, created.Color)

	created, err = svc.Create(context.Background(), owner, Input{Name: "Personal", Color: "#A1B2C3"})
	require.NoError(t, err)
	assert.Equal(t, "#A1B2C3", created.Color)

	for _, color := range []string{"red", "#12345", "#GGGGGG", "123456#"} {
		_, err = svc.Create(context.Background(), owner, Input{Name: "Bad " + color, Color: color})
		assert.ErrorIs(t, err, domain.ErrValidation, "color %q", color)
	}

	_, err = svc.Create(context.Background(), owner, Input{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateEnforcesPerOwnerCap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner, other := uuid.New(), uuid.New()

	for i := 0; i < testMaxCategories; i++ {
		_, err := svc.Create(context.Background(), owner, Input{Name: fmt.Sprintf("Cat %d", i)})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), owner, Input{Name: "One too many"})
	assert.ErrorIs(t, err, domain.ErrCategoryLimitExceeded)

	// The cap is per owner, not global.
	_, err = svc.Create(context.Background(), other, Input{Name: "Fresh start"})
	assert.NoError(t, err)
}

func TestDuplicateNameIsCaseSensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner, other := uuid.New(), uuid.New()

	_, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), owner, Input{Name: "Work"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Different case is a different name.
	_, err = svc.Create(context.Background(), owner, Input{Name: "work"})
	assert.NoError(t, err)

	// Other owners can reuse the name.
	_, err = svc.Create(context.Background(), other, Input{Name: "Work"})
	assert.NoError(t, err)
}

func TestUpdateRenameCollision(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	work, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)
	home, err := svc.Create(context.Background(), owner, Input{Name: "Home"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, home.ID, Input{Name: "Work"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Keeping your own name on update is not a collision.
	updated, err := svc.Update(context.Background(), owner, work.ID, Input{Name: "Work", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "#000000", updated.Color)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner, stranger := uuid.New(), uuid.New()

	cat, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), stranger, cat.ID, Input{Name: "Hijacked"})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.Update(context.Background(), owner, uuid.New(), Input{Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestDeleteBlockedWhileInUse(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	cat, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)

	store.eventCounts[cat.ID] = 3
	err = svc.Delete(context.Background(), owner, cat.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryInUse)

	store.eventCounts[cat.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), owner, cat.ID))

	err = svc.Delete(context.Background(), owner, cat.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestListPartitionsByEventPresence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	used, err := svc.Create(context.Background(), owner, Input{Name: "Used"})
	require.NoError(t, err)
	empty, err := svc.Create(context.Background(), owner, Input{Name: "Empty"})
	require.NoError(t, err)
	store.eventCounts[used.ID] = 2

	all, err := svc.List(context.Background(), owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yes := true
	withEvents, err := svc.List(context.Background(), owner, &yes)
	require.NoError(t, err)
	require.Len(t, withEvents, 1)
	assert.Equal(t, used.ID, withEvents[0].ID)
	assert.Equal(t, 2, withEvents[0].EventCount)

	no := false
	withoutEvents, err := svc.List(context.Background(), owner, &no)
	require.NoError(t, err)
	require.Len(t, withoutEvents, 1)
	assert.Equal(t, empty.ID, withoutEvents[0].ID)
}

func TestGetFillsEventCount(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	cat, err := svc.Create(context.Background(), owner, Input{Name: "Work"})
	require.NoError(t, err)
	store.eventCounts[cat.ID] = 7

	got, err := svc.Get(context.Background(), owner, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.EventCount)
}
