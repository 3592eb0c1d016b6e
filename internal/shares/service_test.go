package shares

import (
	"context"
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
	events map[uuid.UUID]models.Event
	shares map[uuid.UUID]map[uuid.UUID]models.Share
	users  map[uuid.UUID]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events: make(map[uuid.UUID]models.Event),
		shares: make(map[uuid.UUID]map[uuid.UUID]models.Share),
		users:  make(map[uuid.UUID]models.User),
	}
}

func (f *fakeStore) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	if e, ok := f.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeStore) GetCategory(context.Context, uuid.UUID) (*models.Category, error) {
	return nil, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeStore) GetShare(_ context.Context, eventID, recipientID uuid.UUID) (*models.Share, error) {
	if s, ok := f.shares[eventID][recipientID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeStore) ListForEvent(_ context.Context, eventID uuid.UUID) ([]models.Share, error) {
	var out []models.Share
	for _, s := range f.shares[eventID] {
		out = append(out, s)
	}
	sortShares(out)
	return out, nil
}

func (f *fakeStore) ListReceived(_ context.Context, recipientID uuid.UUID) ([]models.Share, error) {
	var out []models.Share
	for _, byUser := range f.shares {
		if s, ok := byUser[recipientID]; ok {
			out = append(out, s)
		}
	}
	sortShares(out)
	return out, nil
}

func (f *fakeStore) ListGiven(_ context.Context, ownerID uuid.UUID) ([]models.Share, error) {
	var out []models.Share
	for eventID, byUser := range f.shares {
		e, ok := f.events[eventID]
		if !ok || e.OwnerID != ownerID {
			continue
		}
		for _, s := range byUser {
			out = append(out, s)
		}
	}
	sortShares(out)
	return out, nil
}

func (f *fakeStore) CountForEvent(_ context.Context, eventID uuid.UUID) (int, error) {
	return len(f.shares[eventID]), nil
}

func (f *fakeStore) Create(_ context.Context, s *models.Share) error {
	if _, ok := f.shares[s.EventID][s.SharedWithUserID]; ok {
		return domain.ErrDuplicateShare
	}
	if f.shares[s.EventID] == nil {
		f.shares[s.EventID] = make(map[uuid.UUID]models.Share)
	}
	s.ID = uuid.New()
	f.shares[s.EventID][s.SharedWithUserID] = *s
	return nil
}

func (f *fakeStore) UpdatePermission(_ context.Context, eventID, recipientID uuid.UUID, perm models.Permission) (int64, error) {
	s, ok := f.shares[eventID][recipientID]
	if !ok {
		return 0, nil
	}
	s.Permission = perm
	f.shares[eventID][recipientID] = s
	return 1, nil
}

func (f *fakeStore) Delete(_ context.Context, eventID, recipientID uuid.UUID) (int64, error) {
	if _, ok := f.shares[eventID][recipientID]; !ok {
		return 0, nil
	}
	delete(f.shares[eventID], recipientID)
	return 1, nil
}

func (f *fakeStore) DeleteByRecipient(_ context.Context, recipientID uuid.UUID) error {
	for _, byUser := range f.shares {
		delete(byUser, recipientID)
	}
	return nil
}

func (f *fakeStore) addUser() uuid.UUID {
	id := uuid.New()
	f.users[id] = models.User{ID: id, Email: id.String() + "@example.com"}
	return id
}

func (f *fakeStore) addEvent(owner uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.events[id] = models.Event{ID: id, OwnerID: owner, Title: "event", Status: models.StatusScheduled}
	return id
}

func sortShares(list []models.Share) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID.String() < list[j].ID.String() })
}

type fakeNotifier struct {
	calls []struct {
		userID uuid.UUID
		event  string
	}
}

func (n *fakeNotifier) NotifyUser(userID uuid.UUID, event string, _ interface{}) {
	n.calls = append(n.calls, struct {
		userID uuid.UUID
		event  string
	}{userID, event})
}

const testMaxShares = 3

func newTestService(store *fakeStore) *Service {
	resolver := permissions.NewResolver(store, store, store)
	return NewService(store, store, resolver, nil, testMaxShares, nil)
}

func TestSharePreconditions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := store.addUser()
	recipient := store.addUser()
	eventID := store.addEvent(owner)
	ctx := context.Background()

	_, err := svc.Share(ctx, owner, eventID, recipient, models.Permission("ADMIN"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Share(ctx, owner, uuid.New(), recipient, models.PermissionViewOnly)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = svc.Share(ctx, owner, eventID, owner, models.PermissionViewOnly)
	assert.ErrorIs(t, err, domain.ErrSelfShare)

	_, err = svc.Share(ctx, owner, eventID, uuid.New(), models.PermissionViewOnly)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// Only the owner manages shares, even with an EDIT share in hand.
	editor := store.addUser()
	_, err = svc.Share(ctx, owner, eventID, editor, models.PermissionEdit)
	require.NoError(t, err)
	_, err = svc.Share(ctx, editor, eventID, recipient, models.PermissionViewOnly)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestShareDuplicateAndCap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := store.addUser()
	eventID := store.addEvent(owner)
	ctx := context.Background()

	recipient := store.addUser()
	_, err := svc.Share(ctx, owner, eventID, recipient, models.PermissionViewOnly)
	require.NoError(t, err)

	// One share per (event, recipient), regardless of tier.
	_, err = svc.Share(ctx, owner, eventID, recipient, models.PermissionEdit)
	assert.ErrorIs(t, err, domain.ErrDuplicateShare)

	for i := 1; i < testMaxShares; i++ {
		_, err = svc.Share(ctx, owner, eventID, store.addUser(), models.PermissionViewOnly)
		require.NoError(t, err)
	}
	_, err = svc.Share(ctx, owner, eventID, store.addUser(), models.PermissionViewOnly)
	assert.ErrorIs(t, err, domain.ErrShareLimitExceeded)
}

func TestShareNotifiesRecipient(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	resolver := permissions.NewResolver(store, store, store)
	svc := NewService(store, store, resolver, notifier, testMaxShares, nil)
	owner := store.addUser()
	recipient := store.addUser()
	eventID := store.addEvent(owner)

	_, err := svc.Share(context.Background(), owner, eventID, recipient, models.PermissionEdit)
	require.NoError(t, err)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, recipient, notifier.calls[0].userID)
	assert.Equal(t, "event_shared", notifier.calls[0].event)
}

func TestChangePermissionUpgradesInPlace(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := store.addUser()
	recipient := store.addUser()
	eventID := store.addEvent(owner)
	ctx := context.Background()

	_, err := svc.Share(ctx, owner, eventID, recipient, models.PermissionViewOnly)
	require.NoError(t, err)

	share, err := svc.ChangePermission(ctx, owner, eventID, recipient, models.PermissionEdit)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionEdit, share.Permission)

	// Still a single share for the pair.
	list, err := svc.ListForEvent(ctx, owner, eventID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ChangePermission(ctx, owner, eventID, uuid.New(), models.PermissionEdit)
	assert.ErrorIs(t, err, domain.ErrShareNotFound)

	_, err = svc.ChangePermission(ctx, recipient, eventID, recipient, models.PermissionEdit)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestUnshareRevokesAccess(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := store.addUser()
	recipient := store.addUser()
	eventID := store.addEvent(owner)
	ctx := context.Background()

	_, err := svc.Share(ctx, owner, eventID, recipient, models.PermissionEdit)
	require.NoError(t, err)

	// Recipients cannot revoke, only the owner can.
	err = svc.Unshare(ctx, recipient, eventID, recipient)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	require.NoError(t, svc.Unshare(ctx, owner, eventID, recipient))

	err = svc.Unshare(ctx, owner, eventID, recipient)
	assert.ErrorIs(t, err, domain.ErrShareNotFound)

	shared, err := store.GetShare(ctx, eventID, recipient)
	require.NoError(t, err)
	assert.Nil(t, shared)
}

func TestGetShareVisibility(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := store.addUser()
	recipient := store.addUser()
	otherRecipient := store.addUser()
	eventID := store.addEvent(owner)
	ctx := context.Background()

	_, err := svc.Share(ctx, owner, eventID, recipient, models.PermissionViewOnly)
	require.NoError(t, err)
	_, err = svc.Share(ctx, owner, eventID, otherRecipient, models.PermissionViewOnly)
	require.NoError(t, err)

	// Owner sees any share; recipients see only their own.
	_, err = svc.GetShare(ctx, owner, eventID, recipient)
	assert.NoError(t, err)
	_, err = svc.GetShare(ctx, recipient, eventID, recipient)
	assert.NoError(t, err)
	_, err = svc.GetShare(ctx, recipient, eventID, otherRecipient)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	ok, err := svc.IsSharedWith(ctx, owner, eventID, recipient)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListReceivedAndGiven(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	alice := store.addUser()
	bob := store.addUser()
	ctx := context.Background()

	first := store.addEvent(alice)
	second := store.addEvent(alice)
	_, err := svc.Share(ctx, alice, first, bob, models.PermissionViewOnly)
	require.NoError(t, err)
	_, err = svc.Share(ctx, alice, second, bob, models.PermissionEdit)
	require.NoError(t, err)

	received, err := svc.ListReceived(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	given, err := svc.ListGiven(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, given, 2)

	given, err = svc.ListGiven(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, given)

	editable, err := svc.ListEditable(ctx, bob)
	require.NoError(t, err)
	require.Len(t, editable, 1)
	assert.Equal(t, second, editable[0].EventID)
}

func TestPurgeRecipientDropsAllReceivedShares(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	alice := store.addUser()
	carol := store.addUser()
	bob := store.addUser()
	ctx := context.Background()

	_, err := svc.Share(ctx, alice, store.addEvent(alice), bob, models.PermissionViewOnly)
	require.NoError(t, err)
	_, err = svc.Share(ctx, carol, store.addEvent(carol), bob, models.PermissionEdit)
	require.NoError(t, err)

	require.NoError(t, svc.PurgeRecipient(ctx, bob))
	received, err := svc.ListReceived(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, received)
}
