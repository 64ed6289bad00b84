package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/events"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/storage"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Compare(password, hash string) bool   { return "hashed:"+password == hash }

// stubInstitutions answers the existence probe from a fixed set.
type stubInstitutions struct {
	known map[string]bool
}

func (s *stubInstitutions) CheckExist(ctx context.Context, id string) (bool, error) {
	return s.known[id], nil
}

// recordBus captures published events for assertions.
type recordBus struct {
	events []events.Event
}

func (b *recordBus) Publish(ctx context.Context, event events.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *recordBus) eventTypes() []string {
	var types []string
	for _, e := range b.events {
		types = append(types, e.Type)
	}
	return types
}

type educatorFixture struct {
	service      *EducatorService
	groups       *ChildrenGroupService
	users        *storage.MemoryCollection
	institutions *stubInstitutions
	bus          *recordBus
}

func newEducatorFixture(t *testing.T) *educatorFixture {
	t.Helper()
	users := storage.NewMemoryCollection("username")
	groupColl := storage.NewMemoryCollection()
	bus := &recordBus{}
	institutions := &stubInstitutions{known: map[string]bool{}}

	educatorRepo := repository.NewEducatorRepository(users, groupColl, plainHasher{}, nil, nil)
	groupRepo := repository.NewChildrenGroupRepository(groupColl, users, nil, nil)
	childRepo := repository.NewChildRepository(users, nil, nil)

	groupService := NewChildrenGroupService(groupRepo, childRepo, bus, nil)
	return &educatorFixture{
		service:      NewEducatorService(educatorRepo, institutions, groupService, bus, nil),
		groups:       groupService,
		users:        users,
		institutions: institutions,
		bus:          bus,
	}
}

func (f *educatorFixture) registerChild(t *testing.T, username string) string {
	t.Helper()
	id, err := f.users.InsertOne(context.Background(), bson.M{
		"username": username,
		"type":     string(models.TypeChild),
	})
	require.NoError(t, err)
	return id.Hex()
}

func (f *educatorFixture) addEducator(t *testing.T, username string) models.Educator {
	t.Helper()
	created, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{Username: username, Password: "secret123"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	return *created
}

func TestEducatorAddAssignsTypeAndDefaultScopes(t *testing.T) {
	f := newEducatorFixture(t)
	created := f.addEducator(t, "maria")

	assert.Equal(t, models.TypeEducator, created.Type)
	assert.Contains(t, created.Scopes, "childrengroups:create")
	assert.Contains(t, f.bus.eventTypes(), events.EducatorSaveEvent)
}

func TestEducatorAddKeepsCallerScopes(t *testing.T) {
	f := newEducatorFixture(t)
	created, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{Username: "maria", Password: "secret123", Scopes: []string{"custom:scope"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"custom:scope"}, created.Scopes)
}

func TestEducatorAddMissingRequiredFields(t *testing.T) {
	f := newEducatorFixture(t)
	_, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{Username: "maria"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), "password")
}

func TestEducatorAddDuplicateUsernameConflicts(t *testing.T) {
	f := newEducatorFixture(t)
	f.addEducator(t, "maria")

	_, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{Username: "maria", Password: "other1234"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
	assert.Contains(t, err.Error(), msgEducatorRegistered)
}

func TestEducatorAddUnknownInstitutionFails(t *testing.T) {
	f := newEducatorFixture(t)
	_, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{
			Username:    "maria",
			Password:    "secret123",
			Institution: primitive.NewObjectID().Hex(),
		},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), msgInstitutionMissing)
}

func TestEducatorAddKnownInstitution(t *testing.T) {
	f := newEducatorFixture(t)
	institution := primitive.NewObjectID().Hex()
	f.institutions.known[institution] = true

	created, err := f.service.Add(context.Background(), models.Educator{
		User: models.User{Username: "maria", Password: "secret123", Institution: institution},
	})
	require.NoError(t, err)
	assert.Equal(t, institution, created.Institution)
}

func TestEducatorGetAllIsTypeScoped(t *testing.T) {
	f := newEducatorFixture(t)
	f.addEducator(t, "maria")
	f.registerChild(t, "pedro")

	found, err := f.service.GetAll(context.Background(), repository.NewQuery())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "maria", found[0].Username)
}

func TestEducatorUpdateAbsentIsNilNil(t *testing.T) {
	f := newEducatorFixture(t)

	updated, err := f.service.Update(context.Background(), models.Educator{
		User: models.User{ID: primitive.NewObjectID().Hex(), Username: "ghost"},
	})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestEducatorUpdateMalformedID(t *testing.T) {
	f := newEducatorFixture(t)

	_, err := f.service.Update(context.Background(), models.Educator{
		User: models.User{ID: "nope"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestEducatorRemovePublishesUserDelete(t *testing.T) {
	f := newEducatorFixture(t)
	created := f.addEducator(t, "maria")

	removed, err := f.service.Remove(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Contains(t, f.bus.eventTypes(), events.UserDeleteEvent)

	removed, err = f.service.Remove(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSaveChildrenGroupRecordsMembershipOnOwner(t *testing.T) {
	f := newEducatorFixture(t)
	educator := f.addEducator(t, "maria")
	child := f.registerChild(t, "pedro")

	created, err := f.service.SaveChildrenGroup(context.Background(), educator.ID, models.ChildrenGroup{
		Name:     "Turma A",
		Children: []models.Child{{User: models.User{ID: child}}},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, educator.ID, created.UserID)

	// The owner's authoritative group list now carries the group.
	reloaded, err := f.service.GetByID(context.Background(), educator.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Len(t, reloaded.ChildrenGroups, 1)
	assert.Equal(t, created.ID, reloaded.ChildrenGroups[0].ID)
	require.Len(t, reloaded.ChildrenGroups[0].Children, 1)
	assert.Equal(t, "pedro", reloaded.ChildrenGroups[0].Children[0].Username)
}

func TestSaveChildrenGroupUnknownOwner(t *testing.T) {
	f := newEducatorFixture(t)
	child := f.registerChild(t, "pedro")

	_, err := f.service.SaveChildrenGroup(context.Background(), primitive.NewObjectID().Hex(), models.ChildrenGroup{
		Name:     "Turma A",
		Children: []models.Child{{User: models.User{ID: child}}},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), msgOwnerNotFound)
}

func TestGetChildrenGroupByIDEnforcesOwnership(t *testing.T) {
	f := newEducatorFixture(t)
	owner := f.addEducator(t, "maria")
	other := f.addEducator(t, "jose")
	child := f.registerChild(t, "pedro")

	created, err := f.service.SaveChildrenGroup(context.Background(), owner.ID, models.ChildrenGroup{
		Name:     "Turma A",
		Children: []models.Child{{User: models.User{ID: child}}},
	})
	require.NoError(t, err)

	found, err := f.service.GetChildrenGroupByID(context.Background(), owner.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// Another educator cannot see it through their own surface.
	found, err = f.service.GetChildrenGroupByID(context.Background(), other.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteChildrenGroupPrunesOwnerList(t *testing.T) {
	f := newEducatorFixture(t)
	educator := f.addEducator(t, "maria")
	child := f.registerChild(t, "pedro")

	created, err := f.service.SaveChildrenGroup(context.Background(), educator.ID, models.ChildrenGroup{
		Name:     "Turma A",
		Children: []models.Child{{User: models.User{ID: child}}},
	})
	require.NoError(t, err)

	removed, err := f.service.DeleteChildrenGroup(context.Background(), educator.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	reloaded, err := f.service.GetByID(context.Background(), educator.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Empty(t, reloaded.ChildrenGroups)

	group, err := f.groups.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, group)
}

func TestGetAllByChildValidatesID(t *testing.T) {
	f := newEducatorFixture(t)

	_, err := f.service.GetAllByChild(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}
