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

type groupFixture struct {
	service *ChildrenGroupService
	users   *storage.MemoryCollection
	bus     *recordBus
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	users := storage.NewMemoryCollection("username")
	groupColl := storage.NewMemoryCollection()
	bus := &recordBus{}

	groupRepo := repository.NewChildrenGroupRepository(groupColl, users, nil, nil)
	childRepo := repository.NewChildRepository(users, nil, nil)
	return &groupFixture{
		service: NewChildrenGroupService(groupRepo, childRepo, bus, nil),
		users:   users,
		bus:     bus,
	}
}

func (f *groupFixture) registerChild(t *testing.T, username string) string {
	t.Helper()
	id, err := f.users.InsertOne(context.Background(), bson.M{
		"username": username,
		"type":     string(models.TypeChild),
	})
	require.NoError(t, err)
	return id.Hex()
}

func (f *groupFixture) addGroup(t *testing.T, name, owner string, childIDs ...string) models.ChildrenGroup {
	t.Helper()
	children := make([]models.Child, 0, len(childIDs))
	for _, id := range childIDs {
		children = append(children, models.Child{User: models.User{ID: id}})
	}
	created, err := f.service.Add(context.Background(), models.ChildrenGroup{
		Name:     name,
		UserID:   owner,
		Children: children,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	return *created
}

func TestGroupAddRequiresNameOwnerAndChildren(t *testing.T) {
	f := newGroupFixture(t)

	_, err := f.service.Add(context.Background(), models.ChildrenGroup{})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	var domain *errs.Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, "name, user, children are required!", domain.Description)
}

func TestGroupAddCollectsEveryMalformedChildID(t *testing.T) {
	f := newGroupFixture(t)
	valid := f.registerChild(t, "pedro")

	_, err := f.service.Add(context.Background(), models.ChildrenGroup{
		Name:   "Turma A",
		UserID: primitive.NewObjectID().Hex(),
		Children: []models.Child{
			{User: models.User{ID: "bad1"}},
			{User: models.User{ID: valid}},
			{User: models.User{ID: "bad2"}},
		},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), "bad1, bad2")
}

// Well-formed ids that reference nothing are a distinct failure from
// malformed ids, with their own message.
func TestGroupAddRejectsUnregisteredChildren(t *testing.T) {
	f := newGroupFixture(t)
	registered := f.registerChild(t, "pedro")
	ghostA := primitive.NewObjectID().Hex()
	ghostB := primitive.NewObjectID().Hex()

	_, err := f.service.Add(context.Background(), models.ChildrenGroup{
		Name:   "Turma A",
		UserID: primitive.NewObjectID().Hex(),
		Children: []models.Child{
			{User: models.User{ID: ghostA}},
			{User: models.User{ID: registered}},
			{User: models.User{ID: ghostB}},
		},
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), msgChildrenMissing)
	assert.Contains(t, err.Error(), ghostA+", "+ghostB)
}

func TestGroupAddDuplicateNameUnderSameOwner(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	owner := primitive.NewObjectID().Hex()
	f.addGroup(t, "Turma A", owner, child)

	_, err := f.service.Add(context.Background(), models.ChildrenGroup{
		Name:     "Turma A",
		UserID:   owner,
		Children: []models.Child{{User: models.User{ID: child}}},
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
	assert.Contains(t, err.Error(), msgGroupRegistered)
}

func TestGroupAddSameNameDifferentOwner(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	f.addGroup(t, "Turma A", primitive.NewObjectID().Hex(), child)
	f.addGroup(t, "Turma A", primitive.NewObjectID().Hex(), child)

	assert.Contains(t, f.bus.eventTypes(), events.ChildrenGroupSaveEvent)
}

func TestGroupUpdateDoesNotConflictWithItself(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	owner := primitive.NewObjectID().Hex()
	created := f.addGroup(t, "Turma A", owner, child)

	updated, err := f.service.Update(context.Background(), models.ChildrenGroup{
		ID:          created.ID,
		Name:        "Turma A",
		SchoolClass: "2B",
		UserID:      owner,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "2B", updated.SchoolClass)
	assert.Equal(t, created.ID, updated.ID)
}

func TestGroupUpdateToTakenNameConflicts(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	owner := primitive.NewObjectID().Hex()
	f.addGroup(t, "Turma A", owner, child)
	other := f.addGroup(t, "Turma B", owner, child)

	_, err := f.service.Update(context.Background(), models.ChildrenGroup{
		ID:     other.ID,
		Name:   "Turma A",
		UserID: owner,
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
}

func TestGroupUpdateAbsentIsNilNil(t *testing.T) {
	f := newGroupFixture(t)

	updated, err := f.service.Update(context.Background(), models.ChildrenGroup{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Turma Z",
	})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestGroupUpdateValidatesChildrenOnlyWhenSupplied(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	created := f.addGroup(t, "Turma A", primitive.NewObjectID().Hex(), child)

	// No children supplied: the list is untouched and unchecked.
	updated, err := f.service.Update(context.Background(), models.ChildrenGroup{
		ID:          created.ID,
		SchoolClass: "3C",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Len(t, updated.Children, 1)

	_, err = f.service.Update(context.Background(), models.ChildrenGroup{
		ID:       created.ID,
		Children: []models.Child{{User: models.User{ID: primitive.NewObjectID().Hex()}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgChildrenMissing)
}

func TestGroupRemove(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	created := f.addGroup(t, "Turma A", primitive.NewObjectID().Hex(), child)

	removed, err := f.service.Remove(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Contains(t, f.bus.eventTypes(), events.ChildrenGroupDeleteEvent)

	removed, err = f.service.Remove(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGroupGetAllByUser(t *testing.T) {
	f := newGroupFixture(t)
	child := f.registerChild(t, "pedro")
	owner := primitive.NewObjectID().Hex()
	f.addGroup(t, "Turma A", owner, child)
	f.addGroup(t, "Turma B", owner, child)
	f.addGroup(t, "Turma C", primitive.NewObjectID().Hex(), child)

	found, err := f.service.GetAllByUser(context.Background(), owner, repository.NewQuery())
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
