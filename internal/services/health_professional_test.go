package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/errs"
	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/storage"
)

type hpFixture struct {
	service *HealthProfessionalService
	users   *storage.MemoryCollection
	bus     *recordBus
}

func newHPFixture(t *testing.T) *hpFixture {
	t.Helper()
	users := storage.NewMemoryCollection("username")
	groupColl := storage.NewMemoryCollection()
	bus := &recordBus{}

	hpRepo := repository.NewHealthProfessionalRepository(users, groupColl, plainHasher{}, nil, nil)
	groupRepo := repository.NewChildrenGroupRepository(groupColl, users, nil, nil)
	childRepo := repository.NewChildRepository(users, nil, nil)
	groupService := NewChildrenGroupService(groupRepo, childRepo, bus, nil)

	return &hpFixture{
		service: NewHealthProfessionalService(hpRepo, &stubInstitutions{known: map[string]bool{}}, groupService, bus, nil),
		users:   users,
		bus:     bus,
	}
}

func TestHealthProfessionalAddAssignsType(t *testing.T) {
	f := newHPFixture(t)

	created, err := f.service.Add(context.Background(), models.HealthProfessional{
		User: models.User{Username: "dr.silva", Password: "secret123"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TypeHealthProfessional, created.Type)
	assert.Contains(t, created.Scopes, "healthprofessionals:update")
}

func TestHealthProfessionalAddDuplicateConflicts(t *testing.T) {
	f := newHPFixture(t)

	_, err := f.service.Add(context.Background(), models.HealthProfessional{
		User: models.User{Username: "dr.silva", Password: "secret123"},
	})
	require.NoError(t, err)

	_, err = f.service.Add(context.Background(), models.HealthProfessional{
		User: models.User{Username: "dr.silva", Password: "other4567"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
	assert.Contains(t, err.Error(), msgHealthProfRegistered)
}

func TestHealthProfessionalGetAllExcludesEducators(t *testing.T) {
	f := newHPFixture(t)
	_, err := f.service.Add(context.Background(), models.HealthProfessional{
		User: models.User{Username: "dr.silva", Password: "secret123"},
	})
	require.NoError(t, err)
	_, err = f.users.InsertOne(context.Background(), bson.M{
		"username": "maria", "type": string(models.TypeEducator),
	})
	require.NoError(t, err)

	found, err := f.service.GetAll(context.Background(), repository.NewQuery())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "dr.silva", found[0].Username)
}

func TestHealthProfessionalSaveGroupUnknownOwner(t *testing.T) {
	f := newHPFixture(t)

	_, err := f.service.SaveChildrenGroup(context.Background(), primitive.NewObjectID().Hex(), models.ChildrenGroup{
		Name: "Acompanhamento A",
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), msgHealthProfNotFound)
}

func TestHealthProfessionalSaveGroupRecordsMembership(t *testing.T) {
	f := newHPFixture(t)
	created, err := f.service.Add(context.Background(), models.HealthProfessional{
		User: models.User{Username: "dr.silva", Password: "secret123"},
	})
	require.NoError(t, err)

	child, err := f.users.InsertOne(context.Background(), bson.M{
		"username": "pedro", "type": string(models.TypeChild),
	})
	require.NoError(t, err)

	group, err := f.service.SaveChildrenGroup(context.Background(), created.ID, models.ChildrenGroup{
		Name:     "Acompanhamento A",
		Children: []models.Child{{User: models.User{ID: child.Hex()}}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, group.UserID)

	reloaded, err := f.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Len(t, reloaded.ChildrenGroups, 1)
	assert.Equal(t, group.ID, reloaded.ChildrenGroups[0].ID)
}
