package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kidcare-platform/account-api/internal/models"
	"github.com/kidcare-platform/account-api/internal/storage"
)

func newGroupRepo() (*ChildrenGroupRepository, *storage.MemoryCollection, *storage.MemoryCollection) {
	users := storage.NewMemoryCollection("username")
	groups := storage.NewMemoryCollection()
	return NewChildrenGroupRepository(groups, users, nil, nil), users, groups
}

func TestGroupCreatePopulatesChildren(t *testing.T) {
	repo, users, _ := newGroupRepo()
	child := insertChildDoc(t, users, "pedro")
	owner := primitive.NewObjectID()

	created, err := repo.Create(context.Background(), models.ChildrenGroup{
		Name:        "Turma A",
		SchoolClass: "1B",
		UserID:      owner.Hex(),
		Children:    []models.Child{{User: models.User{ID: child.Hex()}}},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Turma A", created.Name)
	assert.Equal(t, owner.Hex(), created.UserID)
	require.Len(t, created.Children, 1)
	assert.Equal(t, "pedro", created.Children[0].Username)
}

func TestGroupCheckExistByNameScopedToOwner(t *testing.T) {
	repo, users, _ := newGroupRepo()
	child := insertChildDoc(t, users, "pedro")
	ownerA := primitive.NewObjectID()
	ownerB := primitive.NewObjectID()

	created, err := repo.Create(context.Background(), models.ChildrenGroup{
		Name:     "Turma A",
		UserID:   ownerA.Hex(),
		Children: []models.Child{{User: models.User{ID: child.Hex()}}},
	})
	require.NoError(t, err)

	match, err := repo.CheckExist(context.Background(), models.ChildrenGroup{
		Name:   "Turma A",
		UserID: ownerA.Hex(),
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, created.ID, match.ID)

	// Same name under another owner is no conflict.
	match, err = repo.CheckExist(context.Background(), models.ChildrenGroup{
		Name:   "Turma A",
		UserID: ownerB.Hex(),
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestGroupCheckExistByID(t *testing.T) {
	repo, users, _ := newGroupRepo()
	child := insertChildDoc(t, users, "pedro")

	created, err := repo.Create(context.Background(), models.ChildrenGroup{
		Name:     "Turma A",
		UserID:   primitive.NewObjectID().Hex(),
		Children: []models.Child{{User: models.User{ID: child.Hex()}}},
	})
	require.NoError(t, err)

	match, err := repo.CheckExist(context.Background(), models.ChildrenGroup{ID: created.ID})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, created.ID, match.ID)
}

func TestGroupFindByOwner(t *testing.T) {
	repo, users, _ := newGroupRepo()
	child := insertChildDoc(t, users, "pedro")
	ownerA := primitive.NewObjectID()
	ownerB := primitive.NewObjectID()

	for _, spec := range []struct {
		name  string
		owner primitive.ObjectID
	}{
		{"Turma A", ownerA},
		{"Turma B", ownerA},
		{"Turma C", ownerB},
	} {
		_, err := repo.Create(context.Background(), models.ChildrenGroup{
			Name:     spec.name,
			UserID:   spec.owner.Hex(),
			Children: []models.Child{{User: models.User{ID: child.Hex()}}},
		})
		require.NoError(t, err)
	}

	found, err := repo.FindByOwner(context.Background(), ownerA.Hex(), NewQuery())
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestChildCheckExistReportsMissingInOrder(t *testing.T) {
	users := storage.NewMemoryCollection("username")
	repo := NewChildRepository(users, nil, nil)

	registered := insertChildDoc(t, users, "pedro")
	missingA := primitive.NewObjectID().Hex()
	missingB := primitive.NewObjectID().Hex()

	missing, err := repo.CheckExist(context.Background(),
		[]string{missingB, registered.Hex(), missingA, missingB})
	require.NoError(t, err)
	assert.Equal(t, []string{missingB, missingA}, missing)
}

func TestChildCheckExistAllRegistered(t *testing.T) {
	users := storage.NewMemoryCollection("username")
	repo := NewChildRepository(users, nil, nil)

	a := insertChildDoc(t, users, "pedro")
	b := insertChildDoc(t, users, "ana")

	missing, err := repo.CheckExist(context.Background(), []string{a.Hex(), b.Hex()})
	require.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = repo.CheckExist(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestChildCheckExistIgnoresNonChildDocs(t *testing.T) {
	users := storage.NewMemoryCollection("username")
	repo := NewChildRepository(users, nil, nil)

	educator, err := users.InsertOne(context.Background(),
		bson.M{"username": "maria", "type": "educator"})
	require.NoError(t, err)

	missing, checkErr := repo.CheckExist(context.Background(), []string{educator.Hex()})
	require.NoError(t, checkErr)
	assert.Equal(t, []string{educator.Hex()}, missing)
}
