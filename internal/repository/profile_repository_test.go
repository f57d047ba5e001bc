package repository_test

import (
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileGetOrCreate(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice", model.RoleUser)
	repo := repository.NewProfileRepository(db)

	p1, err := repo.GetOrCreate(user.ID)
	require.NoError(t, err)
	p2, err := repo.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)

	var count int64
	require.NoError(t, db.Model(&model.Profile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProfileList(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewProfileRepository(db)
	for _, tc := range []struct{ name, uni string }{
		{"bob", "MIT"},
		{"alice", "Oxford"},
		{"carol", "Oxford Brookes"},
	} {
		u := testutil.CreateUser(t, db, tc.name, model.RoleUser)
		require.NoError(t, repo.Create(&model.Profile{UserID: u.ID, University: tc.uni}))
	}

	profiles, total, err := repo.List("oxford", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, profiles, 2)
	assert.Equal(t, "alice", profiles[0].User.Username)
	assert.Equal(t, "carol", profiles[1].User.Username)

	profiles, total, err = repo.List("", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, profiles, 2)
}
