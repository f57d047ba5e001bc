package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/testutil"
	"pastpapers-go/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileService(t *testing.T) (ProfileService, *paperFixture) {
	f := newPaperFixture(t)
	svc := NewProfileService(repository.NewProfileRepository(f.db), repository.NewDownloadRepository(f.db), f.store, 25)
	return svc, f
}

func TestGetAccountCreatesProfileLazily(t *testing.T) {
	svc, f := newProfileService(t)
	user := testutil.CreateUser(t, f.db, "legacy", model.RoleUser)

	view, err := svc.GetAccount(context.Background(), user, true)
	require.NoError(t, err)
	assert.True(t, view.EditMode)
	assert.Equal(t, "legacy", view.User.Username)
	assert.Empty(t, view.RecentDownloads)

	var n int64
	require.NoError(t, f.db.Model(&model.Profile{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUpdateAccountSavesBothForms(t *testing.T) {
	svc, f := newProfileService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "alice", model.RoleUser)

	avatar := UploadFromBytes("me.png", []byte("png"))
	view, err := svc.UpdateAccount(ctx, user, UserForm{FirstName: "Alice", LastName: "Liddell"},
		ProfileForm{University: "Oxford", Bio: "Maths"}, &avatar)
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.User.FirstName)
	assert.Equal(t, "Oxford", view.Profile.University)
	assert.True(t, strings.HasPrefix(view.Profile.AvatarURL, "/media/profiles/"))

	var stored model.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Equal(t, "Liddell", stored.LastName)

	profile, err := svc.GetOrCreate(user.ID)
	require.NoError(t, err)
	firstAvatar := profile.AvatarKey

	second := UploadFromBytes("me2.gif", []byte("gif"))
	_, err = svc.UpdateAccount(ctx, user, UserForm{FirstName: "Alice"}, ProfileForm{University: "Oxford"}, &second)
	require.NoError(t, err)
	_, err = f.store.Stat(ctx, firstAvatar)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestUpdateAccountInvalidSavesNothing(t *testing.T) {
	svc, f := newProfileService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "bob", model.RoleUser)

	_, err := svc.UpdateAccount(ctx, user, UserForm{FirstName: "Bob"},
		ProfileForm{University: strings.Repeat("u", 201)}, nil)
	var ferr *AccountFormError
	require.True(t, errors.As(err, &ferr))
	assert.Empty(t, ferr.User)
	assert.Contains(t, ferr.Profile, "university")

	var stored model.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.FirstName, "user form must not be saved when the profile form is invalid")

	bad := UploadFromBytes("me.exe", []byte("x"))
	_, err = svc.UpdateAccount(ctx, user, UserForm{FirstName: strings.Repeat("b", 151)}, ProfileForm{}, &bad)
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.User, "first_name")
	assert.Contains(t, ferr.Profile, "avatar")
}

func TestAccountShowsRecentDownloads(t *testing.T) {
	svc, f := newProfileService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "carol", model.RoleUser)
	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("a.pdf"))
	require.NoError(t, err)
	_, err = NewDownloadService(f.svc, repository.NewDownloadRepository(f.db), f.store).Download(ctx, paper.ID, user)
	require.NoError(t, err)

	view, err := svc.GetAccount(ctx, user, false)
	require.NoError(t, err)
	require.Len(t, view.RecentDownloads, 1)
	assert.Equal(t, paper.ID, view.RecentDownloads[0].ID)
}

func TestListProfiles(t *testing.T) {
	svc, f := newProfileService(t)
	for _, name := range []string{"dave", "erin"} {
		u := testutil.CreateUser(t, f.db, name, model.RoleUser)
		_, err := svc.GetOrCreate(u.ID)
		require.NoError(t, err)
	}

	list, err := svc.ListProfiles("er", "")
	require.NoError(t, err)
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, "erin", list.Profiles[0].Username)
	assert.EqualValues(t, 1, list.Page.Total)
}
