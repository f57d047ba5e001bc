package service

import (
	"context"
	"strings"
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadTwiceRecordsOnceCountsTwice(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, f.db, "student", model.RoleUser)
	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("final.pdf"))
	require.NoError(t, err)

	downloadRepo := repository.NewDownloadRepository(f.db)
	svc := NewDownloadService(f.svc, downloadRepo, f.store)

	for i := 0; i < 2; i++ {
		url, err := svc.Download(ctx, paper.ID, student)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/media/papers/"))
	}

	n, err := downloadRepo.CountByPaper(paper.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	reloaded, err := f.svc.Get(paper.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, reloaded.DownloadCount)
}

func TestDownloadMissingPaperOrFile(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, f.db, "student", model.RoleUser)
	noFile := testutil.CreatePaper(t, f.db, model.Paper{Title: "Lost", CourseCode: "CS9", Department: "Computer Science", Year: 2020, Semester: "Fall"})

	svc := NewDownloadService(f.svc, repository.NewDownloadRepository(f.db), f.store)

	_, err := svc.Download(ctx, 12345, student)
	assert.ErrorIs(t, err, ErrPaperNotFound)

	_, err = svc.Download(ctx, noFile.ID, student)
	assert.ErrorIs(t, err, ErrPaperHasNoFile)

	reloaded, err := f.svc.Get(noFile.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.DownloadCount)
}
