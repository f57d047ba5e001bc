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
	"pastpapers-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paperFixture struct {
	db       *gorm.DB
	store    *storage.LocalStore
	producer *testutil.Producer
	repo     repository.PaperRepository
	svc      PaperService
	staff    *model.User
}

func newPaperFixture(t *testing.T) *paperFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &paperFixture{
		db:       db,
		store:    testutil.NewStore(t),
		producer: &testutil.Producer{},
		repo:     repository.NewPaperRepository(db),
		staff:    testutil.CreateUser(t, db, "staff", model.RoleStaff),
	}
	f.svc = NewPaperService(f.repo, f.store, f.producer)
	return f
}

func validInput() PaperInput {
	return PaperInput{Title: "Final Exam", CourseCode: "CS101", Department: "Computer Science", Year: "2024", Semester: "Fall"}
}

func pdf(name string) *Upload {
	u := UploadFromBytes(name, []byte("%PDF-1.4 "+name))
	return &u
}

func TestPaperCreate(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("final.PDF"))
	require.NoError(t, err)
	assert.Equal(t, f.staff.ID, paper.UploadedByID)
	assert.True(t, strings.HasPrefix(paper.FileKey, "papers/Computer Science/2024/Fall/"))
	assert.True(t, strings.HasSuffix(paper.FileKey, "_final.PDF"))
	assert.EqualValues(t, len("%PDF-1.4 final.PDF"), paper.FileSize)

	_, err = f.store.Stat(ctx, paper.FileKey)
	assert.NoError(t, err)

	sent := f.producer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, tasks.ActionIndex, sent[0].Action)
	assert.Equal(t, paper.ID, sent[0].PaperID)
}

func TestPaperCreateValidation(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	in := validInput()
	in.Department = "Art"
	in.Year = "twenty"
	_, err := f.svc.Create(ctx, f.staff, in, pdf("notes.txt"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "department")
	assert.Contains(t, verr.Fields, "year")
	assert.Equal(t, "Only PDF files are allowed.", verr.Fields["file"])

	_, err = f.svc.Create(ctx, f.staff, validInput(), nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "This field is required.", verr.Fields["file"])

	in = validInput()
	in.Year = "-7"
	_, err = f.svc.Create(ctx, f.staff, in, pdf("negative.pdf"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Enter a valid year.", verr.Fields["year"])

	var count int64
	require.NoError(t, f.db.Model(&model.Paper{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPaperCreateDuplicate(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.staff, validInput(), pdf("a.pdf"))
	require.NoError(t, err)

	in := validInput()
	in.Department = "Mathematics"
	_, err = f.svc.Create(ctx, f.staff, in, pdf("b.pdf"))
	assert.ErrorIs(t, err, ErrDuplicatePaper)

	in = validInput()
	in.Semester = "Spring"
	_, err = f.svc.Create(ctx, f.staff, in, pdf("c.pdf"))
	assert.NoError(t, err)
}

func TestPaperUpdateReplacesFile(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("old.pdf"))
	require.NoError(t, err)
	oldKey := paper.FileKey

	in := validInput()
	in.Title = "Final Exam (revised)"
	updated, err := f.svc.Update(ctx, paper.ID, in, pdf("new.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Final Exam (revised)", updated.Title)
	assert.NotEqual(t, oldKey, updated.FileKey)

	_, err = f.store.Stat(ctx, oldKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = f.store.Stat(ctx, updated.FileKey)
	assert.NoError(t, err)

	// 保存自身不算重复
	_, err = f.svc.Update(ctx, paper.ID, in, nil)
	assert.NoError(t, err)

	_, err = f.svc.Update(ctx, 9999, in, nil)
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestPaperUpdateDuplicateOfAnother(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.staff, validInput(), pdf("a.pdf"))
	require.NoError(t, err)
	in := validInput()
	in.Title = "Midterm"
	second, err := f.svc.Create(ctx, f.staff, in, pdf("b.pdf"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, second.ID, validInput(), nil)
	assert.ErrorIs(t, err, ErrDuplicatePaper)
}

func TestPaperDeleteRemovesAttachmentsAndObjects(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("a.pdf"))
	require.NoError(t, err)
	admin := NewAdminService(f.repo, f.store, nil, 25)
	atts, err := admin.AddAttachments(ctx, paper.ID, []Upload{*pdf("sol.pdf")})
	require.NoError(t, err)
	require.Len(t, atts, 1)

	require.NoError(t, f.svc.Delete(ctx, paper.ID))

	var count int64
	require.NoError(t, f.db.Model(&model.Attachment{}).Count(&count).Error)
	assert.Zero(t, count)
	_, err = f.store.Stat(ctx, paper.FileKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = f.store.Stat(ctx, atts[0].FileKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	sent := f.producer.Sent()
	assert.Equal(t, tasks.ActionDelete, sent[len(sent)-1].Action)

	assert.ErrorIs(t, f.svc.Delete(ctx, paper.ID), ErrPaperNotFound)
}

func TestPaperCreateIgnoresProducerFailure(t *testing.T) {
	f := newPaperFixture(t)
	f.producer.Err = errors.New("kafka down")

	paper, err := f.svc.Create(context.Background(), f.staff, validInput(), pdf("a.pdf"))
	require.NoError(t, err)
	assert.NotZero(t, paper.ID)
}

func TestFormOptions(t *testing.T) {
	f := newPaperFixture(t)
	opts := f.svc.FormOptions()
	assert.Equal(t, model.Departments, opts.Departments)
	assert.Equal(t, []string{"Fall", "Spring", "Summer"}, opts.Semesters)
	assert.Equal(t, model.FirstFormYear, opts.Years[0])
}

// racingRepo 在保存编辑前插入一次下载，模拟编辑期间的并发下载。
type racingRepo struct {
	repository.PaperRepository
	downloads repository.DownloadRepository
	userID    uint
}

func (r *racingRepo) Update(paper *model.Paper) error {
	if _, err := r.downloads.Record(r.userID, paper.ID); err != nil {
		return err
	}
	return r.PaperRepository.Update(paper)
}

func TestPaperUpdateKeepsConcurrentDownloads(t *testing.T) {
	f := newPaperFixture(t)
	ctx := context.Background()

	paper, err := f.svc.Create(ctx, f.staff, validInput(), pdf("final.pdf"))
	require.NoError(t, err)
	student := testutil.CreateUser(t, f.db, "student", model.RoleUser)

	svc := NewPaperService(&racingRepo{
		PaperRepository: f.repo,
		downloads:       repository.NewDownloadRepository(f.db),
		userID:          student.ID,
	}, f.store, f.producer)

	in := validInput()
	in.Title = "Final Exam (renamed)"
	_, err = svc.Update(ctx, paper.ID, in, nil)
	require.NoError(t, err)

	stored, err := f.repo.FindByID(paper.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final Exam (renamed)", stored.Title)
	assert.EqualValues(t, 1, stored.DownloadCount)
	assert.Equal(t, paper.UploadedByID, stored.UploadedByID)
}
