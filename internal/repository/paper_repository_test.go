package repository_test

import (
	"testing"
	"time"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPapers(t *testing.T, db *gorm.DB, uploader uint) {
	t.Helper()
	now := time.Now()
	papers := []model.Paper{
		{Title: "Quantum Mechanics", CourseCode: "PHY301", Department: "Physics", Year: 2023, Semester: "Fall", FileKey: "papers/a.pdf", UploadedAt: now.Add(-40 * 24 * time.Hour)},
		{Title: "Classical Mechanics", CourseCode: "PHY101", Department: "Physics", Year: 2024, Semester: "Spring", UploadedAt: now.Add(-2 * 24 * time.Hour)},
		{Title: "Linear Algebra", CourseCode: "MATH201", Department: "Mathematics", Year: 2022, Semester: "Fall", FileKey: "papers/b.pdf", UploadedAt: now.Add(-1 * time.Hour)},
		{Title: "Algorithms", CourseCode: "CS300", Department: "Computer Science", Year: 2024, Semester: "Summer", FileKey: "papers/c.pdf", UploadedAt: now},
	}
	for _, p := range papers {
		p.UploadedByID = uploader
		testutil.CreatePaper(t, db, p)
	}
}

func titles(papers []model.Paper) []string {
	out := make([]string, 0, len(papers))
	for _, p := range papers {
		out = append(out, p.Title)
	}
	return out
}

func TestPaperListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	staff := testutil.CreateUser(t, db, "staff", model.RoleStaff)
	seedPapers(t, db, staff.ID)
	repo := repository.NewPaperRepository(db)

	t.Run("department with title order", func(t *testing.T) {
		papers, total, err := repo.List(repository.PaperFilter{Department: "Physics", Order: repository.OrderTitle}, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Equal(t, []string{"Classical Mechanics", "Quantum Mechanics"}, titles(papers))
	})

	t.Run("query is case-insensitive over course code", func(t *testing.T) {
		papers, _, err := repo.List(repository.PaperFilter{Query: "math"}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Linear Algebra"}, titles(papers))
	})

	t.Run("query matches year as text", func(t *testing.T) {
		papers, _, err := repo.List(repository.PaperFilter{Query: "2024", Order: repository.OrderTitle}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Algorithms", "Classical Mechanics"}, titles(papers))
	})

	t.Run("query wildcard characters are literal", func(t *testing.T) {
		papers, _, err := repo.List(repository.PaperFilter{Query: "%"}, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, papers)
	})

	t.Run("recent excludes older than cutoff", func(t *testing.T) {
		papers, _, err := repo.List(repository.PaperFilter{UploadedSince: time.Now().Add(-30 * 24 * time.Hour)}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Algorithms", "Linear Algebra", "Classical Mechanics"}, titles(papers))
	})

	t.Run("only with file", func(t *testing.T) {
		_, total, err := repo.List(repository.PaperFilter{OnlyWithFile: true}, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
	})

	t.Run("year descending", func(t *testing.T) {
		papers, _, err := repo.List(repository.PaperFilter{Order: repository.OrderYearDesc}, 0, 10)
		require.NoError(t, err)
		// 同年份按 id 倒序
		assert.Equal(t, []string{"Algorithms", "Classical Mechanics", "Quantum Mechanics", "Linear Algebra"}, titles(papers))
	})

	t.Run("uploader username search", func(t *testing.T) {
		_, total, err := repo.List(repository.PaperFilter{Query: "STAFF", IncludeUploader: true}, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
	})

	t.Run("pagination", func(t *testing.T) {
		papers, total, err := repo.List(repository.PaperFilter{}, 2, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Equal(t, []string{"Classical Mechanics", "Quantum Mechanics"}, titles(papers))
	})
}

func TestPaperDistinctValues(t *testing.T) {
	db := testutil.NewDB(t)
	staff := testutil.CreateUser(t, db, "staff", model.RoleStaff)
	seedPapers(t, db, staff.ID)
	repo := repository.NewPaperRepository(db)

	departments, err := repo.DistinctDepartments()
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science", "Mathematics", "Physics"}, departments)

	years, err := repo.DistinctYears()
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023, 2022}, years)
}

func TestPaperExistsIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	staff := testutil.CreateUser(t, db, "staff", model.RoleStaff)
	p := testutil.CreatePaper(t, db, model.Paper{Title: "Final", CourseCode: "CS101", Department: "Computer Science", Year: 2024, Semester: "Fall", UploadedByID: staff.ID})
	repo := repository.NewPaperRepository(db)

	exists, err := repo.ExistsIdentity("Final", "CS101", 2024, "Fall", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	variants := []struct {
		title, code string
		year        int
		semester    string
	}{
		{"Midterm", "CS101", 2024, "Fall"},
		{"Final", "CS102", 2024, "Fall"},
		{"Final", "CS101", 2023, "Fall"},
		{"Final", "CS101", 2024, "Spring"},
	}
	for _, v := range variants {
		exists, err := repo.ExistsIdentity(v.title, v.code, v.year, v.semester, 0)
		require.NoError(t, err)
		assert.False(t, exists, "%+v should not be a duplicate", v)
	}

	exists, err = repo.ExistsIdentity("Final", "CS101", 2024, "Fall", p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a paper is not a duplicate of itself")
}

func TestPaperUniqueIndex(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPaperRepository(db)
	p := model.Paper{Title: "Final", CourseCode: "CS101", Department: "Computer Science", Year: 2024, Semester: "Fall"}
	require.NoError(t, repo.Create(&p))

	dup := model.Paper{Title: "Final", CourseCode: "CS101", Department: "Mathematics", Year: 2024, Semester: "Fall"}
	assert.Error(t, repo.Create(&dup))
}

func TestPaperDeleteRemovesAttachments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPaperRepository(db)
	p := testutil.CreatePaper(t, db, model.Paper{Title: "Final", CourseCode: "CS101", Department: "Computer Science", Year: 2024, Semester: "Fall"})
	require.NoError(t, repo.CreateAttachment(&model.Attachment{PaperID: p.ID, FileKey: "papers/x1.pdf"}))
	require.NoError(t, repo.CreateAttachment(&model.Attachment{PaperID: p.ID, FileKey: "papers/x2.pdf"}))

	found, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	require.Len(t, found.Attachments, 2)
	assert.Equal(t, "papers/x1.pdf", found.Attachments[0].FileKey)

	require.NoError(t, repo.Delete(p.ID))

	var count int64
	require.NoError(t, db.Model(&model.Attachment{}).Where("paper_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
	_, err = repo.FindByID(p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(p.ID), gorm.ErrRecordNotFound)
}

func TestPaperDownloadCounters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPaperRepository(db)
	a := testutil.CreatePaper(t, db, model.Paper{Title: "A", CourseCode: "CS1", Department: "Computer Science", Year: 2024, Semester: "Fall"})
	b := testutil.CreatePaper(t, db, model.Paper{Title: "B", CourseCode: "CS1", Department: "Computer Science", Year: 2024, Semester: "Fall"})

	require.NoError(t, repo.IncrementDownloadCount(a.ID))
	require.NoError(t, repo.IncrementDownloadCount(a.ID))
	require.NoError(t, repo.IncrementDownloadCount(b.ID))

	n, err := repo.ResetDownloadCounts([]uint{a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	fa, _ := repo.FindByID(a.ID)
	fb, _ := repo.FindByID(b.ID)
	assert.EqualValues(t, 0, fa.DownloadCount)
	assert.EqualValues(t, 1, fb.DownloadCount)
}
