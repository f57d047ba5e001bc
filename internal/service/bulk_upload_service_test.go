package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/testutil"
	"pastpapers-go/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore 在第 failAt 次 Put 时返回错误。
type failingStore struct {
	*storage.LocalStore
	puts   int
	failAt int
}

func (s *failingStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	s.puts++
	if s.puts == s.failAt {
		return storage.ObjectInfo{}, errors.New("disk full")
	}
	return s.LocalStore.Put(ctx, key, r, size, contentType)
}

func uploads(names ...string) []Upload {
	out := make([]Upload, 0, len(names))
	for _, n := range names {
		out = append(out, *pdf(n))
	}
	return out
}

func countPapers(t *testing.T, f *paperFixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Paper{}).Count(&n).Error)
	return n
}

var mathFall2024 = BulkMeta{Department: "Mathematics", Year: "2024", Semester: "Fall"}

func TestBulkUploadExample(t *testing.T) {
	f := newPaperFixture(t)
	svc := NewBulkUploadService(f.repo, f.store, f.producer)

	res, err := svc.BulkUpload(context.Background(), f.staff, mathFall2024,
		uploads("a.pdf", "b.pdf"), []string{"MATH101", "MATH101"}, []string{"Final", "Final"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{`Duplicate paper: "Final".`}, res.Messages)
	assert.EqualValues(t, 1, countPapers(t, f))
	assert.Len(t, f.producer.Sent(), 1)
}

func TestBulkUploadCountsSkippedRows(t *testing.T) {
	f := newPaperFixture(t)
	testutil.CreatePaper(t, f.db, model.Paper{Title: "Existing", CourseCode: "MATH200", Department: "Mathematics", Year: 2024, Semester: "Fall"})
	svc := NewBulkUploadService(f.repo, f.store, f.producer)

	files := uploads("ok1.pdf", "notes.docx", "nocode.pdf", "notitle.pdf", "dup.pdf", "ok2.PDF")
	codes := []string{"MATH101", "MATH102", "  ", "MATH104", "MATH200", "MATH106"}
	titles := []string{"Final", "Notes", "Quiz", "", "Existing", "Midterm"}

	res, err := svc.BulkUpload(context.Background(), f.staff, mathFall2024, files, codes, titles)
	require.NoError(t, err)
	assert.Equal(t, 6-1-2-1, res.Created)
	assert.Equal(t, []string{
		`File "notes.docx" is not a PDF.`,
		`Course code missing for file "nocode.pdf".`,
		`Title missing for file "notitle.pdf".`,
		`Duplicate paper: "Existing".`,
	}, res.Messages)
	assert.EqualValues(t, 3, countPapers(t, f))
	require.Len(t, res.Papers, 2)
	assert.Equal(t, "Final", res.Papers[0].Title)
	assert.Equal(t, "Midterm", res.Papers[1].Title)
}

func TestBulkUploadAggregateErrors(t *testing.T) {
	f := newPaperFixture(t)
	svc := NewBulkUploadService(f.repo, f.store, f.producer)
	ctx := context.Background()

	tests := []struct {
		name   string
		meta   BulkMeta
		files  []Upload
		codes  []string
		titles []string
		want   string
	}{
		{"no files", mathFall2024, nil, nil, nil, "No files were uploaded."},
		{"mismatch", mathFall2024, uploads("a.pdf", "b.pdf"), []string{"X1"}, []string{"A", "B"}, "Mismatch between files and metadata."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.BulkUpload(ctx, f.staff, tt.meta, tt.files, tt.codes, tt.titles)
			assert.Nil(t, res)
			var berr *BulkError
			require.True(t, errors.As(err, &berr))
			assert.Equal(t, tt.want, berr.Message)
			assert.False(t, berr.Internal)
		})
	}

	_, err := svc.BulkUpload(ctx, f.staff, BulkMeta{Department: "Mathematics", Year: "", Semester: "Fall"},
		uploads("a.pdf"), []string{"X1"}, []string{"A"})
	var berr *BulkError
	require.True(t, errors.As(err, &berr))

	assert.Zero(t, countPapers(t, f))
	assert.Empty(t, f.producer.Sent())
}

func TestBulkUploadRollsBackOnStorageFailure(t *testing.T) {
	f := newPaperFixture(t)
	store := &failingStore{LocalStore: f.store, failAt: 2}
	svc := NewBulkUploadService(f.repo, store, f.producer)

	res, err := svc.BulkUpload(context.Background(), f.staff, mathFall2024,
		uploads("a.pdf", "b.pdf"), []string{"MATH101", "MATH102"}, []string{"Final", "Quiz"})
	var berr *BulkError
	require.True(t, errors.As(err, &berr))
	assert.True(t, berr.Internal)
	assert.Equal(t, "Error during upload: disk full", berr.Message)
	assert.Equal(t, 0, res.Created)

	assert.Zero(t, countPapers(t, f))
	assert.Empty(t, f.producer.Sent())

	// 第一行已上传的对象被清理
	var files []string
	_ = filepath.Walk(f.store.Root(), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	assert.Empty(t, files)
}
