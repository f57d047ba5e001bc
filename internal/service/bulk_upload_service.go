package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"
	"pastpapers-go/pkg/validator"
)

// BulkMeta 是一批论文共享的院系、年份与学期。
type BulkMeta struct {
	Department string `form:"department" validate:"required,department"`
	Year       string `form:"year" validate:"required,year"`
	Semester   string `form:"semester" validate:"required,semester"`
}

// BulkResult 是批量上传的结果，Messages 按行顺序记录被跳过的原因。
type BulkResult struct {
	Created  int              `json:"created"`
	Messages []string         `json:"messages"`
	Papers   []model.PaperDTO `json:"papers"`
}

type paperIdentity struct {
	title, courseCode string
	year              int
	semester          string
}

// BulkUploadService 接口定义了管理员批量上传。
type BulkUploadService interface {
	BulkUpload(ctx context.Context, user *model.User, meta BulkMeta, files []Upload, courseCodes, titles []string) (*BulkResult, error)
}

type bulkUploadService struct {
	paperRepo repository.PaperRepository
	store     storage.ObjectStore
	producer  IndexProducer
}

// NewBulkUploadService 创建一个新的 BulkUploadService 实例，producer 可以为 nil。
func NewBulkUploadService(paperRepo repository.PaperRepository, store storage.ObjectStore, producer IndexProducer) BulkUploadService {
	return &bulkUploadService{paperRepo: paperRepo, store: store, producer: producer}
}

// BulkUpload 在一个事务中逐行创建论文。行级问题只产生提示并跳过该行；
// 存储或数据库异常会回滚整批并删除已上传的对象。
func (s *bulkUploadService) BulkUpload(ctx context.Context, user *model.User, meta BulkMeta, files []Upload, courseCodes, titles []string) (*BulkResult, error) {
	if len(files) == 0 {
		return nil, &BulkError{Message: "No files were uploaded."}
	}
	if len(files) != len(courseCodes) || len(files) != len(titles) {
		return nil, &BulkError{Message: "Mismatch between files and metadata."}
	}
	meta.Department = strings.TrimSpace(meta.Department)
	meta.Year = strings.TrimSpace(meta.Year)
	meta.Semester = strings.TrimSpace(meta.Semester)
	if errs := validator.Validate(&meta); len(errs) > 0 {
		return nil, &BulkError{Message: "Please provide a valid department, year and semester. " + (&ValidationError{Fields: errs}).Error()}
	}
	year, _ := strconv.Atoi(meta.Year)

	result := &BulkResult{Messages: []string{}}
	var uploaded []string
	var created []model.Paper

	err := s.paperRepo.Transaction(func(repo repository.PaperRepository) error {
		seen := make(map[paperIdentity]bool)
		for i, file := range files {
			name := file.Filename
			code := strings.TrimSpace(courseCodes[i])
			title := strings.TrimSpace(titles[i])

			if !validator.IsPDF(name) {
				result.Messages = append(result.Messages, fmt.Sprintf("File \"%s\" is not a PDF.", name))
				continue
			}
			if code == "" {
				result.Messages = append(result.Messages, fmt.Sprintf("Course code missing for file \"%s\".", name))
				continue
			}
			if title == "" {
				result.Messages = append(result.Messages, fmt.Sprintf("Title missing for file \"%s\".", name))
				continue
			}

			id := paperIdentity{title: title, courseCode: code, year: year, semester: meta.Semester}
			if seen[id] {
				result.Messages = append(result.Messages, fmt.Sprintf("Duplicate paper: \"%s\".", title))
				continue
			}
			exists, err := repo.ExistsIdentity(title, code, year, meta.Semester, 0)
			if err != nil {
				return err
			}
			if exists {
				result.Messages = append(result.Messages, fmt.Sprintf("Duplicate paper: \"%s\".", title))
				continue
			}
			seen[id] = true

			key := PaperObjectKey(meta.Department, year, meta.Semester, name)
			size, err := putObject(ctx, s.store, key, file)
			if err != nil {
				return err
			}
			uploaded = append(uploaded, key)

			paper := model.Paper{
				Title:        title,
				CourseCode:   code,
				Department:   meta.Department,
				Year:         year,
				Semester:     meta.Semester,
				FileKey:      key,
				FileSize:     size,
				UploadedByID: user.ID,
			}
			if err := repo.Create(&paper); err != nil {
				return err
			}
			created = append(created, paper)
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, s.store, uploaded...)
		log.Errorf("[BulkUploadService] 批量上传失败，已回滚, user: %s, error: %v", user.Username, err)
		return &BulkResult{Created: 0, Messages: []string{}}, &BulkError{Message: fmt.Sprintf("Error during upload: %v", err), Internal: true}
	}

	for i := range created {
		enqueueIndex(ctx, s.producer, tasks.ActionIndex, &created[i])
	}
	result.Created = len(created)
	result.Papers = model.PapersToDTO(created)
	log.Infof("[BulkUploadService] 批量上传完成, user: %s, created: %d, skipped: %d", user.Username, result.Created, len(result.Messages))
	return result, nil
}
