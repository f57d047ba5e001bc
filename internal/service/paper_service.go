// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"
	"pastpapers-go/pkg/validator"

	"gorm.io/gorm"
)

// PaperInput 是单篇上传与编辑表单。
type PaperInput struct {
	Title      string `form:"title" json:"title" validate:"required,max=200"`
	CourseCode string `form:"course_code" json:"course_code" validate:"required,max=20"`
	Department string `form:"department" json:"department" validate:"required,department"`
	Year       string `form:"year" json:"year" validate:"required,year"`
	Semester   string `form:"semester" json:"semester" validate:"required,semester"`
}

func (in *PaperInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.CourseCode = strings.TrimSpace(in.CourseCode)
	in.Department = strings.TrimSpace(in.Department)
	in.Year = strings.TrimSpace(in.Year)
	in.Semester = strings.TrimSpace(in.Semester)
}

// validate 校验表单与文件，file 为 nil 且 fileRequired 时报缺少文件。
func (in *PaperInput) validate(file *Upload, fileRequired bool) (int, error) {
	in.trim()
	verr := &ValidationError{Fields: validator.Validate(in)}
	switch {
	case file == nil && fileRequired:
		verr.Add("file", "This field is required.")
	case file != nil && !validator.IsPDF(file.Filename):
		verr.Add("file", "Only PDF files are allowed.")
	}
	if len(verr.Fields) > 0 {
		return 0, verr
	}
	year, _ := strconv.Atoi(in.Year)
	return year, nil
}

// FormOptions 是上传表单所需的下拉选项。
type FormOptions struct {
	Departments []string `json:"departments"`
	Semesters   []string `json:"semesters"`
	Years       []int    `json:"years"`
}

// PaperService 接口定义了论文的上传、编辑与删除。
type PaperService interface {
	FormOptions() FormOptions
	Create(ctx context.Context, user *model.User, in PaperInput, file *Upload) (*model.Paper, error)
	Get(id uint) (*model.Paper, error)
	Update(ctx context.Context, id uint, in PaperInput, file *Upload) (*model.Paper, error)
	Delete(ctx context.Context, id uint) error
}

type paperService struct {
	paperRepo repository.PaperRepository
	store     storage.ObjectStore
	producer  IndexProducer
	now       func() time.Time
}

// NewPaperService 创建一个新的 PaperService 实例，producer 可以为 nil。
func NewPaperService(paperRepo repository.PaperRepository, store storage.ObjectStore, producer IndexProducer) PaperService {
	return &paperService{
		paperRepo: paperRepo,
		store:     store,
		producer:  producer,
		now:       time.Now,
	}
}

func (s *paperService) FormOptions() FormOptions {
	return FormOptions{
		Departments: model.Departments,
		Semesters:   model.Semesters,
		Years:       model.FormYears(s.now()),
	}
}

// Create 保存一篇新论文，文件先写入对象存储再创建记录。
func (s *paperService) Create(ctx context.Context, user *model.User, in PaperInput, file *Upload) (*model.Paper, error) {
	year, err := in.validate(file, true)
	if err != nil {
		return nil, err
	}

	exists, err := s.paperRepo.ExistsIdentity(in.Title, in.CourseCode, year, in.Semester, 0)
	if err != nil {
		log.Errorf("[PaperService] 查重失败, error: %v", err)
		return nil, fmt.Errorf("查重失败: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePaper
	}

	key := PaperObjectKey(in.Department, year, in.Semester, file.Filename)
	size, err := putObject(ctx, s.store, key, *file)
	if err != nil {
		log.Errorf("[PaperService] 上传文件失败, key: %s, error: %v", key, err)
		return nil, fmt.Errorf("上传文件失败: %w", err)
	}

	paper := &model.Paper{
		Title:        in.Title,
		CourseCode:   in.CourseCode,
		Department:   in.Department,
		Year:         year,
		Semester:     in.Semester,
		FileKey:      key,
		FileSize:     size,
		UploadedByID: user.ID,
	}
	if err := s.paperRepo.Create(paper); err != nil {
		deleteObjects(ctx, s.store, key)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePaper
		}
		log.Errorf("[PaperService] 创建论文记录失败, error: %v", err)
		return nil, fmt.Errorf("创建论文记录失败: %w", err)
	}

	log.Infof("[PaperService] 论文上传成功, id: %d, title: %s, user: %s", paper.ID, paper.Title, user.Username)
	enqueueIndex(ctx, s.producer, tasks.ActionIndex, paper)
	return paper, nil
}

func (s *paperService) Get(id uint) (*model.Paper, error) {
	paper, err := s.paperRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	return paper, nil
}

// Update 修改论文元数据，可选地替换文件；旧文件在记录保存后删除。
func (s *paperService) Update(ctx context.Context, id uint, in PaperInput, file *Upload) (*model.Paper, error) {
	paper, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	year, err := in.validate(file, false)
	if err != nil {
		return nil, err
	}

	exists, err := s.paperRepo.ExistsIdentity(in.Title, in.CourseCode, year, in.Semester, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("查重失败: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePaper
	}

	oldKey := ""
	if file != nil {
		key := PaperObjectKey(in.Department, year, in.Semester, file.Filename)
		size, err := putObject(ctx, s.store, key, *file)
		if err != nil {
			log.Errorf("[PaperService] 上传替换文件失败, paperID: %d, error: %v", id, err)
			return nil, fmt.Errorf("上传文件失败: %w", err)
		}
		oldKey = paper.FileKey
		paper.FileKey = key
		paper.FileSize = size
	}

	paper.Title = in.Title
	paper.CourseCode = in.CourseCode
	paper.Department = in.Department
	paper.Year = year
	paper.Semester = in.Semester

	if err := s.paperRepo.Update(paper); err != nil {
		if file != nil {
			deleteObjects(ctx, s.store, paper.FileKey)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePaper
		}
		log.Errorf("[PaperService] 更新论文失败, paperID: %d, error: %v", id, err)
		return nil, fmt.Errorf("更新论文失败: %w", err)
	}
	deleteObjects(ctx, s.store, oldKey)

	enqueueIndex(ctx, s.producer, tasks.ActionIndex, paper)
	return paper, nil
}

// Delete 删除论文记录、附件记录，然后尽力删除对象存储中的文件。
func (s *paperService) Delete(ctx context.Context, id uint) error {
	paper, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.paperRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaperNotFound
		}
		log.Errorf("[PaperService] 删除论文失败, paperID: %d, error: %v", id, err)
		return fmt.Errorf("删除论文失败: %w", err)
	}

	keys := []string{paper.FileKey}
	for _, att := range paper.Attachments {
		keys = append(keys, att.FileKey)
	}
	deleteObjects(ctx, s.store, keys...)

	log.Infof("[PaperService] 论文已删除, id: %d, title: %s", paper.ID, paper.Title)
	enqueueIndex(ctx, s.producer, tasks.ActionDelete, paper)
	return nil
}
