package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"
	"pastpapers-go/pkg/validator"

	"gorm.io/gorm"
)

// ExportFilename 是 ZIP 导出的下载文件名。
const ExportFilename = "past_papers.zip"

// ZipExport 是导出结果，Skipped 为存储中缺失而被跳过的文件数。
type ZipExport struct {
	Data    []byte
	Files   int
	Skipped int
}

// AdminPaperQuery 是后台论文列表的查询参数。
type AdminPaperQuery struct {
	Q          string `form:"q"`
	Department string `form:"department"`
	Year       string `form:"year"`
	Semester   string `form:"semester"`
	Page       string `form:"page"`
}

// AdminPaperRow 是后台论文列表的一行。
type AdminPaperRow struct {
	model.PaperDTO
	TotalFiles int `json:"totalFiles"`
}

// AdminPaperList 是后台论文列表的一页。
type AdminPaperList struct {
	Papers []AdminPaperRow `json:"papers"`
	Page   model.Page      `json:"page"`
}

// AdminService 接口定义了后台批量工具。
type AdminService interface {
	ExportZip(ctx context.Context, ids []uint) (*ZipExport, error)
	ResetDownloads(ids []uint) (int64, error)
	AddAttachments(ctx context.Context, paperID uint, files []Upload) ([]model.Attachment, error)
	ListPapers(q AdminPaperQuery) (*AdminPaperList, error)
}

type adminService struct {
	paperRepo repository.PaperRepository
	store     storage.ObjectStore
	producer  IndexProducer
	pageSize  int
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(paperRepo repository.PaperRepository, store storage.ObjectStore, producer IndexProducer, pageSize int) AdminService {
	if pageSize < 1 {
		pageSize = 25
	}
	return &adminService{paperRepo: paperRepo, store: store, producer: producer, pageSize: pageSize}
}

var archiveNameReplacer = strings.NewReplacer("/", "_", "\\", "_")

// archiveBaseName 返回 <course>_<year>_<semester>_<title>，路径分隔符替换为下划线。
func archiveBaseName(p *model.Paper) string {
	return archiveNameReplacer.Replace(fmt.Sprintf("%s_%d_%s_%s", p.CourseCode, p.Year, p.Semester, p.Title))
}

// ExportZip 把选中论文及其附件打包。存储中缺失的对象被跳过并计数。
func (s *adminService) ExportZip(ctx context.Context, ids []uint) (*ZipExport, error) {
	if len(ids) == 0 {
		return nil, ErrNoFilesSelected
	}
	papers, err := s.paperRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("查询论文失败: %w", err)
	}
	if len(papers) == 0 {
		return nil, ErrNoFilesSelected
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	result := &ZipExport{}

	add := func(name, key string) error {
		if key == "" {
			return nil
		}
		r, err := s.store.Get(ctx, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			result.Skipped++
			return nil
		}
		if err != nil {
			return err
		}
		defer r.Close()
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, r); err != nil {
			return err
		}
		result.Files++
		return nil
	}

	used := make(map[string]bool, len(papers))
	for i := range papers {
		p := &papers[i]
		base := archiveBaseName(p)
		// 替换分隔符后不同论文可能同名，冲突时追加论文 id
		for n := 0; used[base]; n++ {
			base = fmt.Sprintf("%s_%d", archiveBaseName(p), p.ID)
			if n > 0 {
				base = fmt.Sprintf("%s_%d", base, n)
			}
		}
		used[base] = true
		if err := add(base+".pdf", p.FileKey); err != nil {
			return nil, fmt.Errorf("打包论文 %d 失败: %w", p.ID, err)
		}
		for _, att := range p.Attachments {
			if err := add(fmt.Sprintf("%s_attachment_%d.pdf", base, att.ID), att.FileKey); err != nil {
				return nil, fmt.Errorf("打包附件 %d 失败: %w", att.ID, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		log.Warnf("[AdminService] ZIP 导出跳过了 %d 个缺失的文件", result.Skipped)
	}
	result.Data = buf.Bytes()
	return result, nil
}

func (s *adminService) ResetDownloads(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoFilesSelected
	}
	n, err := s.paperRepo.ResetDownloadCounts(ids)
	if err != nil {
		return 0, fmt.Errorf("重置下载次数失败: %w", err)
	}
	log.Infof("[AdminService] 已重置 %d 篇论文的下载次数", n)
	return n, nil
}

// AddAttachments 为论文追加附件，任一文件不是 PDF 时整体拒绝。
func (s *adminService) AddAttachments(ctx context.Context, paperID uint, files []Upload) ([]model.Attachment, error) {
	paper, err := s.paperRepo.FindByID(paperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"files": "No files were uploaded."}}
	}
	for _, f := range files {
		if !validator.IsPDF(f.Filename) {
			return nil, &ValidationError{Fields: map[string]string{"files": fmt.Sprintf("File \"%s\" is not a PDF.", f.Filename)}}
		}
	}

	var uploaded []string
	var atts []model.Attachment
	err = s.paperRepo.Transaction(func(repo repository.PaperRepository) error {
		for _, f := range files {
			key := PaperObjectKey(paper.Department, paper.Year, paper.Semester, f.Filename)
			size, err := putObject(ctx, s.store, key, f)
			if err != nil {
				return err
			}
			uploaded = append(uploaded, key)
			att := model.Attachment{PaperID: paper.ID, FileKey: key, FileSize: size}
			if err := repo.CreateAttachment(&att); err != nil {
				return err
			}
			atts = append(atts, att)
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, s.store, uploaded...)
		log.Errorf("[AdminService] 添加附件失败, paperID: %d, error: %v", paperID, err)
		return nil, fmt.Errorf("添加附件失败: %w", err)
	}
	enqueueIndex(ctx, s.producer, tasks.ActionIndex, paper)
	return atts, nil
}

func (s *adminService) ListPapers(q AdminPaperQuery) (*AdminPaperList, error) {
	filter := repository.PaperFilter{
		Query:           strings.TrimSpace(q.Q),
		Department:      strings.TrimSpace(q.Department),
		Semester:        strings.TrimSpace(q.Semester),
		IncludeUploader: true,
		Order:           repository.OrderNewest,
	}
	if y, err := strconv.Atoi(strings.TrimSpace(q.Year)); err == nil {
		filter.Year = y
	}

	total, err := s.paperRepo.Count(filter)
	if err != nil {
		return nil, err
	}
	page := model.NewPage(parsePage(q.Page), s.pageSize, total)
	papers, _, err := s.paperRepo.List(filter, page.Offset(), s.pageSize)
	if err != nil {
		return nil, err
	}

	rows := make([]AdminPaperRow, 0, len(papers))
	for i := range papers {
		p := &papers[i]
		total := len(p.Attachments)
		if p.HasFile() {
			total++
		}
		rows = append(rows, AdminPaperRow{PaperDTO: p.ToDTO(), TotalFiles: total})
	}
	return &AdminPaperList{Papers: rows, Page: page}, nil
}
