package repository

import (
	"strings"
	"time"

	"pastpapers-go/internal/model"

	"gorm.io/gorm"
)

// 浏览排序方式，均以 id 倒序作为次要排序。
const (
	OrderTitle      = "title ASC, id DESC"
	OrderNewest     = "uploaded_at DESC, id DESC"
	OrderYearDesc   = "year DESC, id DESC"
	OrderDownloads  = "download_count DESC, id DESC"
	likeEscapeChar  = "!"
	likeEscapeQuery = " ESCAPE '!'"
)

// PaperFilter 描述一次浏览查询的过滤条件，零值字段不参与过滤。
type PaperFilter struct {
	Query         string
	Department    string
	Year          int
	Semester      string
	UploadedSince time.Time
	OnlyWithFile  bool
	UploadedByID  uint
	// IncludeUploader 为 true 时 Query 还会匹配上传者用户名（后台列表）
	IncludeUploader bool
	Order           string
}

// PaperRepository 接口定义了论文与附件的持久化操作。
type PaperRepository interface {
	Create(paper *model.Paper) error
	Update(paper *model.Paper) error
	FindByID(id uint) (*model.Paper, error)
	FindByIDs(ids []uint) ([]model.Paper, error)
	ExistsIdentity(title, courseCode string, year int, semester string, excludeID uint) (bool, error)
	Delete(id uint) error
	List(filter PaperFilter, offset, limit int) ([]model.Paper, int64, error)
	Count(filter PaperFilter) (int64, error)
	DistinctDepartments() ([]string, error)
	DistinctYears() ([]int, error)
	IncrementDownloadCount(id uint) error
	ResetDownloadCounts(ids []uint) (int64, error)
	CreateAttachment(att *model.Attachment) error
	FindAttachments(paperID uint) ([]model.Attachment, error)
	FindAll() ([]model.Paper, error)
	// Transaction 在一个数据库事务中执行 fn，fn 返回错误时回滚。
	Transaction(fn func(txRepo PaperRepository) error) error
	WithTx(tx *gorm.DB) PaperRepository
}

type paperRepository struct {
	db *gorm.DB
}

// NewPaperRepository 创建一个新的 PaperRepository 实例。
func NewPaperRepository(db *gorm.DB) PaperRepository {
	return &paperRepository{db: db}
}

// WithTx 返回一个绑定到事务 tx 的副本。
func (r *paperRepository) WithTx(tx *gorm.DB) PaperRepository {
	return &paperRepository{db: tx}
}

func (r *paperRepository) Transaction(fn func(txRepo PaperRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *paperRepository) Create(paper *model.Paper) error {
	return r.db.Create(paper).Error
}

// editableColumns 是编辑论文时允许写入的列，download_count 只由计数语句修改。
var editableColumns = []string{"title", "course_code", "department", "year", "semester", "file_key", "file_size"}

// Update 只写入可编辑的列，不会触碰附件、上传者与下载次数。
func (r *paperRepository) Update(paper *model.Paper) error {
	return r.db.Model(paper).Select(editableColumns).Updates(paper).Error
}

// FindByID 查找论文并预加载附件与上传者。
func (r *paperRepository) FindByID(id uint) (*model.Paper, error) {
	var paper model.Paper
	err := r.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("UploadedBy").First(&paper, id).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// FindByIDs 按 id 升序返回存在的论文，附件已预加载。
func (r *paperRepository) FindByIDs(ids []uint) ([]model.Paper, error) {
	var papers []model.Paper
	if len(ids) == 0 {
		return papers, nil
	}
	err := r.db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("id IN ?", ids).Order("id ASC").Find(&papers).Error
	return papers, err
}

func (r *paperRepository) FindAll() ([]model.Paper, error) {
	var papers []model.Paper
	err := r.db.Order("id ASC").Find(&papers).Error
	return papers, err
}

// ExistsIdentity 检查 (title, course_code, year, semester) 是否已被其他论文占用。
func (r *paperRepository) ExistsIdentity(title, courseCode string, year int, semester string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&model.Paper{}).
		Where("title = ? AND course_code = ? AND year = ? AND semester = ?", title, courseCode, year, semester)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete 在一个事务中删除论文的附件记录与论文本身。
func (r *paperRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Paper{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// yearAsText 返回当前方言下把 year 转成文本的表达式。
func (r *paperRepository) yearAsText() string {
	if r.db.Dialector.Name() == "mysql" {
		return "CAST(past_papers.year AS CHAR)"
	}
	return "CAST(past_papers.year AS TEXT)"
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, likeEscapeChar, likeEscapeChar+likeEscapeChar)
	s = strings.ReplaceAll(s, "%", likeEscapeChar+"%")
	s = strings.ReplaceAll(s, "_", likeEscapeChar+"_")
	return s
}

func (r *paperRepository) applyFilter(q *gorm.DB, f PaperFilter) *gorm.DB {
	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		cols := []string{
			"LOWER(past_papers.title)",
			"LOWER(past_papers.course_code)",
			"LOWER(past_papers.department)",
			r.yearAsText(),
		}
		if f.IncludeUploader {
			q = q.Joins("LEFT JOIN users ON users.id = past_papers.uploaded_by_id")
			cols = append(cols, "LOWER(users.username)")
		}
		conds := make([]string, 0, len(cols))
		args := make([]interface{}, 0, len(cols))
		for _, col := range cols {
			conds = append(conds, col+" LIKE ?"+likeEscapeQuery)
			args = append(args, pattern)
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	if f.Department != "" {
		q = q.Where("past_papers.department = ?", f.Department)
	}
	if f.Year != 0 {
		q = q.Where("past_papers.year = ?", f.Year)
	}
	if f.Semester != "" {
		q = q.Where("past_papers.semester = ?", f.Semester)
	}
	if !f.UploadedSince.IsZero() {
		q = q.Where("past_papers.uploaded_at >= ?", f.UploadedSince)
	}
	if f.OnlyWithFile {
		q = q.Where("past_papers.file_key IS NOT NULL AND past_papers.file_key <> ''")
	}
	if f.UploadedByID != 0 {
		q = q.Where("past_papers.uploaded_by_id = ?", f.UploadedByID)
	}
	return q
}

// Count 返回满足过滤条件的论文数量。
func (r *paperRepository) Count(f PaperFilter) (int64, error) {
	var total int64
	err := r.applyFilter(r.db.Model(&model.Paper{}), f).Count(&total).Error
	return total, err
}

// List 返回满足过滤条件的一页论文以及总数。
func (r *paperRepository) List(f PaperFilter, offset, limit int) ([]model.Paper, int64, error) {
	var papers []model.Paper

	total, err := r.Count(f)
	if err != nil {
		return nil, 0, err
	}

	order := f.Order
	if order == "" {
		order = OrderNewest
	}
	err = r.applyFilter(r.db.Model(&model.Paper{}), f).
		Select("past_papers.*").
		Preload("UploadedBy").
		Preload("Attachments").
		Order(qualifyOrder(order)).
		Offset(offset).Limit(limit).
		Find(&papers).Error
	if err != nil {
		return nil, 0, err
	}
	return papers, total, nil
}

// qualifyOrder 给排序列加上表名前缀，避免与 users 表联查时列名冲突。
func qualifyOrder(order string) string {
	parts := strings.Split(order, ",")
	for i, p := range parts {
		parts[i] = "past_papers." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (r *paperRepository) DistinctDepartments() ([]string, error) {
	var departments []string
	err := r.db.Model(&model.Paper{}).Distinct().Order("department ASC").Pluck("department", &departments).Error
	return departments, err
}

func (r *paperRepository) DistinctYears() ([]int, error) {
	var years []int
	err := r.db.Model(&model.Paper{}).Distinct().Order("year DESC").Pluck("year", &years).Error
	return years, err
}

// IncrementDownloadCount 以单列原子更新的方式把下载次数加一。
func (r *paperRepository) IncrementDownloadCount(id uint) error {
	return r.db.Model(&model.Paper{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

// ResetDownloadCounts 把选中论文的下载次数清零，返回受影响的行数。
func (r *paperRepository) ResetDownloadCounts(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&model.Paper{}).Where("id IN ?", ids).UpdateColumn("download_count", 0)
	return res.RowsAffected, res.Error
}

func (r *paperRepository) CreateAttachment(att *model.Attachment) error {
	return r.db.Create(att).Error
}

func (r *paperRepository) FindAttachments(paperID uint) ([]model.Attachment, error) {
	var atts []model.Attachment
	err := r.db.Where("paper_id = ?", paperID).Order("id ASC").Find(&atts).Error
	return atts, err
}
