package service

import (
	"strconv"
	"strings"
	"time"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
)

// 浏览页的 filter 与 sort 取值。
const (
	FilterAll    = "all"
	FilterRecent = "recent"
	FilterFiles  = "files"

	SortTitle     = "title"
	SortNewest    = "-uploaded_at"
	SortYear      = "-year"
	SortRelevance = "relevance"

	recentWindow   = 30 * 24 * time.Hour
	dashboardLimit = 5
)

var sortOrders = map[string]string{
	SortTitle:     repository.OrderTitle,
	SortNewest:    repository.OrderNewest,
	SortYear:      repository.OrderYearDesc,
	SortRelevance: repository.OrderNewest,
}

// BrowseQuery 是浏览页的查询参数。
type BrowseQuery struct {
	Q          string `form:"q" json:"q"`
	Department string `form:"department" json:"department"`
	Year       string `form:"year" json:"year"`
	Filter     string `form:"filter" json:"filter"`
	Sort       string `form:"sort" json:"sort"`
	Page       string `form:"page" json:"-"`
}

// BrowseResult 是一页浏览结果以及筛选栏需要的候选值。
type BrowseResult struct {
	Papers      []model.PaperDTO `json:"papers"`
	Page        model.Page       `json:"page"`
	Departments []string         `json:"departments"`
	Years       []int            `json:"years"`
	Query       BrowseQuery      `json:"query"`
}

// PaperPage 是一页论文。
type PaperPage struct {
	Papers []model.PaperDTO `json:"papers"`
	Page   model.Page       `json:"page"`
}

// Dashboard 是首页展示的最新与最热论文。
type Dashboard struct {
	Recent  []model.PaperDTO `json:"recent"`
	Popular []model.PaperDTO `json:"popular"`
}

// BrowseService 接口定义了论文浏览、个人上传列表与首页数据。
type BrowseService interface {
	Browse(q BrowseQuery) (*BrowseResult, error)
	MyFiles(userID uint, page string) (*PaperPage, error)
	Dashboard() (*Dashboard, error)
}

type browseService struct {
	paperRepo repository.PaperRepository
	pageSize  int
	now       func() time.Time
}

// NewBrowseService 创建一个新的 BrowseService 实例。
func NewBrowseService(paperRepo repository.PaperRepository, pageSize int) BrowseService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &browseService{paperRepo: paperRepo, pageSize: pageSize, now: time.Now}
}

// parsePage 把缺失或非数字的页码当作 1。
func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// normalize 把未知的 filter/sort 还原为默认值。
func (q BrowseQuery) normalize() BrowseQuery {
	q.Q = strings.TrimSpace(q.Q)
	q.Department = strings.TrimSpace(q.Department)
	q.Year = strings.TrimSpace(q.Year)
	switch q.Filter {
	case FilterRecent, FilterFiles:
	default:
		q.Filter = FilterAll
	}
	if _, ok := sortOrders[q.Sort]; !ok {
		q.Sort = SortNewest
	}
	return q
}

func (s *browseService) Browse(raw BrowseQuery) (*BrowseResult, error) {
	q := raw.normalize()
	filter := repository.PaperFilter{
		Query:      q.Q,
		Department: q.Department,
		Order:      sortOrders[q.Sort],
	}
	if q.Year != "" {
		if y, err := strconv.Atoi(q.Year); err == nil {
			filter.Year = y
		}
	}
	switch q.Filter {
	case FilterRecent:
		filter.UploadedSince = s.now().Add(-recentWindow)
	case FilterFiles:
		filter.OnlyWithFile = true
	}

	items, page, err := s.list(filter, parsePage(raw.Page))
	if err != nil {
		return nil, err
	}

	departments, err := s.paperRepo.DistinctDepartments()
	if err != nil {
		return nil, err
	}
	years, err := s.paperRepo.DistinctYears()
	if err != nil {
		return nil, err
	}

	return &BrowseResult{
		Papers:      items,
		Page:        page,
		Departments: departments,
		Years:       years,
		Query:       q,
	}, nil
}

// list 先统计总数以夹紧页码，再取出该页。
func (s *browseService) list(filter repository.PaperFilter, requested int) ([]model.PaperDTO, model.Page, error) {
	total, err := s.paperRepo.Count(filter)
	if err != nil {
		log.Errorf("[BrowseService] 统计论文失败, error: %v", err)
		return nil, model.Page{}, err
	}
	page := model.NewPage(requested, s.pageSize, total)
	papers, _, err := s.paperRepo.List(filter, page.Offset(), s.pageSize)
	if err != nil {
		log.Errorf("[BrowseService] 查询论文失败, error: %v", err)
		return nil, model.Page{}, err
	}
	return model.PapersToDTO(papers), page, nil
}

func (s *browseService) MyFiles(userID uint, rawPage string) (*PaperPage, error) {
	items, page, err := s.list(repository.PaperFilter{UploadedByID: userID, Order: repository.OrderNewest}, parsePage(rawPage))
	if err != nil {
		return nil, err
	}
	return &PaperPage{Papers: items, Page: page}, nil
}

func (s *browseService) Dashboard() (*Dashboard, error) {
	recent, _, err := s.paperRepo.List(repository.PaperFilter{Order: repository.OrderNewest}, 0, dashboardLimit)
	if err != nil {
		return nil, err
	}
	popular, _, err := s.paperRepo.List(repository.PaperFilter{Order: repository.OrderDownloads}, 0, dashboardLimit)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Recent: model.PapersToDTO(recent), Popular: model.PapersToDTO(popular)}, nil
}
