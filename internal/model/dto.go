package model

// PaperDTO 是论文在列表与详情接口中的展示形式。
type PaperDTO struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	CourseCode    string    `json:"courseCode"`
	Department    string    `json:"department"`
	Year          int       `json:"year"`
	Semester      string    `json:"semester"`
	HasFile       bool      `json:"hasFile"`
	FileSize      int64     `json:"fileSize"`
	UploadedBy    string    `json:"uploadedBy,omitempty"`
	UploadedAt    LocalTime `json:"uploadedAt"`
	DownloadCount int64     `json:"downloadCount"`
	Attachments   int       `json:"attachments"`
}

// ToDTO 把 Paper 转换为 PaperDTO，UploadedBy 需已预加载才会填充。
func (p *Paper) ToDTO() PaperDTO {
	dto := PaperDTO{
		ID:            p.ID,
		Title:         p.Title,
		CourseCode:    p.CourseCode,
		Department:    p.Department,
		Year:          p.Year,
		Semester:      p.Semester,
		HasFile:       p.HasFile(),
		FileSize:      p.FileSize,
		UploadedAt:    LocalTime(p.UploadedAt),
		DownloadCount: p.DownloadCount,
		Attachments:   len(p.Attachments),
	}
	if p.UploadedBy != nil {
		dto.UploadedBy = p.UploadedBy.Username
	}
	return dto
}

// PapersToDTO 批量转换。
func PapersToDTO(papers []Paper) []PaperDTO {
	out := make([]PaperDTO, 0, len(papers))
	for i := range papers {
		out = append(out, papers[i].ToDTO())
	}
	return out
}

// Page 描述一次分页查询的位置信息。
type Page struct {
	Number      int   `json:"number"`
	NumPages    int   `json:"numPages"`
	PageSize    int   `json:"pageSize"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// NewPage 根据总数与请求页码计算分页信息，页码被夹在 [1, NumPages] 内。
func NewPage(requested int, pageSize int, total int64) Page {
	if pageSize < 1 {
		pageSize = 10
	}
	numPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if numPages < 1 {
		numPages = 1
	}
	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Page{
		Number:      number,
		NumPages:    numPages,
		PageSize:    pageSize,
		Total:       total,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}

// Offset 返回当前页在结果集中的偏移量。
func (p Page) Offset() int {
	return (p.Number - 1) * p.PageSize
}
