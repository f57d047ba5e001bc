package model

// PaperDocument 定义了存储在 Elasticsearch 中的论文全文文档。
type PaperDocument struct {
	PaperID     uint   `json:"paper_id"`
	Title       string `json:"title"`
	CourseCode  string `json:"course_code"`
	Department  string `json:"department"`
	Year        int    `json:"year"`
	Semester    string `json:"semester"`
	TextContent string `json:"text_content"`
}

// SearchResponseDTO 定义了返回给前端的搜索结果结构。
type SearchResponseDTO struct {
	PaperID    uint     `json:"paperId"`
	Title      string   `json:"title"`
	CourseCode string   `json:"courseCode"`
	Department string   `json:"department"`
	Year       int      `json:"year"`
	Semester   string   `json:"semester"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights"`
}
