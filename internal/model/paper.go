package model

import (
	"strconv"
	"time"
)

// Departments 是允许的院系取值，顺序即表单中的展示顺序。
var Departments = []string{
	"Computer Science",
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"Engineering",
	"Business",
}

// Semesters 是允许的学期取值。
var Semesters = []string{"Fall", "Spring", "Summer"}

// FirstFormYear 是上传表单年份下拉框的起始年份。
const FirstFormYear = 2015

// IsValidDepartment 判断 d 是否为合法院系。
func IsValidDepartment(d string) bool {
	return contains(Departments, d)
}

// IsValidSemester 判断 s 是否为合法学期。
func IsValidSemester(s string) bool {
	return contains(Semesters, s)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// FormYears 返回从 FirstFormYear 到 now 所在年份（含）的年份列表。
func FormYears(now time.Time) []int {
	years := make([]int, 0, now.Year()-FirstFormYear+1)
	for y := FirstFormYear; y <= now.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Paper 对应于 past_papers 表，(title, course_code, year, semester) 唯一。
type Paper struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Title         string       `gorm:"type:varchar(200);not null;uniqueIndex:idx_paper_identity,priority:1" json:"title"`
	CourseCode    string       `gorm:"type:varchar(20);not null;uniqueIndex:idx_paper_identity,priority:2;index" json:"courseCode"`
	Department    string       `gorm:"type:varchar(50);not null;index" json:"department"`
	Year          int          `gorm:"not null;uniqueIndex:idx_paper_identity,priority:3;index" json:"year"`
	Semester      string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_paper_identity,priority:4" json:"semester"`
	FileKey       string       `gorm:"type:varchar(500)" json:"-"`
	FileSize      int64        `gorm:"not null;default:0" json:"fileSize"`
	UploadedByID  uint         `gorm:"index" json:"uploadedById"`
	UploadedBy    *User        `gorm:"foreignKey:UploadedByID" json:"-"`
	UploadedAt    time.Time    `gorm:"autoCreateTime;index" json:"uploadedAt"`
	DownloadCount int64        `gorm:"not null;default:0" json:"downloadCount"`
	Attachments   []Attachment `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Paper) TableName() string {
	return "past_papers"
}

// HasFile 判断论文是否关联了文件。
func (p *Paper) HasFile() bool {
	return p.FileKey != ""
}

// YearString 返回年份的文本形式。
func (p *Paper) YearString() string {
	return strconv.Itoa(p.Year)
}

// Attachment 对应于 past_paper_attachments 表，随论文级联删除。
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PaperID    uint      `gorm:"not null;index" json:"paperId"`
	FileKey    string    `gorm:"type:varchar(500);not null" json:"-"`
	FileSize   int64     `gorm:"not null;default:0" json:"fileSize"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Attachment) TableName() string {
	return "past_paper_attachments"
}
