// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// Paper index actions.
const (
	ActionIndex  = "index"
	ActionDelete = "delete"
)

// PaperIndexTask represents a request to (re)index or remove one paper's text.
type PaperIndexTask struct {
	TaskID     string `json:"task_id"`
	Action     string `json:"action"`
	PaperID    uint   `json:"paper_id"`
	FileKey    string `json:"file_key,omitempty"`
	Title      string `json:"title,omitempty"`
	CourseCode string `json:"course_code,omitempty"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	Semester   string `json:"semester,omitempty"`
}
