package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type paperForm struct {
	Title      string `form:"title" validate:"required,max=5"`
	Department string `form:"department" validate:"required,department"`
	Year       string `form:"year" validate:"required,year"`
	Semester   string `form:"semester" validate:"required,semester"`
	FileName   string `form:"file" validate:"required,pdf"`
}

func TestValidate(t *testing.T) {
	errs := Validate(paperForm{Title: "toolong", Department: "Art", Year: "20x4", Semester: "Fall", FileName: "a.docx"})
	assert.Equal(t, map[string]string{
		"title":      "Ensure this value has at most 5 characters.",
		"department": "Select a valid department.",
		"year":       "Enter a valid year.",
		"file":       "Only PDF files are allowed.",
	}, errs)

	assert.Nil(t, Validate(paperForm{Title: "Final", Department: "Physics", Year: "2024", Semester: "Spring", FileName: "A.PDF"}))
}

func TestValidateYearMustBePositive(t *testing.T) {
	for _, year := range []string{"-7", "0", "2024.5"} {
		errs := Validate(paperForm{Title: "Final", Department: "Physics", Year: year, Semester: "Fall", FileName: "a.pdf"})
		assert.Equal(t, "Enter a valid year.", errs["year"], year)
	}
	assert.Nil(t, Validate(paperForm{Title: "Final", Department: "Physics", Year: " 2015 ", Semester: "Fall", FileName: "a.pdf"}))
}

func TestValidateRequired(t *testing.T) {
	errs := Validate(paperForm{})
	assert.Len(t, errs, 5)
	assert.Equal(t, "This field is required.", errs["title"])
}

func TestFileKinds(t *testing.T) {
	assert.True(t, IsPDF("exam.Pdf"))
	assert.False(t, IsPDF("exam.pdf.zip"))
	assert.True(t, IsImage("me.JPEG"))
	assert.False(t, IsImage("me.bmp"))
}
