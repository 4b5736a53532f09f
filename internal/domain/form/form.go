package form

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrNotFound      = errors.New("form not found")
	ErrFieldNotFound = errors.New("form field not found")
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypePassword FieldType = "password"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypePassword:
		return true
	}
	return false
}

type Form struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Fields   []Field   `json:"fields"`
}

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

type Field struct {
	ID        string    `json:"id"`
	SectionID *string   `json:"sectionId"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
	Required  bool      `json:"required"`
	Order     int       `json:"order"`
}

type Response struct {
	ID        string          `json:"id"`
	FormID    string          `json:"formId"`
	CreatedAt time.Time       `json:"createdAt"`
	Fields    []ResponseField `json:"responseFields"`
}

type ResponseField struct {
	ID      string `json:"id"`
	FieldID string `json:"fieldId"`
	Answer  string `json:"answer"`
}

type SectionPayload struct {
	Title string `json:"title" binding:"required,max=200"`
	Order int    `json:"order" binding:"omitempty,min=0"`
}

// FieldPayload references its section by zero-based index into the
// sections array of the same request. That way a field can never point
// at a section of another form.
type FieldPayload struct {
	Label     string `json:"label" binding:"required,max=200"`
	FieldType string `json:"fieldType" binding:"required,oneof=text number date password"`
	Required  *bool  `json:"required"`
	Order     int    `json:"order" binding:"omitempty,min=0"`
	Section   *int   `json:"section" binding:"omitempty,min=0"`
}

type CreateFormRequest struct {
	Title    string           `json:"title" binding:"required,max=200"`
	Sections []SectionPayload `json:"sections"`
	Fields   []FieldPayload   `json:"fields"`
}

// Validate catches the cross-reference problem binding tags cannot see:
// a field pointing at a section index that was never submitted. The
// whole creation fails, no partial form is acceptable.
func (r CreateFormRequest) Validate() error {
	for i, f := range r.Fields {
		if f.Section != nil && (*f.Section < 0 || *f.Section >= len(r.Sections)) {
			return fmt.Errorf("fields[%d]: section index %d does not reference a submitted section", i, *f.Section)
		}
	}
	return nil
}

type ResponseFieldPayload struct {
	FieldID string `json:"fieldId" binding:"required,uuid"`
	Answer  string `json:"answer"`
}

type SubmitResponseRequest struct {
	ResponseFields []ResponseFieldPayload `json:"responseFields" binding:"required,dive"`
}

// ValidateAnswer parses the answer against the field's declared type.
// Text and password fields accept anything.
func ValidateAnswer(t FieldType, answer string) error {
	switch t {
	case FieldTypeNumber:
		if _, err := strconv.ParseFloat(answer, 64); err != nil {
			return fmt.Errorf("answer %q is not a number", answer)
		}
	case FieldTypeDate:
		if _, err := time.Parse("2006-01-02", answer); err != nil {
			return fmt.Errorf("answer %q is not a date (expected YYYY-MM-DD)", answer)
		}
	}
	return nil
}
