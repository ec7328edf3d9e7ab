package export

import (
	"fmt"
	"time"

	"github.com/kce-spotlight/console/internal/model"
)

// Table describes how one resource is laid out in a workbook.
type Table[T any] struct {
	Resource string
	FileName string
	Sheet    string
	Headers  []string
	// Noun is used in the "No ... to export" message.
	Noun string
	Row  func(T) []any
}

// File is a rendered export ready to be served or archived.
type File struct {
	Resource string
	Name     string
	Data     []byte
}

// EmptyMessage is the notice shown when an export has no records.
func (t Table[T]) EmptyMessage() string {
	return fmt.Sprintf("No %s to export", t.Noun)
}

// Build renders records into a workbook. An empty slice yields ErrEmpty.
func (t Table[T]) Build(records []T) (*File, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = t.Row(rec)
	}
	data, err := Workbook(t.Sheet, t.Headers, rows)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", t.Resource, err)
	}
	return &File{Resource: t.Resource, Name: t.FileName, Data: data}, nil
}

// SubmissionDate formats a submission timestamp as dd/mm/yyyy, or empty.
func SubmissionDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

var Submissions = Table[model.Submission]{
	Resource: "submissions",
	FileName: "Reward_Submissions.xlsx",
	Sheet:    "Submissions",
	Headers: []string{
		"Name", "RollNo", "College", "Batch", "Department",
		"Category", "Title", "Description", "Status", "SubmissionDate",
	},
	Noun: "submissions",
	Row: func(s model.Submission) []any {
		return []any{
			s.Name, s.RollNo, s.College, s.Batch, s.Department,
			s.Category, s.Title, s.Description, s.Status.Label(), SubmissionDate(s.CreatedAt),
		}
	},
}

var Rewards = Table[model.RewardItem]{
	Resource: "rewards",
	FileName: "rewards_catalog.xlsx",
	Sheet:    "Rewards",
	Headers:  []string{"Name", "Points_Cost", "Category", "Stock", "Status", "Description"},
	Noun:     "rewards",
	Row: func(r model.RewardItem) []any {
		return []any{r.Name, r.PointsCost, r.Category, r.Stock, r.StatusLabel(), r.Description}
	},
}

var PointRules = Table[model.PointRule]{
	Resource: "point-rules",
	FileName: "point_rules.xlsx",
	Sheet:    "PointRules",
	Headers:  []string{"Category", "Points"},
	Noun:     "point rules",
	Row: func(p model.PointRule) []any {
		return []any{p.Category, p.Points}
	},
}

var Staff = Table[model.StaffAccount]{
	Resource: "staff",
	FileName: "staff.xlsx",
	Sheet:    "Staff",
	Headers:  []string{"Name", "Email", "Role", "College", "Department"},
	Noun:     "staff",
	Row: func(s model.StaffAccount) []any {
		return []any{s.Name, s.Email, s.Role, s.CollegeName, s.Department}
	},
}

var Semesters = Table[model.Semester]{
	Resource: "semesters",
	FileName: "semesters.xlsx",
	Sheet:    "Semesters",
	Headers:  []string{"College", "Batch", "Semester", "StartDate", "EndDate"},
	Noun:     "semesters",
	Row: func(s model.Semester) []any {
		return []any{s.CollegeName, s.Batch, s.Semester, model.DateOnly(s.StartDate), model.DateOnly(s.EndDate)}
	},
}
