package form

import (
	"strconv"
	"strings"
	"time"

	"github.com/kce-spotlight/console/internal/model"
)

// Point rules.

type pointRuleInput struct {
	Category string `form:"category" validate:"required"`
	Points   string `form:"points" validate:"required,digits"`
}

var pointRuleSchema = &schema{
	fields:  []string{"category", "points"},
	numeric: map[string]bool{"points": true},
	validate: func(f *Form) map[string]string {
		return check(pointRuleInput{
			Category: f.trimmed("category"),
			Points:   f.trimmed("points"),
		}, messages{
			"category":        "Category is required",
			"points.required": "Points are required",
			"points":          "Points must be a positive number",
		})
	},
}

type PointRuleForm struct{ *Form }

func NewPointRule(initial *model.PointRule) *PointRuleForm {
	if initial == nil {
		return &PointRuleForm{newForm(pointRuleSchema, "", nil)}
	}
	return &PointRuleForm{newForm(pointRuleSchema, initial.ID, map[string]string{
		"category": initial.Category,
		"points":   strconv.Itoa(initial.Points),
	})}
}

func (f *PointRuleForm) Rule() model.PointRule {
	points, _ := strconv.Atoi(f.trimmed("points"))
	return model.PointRule{ID: f.id, Category: f.trimmed("category"), Points: points}
}

// Reward catalog.

type rewardInput struct {
	Name       string `form:"name" validate:"required"`
	PointsCost *int   `form:"pointsCost" validate:"required,gt=0"`
	Stock      *int   `form:"stock" validate:"required,gte=0"`
	Category   string `form:"category" validate:"required,oneof=Merchandise Coupons Experience Vouchers Electronics Other"`
}

var rewardSchema = &schema{
	fields: []string{"name", "description", "pointsCost", "stock", "category", "isActive"},
	validate: func(f *Form) map[string]string {
		return check(rewardInput{
			Name:       f.trimmed("name"),
			PointsCost: parseInt(f.trimmed("pointsCost")),
			Stock:      parseInt(f.trimmed("stock")),
			Category:   f.trimmed("category"),
		}, messages{
			"name":              "Item name is required",
			"pointsCost":        "Valid points cost is required",
			"stock":             "Valid stock count is required",
			"category.required": "Category is required",
			"category":          "Choose a category from the list",
		})
	},
}

type RewardForm struct{ *Form }

// NewReward starts a catalog form. New items default to Merchandise and
// active.
func NewReward(initial *model.RewardItem) *RewardForm {
	if initial == nil {
		return &RewardForm{newForm(rewardSchema, "", map[string]string{
			"category": "Merchandise",
			"isActive": "true",
		})}
	}
	category := initial.Category
	if category == "" {
		category = "Merchandise"
	}
	return &RewardForm{newForm(rewardSchema, initial.ID, map[string]string{
		"name":        initial.Name,
		"description": initial.Description,
		"pointsCost":  strconv.Itoa(initial.PointsCost),
		"stock":       strconv.Itoa(initial.Stock),
		"category":    category,
		"isActive":    strconv.FormatBool(initial.IsActive),
	})}
}

func (f *RewardForm) Item() model.RewardItem {
	item := model.RewardItem{
		ID:          f.id,
		Name:        f.trimmed("name"),
		Description: f.trimmed("description"),
		Category:    f.trimmed("category"),
		IsActive:    checked(f.values["isActive"]),
	}
	if v := parseInt(f.trimmed("pointsCost")); v != nil {
		item.PointsCost = *v
	}
	if v := parseInt(f.trimmed("stock")); v != nil {
		item.Stock = *v
	}
	return item
}

// Staff accounts.

type staffCommon struct {
	Name        string `form:"name" validate:"required"`
	Email       string `form:"email" validate:"required,looseemail"`
	Role        string `form:"role" validate:"required,oneof=instructor admin"`
	CollegeName string `form:"collegeName" validate:"required"`
	Department  string `form:"department" validate:"required"`
}

type staffCreateInput struct {
	staffCommon
	Password string `form:"password" validate:"required,min=6"`
}

type staffEditInput struct {
	staffCommon
	Password string `form:"password" validate:"omitempty,min=6"`
}

var staffMessages = messages{
	"name":              "Name is required",
	"email.required":    "Email is required",
	"email":             "Invalid email format",
	"password.required": "Password is required",
	"password":          "Password must be at least 6 characters",
	"role.required":     "Role is required",
	"role":              "Role must be instructor or admin",
	"collegeName":       "College is required",
	"department":        "Department is required",
}

var staffSchema = &schema{
	fields: []string{"name", "email", "password", "role", "collegeName", "department"},
	validate: func(f *Form) map[string]string {
		common := staffCommon{
			Name:        f.trimmed("name"),
			Email:       f.trimmed("email"),
			Role:        f.trimmed("role"),
			CollegeName: f.trimmed("collegeName"),
			Department:  f.trimmed("department"),
		}
		if f.EditMode() {
			return check(staffEditInput{staffCommon: common, Password: newPassword(f.values["password"])}, staffMessages)
		}
		return check(staffCreateInput{staffCommon: common, Password: strings.TrimSpace(f.values["password"])}, staffMessages)
	},
}

type StaffForm struct{ *Form }

// NewStaff starts a staff form. The password is never pre-filled.
func NewStaff(initial *model.StaffAccount) *StaffForm {
	if initial == nil {
		return &StaffForm{newForm(staffSchema, "", map[string]string{"role": model.RoleInstructor})}
	}
	role := initial.Role
	if role == "" {
		role = model.RoleInstructor
	}
	return &StaffForm{newForm(staffSchema, initial.ID, map[string]string{
		"name":        initial.Name,
		"email":       initial.Email,
		"role":        role,
		"collegeName": initial.CollegeName,
		"department":  initial.Department,
	})}
}

func (f *StaffForm) Account() model.StaffAccount {
	return model.StaffAccount{
		ID:          f.id,
		Name:        f.trimmed("name"),
		Email:       f.trimmed("email"),
		Password:    newPassword(f.values["password"]),
		Role:        f.trimmed("role"),
		CollegeName: f.trimmed("collegeName"),
		Department:  f.trimmed("department"),
	}
}

// newPassword treats blank and masked input as "unchanged".
func newPassword(v string) string {
	if strings.TrimSpace(v) == "" || v == model.PasswordMask {
		return ""
	}
	return v
}

// Semesters.

type semesterInput struct {
	CollegeName string `form:"collegeName" validate:"required"`
	Batch       string `form:"batch" validate:"required"`
	Semester    string `form:"semester" validate:"required,digits"`
	StartDate   string `form:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string `form:"endDate" validate:"required,datetime=2006-01-02"`
}

var semesterSchema = &schema{
	fields:  []string{"collegeName", "batch", "semester", "startDate", "endDate"},
	numeric: map[string]bool{"semester": true},
	validate: func(f *Form) map[string]string {
		in := semesterInput{
			CollegeName: f.trimmed("collegeName"),
			Batch:       f.trimmed("batch"),
			Semester:    f.trimmed("semester"),
			StartDate:   f.trimmed("startDate"),
			EndDate:     f.trimmed("endDate"),
		}
		errs := check(in, messages{
			"collegeName":        "College is required",
			"batch":              "Batch is required",
			"semester":           "Semester is required",
			"startDate.required": "Start date is required",
			"startDate":          "Start date must be a valid date",
			"endDate.required":   "End date is required",
			"endDate":            "End date must be a valid date",
		})
		start, serr := time.Parse(time.DateOnly, in.StartDate)
		end, eerr := time.Parse(time.DateOnly, in.EndDate)
		if serr == nil && eerr == nil && start.After(end) {
			if errs == nil {
				errs = map[string]string{}
			}
			errs["endDate"] = "End date cannot be before start date"
		}
		return errs
	},
}

type SemesterForm struct{ *Form }

func NewSemester(initial *model.Semester) *SemesterForm {
	if initial == nil {
		return &SemesterForm{newForm(semesterSchema, "", nil)}
	}
	sem := ""
	if initial.Semester > 0 {
		sem = strconv.Itoa(initial.Semester)
	}
	return &SemesterForm{newForm(semesterSchema, initial.ID, map[string]string{
		"collegeName": initial.CollegeName,
		"batch":       initial.Batch,
		"semester":    sem,
		"startDate":   model.DateOnly(initial.StartDate),
		"endDate":     model.DateOnly(initial.EndDate),
	})}
}

func (f *SemesterForm) Semester() model.Semester {
	n, _ := strconv.Atoi(f.trimmed("semester"))
	return model.Semester{
		ID:          f.id,
		CollegeName: f.trimmed("collegeName"),
		Batch:       f.trimmed("batch"),
		Semester:    n,
		StartDate:   f.trimmed("startDate"),
		EndDate:     f.trimmed("endDate"),
	}
}

// Reject reason.

type rejectInput struct {
	Reason string `form:"reason" validate:"required"`
}

var rejectSchema = &schema{
	fields: []string{"reason"},
	validate: func(f *Form) map[string]string {
		return check(rejectInput{Reason: f.trimmed("reason")}, messages{
			"reason": "Please provide a reason for rejection",
		})
	},
}

type RejectForm struct{ *Form }

func NewReject() *RejectForm {
	return &RejectForm{newForm(rejectSchema, "", nil)}
}

func (f *RejectForm) Reason() string {
	return f.trimmed("reason")
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
