package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kce-spotlight/console/internal/model"
)

func TestPointRuleCreateMode(t *testing.T) {
	f := NewPointRule(nil)
	require.False(t, f.EditMode())
	require.False(t, f.Dirty())
	require.Equal(t, "", f.Value("category"))
}

func TestPointRuleEditMode(t *testing.T) {
	f := NewPointRule(&model.PointRule{ID: "r1", Category: "Hackathon Winner", Points: 50})
	require.True(t, f.EditMode())
	require.Equal(t, "r1", f.ID())
	require.Equal(t, "50", f.Value("points"))
}

func TestNumericFieldRejectsNonDigits(t *testing.T) {
	f := NewPointRule(nil)
	require.True(t, f.Set("points", "12"))
	require.False(t, f.Set("points", "12a"))
	require.False(t, f.Set("points", "-3"))
	require.False(t, f.Set("points", "1.5"))
	require.Equal(t, "12", f.Value("points"))
	require.True(t, f.Set("points", ""))
	require.Equal(t, "", f.Value("points"))
}

func TestBindRejectedNumberFailsSubmit(t *testing.T) {
	f := NewPointRule(&model.PointRule{ID: "r1", Category: "Hackathon Winner", Points: 50})
	f.Bind(map[string][]string{"category": {"Hackathon Winner"}, "points": {"5O"}})
	require.True(t, f.Dirty())
	require.Equal(t, "50", f.Value("points"))

	saved := false
	err := f.Submit(context.Background(), func(context.Context) error {
		saved = true
		return nil
	})
	require.ErrorIs(t, err, ErrInvalid)
	require.False(t, saved)
	require.Equal(t, "Only digits are allowed", f.Error("points"))

	require.True(t, f.Set("points", "55"))
	require.NoError(t, f.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestSetUnknownField(t *testing.T) {
	f := NewPointRule(nil)
	require.False(t, f.Set("bogus", "x"))
	require.False(t, f.Dirty())
}

func TestSetMarksDirtyAndClearsError(t *testing.T) {
	f := NewPointRule(nil)
	require.False(t, f.Validate())
	require.NotEmpty(t, f.Error("category"))

	f.Set("category", "Paper Presentation")
	require.True(t, f.Dirty())
	require.Empty(t, f.Error("category"))
	require.NotEmpty(t, f.Error("points"))
}

func TestPointRuleValidation(t *testing.T) {
	tests := []struct {
		name     string
		category string
		points   string
		want     map[string]string
	}{
		{"valid", "Hackathon Winner", "100", map[string]string{}},
		{"zero points ok", "Participation", "0", map[string]string{}},
		{"blank category", "   ", "10", map[string]string{"category": "Category is required"}},
		{"missing points", "Workshop", "", map[string]string{"points": "Points are required"}},
		{"both", "", "", map[string]string{"category": "Category is required", "points": "Points are required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPointRule(nil)
			f.Set("category", tt.category)
			f.Set("points", tt.points)
			ok := f.Validate()
			require.Equal(t, len(tt.want) == 0, ok)
			require.Equal(t, tt.want, f.Errors())
		})
	}
}

func TestPointRuleValue(t *testing.T) {
	f := NewPointRule(&model.PointRule{ID: "r1"})
	f.Set("category", "  Certification ")
	f.Set("points", "30")
	require.Equal(t, model.PointRule{ID: "r1", Category: "Certification", Points: 30}, f.Rule())
}

func TestRewardValidation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   map[string]string
	}{
		{
			name:   "valid",
			values: map[string]string{"name": "Hoodie", "pointsCost": "200", "stock": "0", "category": "Merchandise"},
			want:   map[string]string{},
		},
		{
			name:   "zero cost",
			values: map[string]string{"name": "Hoodie", "pointsCost": "0", "stock": "3", "category": "Merchandise"},
			want:   map[string]string{"pointsCost": "Valid points cost is required"},
		},
		{
			name:   "negative stock",
			values: map[string]string{"name": "Hoodie", "pointsCost": "5", "stock": "-1", "category": "Coupons"},
			want:   map[string]string{"stock": "Valid stock count is required"},
		},
		{
			name:   "empty stock",
			values: map[string]string{"name": "Hoodie", "pointsCost": "5", "stock": "", "category": "Coupons"},
			want:   map[string]string{"stock": "Valid stock count is required"},
		},
		{
			name:   "blank name",
			values: map[string]string{"name": " ", "pointsCost": "5", "stock": "1", "category": "Other"},
			want:   map[string]string{"name": "Item name is required"},
		},
		{
			name:   "unknown category",
			values: map[string]string{"name": "Hoodie", "pointsCost": "5", "stock": "1", "category": "Snacks"},
			want:   map[string]string{"category": "Choose a category from the list"},
		},
		{
			name:   "missing category",
			values: map[string]string{"name": "Hoodie", "pointsCost": "5", "stock": "1", "category": ""},
			want:   map[string]string{"category": "Category is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewReward(nil)
			for k, v := range tt.values {
				f.Set(k, v)
			}
			f.Validate()
			require.Equal(t, tt.want, f.Errors())
		})
	}
}

func TestRewardDefaultsAndItem(t *testing.T) {
	f := NewReward(nil)
	require.Equal(t, "Merchandise", f.Value("category"))

	f.Bind(map[string][]string{
		"name":       {"Coffee Voucher"},
		"pointsCost": {"40"},
		"stock":      {"12"},
		"category":   {"Vouchers"},
		"isActive":   {"false"},
	})
	item := f.Item()
	require.Equal(t, "Coffee Voucher", item.Name)
	require.Equal(t, 40, item.PointsCost)
	require.Equal(t, 12, item.Stock)
	require.False(t, item.IsActive)
}

func TestStaffCreateRequiresPassword(t *testing.T) {
	f := NewStaff(nil)
	f.Bind(map[string][]string{
		"name":        {"Ravi"},
		"email":       {"ravi@kce.ac.in"},
		"role":        {"instructor"},
		"collegeName": {"KCE"},
		"department":  {"CSE"},
	})
	require.False(t, f.Validate())
	require.Equal(t, map[string]string{"password": "Password is required"}, f.Errors())

	f.Set("password", "abc")
	f.Validate()
	require.Equal(t, "Password must be at least 6 characters", f.Error("password"))

	f.Set("password", "abcdef")
	require.True(t, f.Validate())
}

func TestStaffEditPasswordOptional(t *testing.T) {
	f := NewStaff(&model.StaffAccount{
		ID: "s1", Name: "Ravi", Email: "ravi@kce.ac.in", Role: "admin",
		CollegeName: "KIT", Department: "IT",
	})
	require.Equal(t, "", f.Value("password"))
	require.True(t, f.Validate())

	f.Set("password", model.PasswordMask)
	require.True(t, f.Validate())
	require.Equal(t, "", f.Account().Password)

	f.Set("password", "abc")
	require.False(t, f.Validate())

	f.Set("password", "longenough")
	require.True(t, f.Validate())
	require.Equal(t, "longenough", f.Account().Password)
}

func TestStaffEmailFormat(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"", "Email is required"},
		{"ravi", "Invalid email format"},
		{"ravi@kce", "Invalid email format"},
		{"ravi@kce.ac.in", ""},
	}
	for _, tt := range tests {
		f := NewStaff(nil)
		f.Bind(map[string][]string{
			"name": {"Ravi"}, "email": {tt.email}, "password": {"secret1"},
			"role": {"instructor"}, "collegeName": {"KCE"}, "department": {"CSE"},
		})
		f.Validate()
		require.Equal(t, tt.want, f.Error("email"), "email %q", tt.email)
	}
}

func TestStaffRoleAndRequired(t *testing.T) {
	f := NewStaff(nil)
	require.Equal(t, "instructor", f.Value("role"))

	f.Set("role", "superuser")
	f.Validate()
	errs := f.Errors()
	require.Equal(t, "Role must be instructor or admin", errs["role"])
	require.Equal(t, "Name is required", errs["name"])
	require.Equal(t, "College is required", errs["collegeName"])
	require.Equal(t, "Department is required", errs["department"])
}

func TestSemesterValidation(t *testing.T) {
	f := NewSemester(nil)
	require.False(t, f.Validate())
	require.Len(t, f.Errors(), 5)

	f.Bind(map[string][]string{
		"collegeName": {"KCE"},
		"batch":       {"2022-2026"},
		"semester":    {"5"},
		"startDate":   {"2025-07-01"},
		"endDate":     {"2025-06-30"},
	})
	require.False(t, f.Validate())
	require.Equal(t, map[string]string{"endDate": "End date cannot be before start date"}, f.Errors())

	f.Set("endDate", "2025-07-01")
	require.True(t, f.Validate())

	sem := f.Semester()
	require.Equal(t, 5, sem.Semester)
	require.Equal(t, "2025-07-01", sem.EndDate)
}

func TestSemesterRejectsNonDigitSemester(t *testing.T) {
	f := NewSemester(nil)
	require.False(t, f.Set("semester", "V"))
	require.True(t, f.Set("semester", "6"))
}

func TestSemesterEditTrimsISODates(t *testing.T) {
	f := NewSemester(&model.Semester{
		ID: "x", CollegeName: "KAHE", Batch: "2023", Semester: 3,
		StartDate: "2025-01-02T00:00:00.000Z", EndDate: "2025-05-30T00:00:00.000Z",
	})
	require.Equal(t, "2025-01-02", f.Value("startDate"))
	require.Equal(t, "3", f.Value("semester"))
	require.True(t, f.Validate())
}

func TestRejectReason(t *testing.T) {
	f := NewReject()
	f.Set("reason", "   ")
	require.False(t, f.Validate())
	require.Equal(t, "Please provide a reason for rejection", f.Error("reason"))

	f.Set("reason", " Certificate is blurry ")
	require.True(t, f.Validate())
	require.Equal(t, "Certificate is blurry", f.Reason())
}

func TestSubmitInvalidSkipsSave(t *testing.T) {
	f := NewPointRule(nil)
	called := false
	err := f.Submit(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrInvalid)
	require.False(t, called)
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	f := NewPointRule(nil)
	f.Set("category", "Workshop")
	f.Set("points", "15")

	boom := errors.New("backend down")
	err := f.Submit(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, "Workshop", f.Value("category"))
	require.Equal(t, "15", f.Value("points"))
	require.True(t, f.Dirty())
}

func TestSubmitSuccessClearsDirty(t *testing.T) {
	f := NewPointRule(nil)
	f.Set("category", "Workshop")
	f.Set("points", "15")

	var saved model.PointRule
	err := f.Submit(context.Background(), func(context.Context) error {
		saved = f.Rule()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 15, saved.Points)
	require.False(t, f.Dirty())
}
