package model

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleUser       = "user"
)

// PasswordMask is what older clients sent back for an unchanged password.
const PasswordMask = "*********"

var Colleges = []string{"KCE", "KIT", "KAHE"}

var Departments = []string{
	"IT", "CSE", "ECE", "EEE", "ETE", "CST", "CY", "MECH",
	"CIVIL", "AIDS", "CSBS", "CSD", "MBA", "MCA", "MCT",
}

// StaffAccount is an instructor or admin. Password is write-only: it is
// sent on create and on edit when changed, and never rendered.
type StaffAccount struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
	Role        string `json:"role"`
	CollegeName string `json:"collegeName"`
	Department  string `json:"department"`
}

// StudentAccount is a row on the users page.
type StudentAccount struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	RollNo      string `json:"rollNo,omitempty"`
	Email       string `json:"email"`
	CollegeName string `json:"collegeName,omitempty"`
	Role        string `json:"role,omitempty"`
}

// CollegeBadge returns the CSS class used for a college badge.
func CollegeBadge(college string) string {
	switch college {
	case "KCE", "kce":
		return "badge-college-kce"
	case "KIT", "kit":
		return "badge-college-kit"
	case "KAHE", "kahe":
		return "badge-college-kahe"
	}
	return "bg-light text-dark"
}
