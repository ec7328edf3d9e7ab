package model

import "strings"

type Semester struct {
	ID          string `json:"_id,omitempty"`
	CollegeName string `json:"collegeName"`
	Batch       string `json:"batch"`
	Semester    int    `json:"semester"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// DateOnly trims an ISO timestamp to its YYYY-MM-DD prefix.
func DateOnly(iso string) string {
	if i := strings.IndexByte(iso, 'T'); i >= 0 {
		return iso[:i]
	}
	return iso
}
