package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/kce-spotlight/console/internal/model"
)

func (c *Client) ListStaff(ctx context.Context, p ListParams) (Listing[model.StaffAccount], error) {
	return List[model.StaffAccount](ctx, c, "/staff", p)
}

func (c *Client) CreateStaff(ctx context.Context, s model.StaffAccount) error {
	s.ID = ""
	return c.SendJSON(ctx, http.MethodPost, "/staff", s, nil)
}

type staffUpdate struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	CollegeName string `json:"collegeName"`
	Password    string `json:"password,omitempty"`
}

// UpdateStaff sends the editable fields. The password is only sent when a
// new one was typed; blank or masked values leave it unchanged. Email is
// not editable.
func (c *Client) UpdateStaff(ctx context.Context, id string, s model.StaffAccount) error {
	payload := staffUpdate{
		Name:        s.Name,
		Role:        s.Role,
		Department:  s.Department,
		CollegeName: s.CollegeName,
	}
	if p := strings.TrimSpace(s.Password); p != "" && p != model.PasswordMask {
		payload.Password = s.Password
	}
	return c.SendJSON(ctx, http.MethodPatch, "/staff/"+url.PathEscape(id), payload, nil)
}

func (c *Client) DeleteStaff(ctx context.Context, id string) error {
	return c.Delete(ctx, "/staff/"+url.PathEscape(id))
}

func (c *Client) ListSemesters(ctx context.Context, p ListParams) (Listing[model.Semester], error) {
	return List[model.Semester](ctx, c, "/semesters", p)
}

func (c *Client) SaveSemester(ctx context.Context, id string, s model.Semester) error {
	s.ID = ""
	if id == "" {
		return c.SendJSON(ctx, http.MethodPost, "/semesters", s, nil)
	}
	return c.SendJSON(ctx, http.MethodPatch, "/semesters/"+url.PathEscape(id), s, nil)
}

func (c *Client) DeleteSemester(ctx context.Context, id string) error {
	return c.Delete(ctx, "/semesters/"+url.PathEscape(id))
}

func (c *Client) ListUsers(ctx context.Context, p ListParams) (Listing[model.StudentAccount], error) {
	return List[model.StudentAccount](ctx, c, "/users", p)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+url.PathEscape(id))
}
