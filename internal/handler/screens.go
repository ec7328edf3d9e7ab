package handler

import (
	"context"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/export"
	"github.com/kce-spotlight/console/internal/form"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/resource"
	"github.com/kce-spotlight/console/internal/websocket"
)

func (h *Handler) registerScreens() {
	h.submissions = &screen[model.Submission]{
		Name:        "submissions",
		Title:       "Achievement Management",
		Route:       "/achieve-management",
		Noun:        "Submission",
		Entity:      websocket.EntitySubmission,
		Placeholder: "Search by student name or roll no",
		Filters:     []string{"collegeName"},
		PanelTmpl:   "submission-panel",
		PageTmpl:    "submissions",
		fetch:       h.api.ListSubmissions,
		remove:      h.api.DeleteSubmission,
		key:         model.Submission.Key,
		table:       &export.Submissions,
	}

	h.users = &screen[model.StudentAccount]{
		Name:        "users",
		Title:       "Users",
		Route:       "/users",
		Noun:        "User",
		Entity:      websocket.EntityUser,
		Placeholder: "Search by name, roll no or email",
		Filters:     []string{"collegeName"},
		PanelTmpl:   "user-panel",
		PageTmpl:    "users",
		fetch:       h.api.ListUsers,
		remove:      h.api.DeleteUser,
		key:         func(u model.StudentAccount) string { return u.ID },
	}

	h.redemptions = &screen[model.Redemption]{
		Name:        "redemptions",
		Title:       "Redemption History",
		Route:       "/redemption-history",
		Noun:        "Redemption",
		Entity:      websocket.EntityRedemption,
		Placeholder: "Search by student or reward",
		Filters:     []string{"status"},
		PanelTmpl:   "redemption-panel",
		PageTmpl:    "redemptions",
		fetch:       h.api.ListRedemptions,
		key:         func(r model.Redemption) string { return r.ID },
		exportTo: func(st resource.State[model.Redemption]) string {
			return h.api.RedemptionExportURL(st.Search)
		},
	}

	h.pointRules = &editor[model.PointRule]{
		screen: &screen[model.PointRule]{
			Name:        "point-rules",
			Title:       "Point Rules",
			Route:       "/point-rules",
			Noun:        "Point rule",
			Entity:      websocket.EntityPointRule,
			Placeholder: "Search categories",
			PanelTmpl:   "pointrule-panel",
			PageTmpl:    "point_rules",
			fetch:       h.api.ListPointRules,
			remove:      h.api.DeletePointRule,
			key:         func(p model.PointRule) string { return p.ID },
			table:       &export.PointRules,
		},
		FormTmpl:   "pointrule-form",
		LabelField: "category",
		open: func(initial *model.PointRule) (editForm, saver) {
			f := form.NewPointRule(initial)
			return f, func(ctx context.Context, _ *apiclient.File) error {
				return h.api.SavePointRule(ctx, f.ID(), f.Rule())
			}
		},
	}

	h.rewards = &editor[model.RewardItem]{
		screen: &screen[model.RewardItem]{
			Name:        "rewards",
			Title:       "Reward Catalog",
			Route:       "/reward-catalog",
			Noun:        "Reward",
			Entity:      websocket.EntityReward,
			Placeholder: "Search rewards",
			Filters:     []string{"category"},
			PanelTmpl:   "reward-panel",
			PageTmpl:    "rewards",
			fetch:       h.api.ListRewards,
			remove:      h.api.DeleteReward,
			key:         func(r model.RewardItem) string { return r.ID },
			table:       &export.Rewards,
		},
		FormTmpl:   "reward-form",
		Multipart:  true,
		LabelField: "name",
		open: func(initial *model.RewardItem) (editForm, saver) {
			f := form.NewReward(initial)
			return f, func(ctx context.Context, image *apiclient.File) error {
				item := f.Item()
				if initial != nil && image == nil {
					item.ImageURL = initial.ImageURL
				}
				return h.api.SaveReward(ctx, f.ID(), item, image)
			}
		},
	}

	h.staff = &editor[model.StaffAccount]{
		screen: &screen[model.StaffAccount]{
			Name:        "staff",
			Title:       "Staff",
			Route:       "/staff",
			Noun:        "Staff member",
			Entity:      websocket.EntityStaff,
			Placeholder: "Search by name or email",
			Filters:     []string{"collegeName"},
			PanelTmpl:   "staff-panel",
			PageTmpl:    "staff",
			fetch:       h.api.ListStaff,
			remove:      h.api.DeleteStaff,
			key:         func(s model.StaffAccount) string { return s.ID },
			table:       &export.Staff,
		},
		FormTmpl:   "staff-form",
		LabelField: "email",
		open: func(initial *model.StaffAccount) (editForm, saver) {
			f := form.NewStaff(initial)
			return f, func(ctx context.Context, _ *apiclient.File) error {
				if f.EditMode() {
					return h.api.UpdateStaff(ctx, f.ID(), f.Account())
				}
				return h.api.CreateStaff(ctx, f.Account())
			}
		},
	}

	h.semesters = &editor[model.Semester]{
		screen: &screen[model.Semester]{
			Name:        "semesters",
			Title:       "Semesters",
			Route:       "/semester",
			Noun:        "Semester",
			Entity:      websocket.EntitySemester,
			Placeholder: "Search by batch",
			Filters:     []string{"collegeName"},
			PanelTmpl:   "semester-panel",
			PageTmpl:    "semesters",
			fetch:       h.api.ListSemesters,
			remove:      h.api.DeleteSemester,
			key:         func(s model.Semester) string { return s.ID },
			table:       &export.Semesters,
		},
		FormTmpl:   "semester-form",
		LabelField: "batch",
		open: func(initial *model.Semester) (editForm, saver) {
			f := form.NewSemester(initial)
			return f, func(ctx context.Context, _ *apiclient.File) error {
				return h.api.SaveSemester(ctx, f.ID(), f.Semester())
			}
		},
	}
}
