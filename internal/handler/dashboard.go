package handler

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/model"
)

// unknownCount is shown when a count could not be fetched.
const unknownCount = "—"

type stat struct {
	Label string
	Value string
	Link  string
}

type dashboardView struct {
	Stats  []stat
	Recent []model.AuditEvent
}

type counter struct {
	label string
	link  string
	count func(ctx context.Context) (int, error)
}

func totalOf[T any](fetch func(context.Context, apiclient.ListParams) (apiclient.Listing[T], error), filters map[string]string) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		l, err := fetch(ctx, apiclient.ListParams{Page: 1, Limit: 1, Filters: filters})
		if err != nil {
			return 0, err
		}
		if p, ok := l.(apiclient.Page[T]); ok {
			return p.Info.TotalCount, nil
		}
		return 0, nil
	}
}

func (h *Handler) counters() []counter {
	return []counter{
		{"Pending submissions", "/achieve-management",
			totalOf(h.api.ListSubmissions, map[string]string{"status": string(model.SubmissionPending)})},
		{"Pending redemptions", "/redemption-history",
			totalOf(h.api.ListRedemptions, map[string]string{"status": string(model.RedemptionPending)})},
		{"Catalog items", "/reward-catalog",
			totalOf(h.api.ListRewards, nil)},
	}
}

// Dashboard shows overview counts fetched concurrently. A failed count
// shows as a dash and does not hold up the others.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counters := h.counters()
	stats := make([]stat, len(counters))
	errs := make([]error, len(counters))

	g, ctx := errgroup.WithContext(r.Context())
	for i, c := range counters {
		stats[i] = stat{Label: c.label, Value: unknownCount, Link: c.link}
		g.Go(func() error {
			n, err := c.count(ctx)
			if err != nil {
				h.logger.Warn("dashboard count", "stat", c.label, "error", err)
				errs[i] = err
				return nil
			}
			stats[i].Value = strconv.Itoa(n)
			return nil
		})
	}
	g.Wait()
	for _, err := range errs {
		if err != nil && h.expired(w, r, err) {
			return
		}
	}

	view := dashboardView{Stats: stats}
	if h.audit != nil {
		recent, err := h.audit.Recent("", 10)
		if err != nil {
			h.logger.Error("recent activity", "error", err)
		}
		view.Recent = recent
	}
	h.render(w, r, "dashboard", "Achievers", "/achievers", view)
}
