package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kce-spotlight/console/internal/model"
)

func (c *Client) ListPointRules(ctx context.Context, p ListParams) (Listing[model.PointRule], error) {
	return List[model.PointRule](ctx, c, "/rewards/rules", p)
}

// SavePointRule creates the rule when id is empty and updates it otherwise.
func (c *Client) SavePointRule(ctx context.Context, id string, rule model.PointRule) error {
	rule.ID = ""
	if id == "" {
		return c.SendJSON(ctx, http.MethodPost, "/rewards/rules", rule, nil)
	}
	return c.SendJSON(ctx, http.MethodPatch, "/rewards/rules/"+url.PathEscape(id), rule, nil)
}

func (c *Client) DeletePointRule(ctx context.Context, id string) error {
	return c.Delete(ctx, "/rewards/rules/"+url.PathEscape(id))
}

func (c *Client) ListRewards(ctx context.Context, p ListParams) (Listing[model.RewardItem], error) {
	return List[model.RewardItem](ctx, c, "/rewards/catalog", p)
}

// SaveReward creates or updates a catalog item. With an image attached the
// item is sent as multipart/form-data, otherwise as JSON.
func (c *Client) SaveReward(ctx context.Context, id string, item model.RewardItem, image *File) error {
	method, path := http.MethodPost, "/rewards/catalog"
	if id != "" {
		method, path = http.MethodPatch, "/rewards/catalog/"+url.PathEscape(id)
	}
	item.ID = ""

	if image == nil {
		return c.SendJSON(ctx, method, path, item, nil)
	}
	fields := map[string]string{
		"name":        item.Name,
		"description": item.Description,
		"pointsCost":  strconv.Itoa(item.PointsCost),
		"stock":       strconv.Itoa(item.Stock),
		"category":    item.Category,
		"isActive":    strconv.FormatBool(item.IsActive),
	}
	if image.Field == "" {
		image.Field = "image"
	}
	return c.SendMultipart(ctx, method, path, fields, image, nil)
}

func (c *Client) DeleteReward(ctx context.Context, id string) error {
	return c.Delete(ctx, "/rewards/catalog/"+url.PathEscape(id))
}

func (c *Client) ListRedemptions(ctx context.Context, p ListParams) (Listing[model.Redemption], error) {
	return List[model.Redemption](ctx, c, "/rewards/admin/redemptions", p)
}

// FulfilRedemption moves a redemption from pending to fulfilled.
func (c *Client) FulfilRedemption(ctx context.Context, id string) error {
	payload := map[string]model.RedemptionStatus{"status": model.RedemptionFulfilled}
	return c.SendJSON(ctx, http.MethodPatch, "/rewards/admin/redemptions/"+url.PathEscape(id), payload, nil)
}

// RedemptionExportURL is the backend's own spreadsheet download.
func (c *Client) RedemptionExportURL(search string) string {
	return c.URL("/rewards/export/redemptions", url.Values{"search": {search}})
}
