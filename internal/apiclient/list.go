package apiclient

import (
	"context"
	"net/url"
	"strconv"
)

// ListParams are the query parameters shared by every list endpoint.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	for k, v := range p.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// List fetches one page from a list endpoint and parses the envelope.
func List[T any](ctx context.Context, c *Client, path string, p ListParams) (Listing[T], error) {
	body, err := c.GetRaw(ctx, path, p.Query())
	if err != nil {
		return nil, err
	}
	return ParseList[T](body, p.Page, p.Limit)
}
