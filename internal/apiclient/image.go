package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const maxImageSize = 8 << 20

var ErrForeignImage = errors.New("image host not allowed")

// ErrUnsupportedImage is returned for content the console will not serve
// from its own origin, such as SVG.
var ErrUnsupportedImage = errors.New("unsupported image type")

var rasterTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/bmp":  true,
}

// FormatImageURL turns a stored image reference into an absolute URL.
// Relative references may use backslashes; absolute http(s) URLs pass
// through unchanged. An empty reference stays empty.
func FormatImageURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	clean := strings.TrimLeft(strings.ReplaceAll(ref, `\`, "/"), "/")
	return strings.TrimRight(base, "/") + "/" + clean
}

// Image is a fetched image body. The caller closes Body.
type Image struct {
	Body        io.ReadCloser
	ContentType string
}

// FetchImage downloads an image from the backend or the image host with
// the tunnel header set. Any other host is refused.
func (c *Client) FetchImage(ctx context.Context, src string, allowedHosts ...string) (*Image, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrForeignImage
	}
	if !c.hostAllowed(u.Host, allowedHosts) {
		return nil, ErrForeignImage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.skipTunnelWarning {
		req.Header.Set("ngrok-skip-browser-warning", "true")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Message: "failed to load image"}
	}
	ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !rasterTypes[ct] {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch image: content type %q: %w", resp.Header.Get("Content-Type"), ErrUnsupportedImage)
	}
	return &Image{
		Body:        readCloser{Reader: io.LimitReader(resp.Body, maxImageSize), Closer: resp.Body},
		ContentType: ct,
	}, nil
}

func (c *Client) hostAllowed(host string, extra []string) bool {
	if b, err := url.Parse(c.baseURL); err == nil && strings.EqualFold(b.Host, host) {
		return true
	}
	for _, h := range extra {
		if h != "" && strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

type readCloser struct {
	io.Reader
	io.Closer
}
