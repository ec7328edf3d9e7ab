package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/kce-spotlight/console/internal/apiclient"
)

// Media proxies catalog images so the browser never sees the tunnel
// interstitial. Only the backend and image hosts are fetched.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		http.Error(w, "missing src", http.StatusBadRequest)
		return
	}

	var hosts []string
	if u, err := url.Parse(h.backend.ImageBaseURL); err == nil && u.Host != "" {
		hosts = append(hosts, u.Host)
	}

	img, err := h.api.FetchImage(r.Context(), src, hosts...)
	if errors.Is(err, apiclient.ErrForeignImage) {
		http.Error(w, "image host not allowed", http.StatusForbidden)
		return
	}
	if errors.Is(err, apiclient.ErrUnsupportedImage) {
		http.Error(w, "unsupported image type", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		h.logger.Warn("proxy image", "src", src, "error", err)
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	defer img.Body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, img.Body); err != nil {
		h.logger.Debug("copy image", "error", err)
	}
}
