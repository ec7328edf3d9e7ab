package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFormatImageURL(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"", ""},
		{`uploads\rewards\mug.png`, "https://img.example.test/uploads/rewards/mug.png"},
		{"/uploads/mug.png", "https://img.example.test/uploads/mug.png"},
		{"https://cdn.example.test/a.png", "https://cdn.example.test/a.png"},
		{"http://cdn.example.test/a.png", "http://cdn.example.test/a.png"},
	}
	for _, tt := range tests {
		if got := FormatImageURL("https://img.example.test/", tt.ref); got != tt.want {
			t.Errorf("FormatImageURL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestFetchImage(t *testing.T) {
	var tunnel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tunnel = r.Header.Get("ngrok-skip-browser-warning")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/api", WithHTTPClient(server.Client()))
	img, err := c.FetchImage(context.Background(), server.URL+"/uploads/a.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer img.Body.Close()
	b, _ := io.ReadAll(img.Body)
	if string(b) != "png" {
		t.Errorf("body = %q, want %q", b, "png")
	}
	if img.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", img.ContentType)
	}
	if tunnel != "true" {
		t.Errorf("tunnel header = %q, want true", tunnel)
	}
}

func TestFetchImageRefusesForeignHost(t *testing.T) {
	c := NewClient("https://api.example.test/api")
	_, err := c.FetchImage(context.Background(), "https://evil.example.test/a.png")
	if !errors.Is(err, ErrForeignImage) {
		t.Errorf("err = %v, want ErrForeignImage", err)
	}
	_, err = c.FetchImage(context.Background(), "file:///etc/passwd")
	if !errors.Is(err, ErrForeignImage) {
		t.Errorf("err = %v, want ErrForeignImage", err)
	}
}

func TestFetchImageAllowedExtraHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpg"))
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	c := NewClient("https://api.example.test/api", WithHTTPClient(server.Client()))
	img, err := c.FetchImage(context.Background(), server.URL+"/x.jpg", u.Host)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	img.Body.Close()
}

func TestFetchImageRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>interstitial</html>"))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithHTTPClient(server.Client()))
	if _, err := c.FetchImage(context.Background(), server.URL+"/a.png"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("err = %v, want ErrUnsupportedImage", err)
	}
}

func TestFetchImageRejectsSVG(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithHTTPClient(server.Client()))
	if _, err := c.FetchImage(context.Background(), server.URL+"/a.svg"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("err = %v, want ErrUnsupportedImage", err)
	}
}
