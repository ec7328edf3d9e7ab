package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/resource"
)

// Views holds the parsed templates. Each page is parsed on top of a clone
// of the layout and shared partials so pages can each define "content".
type Views struct {
	base   *template.Template
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewViews parses templates/layout.html, templates/partials/*.html and
// every templates/pages/*.html from fsys.
func NewViews(fsys fs.FS, imageBase string, logger *slog.Logger) (*Views, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base, err := template.New("").Funcs(Funcs(imageBase)).ParseFS(fsys, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return &Views{base: base, pages: pages, logger: logger}, nil
}

// Page renders a full page inside the layout. Output is buffered so a
// template error yields a clean 500.
func (v *Views) Page(w http.ResponseWriter, name string, data any) {
	v.PageStatus(w, http.StatusOK, name, data)
}

func (v *Views) PageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := v.pages[name]
	if !ok {
		v.logger.Error("unknown page template", "page", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Error("template error", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Partial renders one named partial for an HTMX swap.
func (v *Views) Partial(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := v.base.ExecuteTemplate(&buf, name, data); err != nil {
		v.logger.Error("template error", "partial", name, "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<div class="alert alert-error">Template error</div>`)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// Funcs are the template helpers shared by every view.
func Funcs(imageBase string) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 January 2006")
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("03:04 PM")
		},
		"isoDate": func(s string) string {
			d, err := time.Parse(time.DateOnly, model.DateOnly(s))
			if err != nil {
				return s
			}
			return d.Format("02 Jan 2006")
		},
		"imageSrc": func(ref string) string {
			abs := apiclient.FormatImageURL(imageBase, ref)
			if abs == "" {
				return ""
			}
			return "/media?src=" + url.QueryEscape(abs)
		},
		"collegeBadge": model.CollegeBadge,
		"ruleIcon":     model.RuleIcon,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"dict":         dict,
		"colleges":     func() []string { return model.Colleges },
		"departments":  func() []string { return model.Departments },
		"categories":   func() []string { return model.RewardCategories },
		"pageSizes":    func() []int { return resource.PageSizes },
		"staffRoles":   func() []string { return []string{model.RoleInstructor, model.RoleAdmin} },
	}
}

// dict builds a map from alternating keys and values so a template can
// pass several values to a partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
