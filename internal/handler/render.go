package handler

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Astemirdum/fabtrack/internal/catalog"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const csrfField = "csrf_token"

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"date":        formatDate,
	"datetime":    formatDateTime,
	"label":       catalog.Label,
	"statusClass": statusClass,
	"lower":       strings.ToLower,
}

// Page is what every template receives; Data holds the page's own view.
type Page struct {
	Title   string
	Session *session.Session
	Flash   *Flash
	CSRF    template.HTML
	Data    any
}

// Renderer executes one layout-wrapped template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}
	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		if name == "layout" {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return nil, errors.Wrap(err, "clone layout")
		}
		if _, err := t.ParseFS(templatesFS, f); err != nil {
			return nil, errors.Wrapf(err, "parse %s", f)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("no template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

func (h *Handler) render(c echo.Context, code int, name, title string, data any) error {
	return c.Render(code, name, Page{
		Title:   title,
		Session: currentSession(c),
		Flash:   h.popFlash(c),
		CSRF:    csrf.TemplateField(c.Request()),
		Data:    data,
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func formatDateTime(v any) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv != nil {
			t = *tv
		}
	}
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006 15:04")
}

func statusClass(s model.Status) string {
	switch {
	case s.Is(model.StatusPending):
		return "status-pending"
	case s.Is(model.StatusApproved):
		return "status-approved"
	case s.Is(model.StatusRejected):
		return "status-rejected"
	case s.Is(model.StatusReturned):
		return "status-returned"
	}
	return "status-other"
}
