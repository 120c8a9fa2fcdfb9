package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/navigation"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates
var templateFS embed.FS

const csrfField = "csrf_token"

// mdRenderer escapes raw HTML in its input (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"inputDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	},
	"roleLabel": roleLabel,
	"scrollDelayMs": func() int64 {
		return navigation.DeferredScrollDelay.Milliseconds()
	},
}

func roleLabel(r models.MemberRole) string {
	switch r {
	case models.RoleAdvisor:
		return "Pembina"
	case models.RoleOfficer:
		return "Pengurus Inti"
	case models.RoleMember:
		return "Anggota"
	}
	return string(r)
}

// templates holds one parsed set per page: the shared layout plus the page.
type templates map[string]*template.Template

func parseTemplates() (templates, error) {
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	out := templates{}
	for _, p := range pages {
		t, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		out[path.Base(p)] = t
	}
	return out, nil
}

// page is what every template receives.
type page struct {
	Title     string
	Menu      []navigation.MenuItem
	Session   *models.Session
	CSRFField template.HTML
	Admin     bool
	Scroll    string
	Error     string
	Data      any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.templates[name]
	if !ok {
		s.internalError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}
	p.Menu = navigation.Menu(navigation.Navbar, r.URL.Path)
	p.CSRFField = csrf.TemplateField(r)
	if p.Session == nil {
		p.Session = sessionFromContext(r.Context())
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
