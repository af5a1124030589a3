package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile   = "layout.html"
	partialsFile = "partials.html"
)

// renderer executes the embedded page templates. Each page is parsed together with the
// layout and the shared partials.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{"displayDate": displayDate}
	base, err := template.New(layoutFile).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutFile, "templates/"+partialsFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == layoutFile || name == partialsFile {
			continue
		}
		t, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, path.Ext(name))] = t
	}
	return &renderer{pages: pages}, nil
}

// render writes page with the given status. The page is executed into a buffer first so a
// template error never produces a half-written response.
func (r *renderer) render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// displayDate formats a stored date as M/D/YYYY. Unreadable values are shown as stored.
func displayDate(stored string) string {
	if len(stored) >= len(time.DateOnly) {
		if t, err := time.Parse(time.DateOnly, stored[:len(time.DateOnly)]); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return stored
}
