package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
	tmplDir          = "templates"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var funcs = template.FuncMap{
	"formatDate":   formatDate,
	"isoDate":      isoDate,
	"answeringURL": AnsweringURL,
}

// LoadTemplates parses every page under templates/ in fsys together with
// the base layout and the shared partials.
func LoadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	entries, err := fs.ReadDir(fsys, tmplDir)
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if path.Ext(name) != ".html" || name == baseTemplate || name == partialsTemplate {
			continue
		}
		t, err := template.New(baseTemplate).Funcs(funcs).ParseFS(fsys,
			path.Join(tmplDir, baseTemplate),
			path.Join(tmplDir, name),
			path.Join(tmplDir, partialsTemplate),
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

// MustLoadTemplates is LoadTemplates for tests and static setups.
func MustLoadTemplates(fsys fs.FS) map[string]*template.Template {
	templates, err := LoadTemplates(fsys)
	if err != nil {
		panic(err)
	}
	return templates
}
