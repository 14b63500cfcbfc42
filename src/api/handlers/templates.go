package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"finance/src/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Templates holds one template set per page, each combined with the shared layout.
type Templates struct {
	pages map[string]*template.Template
}

func ParseTemplates() (*Templates, error) {
	funcs := template.FuncMap{"usd": utils.FormatUSD}

	layout, err := template.New(layoutFile).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[name] = page
	}
	return &Templates{pages: pages}, nil
}

func (t *Templates) Execute(w io.Writer, page string, data interface{}) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
