// ABOUTME: Template loading and rendering for admin UI.
// ABOUTME: Embeds HTML templates and parses each page with its own copy of the layout.

package admin

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html templates/*/*.html
var templateFS embed.FS

var (
	layoutTmpl *template.Template
	pageTmpls  map[string]*template.Template
)

var templateFuncs = template.FuncMap{
	// indent renders a tree depth as leading dashes, like nested term names.
	"indent": func(depth int) template.HTML {
		return template.HTML(strings.Repeat("&#8212; ", depth))
	},
	"safe": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// termFields is shared by both term screens.
const termFields = "templates/taxonomies/fields.html"

// pageDefinitions maps page names to their template files
func getPageDefinitions() map[string][]string {
	return map[string][]string{
		"dashboard":     {"templates/dashboard.html"},
		"type-list":     {"templates/types/list.html"},
		"type-edit":     {"templates/types/edit.html"},
		"taxonomy-list": {"templates/taxonomies/list.html", termFields},
		"taxonomy-edit": {"templates/taxonomies/edit.html", termFields},
	}
}

// parsePageTemplates creates a map of page templates, each with its own copy of layout
func parsePageTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	for name, paths := range getPageDefinitions() {
		tmpl := template.Must(layoutTmpl.Clone())
		templates[name] = template.Must(tmpl.ParseFS(templateFS, paths...))
	}
	return templates
}

func init() {
	layoutTmpl = template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html"))
	pageTmpls = parsePageTemplates()
}

func renderPage(w io.Writer, page string, data any) error {
	tmpl, ok := pageTmpls[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
