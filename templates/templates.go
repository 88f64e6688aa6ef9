// Package templates embeds the HTML pages. Every page is parsed together with
// layout.html and fills its "content" block.
package templates

import (
	"embed"
	"html/template"

	"github.com/gin-contrib/multitemplate"
)

//go:embed *.html
var files embed.FS

// Pages lists the renderable page names.
var Pages = []string{"form", "result", "admin"}

// Renderer builds the gin HTML renderer for all pages.
func Renderer(funcs template.FuncMap) (multitemplate.Render, error) {
	r := multitemplate.New()
	for _, page := range Pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "layout.html", page+".html")
		if err != nil {
			return nil, err
		}
		r.Add(page, tmpl)
	}
	return r, nil
}
