package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/opsdash/forget-me-not/internal/modules"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// overviewView backs the excluded-modules overview page.
type overviewView struct {
	Excluded   []string
	Notice     string
	SelectPath string
	RemovePath string
}

// selectView backs the module selection form.
type selectView struct {
	Candidates   []modules.Module
	ErrorMessage string
	OverviewPath string
	FormPath     string
}

func renderPage(w http.ResponseWriter, status int, name string, view interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// Template execution failures after the header is written can only be
	// logged by the caller's middleware; the page is already committed.
	_ = templates.ExecuteTemplate(w, name, view)
}
