// Package views renders the HTML pages. It is deliberately thin: every
// page is a template parsed together with the base layout, and the
// request layer hands in everything a page needs through Page.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet and images.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Flash is one flash message carried through the session to the next
// rendered page.
type Flash struct {
	Category string
	Message  string
}

// Page is the data envelope every template receives.
type Page struct {
	User    *domain.User
	Flashes []Flash
	CSRF    template.HTML
	Data    interface{}
}

// Views holds the parsed template sets, one per page.
type Views struct {
	pages map[string]*template.Template
}

var pageNames = []string{
	"home",
	"signup",
	"login",
	"users",
	"profile",
	"private",
	"settings",
	"notifications",
	"follows",
	"project",
	"project_form",
	"timelog_form",
	"conversations",
	"conversation",
	"conversation_form",
	"404",
	"500",
}

// New parses all page templates against the base layout.
func New() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template)}
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS,
			"templates/base.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("err parsing template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render writes the named page. Render failures after the first byte
// cannot be recovered, so the page is logged and a plain 500 is sent
// only when nothing has been written yet.
func (v *Views) Render(w http.ResponseWriter, r *http.Request, name string, status int, page Page) {
	t, ok := v.pages[name]
	if !ok {
		errs.LogError(r, fmt.Errorf("unknown template %q", name))
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", page); err != nil {
		errs.LogError(r, err)
	}
}
