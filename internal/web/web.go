// Package web renders the site's pages from embedded templates and serves its
// static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"loveletter/internal/contact"
	"loveletter/internal/letter"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageHome    = "home"
	PageAbout   = "about"
	PageContact = "contact"
)

var pageTitles = map[string]string{
	PageHome:    "Free AI Love Letter Generator",
	PageAbout:   "About Us",
	PageContact: "Contact Us",
}

// Site is the content configured per deployment.
type Site struct {
	Name         string
	Tagline      string
	SupportURL   string
	ContactEmail string
	SocialHandle string
}

// Bullet is an icon-prefixed list entry on the home page.
type Bullet struct {
	Icon string
	Text string
}

// ContactView is the contact form as rendered: submitted values, field errors
// and whether the submission went through.
type ContactView struct {
	Form   contact.Form
	Errors map[string]string
	Error  string
	Sent   bool
}

// PageData is passed to every template.
type PageData struct {
	Site           Site
	Page           string
	Title          string
	Year           int
	MaxDescription int

	Letter  letter.State
	Contact ContactView

	Features  []Bullet
	Qualities []Bullet
	Occasions []string
	Tips      []string
}

var (
	features = []Bullet{
		{"💌", "Beautiful, personalized love letters for any occasion"},
		{"🤖", "AI-powered technology for authentic expressions"},
		{"⚡", "Generate romantic letters in seconds"},
		{"✨", "Perfect blend of poetry and sincerity"},
		{"💎", "Free to use with unlimited generations"},
	}
	qualities = []Bullet{
		{"💝", "Deeply personal and romantic"},
		{"💫", "Poetic and touching"},
		{"🌟", "Authentically emotional"},
		{"💌", "Beautifully crafted"},
	}
	occasions = []string{
		"Valentine's Day messages",
		"Anniversary celebrations",
		"Long-distance relationships",
		"Wedding vows",
		"Romantic surprises",
	}
	tips = []string{
		"Share specific memories and moments",
		"Express your deepest feelings",
		"Be genuine and personal",
		"Include your hopes for the future",
		"Make it uniquely yours",
	}
)

// Renderer holds one parsed template set per page.
type Renderer struct {
	site           Site
	maxDescription int
	pages          map[string]*template.Template
	now            func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer(site Site, maxDescription int) (*Renderer, error) {
	if site.Name == "" {
		site.Name = "AI Love Letter Generator"
	}
	if maxDescription <= 0 {
		maxDescription = 2000
	}
	if site.Tagline == "" {
		site.Tagline = "Express your love beautifully with AI-crafted love letters"
	}
	r := &Renderer{
		site:           site,
		maxDescription: maxDescription,
		pages:          make(map[string]*template.Template, len(pageTitles)),
		now:            time.Now,
	}
	for page := range pageTitles {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Data returns the base data for page, ready for handlers to fill in state.
func (r *Renderer) Data(page string) PageData {
	return PageData{
		Site:           r.site,
		Page:           page,
		Title:          pageTitles[page],
		Year:           r.now().Year(),
		MaxDescription: r.maxDescription,
		Features:       features,
		Qualities:      qualities,
		Occasions:      occasions,
		Tips:           tips,
	}
}

// Render executes the page into a buffer first so template errors never produce
// half-written responses.
func (r *Renderer) Render(w http.ResponseWriter, status int, data PageData) error {
	tmpl, ok := r.pages[data.Page]
	if !ok {
		return fmt.Errorf("unknown page %q", data.Page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", data.Page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
