package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gostat/app"
	"gostat/internal/testkit"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App is the HTML workbench application.
type App struct {
	router    *chi.Mux
	workbench *app.Workbench
	registry  *Registry
	testkit   *testkit.TestKit
	templates *template.Template
	maxUpload int64
}

// Config holds UI application configuration.
type Config struct {
	Port           string
	MaxUploadBytes int64
}

// NewApp creates the workbench application.
func NewApp(config Config, workbench *app.Workbench) (*App, error) {
	funcMap := template.FuncMap{
		"fnum": formatStat,
		"has": func(names []string, name string) bool {
			for _, n := range names {
				if n == name {
					return true
				}
			}
			return false
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		workbench: workbench,
		registry:  NewRegistry(),
		testkit:   testkit.NewTestKit(),
		templates: templates,
		maxUpload: config.MaxUploadBytes,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// Registry exposes the session registry so the JSON API can share it.
func (a *App) Registry() *Registry {
	return a.registry
}

// Router exposes the handler for tests and embedding.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", http.StripPrefix("/", staticFS))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/sample", a.handleSample)
	a.router.Get("/workbench", a.handleWorkbench)
	a.router.Post("/fit", a.handleFit)
	a.router.Get("/reset", a.handleReset)
	a.router.Get("/help", a.handleHelp)
}

// Start starts the HTTP server.
func (a *App) Start(addr string) error {
	log.Printf("Workbench UI listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// formatStat renders statistics compactly for tables, switching to
// scientific notation for extreme magnitudes.
func formatStat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e6 || abs < 1e-4) {
		return fmt.Sprintf("%.3e", v)
	}
	return fmt.Sprintf("%.4f", v)
}
