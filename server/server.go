// Package server exposes the phased lead discovery workflow over HTTP. The
// workflow walks a cookie session through six phases: set the lead, search
// for its website, select a result, scrape it into a profile, compare it
// against the user's company, done. Profiles and reports live in the
// database, the session cookie carries only the phase and record IDs.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/kerem-ae/prospect"
	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/listener"
)

const sessionName = "prospect-session"

//go:embed templates/*
var templatesFS embed.FS

// Searcher finds candidate websites for a named lead company.
type Searcher interface {
	FindCompanyURL(ctx context.Context, companyName string, maxResults int) ([]domain.SearchResult, error)
}

// CompanyScraper extracts a structured profile from a company website.
type CompanyScraper interface {
	ScrapeCompany(ctx context.Context, rawURL string) (*domain.CompanyProfile, error)
}

// Comparer produces a scored match report for a source and lead profile.
type Comparer interface {
	CompareCompanies(ctx context.Context, source, lead *domain.CompanyProfile) (*domain.MatchReport, error)
}

// Server routes the workflow endpoints onto the app's engines.
type Server struct {
	app      *prospect.App
	store    *sessions.CookieStore
	tpl      *template.Template
	mux      *http.ServeMux
	searcher Searcher
	scraper  CompanyScraper
	comparer Comparer
}

// New creates a server wired to the app's search, scrape, and comparison
// engines.
func New(app *prospect.App) (*Server, error) {
	tpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates : %w", err)
	}

	store := sessions.NewCookieStore([]byte(app.Config.SecretKey))
	store.Options = &sessions.Options{HttpOnly: true, Secure: false, Path: "/"}

	server := &Server{
		app:      app,
		store:    store,
		tpl:      tpl,
		mux:      http.NewServeMux(),
		searcher: app.Search,
		scraper:  app.Scraper,
		comparer: app.Comparer,
	}
	server.routes()
	return server, nil
}

func (server *Server) routes() {
	server.mux.HandleFunc("/", server.handleIndex)
	server.mux.HandleFunc("/api/health", server.handleHealth)
	server.mux.HandleFunc("/api/status", server.handleStatus)
	server.mux.HandleFunc("/api/phase1/set-lead", server.handleSetLead)
	server.mux.HandleFunc("/api/phase2/search", server.handleSearch)
	server.mux.HandleFunc("/api/phase3/select", server.handleSelect)
	server.mux.HandleFunc("/api/phase4/scrape", server.handleScrape)
	server.mux.HandleFunc("/api/phase5/compare", server.handleCompare)
	server.mux.HandleFunc("/api/reset", server.handleReset)
	server.mux.HandleFunc("/api/export", server.handleExport)
	server.mux.HandleFunc("/api/quick-match", server.handleQuickMatch)
}

// Handler returns the full middleware-wrapped handler chain.
func (server *Server) Handler() http.Handler {
	return loggingMiddleware(corsMiddleware(server.mux))
}

// Serve wraps the listener in the recoverable accept loop and serves until
// the listener is closed.
func (server *Server) Serve(ln net.Listener) error {
	server.app.WriteLog("INFO", fmt.Sprintf("listening on http://%s", ln.Addr()))
	return http.Serve(listener.NewServiceListener(ln), server.Handler())
}

// ListenAndServe binds the configured address and serves until the listener
// is closed.
func (server *Server) ListenAndServe() error {
	addr := server.app.Config.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s : %w", addr, err)
	}
	return server.Serve(ln)
}
