// Package prospect provides a lead discovery and matching service. It finds
// the official website of a named lead company, scrapes it into a structured
// profile, and compares that profile against the user's own company to
// produce a scored match report. It is designed to be decoupled from the
// HTTP layer and provides handlers and repositories for building lead
// qualification tools on top of it.
//
// The core functionality includes:
//   - Company discovery through the DuckDuckGo HTML endpoint with LLM re-ranking
//   - Structured profile extraction from company websites
//   - LLM-driven comparison with per-category scores and a text report
//   - Lua-based extension system for filtering results and patching profiles
//   - SQLite database storage for profiles, searches, reports, and logs
//   - Scope-based filtering of search result domains
package prospect

import (
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/extensions"
	"github.com/kerem-ae/prospect/openrouter"
)

// Repository defines the methods consumed by the application to interact with
// the SQLite backend. It composes the per-concern interfaces from the domain
// package and is satisfied by db.Repository.
type Repository interface {
	domain.CompanyRepository
	domain.SearchRepository
	domain.ReportRepository
	domain.LogRepository
	domain.ExtensionRepository
	domain.ConfigRepository
	Close() error
}

// StoreItem is an interface for items that can be written to the database
// through the DBWriteChannel. It is implemented by domain.Log and
// domain.SearchRecord.
type StoreItem interface {
	// GetType returns a string identifier for the type of item.
	GetType() string
}

// App is the main struct that orchestrates the discovery workflow: search,
// scrape, comparison, extension hooks, and database operations. It serves as
// the central coordinator wired up by the CLI and consumed by the HTTP layer.
type App struct {
	Home           string                     // The application home directory (defaults to the prospect folder under the user configuration directory)
	Config         *Config                    // The application configuration
	Repo           Repository                 // DB Repository Interface
	Scope          *Scope                     // Search result scope (excluded domain patterns)
	Client         *http.Client               // Browser-mimicking HTTP client used by the search engine and scraper
	LLM            *openrouter.Client         // OpenRouter chat-completions client
	Search         *SearchEngine              // Phase 2: lead discovery
	Scraper        *Scraper                   // Phase 4: profile extraction
	Comparer       *ComparisonEngine          // Phase 5: comparison and report
	Extensions     []*extensions.Runtime      // Slice of loaded extensions
	DBWriteChannel chan StoreItem             // DB Write Channel
	OnLog          func(log domain.Log) error // Function to be ran on each log - used by embedding applications to surface new entries

	writerStarted atomic.Bool   // Set once WriteToDB begins draining
	writerDone    chan struct{} // Signalled when WriteToDB returns
}

// New creates a new App instance with default configuration and applies any
// provided options. It initializes the scope, the database write channel, the
// browser-mimicking HTTP client, and the three workflow engines.
func New(options ...func(*App) error) (*App, error) {
	app := &App{
		Config:         NewConfig(),
		Scope:          NewScope(true),
		Client:         newBrowserClient(),
		Extensions:     make([]*extensions.Runtime, 0),
		DBWriteChannel: make(chan StoreItem, 10),
		writerDone:     make(chan struct{}, 1),
	}
	err := app.WithOptions(options...)
	if err != nil {
		return nil, err
	}
	if app.LLM == nil && app.Config.APIKey != "" {
		app.LLM = app.Config.NewLLMClient()
	}
	app.Search = NewSearchEngine(app)
	app.Scraper = NewScraper(app)
	app.Comparer = NewComparisonEngine(app)
	return app, nil
}

// WriteToDB drains the write channel, persisting each item through the
// repository. Run it in its own goroutine; it returns when the channel is
// closed, and Close waits for that before closing the repository.
func (app *App) WriteToDB() {
	app.writerStarted.Store(true)
	defer func() { app.writerDone <- struct{}{} }()
	for item := range app.DBWriteChannel {
		switch castItem := item.(type) {
		case domain.Log:
			err := app.Repo.InsertLog(&castItem)
			if err != nil {
				log.Println(err)
			}
			if app.OnLog != nil {
				if err := app.OnLog(castItem); err != nil {
					log.Println(err)
				}
			}
		case *domain.SearchRecord:
			err := app.Repo.InsertSearch(castItem)
			if err != nil {
				log.Println(err)
			}
		default:
			log.Print(castItem)
		}
	}
}

// WriteLog queues a leveled log entry on the write channel. The level must be
// one of DEBUG, INFO, WARN, ERROR, or FATAL.
func (app *App) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG":
	case "INFO":
	case "WARN":
	case "ERROR":
	case "FATAL":
	default:
		return fmt.Errorf("level should be either: debug, info, warn, error, fatal")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}
	entry := domain.Log{
		ID:        id,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
	for _, option := range options {
		err := option(&entry)
		if err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}
	app.DBWriteChannel <- entry
	return nil
}

// GetHomeDir returns the application home directory.
// Part of the extensions.Service interface.
func (app *App) GetHomeDir() (string, error) {
	if app.Home == "" {
		return "", fmt.Errorf("home directory is not configured")
	}
	return app.Home, nil
}

// GetScope returns the search result scope.
// Part of the extensions.Service interface.
func (app *App) GetScope() (extensions.ScopeService, error) {
	if app.Scope == nil {
		return nil, fmt.Errorf("scope is not configured")
	}
	return app.Scope, nil
}

// GetExtensionRepo returns the extension repository.
// Part of the extensions.Service interface.
func (app *App) GetExtensionRepo() (domain.ExtensionRepository, error) {
	if app.Repo == nil {
		return nil, fmt.Errorf("repository is not configured")
	}
	return app.Repo, nil
}

// GetExtension returns the loaded extension runtime with the given name.
func (app *App) GetExtension(name string) (*extensions.Runtime, bool) {
	for _, ext := range app.Extensions {
		if ext.Data.Name == name {
			return ext, true
		}
	}
	return nil, false
}

// Close shuts down the write channel, waits for a running writer to finish
// draining buffered items, then closes the repository.
func (app *App) Close() error {
	close(app.DBWriteChannel)
	if app.writerStarted.Load() {
		<-app.writerDone
	}
	if app.Repo != nil {
		if err := app.Repo.Close(); err != nil {
			return fmt.Errorf("closing repo : %w", err)
		}
	}
	return nil
}

var _ extensions.Service = (*App)(nil)
