package prospect

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/extensions"
	"github.com/spf13/viper"
)

// WithOptions applies a series of configuration functions to the app
// instance. Each option function can modify the app and return an error if it
// fails.
func (app *App) WithOptions(options ...func(*App) error) error {
	for _, option := range options {
		err := option(app)
		if err != nil {
			return fmt.Errorf("applying option on prospect : %w", err)
		}
	}
	return nil
}

// WithHomeDir configures the app to use the specified home directory.
// It creates the directory if it doesn't exist, initializes the configuration
// file using Viper, loads the environment, and creates the reports directory.
// Running it against an already provisioned home changes nothing.
func WithHomeDir(homeDir string) func(*App) error {
	return func(app *App) error {
		_, err := os.ReadDir(homeDir)
		if err != nil {
			if os.IsNotExist(err) {
				log.Println("[*] creating home dir")
				err := os.MkdirAll(homeDir, 0700)
				if err != nil {
					return fmt.Errorf("creating home dir %s: %w", homeDir, err)
				}
			} else {
				return fmt.Errorf("checking if directory exists %s: %w", homeDir, err)
			}
		}
		// At this point, the directory exists or was created successfully
		app.Home = homeDir

		// VIPER
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(homeDir)
		v.SetDefault("address", "127.0.0.1")
		v.SetDefault("port", "5001")
		v.SetDefault("model", "google/gemini-2.0-flash-001")
		v.SetDefault("base_url", "https://openrouter.ai/api/v1")
		v.SetDefault("reports_dir", "reports")
		err = v.ReadInConfig()
		if err != nil {
			// need to check if the error is config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// Config file is not found
				err = v.SafeWriteConfig()
				if err != nil {
					return fmt.Errorf("writing config file : %w", err)
				}
			} else {
				return fmt.Errorf("reading config file : %w", err)
			}
		}
		if err := v.Unmarshal(app.Config); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}
		app.Config.viper = v
		app.Config.HomeDir = homeDir
		if app.Config.SecretKey == "" {
			app.Config.SecretKey = "dev-secret-key"
		}

		// Rewrite entire file from struct
		v.Set("home_dir", homeDir)
		err = v.WriteConfig()
		if err != nil {
			return fmt.Errorf("writing config after unmarshalling : %w", err)
		}

		if err := app.Config.LoadEnv(homeDir); err != nil {
			return fmt.Errorf("loading environment : %w", err)
		}

		if err := os.MkdirAll(filepath.Join(homeDir, app.Config.ReportsDir), 0700); err != nil {
			return fmt.Errorf("creating reports dir : %w", err)
		}
		return nil
	}
}

// WithRepo will take the Repository interface and seed the scope from the
// stored excluded domain patterns.
func WithRepo(repo Repository) func(*App) error {
	return func(app *App) error {
		// First we need to check if there is a repo
		if app.Repo != nil {
			if err := app.Repo.Close(); err != nil {
				return err
			}
			app.Repo = nil
		}
		app.Repo = repo
		err := app.SyncScope()
		if err != nil {
			app.WriteLog("INFO", err.Error())
		}
		return nil
	}
}

// SyncScope replaces the scope's exclude rules with the patterns stored in
// the repository. Each pattern is matched against both the result host and
// the full URL.
func (app *App) SyncScope() error {
	patterns, err := app.Repo.GetExcludedDomains()
	if err != nil {
		return fmt.Errorf("getting excluded domains : %w", err)
	}
	app.Scope.ClearRules()
	for _, pattern := range patterns {
		if err := app.Scope.AddRule(pattern, "host", true); err != nil {
			return fmt.Errorf("adding host rule %s : %w", pattern, err)
		}
		if err := app.Scope.AddRule(pattern, "url", true); err != nil {
			return fmt.Errorf("adding url rule %s : %w", pattern, err)
		}
	}
	return nil
}

// WithExtension loads a single extension into the app's Lua runtime list.
func WithExtension(ext *extensions.Runtime) func(*App) error {
	return func(app *App) error {
		if _, ok := app.GetExtension(ext.Data.Name); !ok {
			app.Extensions = append(app.Extensions, ext)
		}
		return nil
	}
}

// WithExtensions loads all enabled extensions from the repository. A script
// that fails to load is logged and skipped so one broken extension cannot
// keep the service from starting.
func WithExtensions() func(*App) error {
	return func(app *App) error {
		if app.Repo == nil {
			return errors.New("loading extensions requires a repository")
		}
		stored, err := app.Repo.GetExtensions()
		if err != nil {
			return fmt.Errorf("getting all extensions : %w", err)
		}
		for _, ext := range stored {
			if !ext.Enabled {
				continue
			}
			if _, ok := app.GetExtension(ext.Name); ok {
				continue
			}
			runtime, err := extensions.NewRuntime(ext, app)
			if err != nil {
				app.WriteLog("WARN", fmt.Sprintf("loading extension %s : %s", ext.Name, err.Error()))
				continue
			}
			app.Extensions = append(app.Extensions, runtime)
		}
		return nil
	}
}

// WithLogHandler takes a handler function that will be executed on each Log
func WithLogHandler(handler func(log domain.Log) error) func(*App) error {
	return func(app *App) error {
		if app.OnLog != nil {
			return errors.New("app already has a log handler defined")
		}
		app.OnLog = handler
		return nil
	}
}
