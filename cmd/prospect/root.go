package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kerem-ae/prospect"
	"github.com/kerem-ae/prospect/db"
)

// ExitError carries a process exit code alongside the underlying failure.
type ExitError struct {
	Code int
	Err  error
}

func (err *ExitError) Error() string {
	return err.Err.Error()
}

func (err *ExitError) Unwrap() error {
	return err.Err
}

// homeFlag overrides the home directory resolution when set.
var homeFlag string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "prospect",
		Short: "Lead discovery and matching service",
		Long: `Prospect finds the official website of a named lead company, scrapes it
into a structured profile, and scores it against your own company.

Provision the home directory with "prospect setup", serve the phased
workflow with "prospect run", and exercise a running server end to end
with "prospect verify".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&homeFlag, "home", "", "Application home directory (default: user config dir)")

	root.AddCommand(newSetupCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newVerifyCommand())
	return root
}

// resolveHome picks the application home directory: the --home flag, then
// the PROSPECT_HOME environment variable, then the prospect folder under
// the user configuration directory. The result is always absolute so the
// commands never depend on the caller's working directory.
func resolveHome() (string, error) {
	home := homeFlag
	if home == "" {
		home = os.Getenv("PROSPECT_HOME")
	}
	if home == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving user config dir : %w", err)
		}
		home = filepath.Join(configDir, "prospect")
	}
	absolute, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("resolving home dir : %w", err)
	}
	return absolute, nil
}

// provision builds a fully provisioned app rooted at the home directory:
// config written if absent, database opened with all pending migrations
// applied, reports directory created, stored extensions loaded. Both setup
// and run go through this path so neither can skip migrations.
func provision(homeDir string) (*prospect.App, error) {
	app, err := prospect.New(prospect.WithHomeDir(homeDir))
	if err != nil {
		return nil, fmt.Errorf("provisioning home dir : %w", err)
	}

	conn, err := db.New(filepath.Join(homeDir, "prospect.db"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("opening database : %w", err)
	}

	err = app.WithOptions(
		prospect.WithRepo(db.NewRepository(conn)),
		prospect.WithExtensions(),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("wiring repository : %w", err)
	}
	return app, nil
}
