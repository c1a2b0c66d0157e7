package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision the application home directory",
		Long: `Create the home directory, write the default config.yaml if absent, open
the database and apply pending migrations, and create the reports
directory. Safe to re-run: existing files are kept and migrations no-op
when the schema is current.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup()
		},
	}
}

func runSetup() error {
	homeDir, err := resolveHome()
	if err != nil {
		return err
	}

	app, err := provision(homeDir)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Setup complete: %s\n", homeDir)
	return nil
}
