package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kerem-ae/prospect/server"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve the lead matching workflow",
		Long: `Provision the home directory if needed, then serve the phased workflow
in the foreground on the configured port. The PORT environment variable
overrides the configured port. OPENROUTER_API_KEY must be set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	homeDir, err := resolveHome()
	if err != nil {
		return err
	}

	app, err := provision(homeDir)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Config.Validate(); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	go app.WriteToDB()

	srv, err := server.New(app)
	if err != nil {
		return fmt.Errorf("building server : %w", err)
	}

	addr := app.Config.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s : %w", addr, err)
	}

	// Closing the listener on SIGINT/SIGTERM unwinds Serve for a clean exit.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ln.Close()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serving : %w", err)
	}
	return nil
}
