// Prospect — lead discovery and matching service
//
// Usage:
//
//	prospect setup
//	prospect run --home ~/.config/prospect
//	prospect verify --base-url http://127.0.0.1:5001
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
