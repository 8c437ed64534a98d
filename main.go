package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/compozy/gitdeploy/cmd"
	"github.com/compozy/gitdeploy/internal/domain"
)

func main() {
	if err := cmd.InitCommands(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize commands: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, domain.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Aborted")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
