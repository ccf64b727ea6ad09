package main

import (
	"errors"
	"fmt"
	"os"

	"shellback/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
