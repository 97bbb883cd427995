package main

import (
	"errors"
	"fmt"
	"os"

	"adpulse/internal/cli"
	"adpulse/internal/cli/cmd"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(cmd.ExitCodeUnknown)
	}
}
