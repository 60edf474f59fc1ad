package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/wilke/gowe-arbiter/internal/cli"
)

func main() {
	err := cli.NewRootCmd().Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, exitErr)
		os.Exit(exitErr.Code())
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
