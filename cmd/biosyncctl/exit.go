package main

import (
	"errors"
	"fmt"
	"os"
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

// exitSilent signals a non-zero exit without printing anything, used when the
// run report already carries the failure details.
func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

// exitCode maps the error from Execute to a process exit code, printing it to
// stderr unless it asked for a silent exit.
func exitCode(err error) int {
	var exitErr exitError
	if errors.As(err, &exitErr) {
		if !exitErr.silent && exitErr.message != "" {
			fmt.Fprintln(os.Stderr, exitErr.message)
		}
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return 1
}
