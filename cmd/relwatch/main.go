package main

import (
	"fmt"
	"os"

	apperrors "relwatch/internal/errors"
)

func main() {
	if err := Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, styleError.Render("error:"), err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration problems to 2 and everything else to 1.
func exitCode(err error) int {
	if apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		return 2
	}
	return 1
}
