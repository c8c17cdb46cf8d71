package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"therapyfinder/internal/services"
)

// Exit codes. A quota stop gets its own code so cron wrappers can schedule a
// resumed run instead of alerting.
const (
	exitFailure = 1
	exitQuota   = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCommand().Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitFailure
	case errors.Is(err, services.ErrQuotaExceeded):
		fmt.Fprintln(os.Stderr, err)
		return exitQuota
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
}
