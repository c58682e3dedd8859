package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ivdwatch.dev/ivdmon/internal/cli"
)

func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	query := fs.String("q", "", "Full-text query")
	limit := fs.Int("limit", 20, "Maximum records to return")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "search does not accept positional arguments")
		return 2
	}
	if strings.TrimSpace(*query) == "" {
		fmt.Fprintln(os.Stderr, "--q is required")
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}

	ctx, cancel, pool, _, err := connectStore(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	items, err := pool.SearchRecords(ctx, *query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to search records: %v\n", err)
		return 1
	}

	if err := printJSON(items); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
