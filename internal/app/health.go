package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"ivdwatch.dev/ivdmon/internal/cli"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "health does not accept positional arguments")
		return 2
	}

	ctx, cancel, pool, _, err := connectStore(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	var recordCount, runCount int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM records").Scan(&recordCount); err != nil {
		fmt.Fprintf(os.Stderr, "Schema check failed: %v\n", err)
		return 1
	}
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM ingestion_runs").Scan(&runCount); err != nil {
		fmt.Fprintf(os.Stderr, "Schema check failed: %v\n", err)
		return 1
	}

	fmt.Printf("ok records=%d ingestion_runs=%d\n", recordCount, runCount)
	return 0
}
