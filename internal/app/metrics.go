package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"ivdwatch.dev/ivdmon/internal/cli"
)

func runMetrics(args []string) int {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	from := fs.String("from", "", "Range start in YYYY-MM-DD (by run start time)")
	to := fs.String("to", "", "Range end in YYYY-MM-DD (by run start time)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "metrics does not accept positional arguments")
		return 2
	}

	fromDay, err := parseOptionalDayFlag(*from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --from: %v\n", err)
		return 2
	}
	toDay, err := parseOptionalDayFlag(*to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --to: %v\n", err)
		return 2
	}

	ctx, cancel, pool, _, err := connectStore(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	metrics, err := pool.QueryIngestionMetrics(ctx, fromDay, toDay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query metrics: %v\n", err)
		return 1
	}

	if err := printJSON(metrics); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
