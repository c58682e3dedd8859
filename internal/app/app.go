// Package app implements the ivdmon CLI. Every command resolves its own
// flags, loads configuration from the environment and returns a process
// exit code.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "records":
		return runRecords(args[1:])
	case "search":
		return runSearch(args[1:])
	case "metrics":
		return runMetrics(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "ivdmon CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  ivdmon <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health   Verify database connectivity and schema")
	fmt.Fprintln(os.Stderr, "  ingest   Validate, enrich and upsert feed item JSON")
	fmt.Fprintln(os.Stderr, "  records  Query stored records by day, category or company")
	fmt.Fprintln(os.Stderr, "  search   Full-text search over stored records")
	fmt.Fprintln(os.Stderr, "  metrics  Aggregate ingestion run counters")
	fmt.Fprintln(os.Stderr, "  serve    Start the read-only query API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"ivdmon <command> -h\" for command-specific flags.")
}
