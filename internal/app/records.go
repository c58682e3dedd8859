package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"ivdwatch.dev/ivdmon/internal/cli"
	"ivdwatch.dev/ivdmon/internal/db"
)

func runRecords(args []string) int {
	fs := flag.NewFlagSet("records", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	day := fs.String("day", "", "Return records published on this day (YYYY-MM-DD)")
	category := fs.String("category", "", "Filter by category id")
	company := fs.String("company", "", "Filter by canonical company name")
	region := fs.String("region", "", "Filter by region (day queries only)")
	from := fs.String("from", "", "Range start in YYYY-MM-DD (category/company queries)")
	to := fs.String("to", "", "Range end in YYYY-MM-DD (category/company queries)")
	categories := fs.String("categories", "", "Comma-separated category ids (company queries)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "records does not accept positional arguments")
		return 2
	}
	if *day == "" && *category == "" && *company == "" {
		fmt.Fprintln(os.Stderr, "one of --day, --category or --company is required")
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

	var items []db.RecordItem
	switch {
	case *day != "":
		dayPart, err := parseDayFlag(*day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --day: %v\n", err)
			return 2
		}
		items, err = pool.RecordsForDay(ctx, dayPart, db.DayFilter{
			Category: *category,
			Company:  *company,
			Region:   *region,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to query records: %v\n", err)
			return 1
		}

	case *company != "":
		items, err = pool.RecordsByCompany(ctx, *company, db.CompanyFilter{
			StartDate:  fromDay,
			EndDate:    toDay,
			Categories: splitCSV(*categories),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to query records: %v\n", err)
			return 1
		}

	default:
		items, err = pool.RecordsByCategory(ctx, *category, fromDay, toDay)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to query records: %v\n", err)
			return 1
		}
	}

	if err := printJSON(items); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
