package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ivdwatch.dev/ivdmon/internal/cli"
	"ivdwatch.dev/ivdmon/internal/ingest"
	payloadschema "ivdwatch.dev/ivdmon/schema"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	payload := fs.String("payload", "", "Feed item JSON object or array of objects")
	payloadFile := fs.String("payload-file", "", "Path to payload JSON file (overrides --payload)")
	runSource := fs.String("run-source", "", "Source label for the ingestion run (defaults to the first item's source)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "ingest does not accept positional arguments")
		return 2
	}

	payloadJSON, err := loadJSONInput(*payload, *payloadFile, "payload")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	rawItems, err := splitPayloadItems(payloadJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	items := make([]ingest.Item, 0, len(rawItems))
	for i, raw := range rawItems {
		validated, err := payloadschema.ValidateFeedItemPayload(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid payload item %d: %v\n", i, err)
			return 2
		}
		items = append(items, ingest.ItemFromPayload(validated))
	}

	source := strings.TrimSpace(*runSource)
	if source == "" {
		source = items[0].Source
	}

	ctx, cancel, pool, store, err := connectStore(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	runID, err := store.StartRun(ctx, source, map[string]any{"trigger": "cli"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start ingestion run: %v\n", err)
		return 1
	}

	failed := 0
	for i, item := range items {
		result, err := store.InsertRecord(ctx, item, runID)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "item %d failed: %v\n", i, err)
			continue
		}
		fmt.Printf("item=%d status=%s record_id=%d", i, result.Status, result.RecordID)
		if result.DuplicateOf != 0 {
			fmt.Printf(" duplicate_of=%d", result.DuplicateOf)
		}
		fmt.Println()
	}

	runStatus := ingest.RunStatusCompleted
	if failed > 0 {
		runStatus = ingest.RunStatusCompletedWithErrors
	}
	if err := store.CompleteRun(ctx, runID, runStatus, map[string]any{"failed_items": failed}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to complete ingestion run: %v\n", err)
		return 1
	}

	fmt.Printf("run_id=%d status=%s items=%d failed=%d\n", runID, runStatus, len(items), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// splitPayloadItems accepts either a single JSON object or an array of
// objects and returns each object's raw bytes.
func splitPayloadItems(payload json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode payload array: %w", err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("payload array is empty")
		}
		return items, nil
	}

	return []json.RawMessage{trimmed}, nil
}
