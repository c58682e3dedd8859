// Package ingest implements idempotent record ingestion. Every item is
// enriched with canonical company names and a category before it is
// written, and the content-addressed upsert guarantees that re-ingesting
// the same item never produces a second row.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"ivdwatch.dev/ivdmon/internal/classify"
	"ivdwatch.dev/ivdmon/internal/db"
	"ivdwatch.dev/ivdmon/internal/globaltime"
	"ivdwatch.dev/ivdmon/internal/langdetect"
	"ivdwatch.dev/ivdmon/internal/match"
	"ivdwatch.dev/ivdmon/internal/reader"
	payloadschema "ivdwatch.dev/ivdmon/schema"
)

// Record operation statuses.
const (
	StatusInserted  = "inserted"
	StatusUpdated   = "updated"
	StatusDuplicate = "duplicate"
)

// Ingestion run statuses.
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)

// contentSeparator joins title, summary and body before hashing. U+241F
// cannot appear in feed text, so field boundaries survive the join.
const contentSeparator = "␟"

type Store struct {
	pool       *db.Pool
	matcher    *match.Matcher
	classifier *classify.Classifier
	logger     zerolog.Logger

	// writeMu serializes record writes. SQLite allows one writer at a
	// time and the read-then-write upsert must not interleave.
	writeMu sync.Mutex
}

// Item is one feed item to ingest. Source and URL are required; all other
// fields are optional and enriched or defaulted during ingestion.
type Item struct {
	Source      string
	URL         string
	SourceType  string
	Category    string
	Companies   []string
	Title       string
	Summary     string
	BodyHTML    string
	PublishDate string
	Region      string
	ScrapedAt   string
	Metadata    map[string]any
}

// ItemFromPayload converts a schema-validated payload into an Item.
func ItemFromPayload(payload *payloadschema.FeedItem) Item {
	if payload == nil {
		return Item{}
	}
	return Item{
		Source:      payload.Source,
		URL:         payload.URL,
		SourceType:  payload.SourceType,
		Category:    payload.Category,
		Companies:   payload.Companies,
		Title:       payload.Title,
		Summary:     payload.Summary,
		BodyHTML:    payload.BodyHTML,
		PublishDate: payload.PublishDate,
		Region:      payload.Region,
		ScrapedAt:   payload.ScrapedAt,
		Metadata:    payload.Metadata,
	}
}

// Result reports what a single InsertRecord call did.
type Result struct {
	Status      string `json:"status"`
	RecordID    int64  `json:"record_id"`
	DuplicateOf int64  `json:"duplicate_of,omitempty"`
	RunID       int64  `json:"run_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

func NewStore(pool *db.Pool, matcher *match.Matcher, classifier *classify.Classifier, logger zerolog.Logger) *Store {
	return &Store{
		pool:       pool,
		matcher:    matcher,
		classifier: classifier,
		logger:     logger,
	}
}

// InsertRecord enriches the item and upserts it. runID of zero means the
// write is not accounted to any ingestion run.
//
// The upsert resolves in URL-first order: a row with the same url_hash is
// updated when its content changed and touched when it did not; otherwise
// a row with the same content_hash is touched as a duplicate; otherwise a
// new row is inserted. The record write and the run counter increment
// commit in one transaction.
func (s *Store) InsertRecord(ctx context.Context, item Item, runID int64) (*Result, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("ingest store is not initialized")
	}
	source := strings.TrimSpace(item.Source)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	rawURL := strings.TrimSpace(item.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}

	bodyText := reader.ExtractText(item.BodyHTML, rawURL)
	companies := s.resolveCompanies(item, bodyText)
	if companies == nil {
		companies = []string{}
	}
	category := s.resolveCategory(item, bodyText, rawURL)
	language := langdetect.DetectISO6391(strings.TrimSpace(item.Title + " " + item.Summary + " " + bodyText))

	urlHash := hashText(strings.ToLower(rawURL))
	contentHash := hashText(strings.Join([]string{
		strings.TrimSpace(item.Title),
		strings.TrimSpace(item.Summary),
		strings.TrimSpace(item.BodyHTML),
	}, contentSeparator))

	now := globaltime.Stamp()
	scrapedAt := strings.TrimSpace(item.ScrapedAt)
	if scrapedAt == "" {
		scrapedAt = now
	}

	companiesJSON, err := json.Marshal(companies)
	if err != nil {
		return nil, fmt.Errorf("encode companies: %w", err)
	}
	metadataJSON, err := encodeMetadata(item.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	row := recordRow{
		source:      source,
		sourceType:  nullable(item.SourceType),
		category:    nullable(string(category)),
		companies:   string(companiesJSON),
		title:       nullable(item.Title),
		summary:     nullable(item.Summary),
		contentHTML: nullable(item.BodyHTML),
		publishDate: nullable(strings.TrimSpace(item.PublishDate)),
		url:         rawURL,
		urlHash:     urlHash,
		region:      nullable(item.Region),
		language:    nullable(language),
		scrapedAt:   scrapedAt,
		metadata:    metadataJSON,
		contentHash: contentHash,
		updatedAt:   now,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.upsertTx(ctx, row, runID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("status", result.Status).
		Int64("record_id", result.RecordID).
		Str("source", source).
		Str("url_hash", urlHash[:12]).
		Msg("record ingested")

	return result, nil
}

type recordRow struct {
	source      string
	sourceType  *string
	category    *string
	companies   string
	title       *string
	summary     *string
	contentHTML *string
	publishDate *string
	url         string
	urlHash     string
	region      *string
	language    *string
	scrapedAt   string
	metadata    *string
	contentHash string
	updatedAt   string
}

func (s *Store) upsertTx(ctx context.Context, row recordRow, runID int64) (*Result, error) {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		existingID   int64
		existingHash *string
	)
	err = tx.QueryRow(ctx,
		"SELECT id, content_hash FROM records WHERE url_hash = ?", row.urlHash,
	).Scan(&existingID, &existingHash)

	result := &Result{RunID: runID}
	switch {
	case err == nil && (existingHash == nil || *existingHash != row.contentHash):
		if err := s.updateRecord(ctx, tx, existingID, row); err != nil {
			return nil, err
		}
		result.Status = StatusUpdated
		result.RecordID = existingID

	case err == nil:
		if err := s.touchRecord(ctx, tx, existingID, row); err != nil {
			return nil, err
		}
		result.Status = StatusDuplicate
		result.RecordID = existingID
		result.DuplicateOf = existingID

	case db.IsNoRows(err):
		var candidateID int64
		candidateErr := tx.QueryRow(ctx,
			"SELECT id FROM records WHERE content_hash = ?", row.contentHash,
		).Scan(&candidateID)
		switch {
		case candidateErr == nil:
			if err := s.touchRecord(ctx, tx, candidateID, row); err != nil {
				return nil, err
			}
			result.Status = StatusDuplicate
			result.RecordID = candidateID
			result.DuplicateOf = candidateID
		case db.IsNoRows(candidateErr):
			recordID, err := s.insertRecord(ctx, tx, row)
			if err != nil {
				return nil, err
			}
			result.Status = StatusInserted
			result.RecordID = recordID
		default:
			return nil, fmt.Errorf("lookup content hash: %w", candidateErr)
		}

	default:
		return nil, fmt.Errorf("lookup url hash: %w", err)
	}

	if runID > 0 {
		if err := db.IncrementIngestionRun(ctx, tx, runID, runCounts(result.Status)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	result.Message = resultMessage(result.Status, result.DuplicateOf)
	return result, nil
}

func (s *Store) insertRecord(ctx context.Context, tx db.Tx, row recordRow) (int64, error) {
	const q = `
INSERT INTO records (
	source, source_type, category, companies, title,
	summary, content_html, publish_date, url, url_hash,
	region, language, scraped_at, metadata, content_hash, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

	var recordID int64
	err := tx.QueryRow(ctx, q,
		row.source, row.sourceType, row.category, row.companies, row.title,
		row.summary, row.contentHTML, row.publishDate, row.url, row.urlHash,
		row.region, row.language, row.scrapedAt, row.metadata, row.contentHash, row.updatedAt,
	).Scan(&recordID)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return recordID, nil
}

func (s *Store) updateRecord(ctx context.Context, tx db.Tx, recordID int64, row recordRow) error {
	const q = `
UPDATE records
   SET source = ?,
       source_type = ?,
       category = ?,
       companies = ?,
       title = ?,
       summary = ?,
       content_html = ?,
       publish_date = ?,
       url = ?,
       region = ?,
       language = ?,
       scraped_at = ?,
       metadata = ?,
       content_hash = ?,
       updated_at = ?
 WHERE id = ?`

	if _, err := tx.Exec(ctx, q,
		row.source, row.sourceType, row.category, row.companies, row.title,
		row.summary, row.contentHTML, row.publishDate, row.url,
		row.region, row.language, row.scrapedAt, row.metadata, row.contentHash, row.updatedAt,
		recordID,
	); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// touchRecord refreshes freshness fields on a duplicate row. A nil
// metadata keeps whatever the row already carries.
func (s *Store) touchRecord(ctx context.Context, tx db.Tx, recordID int64, row recordRow) error {
	const q = `
UPDATE records
   SET scraped_at = ?,
       metadata = COALESCE(?, metadata),
       updated_at = ?
 WHERE id = ?`

	if _, err := tx.Exec(ctx, q, row.scrapedAt, row.metadata, row.updatedAt, recordID); err != nil {
		return fmt.Errorf("touch record: %w", err)
	}
	return nil
}

func (s *Store) resolveCompanies(item Item, bodyText string) []string {
	if len(item.Companies) > 0 {
		return s.matcher.NormalizeNames(item.Companies)
	}
	opts := match.OptionsFromMetadata(item.Metadata)
	return s.matcher.MatchCompanies(bodyText, item.Title, item.Summary, opts)
}

func (s *Store) resolveCategory(item Item, bodyText, rawURL string) classify.Category {
	if category, ok := s.classifier.NormalizeCategoryName(item.Category); ok {
		return category
	}
	opts := classify.OptionsFromMetadata(item.Metadata)
	return s.classifier.Categorize(item.Source, item.Title, item.Summary, bodyText, rawURL, opts)
}

// StartRun opens an ingestion run and returns its id.
func (s *Store) StartRun(ctx context.Context, source string, metadata map[string]any) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("ingest store is not initialized")
	}

	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return 0, fmt.Errorf("encode run metadata: %w", err)
	}

	runID, err := s.pool.CreateIngestionRun(ctx, nullable(source), globaltime.Stamp(), metadataJSON)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("run_id", runID).Str("source", source).Msg("ingestion run started")
	return runID, nil
}

// CompleteRun closes an ingestion run with a terminal status.
func (s *Store) CompleteRun(ctx context.Context, runID int64, status string, metadata map[string]any) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("ingest store is not initialized")
	}
	switch status {
	case RunStatusCompleted, RunStatusCompletedWithErrors, RunStatusFailed:
	case "":
		status = RunStatusCompleted
	default:
		return fmt.Errorf("invalid run status %q", status)
	}

	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("encode run metadata: %w", err)
	}

	if err := s.pool.CompleteIngestionRun(ctx, runID, status, globaltime.Stamp(), metadataJSON); err != nil {
		return err
	}

	s.logger.Info().Int64("run_id", runID).Str("status", status).Msg("ingestion run completed")
	return nil
}

func runCounts(status string) db.RunCounts {
	switch status {
	case StatusInserted:
		return db.RunCounts{Total: 1, New: 1}
	case StatusUpdated:
		return db.RunCounts{Total: 1, Updated: 1}
	default:
		return db.RunCounts{Total: 1, Duplicate: 1}
	}
}

func resultMessage(status string, duplicateOf int64) string {
	switch status {
	case StatusInserted:
		return "record inserted"
	case StatusUpdated:
		return "existing record updated"
	case StatusDuplicate:
		return fmt.Sprintf("duplicate of record %d", duplicateOf)
	}
	return ""
}

func hashText(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func encodeMetadata(metadata map[string]any) (*string, error) {
	if metadata == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	text := string(encoded)
	return &text, nil
}

func nullable(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
