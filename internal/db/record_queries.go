package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RecordItem is the read model handed to the CLI and HTTP layers. The
// companies and metadata columns hold JSON text; corrupt values decode to
// empty defaults instead of failing the whole query.
type RecordItem struct {
	ID          int64          `json:"id"`
	Source      string         `json:"source"`
	SourceType  *string        `json:"source_type,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Companies   []string       `json:"companies"`
	Title       *string        `json:"title,omitempty"`
	Summary     *string        `json:"summary,omitempty"`
	ContentHTML *string        `json:"content_html,omitempty"`
	PublishDate *string        `json:"publish_date,omitempty"`
	URL         string         `json:"url"`
	URLHash     string         `json:"url_hash"`
	Region      *string        `json:"region,omitempty"`
	Language    *string        `json:"language,omitempty"`
	ScrapedAt   *string        `json:"scraped_at,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	ContentHash *string        `json:"content_hash,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// HasCompany reports whether the record lists the company, compared
// case-insensitively against the canonical names stored on the row.
func (r RecordItem) HasCompany(company string) bool {
	for _, entry := range r.Companies {
		if strings.EqualFold(entry, company) {
			return true
		}
	}
	return false
}

const recordColumns = `
	r.id,
	r.source,
	r.source_type,
	r.category,
	r.companies,
	r.title,
	r.summary,
	r.content_html,
	r.publish_date,
	r.url,
	r.url_hash,
	r.region,
	r.language,
	r.scraped_at,
	r.metadata,
	r.content_hash,
	r.created_at,
	r.updated_at`

func scanRecordItem(rows *Rows) (RecordItem, error) {
	var (
		item          RecordItem
		companiesJSON *string
		metadataJSON  *string
	)
	if err := rows.Scan(
		&item.ID,
		&item.Source,
		&item.SourceType,
		&item.Category,
		&companiesJSON,
		&item.Title,
		&item.Summary,
		&item.ContentHTML,
		&item.PublishDate,
		&item.URL,
		&item.URLHash,
		&item.Region,
		&item.Language,
		&item.ScrapedAt,
		&metadataJSON,
		&item.ContentHash,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return RecordItem{}, fmt.Errorf("scan record row: %w", err)
	}
	item.Companies = decodeCompanies(companiesJSON)
	item.Metadata = decodeMetadata(metadataJSON)
	return item, nil
}

func decodeCompanies(raw *string) []string {
	companies := []string{}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return companies
	}
	if err := json.Unmarshal([]byte(*raw), &companies); err != nil {
		return []string{}
	}
	return companies
}

func decodeMetadata(raw *string) map[string]any {
	metadata := map[string]any{}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return metadata
	}
	if err := json.Unmarshal([]byte(*raw), &metadata); err != nil {
		return map[string]any{}
	}
	return metadata
}

func (p *Pool) collectRecordItems(ctx context.Context, query string, args ...any) ([]RecordItem, error) {
	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	items := []RecordItem{}
	for rows.Next() {
		item, err := scanRecordItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return items, nil
}

// DayFilter narrows RecordsForDay results. Company membership cannot be
// expressed against the JSON column in SQL, so it is applied in memory
// after the date filter.
type DayFilter struct {
	Category string
	Company  string
	Region   string
}

// RecordsForDay returns records whose publish_date falls on the given day
// (YYYY-MM-DD or a full timestamp; only the date part is compared).
func (p *Pool) RecordsForDay(ctx context.Context, day string, filter DayFilter) ([]RecordItem, error) {
	dayPart := DatePart(day)
	if dayPart == "" {
		return nil, fmt.Errorf("day is required")
	}

	query := []string{"SELECT" + recordColumns + "\nFROM records r\nWHERE date(r.publish_date) = ?"}
	args := []any{dayPart}
	if filter.Category != "" {
		query = append(query, "AND r.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Region != "" {
		query = append(query, "AND r.region = ?")
		args = append(args, filter.Region)
	}
	query = append(query, "ORDER BY r.id")

	items, err := p.collectRecordItems(ctx, strings.Join(query, "\n"), args...)
	if err != nil {
		return nil, err
	}
	if filter.Company == "" {
		return items, nil
	}
	filtered := []RecordItem{}
	for _, item := range items {
		if item.HasCompany(filter.Company) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// RecordsByCategory returns records in a category, optionally limited to a
// publish_date range. Empty bounds leave that side open.
func (p *Pool) RecordsByCategory(ctx context.Context, category, startDate, endDate string) ([]RecordItem, error) {
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}

	query := []string{"SELECT" + recordColumns + "\nFROM records r\nWHERE r.category = ?"}
	args := []any{category}
	if startDate != "" {
		query = append(query, "AND date(r.publish_date) >= ?")
		args = append(args, DatePart(startDate))
	}
	if endDate != "" {
		query = append(query, "AND date(r.publish_date) <= ?")
		args = append(args, DatePart(endDate))
	}
	query = append(query, "ORDER BY r.id")

	return p.collectRecordItems(ctx, strings.Join(query, "\n"), args...)
}

// CompanyFilter narrows RecordsByCompany results.
type CompanyFilter struct {
	StartDate  string
	EndDate    string
	Categories []string
}

// RecordsByCompany returns records listing the company among their
// canonical names, case-insensitively.
func (p *Pool) RecordsByCompany(ctx context.Context, company string, filter CompanyFilter) ([]RecordItem, error) {
	if company == "" {
		return nil, fmt.Errorf("company is required")
	}

	query := []string{"SELECT" + recordColumns + "\nFROM records r"}
	var (
		clauses []string
		args    []any
	)
	if filter.StartDate != "" {
		clauses = append(clauses, "date(r.publish_date) >= ?")
		args = append(args, DatePart(filter.StartDate))
	}
	if filter.EndDate != "" {
		clauses = append(clauses, "date(r.publish_date) <= ?")
		args = append(args, DatePart(filter.EndDate))
	}
	if len(filter.Categories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Categories)), ",")
		clauses = append(clauses, "r.category IN ("+placeholders+")")
		for _, category := range filter.Categories {
			args = append(args, category)
		}
	}
	if len(clauses) > 0 {
		query = append(query, "WHERE "+strings.Join(clauses, " AND "))
	}
	query = append(query, "ORDER BY r.id")

	items, err := p.collectRecordItems(ctx, strings.Join(query, "\n"), args...)
	if err != nil {
		return nil, err
	}
	matched := []RecordItem{}
	for _, item := range items {
		if item.HasCompany(company) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// SearchRecords runs a full-text query over title, summary and body and
// returns matches newest first by publish_date.
func (p *Pool) SearchRecords(ctx context.Context, match string, limit int) ([]RecordItem, error) {
	if strings.TrimSpace(match) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 20
	}

	const q = `
SELECT` + recordColumns + `
FROM records r
JOIN records_fts ON records_fts.rowid = r.id
WHERE records_fts MATCH ?
ORDER BY r.publish_date DESC
LIMIT ?`

	return p.collectRecordItems(ctx, q, match, limit)
}

// RecordByID fetches a single record. Returns ErrNoRows when absent.
func (p *Pool) RecordByID(ctx context.Context, id int64) (*RecordItem, error) {
	const q = `
SELECT` + recordColumns + `
FROM records r
WHERE r.id = ?`

	items, err := p.collectRecordItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoRows
	}
	return &items[0], nil
}

// DatePart reduces a date or timestamp string to its YYYY-MM-DD prefix.
func DatePart(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "T"); idx >= 0 {
		return value[:idx]
	}
	return value
}
