package db

// Record maps the records table. Timestamps are stored as UTC strings in
// globaltime.TimestampLayout so rows round-trip byte for byte.
type Record struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Source      string  `gorm:"column:source;type:text;not null"`
	SourceType  *string `gorm:"column:source_type;type:text"`
	Category    *string `gorm:"column:category;type:text"`
	Companies   *string `gorm:"column:companies;type:text"`
	Title       *string `gorm:"column:title;type:text"`
	Summary     *string `gorm:"column:summary;type:text"`
	ContentHTML *string `gorm:"column:content_html;type:text"`
	PublishDate *string `gorm:"column:publish_date;type:text"`
	URL         string  `gorm:"column:url;type:text;not null"`
	URLHash     string  `gorm:"column:url_hash;type:text;not null;uniqueIndex"`
	Region      *string `gorm:"column:region;type:text"`
	Language    *string `gorm:"column:language;type:text"`
	ScrapedAt   *string `gorm:"column:scraped_at;type:text"`
	Metadata    *string `gorm:"column:metadata;type:text"`
	ContentHash *string `gorm:"column:content_hash;type:text"`
	CreatedAt   string  `gorm:"column:created_at;type:text;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   string  `gorm:"column:updated_at;type:text;not null;default:CURRENT_TIMESTAMP"`
}

func (Record) TableName() string { return "records" }

// IngestionRun maps the ingestion_runs table.
type IngestionRun struct {
	ID               int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Source           *string `gorm:"column:source;type:text"`
	StartedAt        string  `gorm:"column:started_at;type:text;not null"`
	CompletedAt      *string `gorm:"column:completed_at;type:text"`
	Status           string  `gorm:"column:status;type:text;not null;default:running"`
	TotalRecords     int64   `gorm:"column:total_records;type:integer;not null;default:0"`
	NewRecords       int64   `gorm:"column:new_records;type:integer;not null;default:0"`
	UpdatedRecords   int64   `gorm:"column:updated_records;type:integer;not null;default:0"`
	DuplicateRecords int64   `gorm:"column:duplicate_records;type:integer;not null;default:0"`
	Metadata         *string `gorm:"column:metadata;type:text"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }

func autoMigrateModels() []any {
	return []any{
		&Record{},
		&IngestionRun{},
	}
}
