package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	if err := p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}

	if err := executeMigrationSQL(ctx, p, "post-auto-migrate", postAutoMigrateSQL); err != nil {
		return err
	}

	return nil
}

// executeMigrationSQL runs each statement separately because the sqlite
// driver rejects multi-statement Exec calls. Statements contain trigger
// bodies, so splitting happens on the END; terminator as well as plain
// semicolons at the end of a line.
func executeMigrationSQL(ctx context.Context, p *Pool, label, sqlText string) error {
	for _, stmt := range splitMigrationStatements(sqlText) {
		if err := p.gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("execute %s SQL: %w", label, err)
		}
	}
	return nil
}

func splitMigrationStatements(sqlText string) []string {
	var (
		statements []string
		current    []string
		inTrigger  bool
	)
	flush := func() {
		stmt := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	for _, line := range strings.Split(sqlText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current = append(current, line)
		upper := strings.ToUpper(trimmed)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger {
			if upper == "END;" {
				inTrigger = false
				flush()
			}
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return statements
}
