package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upCompanyDomain, downCompanyDomain)
}

var domainPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// upCompanyDomain adds a denormalized domain column to companies and
// backfills it from the website URL, so deduplication checks do not need to
// re-parse URLs on every query.
func upCompanyDomain(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE companies ADD COLUMN domain TEXT NOT NULL DEFAULT '';`)
	if err != nil {
		return fmt.Errorf("adding domain column : %w", err)
	}

	rows, err := tx.Query("SELECT id, website FROM companies")
	if err != nil {
		return fmt.Errorf("getting all rows: %w", err)
	}
	defer rows.Close()

	type pair struct{ id, domain string }
	var pairs []pair
	for rows.Next() {
		var id, website string
		if err := rows.Scan(&id, &website); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		domain := website
		if match := domainPattern.FindStringSubmatch(website); match != nil {
			domain = match[1]
		}
		pairs = append(pairs, pair{id: id, domain: domain})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for _, p := range pairs {
		_, err = tx.Exec("UPDATE companies SET domain = ? WHERE id = ?", p.domain, p.id)
		if err != nil {
			return fmt.Errorf("updating row %s : %w", p.id, err)
		}
	}
	return nil
}

func downCompanyDomain(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE companies DROP COLUMN domain;`)
	if err != nil {
		return fmt.Errorf("dropping domain column : %w", err)
	}
	return nil
}
