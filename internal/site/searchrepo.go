package site

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var searchMigrations = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		name TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5 (
		name UNINDEXED,
		title,
		content
	)`,
}

type SearchRepo struct {
	db *sql.DB
}

type IndexEntry struct {
	Name        string
	Title       string
	Description string
	Content     string
}

type SearchResult struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

func OpenSearchRepo(dbPath string) (*SearchRepo, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range searchMigrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &SearchRepo{db: db}, nil
}

func (r *SearchRepo) Close() error {
	return r.db.Close()
}

// Index replaces the whole index with the given pages. A full rebuild
// is cheap at corpus scale and avoids stale entries.
func (r *SearchRepo) Index(ctx context.Context, entries []IndexEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"pages", "pages_fts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, e := range entries {
		row := map[string]interface{}{
			"name":        e.Name,
			"title":       e.Title,
			"description": e.Description,
		}
		sqlStr, args, err := builder.BuildInsert("pages", []map[string]interface{}{row})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		ftsRow := map[string]interface{}{
			"name":    e.Name,
			"title":   e.Title,
			"content": e.Content,
		}
		sqlStr, args, err = builder.BuildInsert("pages_fts", []map[string]interface{}{ftsRow})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Remove drops the given pages from the index, e.g. after a delete in
// the editing API.
func (r *SearchRepo) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, table := range []string{"pages", "pages_fts"} {
		query, args, err := sqlx.In("DELETE FROM "+table+" WHERE name IN (?)", names)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *SearchRepo) Search(ctx context.Context, query string, limit uint) ([]SearchResult, error) {
	cleaned := sanitizeFTSQuery(query)
	if cleaned == "" {
		return []SearchResult{}, nil
	}
	if limit == 0 {
		limit = 20
	}
	where := map[string]interface{}{
		"_custom_match": builder.Custom("pages_fts MATCH ?", cleaned),
		"_orderby":      "rank",
		"_limit":        []uint{0, limit},
	}
	fields := []string{"name", "title", "snippet(pages_fts, 2, '<b>', '</b>', '…', 12)", "rank"}
	sqlStr, args, err := builder.BuildSelect("pages_fts", where, fields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.Name, &res.Title, &res.Snippet, &res.Rank); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Count returns the number of indexed pages.
func (r *SearchRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n)
	return n, err
}

func sanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
