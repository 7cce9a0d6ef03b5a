// Package pagestore keeps a page table in SQLite and answers batched
// existence lookups against it.
package pagestore

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/linkbatch"
	"github.com/FocuswithJustin/wikiconv/core/sqlite"
	"github.com/FocuswithJustin/wikiconv/core/title"
)

const schema = `
CREATE TABLE IF NOT EXISTS page (
	page_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	page_namespace INTEGER NOT NULL,
	page_title     TEXT NOT NULL,
	UNIQUE (page_namespace, page_title)
);`

// maxVariables keeps a lookup query below SQLite's bound parameter limit.
const maxVariables = 900

// Store is a page table.
type Store struct {
	db *sql.DB
}

var _ linkbatch.Lookup = (*Store)(nil)

// Open opens or creates the page database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing page database for lookups only.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := sqlite.Configure(ctx, db); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page").Scan(&n); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return &Store{db: db}, nil
}

// New wraps an open database, creating the page table if needed.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := sqlite.Configure(ctx, db); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "failed to create page table")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import inserts pages in one transaction and returns how many were new.
// A record with a zero ID is assigned the next free id. Pages that already
// exist are left alone.
func (s *Store) Import(ctx context.Context, pages []linkbatch.PageRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin import")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO page (page_id, page_namespace, page_title) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare import")
	}
	defer stmt.Close()

	added := 0
	for _, p := range pages {
		var id any
		if p.ID > 0 {
			id = p.ID
		}
		res, err := stmt.ExecContext(ctx, id, p.Namespace, p.DBkey)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to import %d:%s", p.Namespace, p.DBkey)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit import")
	}
	return added, nil
}

// Count returns the number of pages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count pages")
	}
	return n, nil
}

// LookupPages implements linkbatch.Lookup. Keys are grouped by namespace
// into one query; only very large batches are split.
func (s *Store) LookupPages(ctx context.Context, keys []linkbatch.PageKey) ([]linkbatch.PageRecord, error) {
	var out []linkbatch.PageRecord
	for start := 0; start < len(keys); start += maxVariables {
		end := min(start+maxVariables, len(keys))
		recs, err := s.lookup(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (s *Store) lookup(ctx context.Context, keys []linkbatch.PageKey) ([]linkbatch.PageRecord, error) {
	byNS := make(map[int][]string)
	for _, k := range keys {
		byNS[k.Namespace] = append(byNS[k.Namespace], k.DBkey)
	}
	namespaces := make([]int, 0, len(byNS))
	for ns := range byNS {
		namespaces = append(namespaces, ns)
	}
	sort.Ints(namespaces)

	var where []string
	var args []any
	for _, ns := range namespaces {
		titles := byNS[ns]
		where = append(where, "(page_namespace = ? AND page_title IN (?"+strings.Repeat(", ?", len(titles)-1)+"))")
		args = append(args, ns)
		for _, t := range titles {
			args = append(args, t)
		}
	}
	query := `SELECT page_id, page_namespace, page_title FROM page WHERE ` + strings.Join(where, " OR ")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up pages")
	}
	defer rows.Close()

	var out []linkbatch.PageRecord
	for rows.Next() {
		var r linkbatch.PageRecord
		if err := rows.Scan(&r.ID, &r.Namespace, &r.DBkey); err != nil {
			return nil, errors.Wrap(err, "failed to read page row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReadList parses a page list: one title per line, optionally preceded by
// a page id and a tab. Blank lines and lines starting with "#" are skipped.
func ReadList(r io.Reader, titles *title.Factory) ([]linkbatch.PageRecord, error) {
	var out []linkbatch.PageRecord
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var id int64
		if idText, rest, ok := strings.Cut(text, "\t"); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
			if err != nil || n <= 0 {
				return nil, &errors.ParseError{Format: "page list", Message: fmt.Sprintf("line %d: bad page id %q", line, idText)}
			}
			id, text = n, strings.TrimSpace(rest)
		}
		t, err := titles.NewFromText(text, title.NSMain)
		if err != nil {
			return nil, &errors.ParseError{Format: "page list", Message: fmt.Sprintf("line %d: %v", line, err), Err: err}
		}
		out = append(out, linkbatch.PageRecord{Namespace: t.Namespace(), DBkey: t.DBkey(), ID: id})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewIO("read", "page list", err)
	}
	return out, nil
}
