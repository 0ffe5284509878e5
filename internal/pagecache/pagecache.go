// Package pagecache persists segmenter pages in PostgreSQL so cached model
// output survives restarts and is shared between service instances.
package pagecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/repository"
)

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New returns a segmenter.Cache backed by the segment_pages table.
// Lookup and write failures are logged and treated as cache misses; the
// first writer of a key wins.
func New(db *sql.DB, logger *slog.Logger) segmenter.Cache {
	return &store{
		db:     db,
		logger: logger.With("system", "pagecache"),
	}
}

func (s *store) Get(ctx context.Context, key string) (segmenter.Page, bool) {
	q := `SELECT records, declared FROM segment_pages WHERE cache_key = $1`

	page, err := repository.QueryOne(ctx, s.db, q, []any{key}, scanPage)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "page lookup failed", "key", key, "error", err)
		}
		return segmenter.Page{}, false
	}
	return page, true
}

func (s *store) Put(ctx context.Context, key string, page segmenter.Page) {
	records, err := json.Marshal(page.Records)
	if err != nil {
		s.logger.WarnContext(ctx, "encode page failed", "key", key, "error", err)
		return
	}

	q := `
		INSERT INTO segment_pages(cache_key, records, declared)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, q, key, records, page.Declared); err != nil {
		s.logger.WarnContext(ctx, "page write failed", "key", key, "error", err)
	}
}

func scanPage(sc repository.Scanner) (segmenter.Page, error) {
	var (
		raw  []byte
		page segmenter.Page
	)
	if err := sc.Scan(&raw, &page.Declared); err != nil {
		return segmenter.Page{}, err
	}
	if err := json.Unmarshal(raw, &page.Records); err != nil {
		return segmenter.Page{}, err
	}
	return page, nil
}
