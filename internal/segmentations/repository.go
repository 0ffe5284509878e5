package segmentations

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/segmenter/internal/enrichment"
	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/query"
	"github.com/JaimeStill/segmenter/pkg/repository"
	"github.com/JaimeStill/segmenter/pkg/storage"
)

const (
	sourceBlob  = "source.json"
	resultBlob  = "result.json"
	contentJSON = "application/json"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	runner     *Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a segmentation repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	runner *Runner,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		runner:     runner,
		logger:     logger.With("system", "segmentations"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBodySize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "ProcessName", "Model")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count segmentations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	runs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query segmentations: %w", err)
	}

	result := pagination.NewPageResult(runs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Segment(ctx context.Context, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	source, err := json.Marshal(cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode rows: %w", ErrInvalidRequest, err)
	}

	run, err := r.create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var result *Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		key := blobKey(run.StorageKey, sourceBlob)
		if err := r.storage.Upload(gctx, key, bytes.NewReader(source), contentJSON); err != nil {
			return fmt.Errorf("upload source rows: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		res, err := r.runner.Run(gctx, cmd)
		result = res
		return err
	})

	if err := g.Wait(); err != nil {
		r.fail(ctx, run.ID, err)
		return nil, err
	}

	doc, err := json.Marshal(result)
	if err != nil {
		r.fail(ctx, run.ID, err)
		return nil, fmt.Errorf("encode result: %w", err)
	}

	key := blobKey(run.StorageKey, resultBlob)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(doc), contentJSON); err != nil {
		r.fail(ctx, run.ID, err)
		return nil, fmt.Errorf("upload result: %w", err)
	}

	completed, err := r.complete(ctx, run.ID, result)
	if err != nil {
		r.fail(ctx, run.ID, err)
		return nil, err
	}

	r.logger.Info(
		"segmentation completed",
		"id", completed.ID,
		"process", completed.ProcessName,
		"subactivities", len(result.SegmentedData),
		"abandoned", result.Stats.Abandoned,
	)

	result.Run = completed
	return result, nil
}

func (r *repo) Result(ctx context.Context, id uuid.UUID) (*Result, error) {
	run, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}

	blob, err := r.storage.Download(ctx, blobKey(run.StorageKey, resultBlob))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download result: %w", err)
	}
	defer blob.Body.Close()

	var result Result
	if err := json.NewDecoder(blob.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	result.Run = run
	return &result, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	run, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM segmentations WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, name := range []string{sourceBlob, resultBlob} {
		key := blobKey(run.StorageKey, name)
		if delErr := r.storage.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			r.logger.Warn("blob delete failed after DB delete", "key", key, "error", delErr)
		}
	}

	r.logger.Info("segmentation deleted", "id", id)
	return nil
}

func (r *repo) create(ctx context.Context, cmd Command) (*Run, error) {
	id := uuid.New()
	opts := r.runner.Options(cmd)

	q := `
		INSERT INTO segmentations(id, process_name, content_hash, source_count, page_size, max_pages, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		` + projection.Returning()

	args := []any{
		id,
		cmd.ProcessName,
		segmenter.ContentHash(enrichment.AsIsText(cmd.Data)),
		len(cmd.Data),
		opts.PageSize,
		opts.MaxPages,
		buildStorageKey(id),
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("segmentation started", "id", run.ID, "process", run.ProcessName, "rows", run.SourceCount)
	return &run, nil
}

func (r *repo) complete(ctx context.Context, id uuid.UUID, result *Result) (*Run, error) {
	q := `
		UPDATE segmentations
		SET status = $1, subactivity_count = $2, pages = $3, model_calls = $4,
			cache_hits = $5, model = $6, abandoned = $7, completed_at = now()
		WHERE id = $8
		` + projection.Returning()

	args := []any{
		StatusCompleted,
		len(result.SegmentedData),
		result.Stats.Pages,
		result.Stats.ModelCalls,
		result.Stats.CacheHits,
		result.Stats.Model,
		result.Stats.Abandoned,
		id,
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

// fail records cause on the run. It runs detached from ctx so cancelled
// requests are still marked failed.
func (r *repo) fail(ctx context.Context, id uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)

	_, err := r.db.ExecContext(
		ctx,
		"UPDATE segmentations SET status = $1, error = $2, completed_at = now() WHERE id = $3",
		StatusFailed, cause.Error(), id,
	)
	if err != nil {
		r.logger.Error("record segmentation failure", "id", id, "error", err)
		return
	}

	r.logger.Warn("segmentation failed", "id", id, "error", cause)
}

func buildStorageKey(id uuid.UUID) string {
	return fmt.Sprintf("segmentations/%s", id)
}

func blobKey(prefix, name string) string {
	return prefix + "/" + name
}
