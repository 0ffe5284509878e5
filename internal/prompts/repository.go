package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/query"
	"github.com/JaimeStill/segmenter/pkg/repository"
)

var projection = query.
	NewProjection("public", "prompts", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("stage", "Stage").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active")

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(&p.ID, &p.Name, &p.Stage, &p.Instructions, &p.Description, &p.Active)
	return p, err
}

// FiltersFromQuery reads stage, name and active. Unparsable values are
// left unset.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s, err := ParseStage(values.Get("stage")); err == nil {
		f.Stage = &s
	}
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if a, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &a
	}
	return f
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, query.SortField{Field: "Name"}).
		WhereSearch(page.Search, "Name", "Description").
		WhereEquals("Stage", filters.Stage).
		WhereContains("Name", filters.Name).
		WhereEquals("Active", filters.Active).
		OrderByFields(page.Sort)

	countSQL, args := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}

	pageSQL, args := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, args, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

// write runs one statement returning a prompt row inside a transaction.
func (r *repo) write(ctx context.Context, event string, q string, args ...any) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	r.logger.Info(event, "id", p.ID, "name", p.Name, "stage", p.Stage, "active", p.Active)
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd Command) (*Prompt, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return r.write(ctx, "prompt created",
		"INSERT INTO prompts(name, stage, instructions, description) VALUES ($1, $2, $3, $4) "+projection.Returning(),
		cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description)
}

// Update keeps the active flag. Moving an active prompt to a stage that
// already has one fails as a duplicate.
func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return r.write(ctx, "prompt updated",
		"UPDATE prompts SET name = $1, stage = $2, instructions = $3, description = $4 WHERE id = $5 "+projection.Returning(),
		cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM prompts WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	r.logger.Info("prompt deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		_, err := tx.ExecContext(ctx,
			`UPDATE prompts SET active = false
			WHERE active AND id <> $1 AND stage = (SELECT stage FROM prompts WHERE id = $1)`, id)
		if err != nil {
			return Prompt{}, fmt.Errorf("deactivate stage: %w", err)
		}
		return repository.QueryOne(ctx, tx,
			"UPDATE prompts SET active = true WHERE id = $1 "+projection.Returning(),
			[]any{id}, scanPrompt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	r.logger.Info("prompt activated", "id", p.ID, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return r.write(ctx, "prompt deactivated",
		"UPDATE prompts SET active = false WHERE id = $1 "+projection.Returning(), id)
}

func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	fallback, err := Default(stage)
	if err != nil {
		return "", err
	}

	var text string
	err = r.db.QueryRowContext(ctx,
		"SELECT instructions FROM prompts WHERE stage = $1 AND active", stage).Scan(&text)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fallback, nil
	case err != nil:
		return "", fmt.Errorf("active %s prompt: %w", stage, err)
	}
	return text, nil
}
