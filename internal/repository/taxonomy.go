package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taxonomy/builder/internal/domain"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type TaxonomyRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveItems(ctx context.Context, sourcePage string, items []domain.Item) error
	Ping(ctx context.Context) error
}

const schema = `
	CREATE TABLE IF NOT EXISTS taxonomy_items (
		id          TEXT NOT NULL,
		parent_key  TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		name        TEXT NOT NULL,
		slug        TEXT NOT NULL,
		url         TEXT NOT NULL,
		parent      TEXT,
		parent_slug TEXT,
		parent_id   TEXT,
		source_page TEXT NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (id, parent_key)
	)`

const upsertItem = `
	INSERT INTO taxonomy_items (id, parent_key, type, name, slug, url, parent, parent_slug, parent_id, source_page, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id, parent_key)
	DO UPDATE SET type = $3, name = $4, slug = $5, url = $6, parent = $7,
		parent_slug = $8, parent_id = $9, source_page = $10, updated_at = $11`

type taxonomyRepository struct {
	db  DB
	now func() time.Time
}

func NewTaxonomyRepository(db DB) TaxonomyRepository {
	return &taxonomyRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *taxonomyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create taxonomy_items: %w", err)
	}
	return nil
}

// SaveItems upserts every item in a single transaction. Either all rows
// land or none do. Rows are keyed by id and parent id, since all-in ids
// repeat under different parents.
func (r *taxonomyRepository) SaveItems(ctx context.Context, sourcePage string, items []domain.Item) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	updatedAt := r.now().UTC()
	for _, item := range items {
		_, err := tx.Exec(ctx, upsertItem,
			item.ID, item.ParentIDValue(), string(item.Type), item.Name, item.Slug, item.URL,
			item.Parent, item.ParentSlug, item.ParentID,
			sourcePage, updatedAt,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to save item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	return nil
}

func (r *taxonomyRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
