package links

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/linkhub/internal/errx"
	"github.com/sundayezeilo/linkhub/internal/idgen"
)

const linkColumns = "id, short_id, url, redirect, title, description, created_at, updated_at"

type pgStore struct {
	pool *pgxpool.Pool
	ids  idgen.Generator
}

// PGStoreConfig holds configuration for the PostgreSQL store.
type PGStoreConfig struct {
	IDGenerator idgen.Generator
}

// NewPGStore returns a Store backed by a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool, config *PGStoreConfig) Store {
	if config == nil {
		config = &PGStoreConfig{}
	}

	// Default: UUID v7 for primary-key locality.
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &pgStore{
		pool: pool,
		ids:  config.IDGenerator,
	}
}

func isURLUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" &&
		pgErr.ConstraintName == "links_url_unique"
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isURLUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func scanLink(row pgx.Row) (Link, error) {
	var l Link
	err := row.Scan(
		&l.ID,
		&l.ShortID,
		&l.URL,
		&l.Redirect,
		&l.Title,
		&l.Description,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

// filterPattern turns a user filter into an ILIKE substring pattern.
func filterPattern(filter string) string {
	return "%" + filter + "%"
}

func (s *pgStore) Create(ctx context.Context, link Link) (Link, error) {
	const op = "links.store.Create"

	if link.ID == uuid.Nil {
		id, err := s.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO links (id, short_id, url, redirect, title, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+linkColumns,
		link.ID, link.ShortID, link.URL, link.Redirect, link.Title, link.Description,
	)

	created, err := scanLink(row)
	if err != nil {
		return Link{}, mapStoreError(op, err)
	}
	return created, nil
}

// CreateMany bulk-inserts links in a single transaction; used for seeding.
func (s *pgStore) CreateMany(ctx context.Context, links []Link) (int64, error) {
	const op = "links.store.CreateMany"

	if len(links) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, link := range links {
		if link.ID == uuid.Nil {
			id, err := s.ids.Generate()
			if err != nil {
				return 0, errx.E(op, errx.Unavailable, err)
			}
			link.ID = id
		}
		batch.Queue(`
			INSERT INTO links (id, short_id, url, redirect, title, description)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			link.ID, link.ShortID, link.URL, link.Redirect, link.Title, link.Description,
		)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range links {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, mapStoreError(op, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, mapStoreError(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}
	return inserted, nil
}

func (s *pgStore) FindByURL(ctx context.Context, url string) (*Link, error) {
	const op = "links.store.FindByURL"

	row := s.pool.QueryRow(ctx,
		"SELECT "+linkColumns+" FROM links WHERE url = $1", url)

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return &link, nil
}

func (s *pgStore) FindByID(ctx context.Context, id uuid.UUID) (*Link, error) {
	const op = "links.store.FindByID"

	row := s.pool.QueryRow(ctx,
		"SELECT "+linkColumns+" FROM links WHERE id = $1", id)

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return &link, nil
}

func (s *pgStore) FindMany(ctx context.Context, params FindManyParams) ([]Link, error) {
	const op = "links.store.FindMany"

	var rows pgx.Rows
	var err error
	if params.Filter != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+linkColumns+` FROM links
			WHERE title ILIKE $1 OR description ILIKE $1 OR redirect ILIKE $1
			ORDER BY created_at, id
			OFFSET $2 LIMIT $3`,
			filterPattern(params.Filter), params.Skip, params.Take,
		)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+linkColumns+` FROM links
			ORDER BY created_at, id
			OFFSET $1 LIMIT $2`,
			params.Skip, params.Take,
		)
	}
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	defer rows.Close()

	result := []Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, mapStoreError(op, err)
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError(op, err)
	}
	return result, nil
}

func (s *pgStore) Count(ctx context.Context, filter string) (int64, error) {
	const op = "links.store.Count"

	var count int64
	var err error
	if filter != "" {
		err = s.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM links
			WHERE title ILIKE $1 OR description ILIKE $1 OR redirect ILIKE $1`,
			filterPattern(filter),
		).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM links").Scan(&count)
	}
	if err != nil {
		return 0, mapStoreError(op, err)
	}
	return count, nil
}

func (s *pgStore) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Link, error) {
	const op = "links.store.Update"

	row := s.pool.QueryRow(ctx, `
		UPDATE links SET
			title = COALESCE($2, title),
			redirect = COALESCE($3, redirect),
			description = COALESCE($4, description),
			updated_at = now()
		WHERE id = $1
		RETURNING `+linkColumns,
		id, params.Title, params.Redirect, params.Description,
	)

	link, err := scanLink(row)
	if err != nil {
		return Link{}, mapStoreError(op, err)
	}
	return link, nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "links.store.Delete"

	row := s.pool.QueryRow(ctx,
		"DELETE FROM links WHERE id = $1 RETURNING "+linkColumns, id)

	link, err := scanLink(row)
	if err != nil {
		return Link{}, mapStoreError(op, err)
	}
	return link, nil
}
