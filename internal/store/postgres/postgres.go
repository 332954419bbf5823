// Package postgres stores sketchbooks as rows with their canvases in a JSONB column.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/store/migrations"
	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/internal/user"
)

const uniqueViolation = "23505"

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, verifies the connection and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().Msg("connected to postgres")
	return &Store{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	canvases, err := json.Marshal(sb.Canvases)
	if err != nil {
		return fmt.Errorf("failed to encode canvases: %w", err)
	}

	query := `
	INSERT INTO sketchbooks (id, title, canvases, created_at, last_modified)
	VALUES ($1, $2, $3::jsonb, $4, $5)
	`

	_, err = s.pool.Exec(ctx, query, sb.ID, sb.Title, string(canvases), sb.CreatedAt, sb.LastModified)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create sketchbook: %w", err)
	}
	return nil
}

func scanSketchbook(row pgx.Row) (*sketchbook.Sketchbook, error) {
	var (
		sb  sketchbook.Sketchbook
		raw []byte
	)
	if err := row.Scan(&sb.ID, &sb.Title, &raw, &sb.CreatedAt, &sb.LastModified); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &sb.Canvases); err != nil {
		return nil, fmt.Errorf("failed to decode canvases of %s: %w", sb.ID, err)
	}
	if sb.Canvases == nil {
		sb.Canvases = []*canvas.Canvas{}
	}
	return &sb, nil
}

func (s *Store) GetSketchbook(ctx context.Context, id string) (*sketchbook.Sketchbook, error) {
	query := `
	SELECT id, title, canvases, created_at, last_modified
	FROM sketchbooks
	WHERE id = $1
	`

	sb, err := scanSketchbook(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sketchbook: %w", err)
	}
	return sb, nil
}

func (s *Store) ListSketchbooks(ctx context.Context) ([]*sketchbook.Sketchbook, error) {
	query := `
	SELECT id, title, canvases, created_at, last_modified
	FROM sketchbooks
	ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sketchbooks: %w", err)
	}
	defer rows.Close()

	sketchbooks := []*sketchbook.Sketchbook{}
	for rows.Next() {
		sb, err := scanSketchbook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sketchbook: %w", err)
		}
		sketchbooks = append(sketchbooks, sb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sketchbooks: %w", err)
	}
	return sketchbooks, nil
}

func (s *Store) SaveSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	canvases, err := json.Marshal(sb.Canvases)
	if err != nil {
		return fmt.Errorf("failed to encode canvases: %w", err)
	}

	query := `
	UPDATE sketchbooks
	SET title = $2, canvases = $3::jsonb, last_modified = $4
	WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, sb.ID, sb.Title, string(canvases), sb.LastModified)
	if err != nil {
		return fmt.Errorf("failed to save sketchbook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSketchbook(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sketchbooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sketchbook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindSketchbookByCanvas(ctx context.Context, canvasID string) (*sketchbook.Sketchbook, error) {
	query := `
	SELECT id, title, canvases, created_at, last_modified
	FROM sketchbooks
	WHERE canvases @> jsonb_build_array(jsonb_build_object('id', $1::text))
	LIMIT 1
	`

	sb, err := scanSketchbook(s.pool.QueryRow(ctx, query, canvasID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find canvas: %w", err)
	}
	return sb, nil
}

func (s *Store) RecentCanvases(ctx context.Context, limit int) ([]*sketchbook.CanvasRef, error) {
	query := `
	SELECT s.id, s.title, c.value
	FROM sketchbooks s
	CROSS JOIN LATERAL jsonb_array_elements(s.canvases) AS c(value)
	ORDER BY (c.value->>'lastModified')::timestamptz DESC
	LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent canvases: %w", err)
	}
	defer rows.Close()

	refs := []*sketchbook.CanvasRef{}
	for rows.Next() {
		var (
			ref sketchbook.CanvasRef
			raw []byte
		)
		if err := rows.Scan(&ref.SketchbookID, &ref.SketchbookTitle, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan canvas: %w", err)
		}
		if err := json.Unmarshal(raw, &ref.Canvas); err != nil {
			return nil, fmt.Errorf("failed to decode canvas: %w", err)
		}
		refs = append(refs, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get recent canvases: %w", err)
	}
	return refs, nil
}

func (s *Store) UpsertCoordinates(ctx context.Context, rec *coordinates.Record) error {
	query := `
	INSERT INTO canvas_coordinates (canvas_id, latitude, longitude, timestamp)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (canvas_id) DO UPDATE
	SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, timestamp = EXCLUDED.timestamp
	`

	if _, err := s.pool.Exec(ctx, query, rec.CanvasID, rec.Latitude, rec.Longitude, rec.Timestamp); err != nil {
		return fmt.Errorf("failed to upsert coordinates: %w", err)
	}
	return nil
}

func (s *Store) GetCoordinates(ctx context.Context, canvasID string) (*coordinates.Record, error) {
	query := `
	SELECT canvas_id, latitude, longitude, timestamp
	FROM canvas_coordinates
	WHERE canvas_id = $1
	`

	var rec coordinates.Record
	err := s.pool.QueryRow(ctx, query, canvasID).Scan(&rec.CanvasID, &rec.Latitude, &rec.Longitude, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coordinates: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListCoordinates(ctx context.Context) ([]*coordinates.Record, error) {
	query := `
	SELECT canvas_id, latitude, longitude, timestamp
	FROM canvas_coordinates
	ORDER BY canvas_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinates: %w", err)
	}
	defer rows.Close()

	records := []*coordinates.Record{}
	for rows.Next() {
		var rec coordinates.Record
		if err := rows.Scan(&rec.CanvasID, &rec.Latitude, &rec.Longitude, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan coordinates: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list coordinates: %w", err)
	}
	return records, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, username, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
	SELECT id, username, email, password_hash, created_at
	FROM users
	WHERE email = $1
	`

	var u user.User
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
