package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time checks
var (
	_ store.Store     = (*PostgresStore)(nil)
	_ store.UserStore = (*PostgresStore)(nil)
)

type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

type PostgresStore struct {
	db *pgxpool.Pool
}

// Open creates the pool and pings it once. Only configuration errors fail.
func Open(ctx context.Context, cfg Config) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// The pool reconnects on demand, so an unreachable database only fails
	// individual calls until it comes back.
	if err := pool.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "postgres not reachable yet, keeping pool", "error", err)
	}

	return NewPostgresStore(pool), nil
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		slog.ErrorContext(ctx, "query user by email failed", "error", err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, hashed_password)
		VALUES ($1, $2, $3)`
	// created_at and updated_at have database defaults

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			slog.ErrorContext(ctx, "insert user failed",
				"code", pgErr.Code,
				"message", pgErr.Message,
				"detail", pgErr.Detail)
		} else {
			slog.ErrorContext(ctx, "insert user failed", "error", err)
		}
		return fmt.Errorf("database error creating user: %w", err)
	}

	return nil
}
