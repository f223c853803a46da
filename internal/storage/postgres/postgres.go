// Package postgres persists expenses and users in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"flux/internal/core"
	"flux/internal/identity"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var expenseColumns = []string{"id", "user_id", "amount", "category", "description", "expense_date", "created_at"}

type Repository struct {
	pool *pgxpool.Pool
}

// NewPool opens a pool and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRepository migrates the schema and opens the pool.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations applies the embedded schema using the pgx5 migrate driver.
func RunMigrations(databaseURL string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, MigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrateURL rewrites a postgres:// URL to the pgx5:// scheme the migrate
// driver registers.
func MigrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Find(ctx context.Context, owner string, from, to core.Date) ([]core.Expense, error) {
	query, args, err := psql.Select(expenseColumns...).
		From("expenses").
		Where(sq.Eq{"user_id": owner}).
		Where(sq.GtOrEq{"expense_date": from.Time}).
		Where(sq.LtOrEq{"expense_date": to.Time}).
		OrderBy("expense_date DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) Insert(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("invalid expense: %w", err)
	}
	var desc *string
	if e.Description != "" {
		desc = &e.Description
	}
	id := uuid.New()
	query, args, err := psql.Insert("expenses").
		Columns("id", "user_id", "amount", "category", "description", "expense_date", "created_at").
		Values(id, e.OwnerID, int64(e.Amount), string(core.NormalizeCategory(e.Category)), desc, e.Date.Time, e.CreatedAt).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to postgres", "id", id.String(), "amount", int64(e.Amount))
	return id.String(), nil
}

// DeleteByID removes the owner's expense and returns the row as it was.
func (r *Repository) DeleteByID(ctx context.Context, owner, id string) (core.Expense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Expense{}, core.ErrNotFound
	}
	query, args, err := psql.Delete("expenses").
		Where(sq.Eq{"id": id, "user_id": owner}).
		Suffix("RETURNING " + strings.Join(expenseColumns, ", ")).
		ToSql()
	if err != nil {
		return core.Expense{}, fmt.Errorf("build delete: %w", err)
	}
	e, err := scanExpense(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	return e, nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e        core.Expense
		id, uid  uuid.UUID
		amount   int64
		category string
		desc     *string
		date     time.Time
	)
	if err := row.Scan(&id, &uid, &amount, &category, &desc, &date, &e.CreatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.ID = id.String()
	e.OwnerID = uid.String()
	e.Amount = core.Money(amount)
	e.Category = core.NormalizeCategory(core.CategoryID(category))
	if desc != nil {
		e.Description = *desc
	}
	e.Date = core.DateOf(date)
	return e, nil
}

func (r *Repository) CreateUser(ctx context.Context, u identity.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "email", "password_hash", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	query, args, err := psql.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return identity.User{}, fmt.Errorf("build query: %w", err)
	}
	var (
		u  identity.User
		id uuid.UUID
	)
	err = r.pool.QueryRow(ctx, query, args...).Scan(&id, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.User{}, identity.ErrUserNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("query user: %w", err)
	}
	u.ID = id.String()
	return u, nil
}
