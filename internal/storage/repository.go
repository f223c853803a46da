// Package storage persists expenses and users in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"flux/internal/core"
	"flux/internal/identity"

	_ "modernc.org/sqlite"
)

// Fixed-width so that created_at sorts lexicographically.
const timestampLayout = "2006-01-02 15:04:05.000000000"

var expenseColumns = []string{"id", "user_id", "amount", "category", "description", "expense_date", "created_at"}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Find implements records.Finder.
func (r *SQLiteRepository) Find(ctx context.Context, owner string, from, to core.Date) ([]core.Expense, error) {
	query, args, err := sq.Select(expenseColumns...).
		From("expenses").
		Where(sq.Eq{"user_id": owner}).
		Where(sq.GtOrEq{"expense_date": from.String()}).
		Where(sq.LtOrEq{"expense_date": to.String()}).
		OrderBy("expense_date DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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

// Insert implements records.Inserter.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("invalid expense: %w", err)
	}
	id := uuid.NewString()
	query, args, err := sq.Insert("expenses").
		Columns(expenseColumns...).
		Values(id, e.OwnerID, int64(e.Amount), string(core.NormalizeCategory(e.Category)),
			nullString(e.Description), e.Date.String(), e.CreatedAt.UTC().Format(timestampLayout)).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"amount", int64(e.Amount),
		"category", e.Category,
		"date", e.Date.String())
	return id, nil
}

// DeleteByID implements records.Deleter.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, owner, id string) (core.Expense, error) {
	query, args, err := sq.Delete("expenses").
		Where(sq.Eq{"id": id, "user_id": owner}).
		Suffix("RETURNING " + strings.Join(expenseColumns, ", ")).
		ToSql()
	if err != nil {
		return core.Expense{}, fmt.Errorf("build delete: %w", err)
	}
	e, err := scanExpense(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id, "date", e.Date.String())
	return e, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u identity.User) error {
	query, args, err := sq.Insert("users").
		Columns("id", "email", "password_hash", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(timestampLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	query, args, err := sq.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return identity.User{}, fmt.Errorf("build query: %w", err)
	}

	var (
		u       identity.User
		created string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrUserNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timestampLayout, created)
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e        core.Expense
		amount   int64
		category string
		desc     sql.NullString
		date     string
		created  string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &amount, &category, &desc, &date, &created); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense_date %q: %w", date, err)
	}
	e.Amount = core.Money(amount)
	e.Category = core.NormalizeCategory(core.CategoryID(category))
	e.Description = desc.String
	e.Date = d
	e.CreatedAt, _ = time.Parse(timestampLayout, created)
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
