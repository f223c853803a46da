package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux/internal/config"
	"flux/internal/core"
	"flux/internal/identity"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://localhost/flux"})
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.Equal(t, "postgres://localhost/flux", cfg.DatabaseURL)
}

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend} {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("sheets").IsValid())
}

func exerciseBackend(t *testing.T, res *BackendResult) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, res.Ping(ctx))

	require.NoError(t, res.Users.CreateUser(ctx, identity.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}))
	u, err := res.Users.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	d := core.NewDate(2025, 3, 10)
	id, err := res.Records.Insert(ctx, core.Expense{OwnerID: "u1", Amount: 1000, Category: core.CategoryFood, Description: "tea", Date: d, CreatedAt: time.Now()})
	require.NoError(t, err)

	got, err := res.Records.Find(ctx, "u1", d, d)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	removed, err := res.Records.DeleteByID(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, d.String(), removed.Date.String())
	_, err = res.Records.DeleteByID(ctx, "u1", id)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, res.Cleanup())
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	exerciseBackend(t, res)
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flux.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	exerciseBackend(t, res)
}

func TestCreateBackend_Errors(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.ErrorContains(t, err, "unsupported backend type")

	_, err = f.CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)

	_, err = f.CreateBackend(context.Background(), Config{Type: PostgresBackend})
	assert.ErrorContains(t, err, "DATABASE_URL")
}
