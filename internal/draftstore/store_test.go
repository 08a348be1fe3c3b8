package draftstore

import (
	"context"
	"os"
	"testing"
	"time"

	"eventwizard/internal/drafts"
	"eventwizard/internal/shared/config"
	"eventwizard/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// exerciseStore runs the DraftStore contract against s
func exerciseStore(t *testing.T, s drafts.DraftStore) {
	t.Helper()
	ctx := context.Background()
	key := "eventwizard:drafts:test-user:createEventData"

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, key+"-missing")
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	})

	t.Run("set get overwrite delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, key, []byte(`{"name":"Gala"}`)))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Gala"}`, string(got))

		require.NoError(t, s.Set(ctx, key, []byte(`{"name":"Gala 2025"}`)))
		got, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Gala 2025"}`, string(got))

		require.NoError(t, s.Delete(ctx, key))
		_, err = s.Get(ctx, key)
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	})

	t.Run("delete of a missing key", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, key+"-never-set"))
	})

	t.Run("keys do not collide", func(t *testing.T) {
		editA := "eventwizard:drafts:test-user:editEventData_a"
		editB := "eventwizard:drafts:test-user:editEventData_b"
		require.NoError(t, s.Set(ctx, editA, []byte(`{"name":"A"}`)))
		require.NoError(t, s.Set(ctx, editB, []byte(`{"name":"B"}`)))

		got, err := s.Get(ctx, editA)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"A"}`, string(got))

		require.NoError(t, s.Delete(ctx, editA))
		require.NoError(t, s.Delete(ctx, editB))
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemory(time.Hour))
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte(`{}`)))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, drafts.ErrDraftNotFound)

	removed, err := m.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestMemory_CopiesValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0)

	value := []byte(`{"name":"Gala"}`)
	require.NoError(t, m.Set(ctx, "k", value))
	value[2] = 'X'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Gala"}`, string(got))
}

func TestBadger(t *testing.T) {
	t.Parallel()

	b, err := OpenBadger(t.TempDir(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	exerciseStore(t, b)
	assert.NoError(t, b.Ping(context.Background()))

	require.NoError(t, b.Close())
	assert.Error(t, b.Ping(context.Background()))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis draft store tests")
	}

	client, err := cache.Connect(context.Background(), cache.Config{Address: addr})
	if err != nil {
		t.Skipf("skipping Redis draft store tests: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(cache.NewService(client), time.Minute)
	exerciseStore(t, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres draft store tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Skipf("skipping Postgres draft store tests: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&DraftRecord{}))
	require.NoError(t, db.Exec("DELETE FROM wizard_drafts").Error)

	s := NewPostgres(db, time.Hour)
	exerciseStore(t, s)
	assert.NoError(t, s.Ping(context.Background()))

	expired := NewPostgres(db, -time.Minute)
	require.NoError(t, expired.Set(context.Background(), "stale", []byte(`{}`)))
	_, err = s.Get(context.Background(), "stale")
	assert.ErrorIs(t, err, drafts.ErrDraftNotFound)

	removed, err := s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Drafts: config.DraftsConfig{Backend: config.DraftBackendMemory}}
	s, err := New(cfg, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	cfg.Drafts.Backend = config.DraftBackendRedis
	_, err = New(cfg, Deps{})
	assert.Error(t, err)

	cfg.Drafts.Backend = config.DraftBackendPostgres
	_, err = New(cfg, Deps{})
	assert.Error(t, err)

	cfg.Drafts.Backend = "etcd"
	_, err = New(cfg, Deps{})
	assert.Error(t, err)
}
