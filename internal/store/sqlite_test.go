package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-cli/internal/model"
)

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	st.now = func() time.Time { return fixedNow }
	return st
}

func TestNewSQLite_InvalidDSN(t *testing.T) {
	_, err := NewSQLite("/nonexistent/dir/subdir/test.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_UpsertInsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, model.ContactRecord{
		SubjectName: "Padaria Central",
		Phone:       "(19) 3862-1234",
		Website:     "https://padariacentral.com.br/",
	}))

	got, err := st.Get(ctx, "Padaria Central")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "(19) 3862-1234", got.Phone)
	assert.Equal(t, "https://padariacentral.com.br/", got.Website)
	assert.Empty(t, got.Email)
	assert.True(t, got.ExtractedAt.Equal(fixedNow), "extracted at %v", got.ExtractedAt)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	got, err := st.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpsertNeverClearsFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, model.ContactRecord{
		SubjectName: "Loja XYZ",
		Phone:       "(19) 3804-5566",
		Email:       "vendas@lojaxyz.com.br",
	}))
	first, err := st.Get(ctx, "Loja XYZ")
	require.NoError(t, err)

	st.now = func() time.Time { return fixedNow.Add(time.Hour) }
	require.NoError(t, st.Upsert(ctx, model.ContactRecord{
		SubjectName: "Loja XYZ",
		Website:     "https://lojaxyz.com.br",
		Email:       "",
	}))

	got, err := st.Get(ctx, "Loja XYZ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "(19) 3804-5566", got.Phone)
	assert.Equal(t, "vendas@lojaxyz.com.br", got.Email)
	assert.Equal(t, "https://lojaxyz.com.br", got.Website)
	assert.True(t, got.ExtractedAt.Equal(fixedNow))

	all, err := st.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_UpsertOverwritesPresentFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, model.ContactRecord{SubjectName: "Loja XYZ", Phone: "3804-5566"}))
	require.NoError(t, st.Upsert(ctx, model.ContactRecord{SubjectName: "Loja XYZ", Phone: "(19) 3804-5566"}))

	got, err := st.Get(ctx, "Loja XYZ")
	require.NoError(t, err)
	assert.Equal(t, "(19) 3804-5566", got.Phone)
}

func TestSQLite_NameMatchIsExact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, model.ContactRecord{SubjectName: "Loja XYZ"}))
	require.NoError(t, st.Upsert(ctx, model.ContactRecord{SubjectName: "loja xyz"}))

	all, err := st.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_QueryHasURI(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, rec := range []model.ContactRecord{
		{SubjectName: "A", Email: "a@a.com.br"},
		{SubjectName: "B", Website: "https://b.com.br"},
		{SubjectName: "C", SocialLink: "https://facebook.com/c"},
	} {
		require.NoError(t, st.Upsert(ctx, rec))
	}

	got, err := st.Query(ctx, Filter{HasURI: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].SubjectName)
	assert.Equal(t, "C", got[1].SubjectName)

	limited, err := st.Query(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "A", limited[0].SubjectName)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	empty, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, empty)

	for _, rec := range []model.ContactRecord{
		{SubjectName: "A", Email: "a@a.com.br", Phone: "3862-1234"},
		{SubjectName: "B", Website: "https://b.com.br", MessagingNumber: "(19) 99123-4567"},
		{SubjectName: "C", SocialLink: "https://facebook.com/c"},
		{SubjectName: "D"},
	} {
		require.NoError(t, st.Upsert(ctx, rec))
	}

	got, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 4, WithURI: 2, WithEmail: 1, WithMessaging: 1, WithPhone: 1, WithoutURI: 2}, got)
}

func TestSQLite_UpsertEmptyName(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.Upsert(context.Background(), model.ContactRecord{SubjectName: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

func TestSQLite_UpsertAfterClose(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Close())

	err := st.Upsert(context.Background(), model.ContactRecord{SubjectName: "Loja XYZ"})
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Loja XYZ", pe.Subject)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

func TestOpen_SQLite(t *testing.T) {
	repo, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	defer repo.Close() //nolint:errcheck

	require.NoError(t, repo.Upsert(context.Background(), model.ContactRecord{SubjectName: "X"}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestPersistenceError(t *testing.T) {
	inner := errors.New("disk full")
	err := persistErr("Padaria Central", inner)
	assert.True(t, errors.Is(err, model.ErrPersistence))
	assert.True(t, errors.Is(err, inner))
	assert.False(t, errors.Is(err, model.ErrNavigation))
	assert.Equal(t, `persist "Padaria Central": disk full`, err.Error())
}
