package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerRow struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	ProjectID uuid.UUID `gorm:"type:text"`
	Kind      string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	return conn
}

func seed(t *testing.T, conn *gorm.DB, projectID uuid.UUID, kinds ...string) []ledgerRow {
	t.Helper()
	rows := make([]ledgerRow, 0, len(kinds))
	for _, kind := range kinds {
		rows = append(rows, ledgerRow{ID: uuid.New(), ProjectID: projectID, Kind: kind})
	}
	require.NoError(t, conn.Create(&rows).Error)
	return rows
}

func TestBaseDBBindsContext(t *testing.T) {
	conn := openDB(t)
	base := NewBase(conn)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)

	assert.Same(t, conn, base.DB(nil))
}

func TestLockedSkipsRowLockOnSQLite(t *testing.T) {
	conn := openDB(t)
	rows := seed(t, conn, uuid.New(), "income")

	got, err := FindByID[ledgerRow](NewBase(conn).Locked(context.Background()), rows[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "income", got.Kind)
}

func TestCountAndExists(t *testing.T) {
	conn := openDB(t)
	projectID := uuid.New()
	seed(t, conn, projectID, "income", "income", "expense")
	base := NewBase(conn)
	ctx := context.Background()

	n, err := base.Count(ctx, &ledgerRow{}, "project_id = ? AND kind = ?", projectID, "income")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := base.Exists(ctx, &ledgerRow{}, "project_id = ? AND kind = ?", projectID, "expense")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = base.Exists(ctx, &ledgerRow{}, "project_id = ?", uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByIDMissingRowIsNil(t *testing.T) {
	conn := openDB(t)

	got, err := FindByID[ledgerRow](conn, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFirstAppliesConditions(t *testing.T) {
	conn := openDB(t)
	projectID := uuid.New()
	seed(t, conn, projectID, "income", "expense")

	got, err := First[ledgerRow](conn.Where("project_id = ?", projectID), "kind = ?", "expense")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "expense", got.Kind)

	_, err = First[ledgerRow](conn.Table("missing_table"))
	assert.Error(t, err)
}
