package stockstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensecore/config"
	"dispensecore/hub"
	"dispensecore/store"
)

// Tests run without Redis; the manager must behave identically on the
// SQL fallback path.
func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewManager(db, nil)
}

func TestManagerCreateAndList(t *testing.T) {
	m := testManager(t)

	b, err := m.CreatePill("Ibuprofen", hub.PillSolid, 5)
	require.NoError(t, err)
	a, err := m.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)

	pills, err := m.ListPills()
	require.NoError(t, err)
	require.Len(t, pills, 2)
	assert.Equal(t, b.ID, pills[0].ID)
	assert.Equal(t, a.ID, pills[1].ID)
}

func TestManagerAdjustAndDelete(t *testing.T) {
	m := testManager(t)
	p, err := m.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)

	p, err = m.AdjustAmount(p.ID, -4)
	require.NoError(t, err)
	require.NotNil(t, p.Amount)
	assert.Equal(t, int64(6), *p.Amount)

	require.NoError(t, m.DeletePill(p.ID))
	_, err = m.GetPill(p.ID)
	assert.Error(t, err)
}

func TestManagerSyncWithoutRedisIsNoOp(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.SyncRedisFromSQL())
	m.RefreshAll()
}
