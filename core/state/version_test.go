package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/storage"
)

func TestEnsureStateVersion(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	require.NoError(t, EnsureStateVersion(db, false), "empty database")

	mgr := NewManager(db)
	require.NoError(t, mgr.SetStateVersion(StateVersion))
	require.NoError(t, mgr.Commit())
	require.NoError(t, EnsureStateVersion(db, false))

	version, ok, err := NewManager(db).StateVersion()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateVersion, version)

	require.NoError(t, mgr.SetStateVersion(StateVersion+1))
	require.NoError(t, mgr.Commit())
	err = EnsureStateVersion(db, false)
	require.True(t, errors.Is(err, ErrStateVersionMismatch))
	require.NoError(t, EnsureStateVersion(db, true))
}

func TestEnsureStateVersionRequiresDatabase(t *testing.T) {
	require.Error(t, EnsureStateVersion(nil, false))
}
