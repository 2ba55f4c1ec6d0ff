package fakestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-cognito-emulator/datastore/fakestore"
)

func TestFakeStore_SetEmptyPathReturnsError(t *testing.T) {
	store := fakestore.NewFakeStore(map[string]any{})

	require.Error(t, store.Set(nil, "value"))
	require.Error(t, store.Set([]string{}, "value"))
}

func TestFakeStore_ReturnedValuesAreStableSnapshots(t *testing.T) {
	store := fakestore.NewFakeStore(map[string]any{"Users": map[string]any{}})
	require.NoError(t, store.Set([]string{"Users", "alice"}, map[string]any{"Username": "alice"}))

	snapshot, err := store.Get("Users")
	require.NoError(t, err)

	require.NoError(t, store.Set([]string{"Users", "bob"}, map[string]any{"Username": "bob"}))

	users := snapshot.(map[string]any)
	require.Contains(t, users, "alice")
	require.NotContains(t, users, "bob")

	v, err := store.Get("Users", "bob")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Username": "bob"}, v)
}
