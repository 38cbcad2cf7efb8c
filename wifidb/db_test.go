package wifidb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestEmptySettings(t *testing.T) {
	db := openTestDB(t)

	name, err := db.GetName()
	require.NoError(t, err)
	assert.Equal(t, "", name)

	force, err := db.GetForceWifi()
	require.NoError(t, err)
	assert.False(t, force)

	last, err := db.GetLastNetwork()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetName("kitchen"))
	require.NoError(t, db.SetForceWifi(true))
	require.NoError(t, db.SetLastNetwork(&LastNetwork{SSID: "HomeNet", Security: "WPA2"}))

	name, err := db.GetName()
	require.NoError(t, err)
	assert.Equal(t, "kitchen", name)

	force, err := db.GetForceWifi()
	require.NoError(t, err)
	assert.True(t, force)

	last, err := db.GetLastNetwork()
	require.NoError(t, err)
	assert.Equal(t, &LastNetwork{SSID: "HomeNet", Security: "WPA2"}, last)

	require.NoError(t, db.SetLastNetwork(nil))

	last, err = db.GetLastNetwork()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestReopenKeepsSettings(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.SetName("porch"))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	name, err := db.GetName()
	require.NoError(t, err)
	assert.Equal(t, "porch", name)
}
