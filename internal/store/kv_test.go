package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "mygit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.Get(BucketStage, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Put(BucketStage, "a.txt", "deadbeef"))
	v, ok, err := db.Get(BucketStage, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", v)

	require.NoError(t, db.Delete(BucketStage, "a.txt"))
	require.NoError(t, db.Delete(BucketStage, "a.txt"))

	n, err := db.Count(BucketStage)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReplace(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put(BucketStage, "old", "1"))

	require.NoError(t, db.Replace(BucketStage, map[string]string{"x": "2", "y": "3"}))
	all, err := db.All(BucketStage)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "2", "y": "3"}, all)

	require.NoError(t, db.Replace(BucketStage, nil))
	all, err = db.All(BucketStage)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBucketsAreIndependent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put(BucketStage, "k", "stage"))
	require.NoError(t, db.PutConfig("k", "config"))

	require.NoError(t, db.Replace(BucketStage, nil))

	v, err := db.GetConfig("k")
	require.NoError(t, err)
	assert.Equal(t, "config", v)
}

func TestConfig(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetConfig("remote.origin")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, db.RemoveConfig("remote.origin"), ErrKeyNotFound)

	require.NoError(t, db.PutConfig("remote.origin", "/srv/origin"))
	require.NoError(t, db.PutConfig("remote.backup", "/srv/backup"))
	require.NoError(t, db.PutConfig("user.name", "someone"))

	keys, values, err := db.ConfigWithPrefix("remote.")
	require.NoError(t, err)
	assert.Equal(t, []string{"backup", "origin"}, keys)
	assert.Equal(t, "/srv/origin", values["origin"])

	require.NoError(t, db.RemoveConfig("remote.origin"))
	keys, _, err = db.ConfigWithPrefix("remote.")
	require.NoError(t, err)
	assert.Equal(t, []string{"backup"}, keys)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mygit.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(BucketMerge, "state", "{}"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get(BucketMerge, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", v)
}
