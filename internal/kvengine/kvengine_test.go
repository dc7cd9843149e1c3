package kvengine

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkdb/convstore/internal/config"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := Open(path, config.Default())
	require.NoError(t, err)
	return db, path
}

func TestOpenCommitReopen(t *testing.T) {
	db, path := openTestDB(t)
	require.NoError(t, db.Put([]byte("Bkey"), []byte("value")))
	require.NoError(t, db.Commit())

	db2, err := Open(path, config.Default())
	require.NoError(t, err)
	defer db2.Abort()

	v, err := db2.Get([]byte("Bkey"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestAbortDiscardsWrites(t *testing.T) {
	db, path := openTestDB(t)
	require.NoError(t, db.Put([]byte("Bkey"), []byte("value")))
	require.NoError(t, db.Abort())

	db2, err := Open(path, config.Default())
	require.NoError(t, err)
	defer db2.Abort()

	_, err = db2.Get([]byte("Bkey"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecondOpenOfSamePathFails(t *testing.T) {
	db, path := openTestDB(t)
	defer db.Abort()

	_, err := Open(path, config.Default())
	assert.ErrorIs(t, err, ErrAlreadyOpen)
}

func TestPutOverwritesAndDeleteRemoves(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Abort()

	require.NoError(t, db.Put([]byte("Bk"), []byte("v1")))
	require.NoError(t, db.Put([]byte("Bk"), []byte("v2")))
	v, err := db.Get([]byte("Bk"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, db.Delete([]byte("Bk")))
	_, err = db.Get([]byte("Bk"))
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, db.Delete([]byte("Bk")))
}

func TestForeachOrderedByPrefix(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Abort()

	require.NoError(t, db.Put([]byte("Bbbb"), []byte("2")))
	require.NoError(t, db.Put([]byte("Baaa"), []byte("1")))
	require.NoError(t, db.Put([]byte("Fxxx"), []byte("other")))

	var keys []string
	require.NoError(t, db.Foreach('B', func(key, value []byte) (bool, error) {
		keys = append(keys, string(key))
		return false, nil
	}))
	assert.Equal(t, []string{"Baaa", "Bbbb"}, keys)
}

func TestForeachStopsEarly(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Abort()

	require.NoError(t, db.Put([]byte("B1"), []byte("a")))
	require.NoError(t, db.Put([]byte("B2"), []byte("b")))

	count := 0
	require.NoError(t, db.Foreach('B', func(key, value []byte) (bool, error) {
		count++
		return true, nil
	}))
	assert.Equal(t, 1, count)
}

func TestDumpUndumpRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Abort()

	require.NoError(t, db.Put([]byte("Bkey one"), []byte(`value "with quotes"`)))
	require.NoError(t, db.Put([]byte("Fkey2"), []byte("plain")))

	var buf bytes.Buffer
	require.NoError(t, db.Dump(&buf))

	require.NoError(t, db.Truncate())
	_, err := db.Get([]byte("Bkey one"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Undump(&buf))
	v, err := db.Get([]byte("Bkey one"))
	require.NoError(t, err)
	assert.Equal(t, `value "with quotes"`, string(v))

	v2, err := db.Get([]byte("Fkey2"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(v2))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", config.Default())
	assert.ErrorIs(t, err, ErrBadName)
}
