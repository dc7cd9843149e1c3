package kvengine

import (
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the value stored for key, or ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	if db.closed {
		return nil, fmt.Errorf("%w: get on closed session", ErrInternal)
	}
	var v []byte
	err := db.tx.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get: %v", ErrIo, err)
	}
	return v, nil
}

// Put writes key/value, overwriting any prior value.
func (db *DB) Put(key, value []byte) error {
	if db.closed {
		return fmt.Errorf("%w: put on closed session", ErrInternal)
	}
	_, err := db.tx.Exec(`INSERT INTO kv (k, v) VALUES (?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrIo, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (db *DB) Delete(key []byte) error {
	if db.closed {
		return fmt.Errorf("%w: delete on closed session", ErrInternal)
	}
	if _, err := db.tx.Exec(`DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrIo, err)
	}
	return nil
}

// ForeachFunc is called once per key/value pair in ascending key order. It
// returns stop=true to end the scan early, or an error to abort it.
type ForeachFunc func(key, value []byte) (stop bool, err error)

// Foreach iterates, in ascending key order, every entry whose first byte
// equals prefix. This is the only range query the record layer needs: the
// "<" family for msgids, "B" for conversations, "F" for folder status, and
// exact lookups (via Get) for the "$"-prefixed singleton keys.
func (db *DB) Foreach(prefix byte, fn ForeachFunc) error {
	if db.closed {
		return fmt.Errorf("%w: foreach on closed session", ErrInternal)
	}
	lo := []byte{prefix}
	var hi []byte
	if prefix < 0xff {
		hi = []byte{prefix + 1}
	}

	var rows *sql.Rows
	var err error
	if hi != nil {
		rows, err = db.tx.Query(`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k ASC`, lo, hi)
	} else {
		rows, err = db.tx.Query(`SELECT k, v FROM kv WHERE k >= ? ORDER BY k ASC`, lo)
	}
	if err != nil {
		return fmt.Errorf("%w: foreach: %v", ErrIo, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("%w: foreach scan: %v", ErrIo, err)
		}
		stop, err := fn(k, v)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return rows.Err()
}
