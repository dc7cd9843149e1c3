// Package kvengine implements the transactional ordered key/value façade: a
// single-writer, read-your-writes session over one physical database file
// per user, with ordered prefix iteration, commit/abort, and
// dump/undump/truncate.
//
// The backing store is a single SQLite table accessed through
// modernc.org/sqlite (pure Go, no cgo). Keys and values are both BLOBs in a
// WITHOUT ROWID table, so the primary-key btree gives byte-wise ordering —
// exactly what the record layout needs for prefix scans over "<", "B", "F"
// and "$"-prefixed keys.
package kvengine

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/hkdb/convstore/internal/config"
	"github.com/hkdb/convstore/internal/logging"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID;`

// DB is one session's handle onto a user's conversations store file. It
// holds exactly one write transaction for its entire lifetime.
type DB struct {
	id       string
	path     string
	sqlDB    *sql.DB
	tx       *sql.Tx
	fileLock *flock.Flock
	log      zerolog.Logger
	closed   bool
}

// ID returns the session's trace identifier, attached to every log line the
// session or its dependents emit.
func (db *DB) ID() string { return db.id }

// Open creates the database file if absent, acquires the process-wide and
// file-level exclusive lock for path, and begins the session's single write
// transaction. It does not itself initialise $COUNTED_FLAGS or
// $FOLDER_NAMES — that is the conversations-facade's job, kept out of this
// package so the engine stays agnostic of record layout.
func Open(path string, cfg config.Config) (*DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrBadName, path)
	}

	if !openPaths.acquire(abs) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, abs)
	}

	id := uuid.NewString()
	log := logging.WithComponent("kvengine").With().Str("sess", id).Str("path", abs).Logger()

	fl := flock.New(abs + ".lock")
	if err := acquireFileLock(fl, cfg.LockTimeoutMS); err != nil {
		openPaths.release(abs)
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, abs)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate", abs, cfg.LockTimeoutMS)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = fl.Unlock()
		openPaths.release(abs)
		return nil, fmt.Errorf("%w: open %s: %v", ErrIo, abs, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		_ = fl.Unlock()
		openPaths.release(abs)
		return nil, fmt.Errorf("%w: schema init: %v", ErrIo, err)
	}

	tx, err := beginImmediate(sqlDB, cfg.LockTimeoutMS)
	if err != nil {
		sqlDB.Close()
		_ = fl.Unlock()
		openPaths.release(abs)
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, abs)
	}

	log.Debug().Msg("opened")
	return &DB{id: id, path: abs, sqlDB: sqlDB, tx: tx, fileLock: fl, log: log}, nil
}

// acquireFileLock retries the advisory lock with exponential backoff,
// covering the transient-contention window between a prior session's
// process exit and its flock release finalising on some filesystems.
func acquireFileLock(fl *flock.Flock, timeoutMS int) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Duration(timeoutMS) * time.Millisecond
	return backoff.Retry(func() error {
		ok, err := fl.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return fmt.Errorf("lock held")
		}
		return nil
	}, b)
}

// beginImmediate starts a write transaction, retrying on SQLITE_BUSY the
// same way acquireFileLock retries the OS lock. The DSN's _txlock=immediate
// makes BeginTx issue BEGIN IMMEDIATE, so SQLite takes the write lock here
// rather than deferring it to the first write statement; the read against
// the kv table then runs inside that locked transaction.
func beginImmediate(sqlDB *sql.DB, timeoutMS int) (*sql.Tx, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Duration(timeoutMS) * time.Millisecond
	var tx *sql.Tx
	err := backoff.Retry(func() error {
		t, err := sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return err
		}
		if _, err := t.Exec("SELECT 1 FROM kv LIMIT 1"); err != nil {
			t.Rollback()
			return err
		}
		tx = t
		return nil
	}, b)
	return tx, err
}

// Commit flushes the session's transaction and releases the path.
func (db *DB) Commit() error {
	if db.closed {
		return fmt.Errorf("%w: commit on closed session", ErrInternal)
	}
	err := db.tx.Commit()
	db.close()
	if err != nil {
		db.log.Warn().Err(err).Msg("commit failed")
		return fmt.Errorf("%w: commit: %v", ErrIo, err)
	}
	db.log.Debug().Msg("committed")
	return nil
}

// Abort discards the transaction and releases the path. Always succeeds
// from the caller's point of view.
func (db *DB) Abort() error {
	if db.closed {
		return nil
	}
	_ = db.tx.Rollback()
	db.close()
	db.log.Debug().Msg("aborted")
	return nil
}

func (db *DB) close() {
	db.closed = true
	db.sqlDB.Close()
	_ = db.fileLock.Unlock()
	openPaths.release(db.path)
}
