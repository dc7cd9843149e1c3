// Package folders manages the two singleton tables every conversations
// store carries alongside its per-conversation and per-message records: the
// $FOLDER_NAMES intern table (folder number ↔ name) and $COUNTED_FLAGS (the
// configured set of IMAP flags tracked per conversation). It also owns the
// "F"-prefixed per-folder status records, since renaming or deleting a
// folder name necessarily touches its status entry too.
package folders

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hkdb/convstore/internal/config"
	"github.com/hkdb/convstore/internal/kvengine"
	"github.com/hkdb/convstore/internal/logging"
	"github.com/hkdb/convstore/internal/record"
)

const (
	keyFolderNames  = "$FOLDER_NAMES"
	keyCountedFlags = "$COUNTED_FLAGS"
)

// Table is the in-session cache of $FOLDER_NAMES and $COUNTED_FLAGS,
// loaded once at session open and kept consistent with the underlying store
// as folders are created, renamed, and deleted.
type Table struct {
	db           *kvengine.DB
	names        []string
	countedFlags []string
	log          zerolog.Logger
}

// Load reads (or initialises) $COUNTED_FLAGS and $FOLDER_NAMES. The write
// transaction that reads $COUNTED_FLAGS is what forces lock acquisition,
// which kvengine.Open already performed to get this far.
func Load(db *kvengine.DB, cfg config.Config) (*Table, error) {
	t := &Table{db: db, log: logging.WithComponent("folders").With().Str("sess", db.ID()).Logger()}

	flagsRaw, err := db.Get([]byte(keyCountedFlags))
	switch err {
	case nil:
		t.countedFlags = record.DecodeCountedFlags(string(flagsRaw))
	case kvengine.ErrNotFound:
		t.countedFlags = append([]string(nil), cfg.CountedFlags...)
		if err := db.Put([]byte(keyCountedFlags), []byte(record.EncodeCountedFlags(t.countedFlags))); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	namesRaw, err := db.Get([]byte(keyFolderNames))
	switch err {
	case nil:
		names, derr := record.DecodeFolderNames(string(namesRaw))
		if derr != nil {
			t.log.Warn().Err(derr).Msg("corrupt $FOLDER_NAMES, starting empty")
			names = nil
		}
		t.names = names
	case kvengine.ErrNotFound:
		t.names = nil
	default:
		return nil, err
	}

	return t, nil
}

// CountedFlags returns the configured counted-flag names, in order. Index i
// here is the index of ConversationRecord.Counts[i].
func (t *Table) CountedFlags() []string {
	return append([]string(nil), t.countedFlags...)
}

// NumCountedFlags returns len(CountedFlags()).
func (t *Table) NumCountedFlags() int { return len(t.countedFlags) }

// ResetCountedFlags re-initialises $COUNTED_FLAGS from configuration,
// used during recount/repair.
func (t *Table) ResetCountedFlags(flags []string) error {
	t.countedFlags = append([]string(nil), flags...)
	return t.db.Put([]byte(keyCountedFlags), []byte(record.EncodeCountedFlags(t.countedFlags)))
}

// ClearNames empties $FOLDER_NAMES, used optionally during recount/repair.
func (t *Table) ClearNames() error {
	t.names = nil
	return t.persistNames()
}

// NameOf returns the folder name interned at num, or ("", false) if num is
// out of range or tombstoned.
func (t *Table) NameOf(num int32) (string, bool) {
	if num < 0 || int(num) >= len(t.names) {
		return "", false
	}
	name := t.names[num]
	if name == record.TombstoneName {
		return "", false
	}
	return name, true
}

// FolderNumber returns the interned number for name, creating it (reusing a
// tombstoned slot if one exists, else appending) and persisting
// $FOLDER_NAMES if it didn't already exist.
func (t *Table) FolderNumber(name string) (int32, error) {
	for i, n := range t.names {
		if n == name {
			return int32(i), nil
		}
	}

	slot := -1
	for i, n := range t.names {
		if n == record.TombstoneName {
			slot = i
			break
		}
	}

	if slot >= 0 {
		t.names[slot] = name
	} else {
		slot = len(t.names)
		t.names = append(t.names, name)
	}

	if err := t.persistNames(); err != nil {
		return 0, err
	}
	return int32(slot), nil
}

// Rename replaces from's slot with to and moves its "F" status record.
// Existing conversation records reference the folder by number, so they
// remain valid without rewriting.
func (t *Table) Rename(from, to string) error {
	idx, ok := t.indexOf(from)
	if !ok {
		return fmt.Errorf("folders: rename: %q not found", from)
	}
	t.names[idx] = to
	if err := t.persistNames(); err != nil {
		return err
	}
	return t.moveStatus(from, to)
}

// Delete tombstones from's slot and removes its "F" status record.
func (t *Table) Delete(from string) error {
	idx, ok := t.indexOf(from)
	if !ok {
		return fmt.Errorf("folders: delete: %q not found", from)
	}
	t.names[idx] = record.TombstoneName
	if err := t.persistNames(); err != nil {
		return err
	}
	return t.db.Delete(StatusKey(from))
}

func (t *Table) indexOf(name string) (int, bool) {
	for i, n := range t.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) persistNames() error {
	return t.db.Put([]byte(keyFolderNames), []byte(record.EncodeFolderNames(t.names)))
}

func (t *Table) moveStatus(from, to string) error {
	raw, err := t.db.Get(StatusKey(from))
	if err == kvengine.ErrNotFound {
		return t.db.Delete(StatusKey(from))
	}
	if err != nil {
		return err
	}
	if err := t.db.Put(StatusKey(to), raw); err != nil {
		return err
	}
	return t.db.Delete(StatusKey(from))
}

// StatusKey returns the "F"-prefixed status key for a folder name.
func StatusKey(name string) []byte {
	return append([]byte{'F'}, []byte(name)...)
}

// LoadStatus reads and decodes a folder's status record, defaulting to the
// zero value if absent.
func (t *Table) LoadStatus(name string) (record.FolderStatus, error) {
	raw, err := t.db.Get(StatusKey(name))
	if err == kvengine.ErrNotFound {
		return record.FolderStatus{}, nil
	}
	if err != nil {
		return record.FolderStatus{}, err
	}
	return record.DecodeFolderStatus(string(raw))
}

// SaveStatus encodes and writes a folder's status record.
func (t *Table) SaveStatus(name string, status record.FolderStatus) error {
	return t.db.Put(StatusKey(name), []byte(record.EncodeFolderStatus(status)))
}
