// Package msgindex implements the message-id index: the "<...>" keyed
// records mapping a msgid to its conversation id and a last-write
// timestamp used for time-based pruning.
package msgindex

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/hkdb/convstore/internal/kvengine"
	"github.com/hkdb/convstore/internal/logging"
	"github.com/hkdb/convstore/internal/record"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

// Store provides msgid-index persistence operations.
type Store struct {
	db  *kvengine.DB
	log zerolog.Logger
}

// NewStore creates a msgid Store bound to an open session.
func NewStore(db *kvengine.DB) *Store {
	return &Store{db: db, log: logging.WithComponent("msgindex").With().Str("sess", db.ID()).Logger()}
}

// Set validates msgid and writes "0 <cid-hex> <now>", refreshing the stamp
// even when cid is unchanged from a prior Set.
func (s *Store) Set(msgid string, cid record.CID) error {
	if err := record.ValidateMsgID(msgid); err != nil {
		return err
	}
	entry := record.MsgidEntry{CID: cid, Stamp: nowFunc().Unix()}
	return s.db.Put([]byte(msgid), []byte(record.EncodeMsgidEntry(entry)))
}

// Get returns the conversation msgid points to, or the null conversation if
// absent. It returns ErrInvalidIdentifier only for a malformed msgid, never
// for a merely-absent one.
func (s *Store) Get(msgid string) (record.CID, error) {
	if err := record.ValidateMsgID(msgid); err != nil {
		return record.NilCID, err
	}
	raw, err := s.db.Get([]byte(msgid))
	if err == kvengine.ErrNotFound {
		return record.NilCID, nil
	}
	if err != nil {
		return record.NilCID, err
	}
	entry, err := record.DecodeMsgidEntry(string(raw))
	if err != nil {
		s.log.Warn().Err(err).Str("msgid", msgid).Msg("corrupt msgid entry")
		return record.NilCID, nil
	}
	return entry.CID, nil
}

// Prune deletes every msgid record whose stamp is older than threshold
// (unix seconds), iterating the full "<" family under the session's single
// transaction. The whole scan commits or aborts atomically with the rest of
// the transaction — the caller decides which.
func (s *Store) Prune(threshold int64) (seen, deleted int, err error) {
	var toDelete [][]byte

	err = s.db.Foreach('<', func(key, value []byte) (bool, error) {
		seen++
		entry, derr := record.DecodeMsgidEntry(string(value))
		if derr != nil {
			s.log.Warn().Err(derr).Str("key", string(key)).Msg("corrupt msgid entry during prune")
			return false, nil
		}
		if entry.Stamp < threshold {
			k := append([]byte(nil), key...)
			toDelete = append(toDelete, k)
		}
		return false, nil
	})
	if err != nil {
		return seen, deleted, err
	}

	for _, k := range toDelete {
		if err := s.db.Delete(k); err != nil {
			return seen, deleted, err
		}
		deleted++
	}
	return seen, deleted, nil
}

// RenameAll rewrites every msgid record pointing at from to point at to
// instead, refreshing each stamp, and returns the number rewritten.
func (s *Store) RenameAll(from, to record.CID) (int, error) {
	var matching [][]byte

	err := s.db.Foreach('<', func(key, value []byte) (bool, error) {
		entry, derr := record.DecodeMsgidEntry(string(value))
		if derr != nil {
			s.log.Warn().Err(derr).Str("key", string(key)).Msg("corrupt msgid entry during rename")
			return false, nil
		}
		if entry.CID == from {
			k := append([]byte(nil), key...)
			matching = append(matching, k)
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}

	renamed := 0
	for _, k := range matching {
		if err := s.Set(string(k), to); err != nil {
			return renamed, err
		}
		renamed++
	}
	return renamed, nil
}
