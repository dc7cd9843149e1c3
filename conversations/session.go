// Package conversations is the public façade tying together the
// transactional K/V engine, record codec, conversation aggregates, msgid
// index, and rename operations into a single Session lifecycle: a session
// is created by OpenPath and destroyed by Commit or Abort — the only exit
// paths.
package conversations

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/hkdb/convstore/internal/config"
	"github.com/hkdb/convstore/internal/conversation"
	"github.com/hkdb/convstore/internal/folders"
	"github.com/hkdb/convstore/internal/kvengine"
	"github.com/hkdb/convstore/internal/logging"
	"github.com/hkdb/convstore/internal/msgindex"
	"github.com/hkdb/convstore/internal/record"
	"github.com/hkdb/convstore/internal/rename"
)

// Re-exported error values and types so callers never need to import the
// internal packages directly.
var (
	ErrAlreadyOpen       = kvengine.ErrAlreadyOpen
	ErrBadName           = kvengine.ErrBadName
	ErrNotFound          = kvengine.ErrNotFound
	ErrIo                = kvengine.ErrIo
	ErrInternal          = kvengine.ErrInternal
	ErrBadFormat         = record.ErrBadFormat
	ErrInvalidIdentifier = record.ErrInvalidIdentifier
	ErrInvalidRename     = rename.ErrInvalidRename
)

type (
	CID          = record.CID
	Conversation = conversation.Conversation
	Folder       = conversation.Folder
	Sender       = conversation.Sender
	MailboxRetag = rename.MailboxRetag
)

// NilCID is the null conversation.
const NilCID = record.NilCID

// Session is one handle to a user's conversations store. It holds exactly
// one write transaction at a time against the underlying database.
type Session struct {
	db      *kvengine.DB
	folders *folders.Table
	convs   *conversation.Store
	msgidx  *msgindex.Store
	renamer *rename.Renamer
	log     zerolog.Logger
}

// OpenPath opens (creating if absent) the conversations store at path. It
// acquires the process-wide and file-level lock, begins the session's
// write transaction, and loads $COUNTED_FLAGS (initialising it from cfg if
// this is a fresh store) and $FOLDER_NAMES.
func OpenPath(path string, cfg config.Config) (*Session, error) {
	db, err := kvengine.Open(path, cfg)
	if err != nil {
		return nil, err
	}

	ft, err := folders.Load(db, cfg)
	if err != nil {
		_ = db.Abort()
		return nil, err
	}

	convs := conversation.NewStore(db, ft)
	msgidx := msgindex.NewStore(db)
	renamer := rename.NewRenamer(msgidx, convs, ft, db.ID())

	return &Session{
		db:      db,
		folders: ft,
		convs:   convs,
		msgidx:  msgidx,
		renamer: renamer,
		log:     logging.WithComponent("conversations").With().Str("sess", db.ID()).Logger(),
	}, nil
}

// Commit flushes the underlying transaction and closes the session.
func (s *Session) Commit() error { return s.db.Commit() }

// Abort discards the transaction and closes the session. Always succeeds
// from the caller's point of view.
func (s *Session) Abort() error { return s.db.Abort() }

// NewConversation allocates an empty, dirty conversation aggregate for cid.
func (s *Session) NewConversation(cid CID) *Conversation { return s.convs.New(cid) }

// LoadConversation reads cid's aggregate, or returns (nil, nil) if absent.
func (s *Session) LoadConversation(cid CID) (*Conversation, error) { return s.convs.Load(cid) }

// UpdateConversation applies per-folder count and modseq deltas to conv.
func (s *Session) UpdateConversation(conv *Conversation, mailbox string, deltaNumRecords, deltaExists, deltaUnseen, deltaSize int32, deltaCounts []int32, modseq int64) error {
	return s.convs.Update(conv, mailbox, deltaNumRecords, deltaExists, deltaUnseen, deltaSize, deltaCounts, modseq)
}

// UpdateSender merges an observed envelope-From identity into conv.
func (s *Session) UpdateSender(conv *Conversation, name, route, mailbox, domain string, lastseen int64, deltaExists int32) {
	s.convs.UpdateSender(conv, name, route, mailbox, domain, lastseen, deltaExists)
}

// SetSubject normalises and stores subject on conv.
func (s *Session) SetSubject(conv *Conversation, subject string) {
	s.convs.SetSubject(conv, subject)
}

// SaveConversation persists conv, propagating its folder-status deltas.
func (s *Session) SaveConversation(conv *Conversation) error { return s.convs.Save(conv) }

// SetMsgid records msgid -> cid with a freshly stamped timestamp.
func (s *Session) SetMsgid(msgid string, cid CID) error { return s.msgidx.Set(msgid, cid) }

// GetMsgid returns the CID msgid maps to, or NilCID if absent.
func (s *Session) GetMsgid(msgid string) (CID, error) { return s.msgidx.Get(msgid) }

// PruneMsgids deletes every msgid record older than threshold (unix
// seconds). Commit or Abort afterwards decides whether the deletions stick.
func (s *Session) PruneMsgids(threshold int64) (seen, deleted int, err error) {
	return s.msgidx.Prune(threshold)
}

// RenameCID merges fromCID into toCID.
func (s *Session) RenameCID(fromCID, toCID CID, retag MailboxRetag) (int, error) {
	return s.renamer.RenameCID(fromCID, toCID, retag)
}

// RenameFolder renames a folder, or deletes it if to == "".
func (s *Session) RenameFolder(from, to string) error {
	return s.renamer.RenameFolder(from, to)
}

// WipeCounts deletes every conversation, folder-status, and sender-overflow
// record, optionally clears $FOLDER_NAMES, and re-initialises
// $COUNTED_FLAGS from cfg. Used during recount/repair — the caller is
// expected to follow this with a fresh pass over the mailbox store
// rebuilding conversations from scratch.
func (s *Session) WipeCounts(cfg config.Config, clearFolderNames bool) error {
	for _, prefix := range []byte{'B', 'F', 'S'} {
		if err := s.deletePrefix(prefix); err != nil {
			return err
		}
	}
	if clearFolderNames {
		if err := s.folders.ClearNames(); err != nil {
			return err
		}
	}
	if err := s.folders.ResetCountedFlags(cfg.CountedFlags); err != nil {
		return err
	}
	s.log.Info().Bool("clearedFolderNames", clearFolderNames).Msg("wiped counts")
	return nil
}

func (s *Session) deletePrefix(prefix byte) error {
	var keys [][]byte
	if err := s.db.Foreach(prefix, func(key, _ []byte) (bool, error) {
		keys = append(keys, append([]byte(nil), key...))
		return false, nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.db.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Get, Put, Delete, and Foreach are raw K/V pass-throughs, exposed for
// callers that need direct access below the record layer (e.g. the repair
// tool's recount pass).
func (s *Session) Get(key []byte) ([]byte, error)   { return s.db.Get(key) }
func (s *Session) Put(key, value []byte) error      { return s.db.Put(key, value) }
func (s *Session) Delete(key []byte) error          { return s.db.Delete(key) }
func (s *Session) Foreach(prefix byte, fn kvengine.ForeachFunc) error {
	return s.db.Foreach(prefix, fn)
}

// Dump delegates to the storage engine's own textual dump form.
func (s *Session) Dump(w io.Writer) error { return s.db.Dump(w) }

// Undump ingests a Dump form. The caller must have already called Truncate
// in the current transaction.
func (s *Session) Undump(r io.Reader) error { return s.db.Undump(r) }

// Truncate removes every entry in the database.
func (s *Session) Truncate() error { return s.db.Truncate() }

// Stats is a purely observational snapshot of the session — no new
// semantics, just the ambient accessor every store/settings package in the
// teacher repo exposes in some form.
type Stats struct {
	SessionID    string
	CountedFlags []string
}

// Stats returns an observational snapshot of the session.
func (s *Session) Stats() Stats {
	return Stats{SessionID: s.db.ID(), CountedFlags: s.folders.CountedFlags()}
}
