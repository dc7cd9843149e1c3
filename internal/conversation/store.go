package conversation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hkdb/convstore/internal/folders"
	"github.com/hkdb/convstore/internal/kvengine"
	"github.com/hkdb/convstore/internal/logging"
	"github.com/hkdb/convstore/internal/record"
)

// Store provides conversation-aggregate persistence operations over one
// session's transaction, mirroring the shape of the teacher repo's
// message.Store (NewStore(db) wrapping a database handle with a component
// logger).
type Store struct {
	db      *kvengine.DB
	folders *folders.Table
	log     zerolog.Logger
}

// NewStore creates a conversation Store bound to an open session and its
// loaded folder-name/counted-flags table.
func NewStore(db *kvengine.DB, ft *folders.Table) *Store {
	return &Store{
		db:      db,
		folders: ft,
		log:     logging.WithComponent("conversation-store").With().Str("sess", db.ID()).Logger(),
	}
}

func bKey(cid record.CID) []byte { return []byte("B" + cid.String()) }
func sKey(cid record.CID) []byte { return []byte("S" + cid.String()) }

// New allocates a fresh conversation aggregate, dirty and empty, with a
// counts array sized to the store's configured counted-flags list.
func (s *Store) New(cid record.CID) *Conversation {
	return &Conversation{
		CID:    cid,
		Counts: make([]uint32, s.folders.NumCountedFlags()),
		Dirty:  true,
	}
}

// Load reads and parses the "B" record for cid, snapshotting prev_unseen and
// each folder's prev_exists for later delta computation, and returns nil if
// no record exists.
func (s *Store) Load(cid record.CID) (*Conversation, error) {
	raw, err := s.db.Get(bKey(cid))
	if err == kvengine.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec, err := record.DecodeConversationRecord(string(raw))
	if err != nil {
		s.log.Warn().Err(err).Str("cid", cid.String()).Msg("corrupt conversation record")
		return nil, err
	}

	c := &Conversation{
		CID:        cid,
		Modseq:     rec.Modseq,
		NumRecords: rec.NumRecords,
		Exists:     rec.Exists,
		Unseen:     rec.Unseen,
		PrevUnseen: rec.Unseen,
		Size:       rec.Size,
		Counts:     rec.Counts,
		Subject:    rec.Subject,
	}
	for _, f := range rec.Folders {
		c.Folders = append(c.Folders, Folder{
			FolderNumber: f.FolderNumber,
			Modseq:       f.Modseq,
			NumRecords:   f.NumRecords,
			Exists:       f.Exists,
			PrevExists:   f.Exists,
		})
	}
	for _, sd := range rec.Senders {
		c.Senders = append(c.Senders, Sender(sd))
	}

	s.checkInvariants(c, "load")
	return c, nil
}

// checkInvariants verifies that a conversation's top-level counters agree
// with the sum of its per-folder counters, and logs, rather than fails, on
// mismatch — this is advisory corruption detection, not an abort condition.
func (s *Store) checkInvariants(c *Conversation, where string) {
	var sumRecords, sumExists uint32
	for _, f := range c.Folders {
		sumRecords += f.NumRecords
		sumExists += f.Exists
	}
	if sumRecords != c.NumRecords || sumExists != c.Exists {
		s.log.Warn().
			Str("cid", c.CID.String()).
			Str("where", where).
			Uint32("numRecords", c.NumRecords).
			Uint32("sumFolderRecords", sumRecords).
			Uint32("exists", c.Exists).
			Uint32("sumFolderExists", sumExists).
			Msg("conversation counter invariant mismatch")
	}
}

// Update applies per-folder deltas to conv, updating both the conversation's
// top-level counters and the per-folder entry for mailbox. Deltas may be
// negative; counters saturate at zero rather than wrapping.
func (s *Store) Update(conv *Conversation, mailbox string, deltaNumRecords, deltaExists, deltaUnseen, deltaSize int32, deltaCounts []int32, modseq int64) error {
	folderNum, err := s.folders.FolderNumber(mailbox)
	if err != nil {
		return fmt.Errorf("conversation: update: %w", err)
	}

	idx := conv.folderIndex(folderNum)
	if idx < 0 {
		conv.Folders = append(conv.Folders, Folder{FolderNumber: folderNum})
		sortFolders(conv.Folders)
		idx = conv.folderIndex(folderNum)
	}
	f := &conv.Folders[idx]

	changed := false

	if deltaNumRecords != 0 {
		conv.NumRecords = satAdd(s.log, "num_records", conv.NumRecords, deltaNumRecords)
		f.NumRecords = satAdd(s.log, "folder.num_records", f.NumRecords, deltaNumRecords)
		changed = true
	}
	if deltaExists != 0 {
		conv.Exists = satAdd(s.log, "exists", conv.Exists, deltaExists)
		f.Exists = satAdd(s.log, "folder.exists", f.Exists, deltaExists)
		changed = true
	}
	if deltaUnseen != 0 {
		conv.Unseen = satAdd(s.log, "unseen", conv.Unseen, deltaUnseen)
		changed = true
	}
	if deltaSize != 0 {
		conv.Size = satAdd(s.log, "size", conv.Size, deltaSize)
		changed = true
	}
	for i, d := range deltaCounts {
		if i >= len(conv.Counts) || d == 0 {
			continue
		}
		conv.Counts[i] = satAdd(s.log, "counts", conv.Counts[i], d)
		changed = true
	}

	if modseq > conv.Modseq {
		conv.Modseq = modseq
		changed = true
	}
	if modseq > f.Modseq {
		f.Modseq = modseq
		changed = true
	}

	if changed {
		conv.Dirty = true
	}
	return nil
}

func sortFolders(fs []Folder) {
	for i := 1; i < len(fs); i++ {
		for j := i; j > 0 && fs[j-1].FolderNumber > fs[j].FolderNumber; j-- {
			fs[j-1], fs[j] = fs[j], fs[j-1]
		}
	}
}

// UpdateSender merges an observed envelope-From identity into conv.
func (s *Store) UpdateSender(conv *Conversation, name, route, mailbox, domain string, lastseen int64, deltaExists int32) {
	idx := conv.senderIndex(mailbox, domain)
	if idx < 0 {
		if deltaExists <= 0 {
			return
		}
		conv.Senders = append(conv.Senders, Sender{
			Name:     name,
			Route:    route,
			Mailbox:  mailbox,
			Domain:   domain,
			LastSeen: lastseen,
			Exists:   satAdd(s.log, "sender.exists", 0, deltaExists),
		})
		sortSenders(conv.Senders)
		conv.Dirty = true
		return
	}

	sd := &conv.Senders[idx]
	newExists := satAdd(s.log, "sender.exists", sd.Exists, deltaExists)
	if newExists == 0 {
		conv.Senders = append(conv.Senders[:idx], conv.Senders[idx+1:]...)
		conv.Dirty = true
		return
	}

	sd.Exists = newExists
	sd.Name = preferName(sd.Name, name)
	sd.Route = preferLexical(sd.Route, route)
	sd.Mailbox = preferLexical(sd.Mailbox, mailbox)
	sd.Domain = preferLexical(sd.Domain, domain)
	if lastseen > sd.LastSeen {
		sd.LastSeen = lastseen
	}
	sortSenders(conv.Senders)
	conv.Dirty = true
}

// SetSubject normalises and stores subject, discarding the original string.
func (s *Store) SetSubject(conv *Conversation, subject string) {
	normalized := NormalizeSubject(subject)
	if normalized != conv.Subject {
		conv.Subject = normalized
		conv.Dirty = true
	}
}
