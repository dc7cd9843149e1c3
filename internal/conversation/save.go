package conversation

import "github.com/hkdb/convstore/internal/record"

// Save persists conv: propagates per-folder exists/unseen deltas into each
// referenced "F" status record, verifies (and logs, never fails on) the
// aggregate-consistency invariant, then either writes the "B" record or, if
// the conversation no longer has any live records, deletes it and its "S"
// sibling in the same transaction.
func (s *Store) Save(conv *Conversation) error {
	for _, f := range conv.Folders {
		if err := s.propagateFolderStatus(conv, f); err != nil {
			return err
		}
	}

	s.checkInvariants(conv, "save")

	if conv.NumRecords == 0 {
		if err := s.db.Delete(bKey(conv.CID)); err != nil {
			return err
		}
		if err := s.db.Delete(sKey(conv.CID)); err != nil {
			return err
		}
		conv.Dirty = false
		return nil
	}

	rec := record.ConversationRecord{
		Modseq:     conv.Modseq,
		NumRecords: conv.NumRecords,
		Exists:     conv.Exists,
		Unseen:     conv.Unseen,
		Counts:     conv.Counts,
		Subject:    conv.Subject,
		Size:       conv.Size,
	}
	for _, f := range conv.Folders {
		rec.Folders = append(rec.Folders, record.FolderEntry{
			FolderNumber: f.FolderNumber,
			Modseq:       f.Modseq,
			NumRecords:   f.NumRecords,
			Exists:       f.Exists,
		})
	}
	for _, sd := range conv.Senders {
		rec.Senders = append(rec.Senders, record.SenderEntry(sd))
	}

	if err := s.db.Put(bKey(conv.CID), []byte(record.EncodeConversationRecord(rec))); err != nil {
		return err
	}
	conv.Dirty = false
	return nil
}

// propagateFolderStatus applies the exists/unseen transition table below to
// the folder's "F" record: a folder going from no live records to some (or
// vice versa) moves its exists/unseen counters by one; otherwise unseen
// tracks whether the conversation itself is seen or unseen.
func (s *Store) propagateFolderStatus(conv *Conversation, f Folder) error {
	var existsDelta, unseenDelta int32
	switch {
	case f.PrevExists == 0 && f.Exists == 0:
		// no change
	case f.PrevExists == 0 && f.Exists > 0:
		existsDelta = 1
		if conv.Unseen > 0 {
			unseenDelta = 1
		}
	case f.PrevExists > 0 && f.Exists == 0:
		existsDelta = -1
		if conv.PrevUnseen > 0 {
			unseenDelta = -1
		}
	default: // both > 0
		unseenDelta = sign(conv.Unseen) - sign(conv.PrevUnseen)
	}

	name, ok := s.folders.NameOf(f.FolderNumber)
	if !ok {
		s.log.Warn().Int32("folderNumber", f.FolderNumber).Msg("folder status propagation: unknown folder number")
		return nil
	}

	status, err := s.folders.LoadStatus(name)
	if err != nil {
		return err
	}
	status.Exists = satAdd(s.log, "folder_status.exists", status.Exists, existsDelta)
	status.Unseen = satAdd(s.log, "folder_status.unseen", status.Unseen, unseenDelta)
	if conv.Modseq > status.Modseq {
		status.Modseq = conv.Modseq
	}
	return s.folders.SaveStatus(name, status)
}
