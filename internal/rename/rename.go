// Package rename implements CID rename and folder rename: the re-keying
// operations that merge two conversations or move a folder name without
// rewriting every conversation record that references it.
package rename

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hkdb/convstore/internal/conversation"
	"github.com/hkdb/convstore/internal/folders"
	"github.com/hkdb/convstore/internal/logging"
	"github.com/hkdb/convstore/internal/msgindex"
	"github.com/hkdb/convstore/internal/record"
)

// ErrInvalidRename is returned when the from/to CIDs violate the monotone
// rename policy.
var ErrInvalidRename = errors.New("rename: invalid from/to CID pair")

// MailboxRetag is invoked once per folder the source conversation appears
// in, so the caller's mailbox storage engine can re-tag every message
// carrying fromCID to toCID. The core performs no mailbox I/O itself.
type MailboxRetag func(folderName string, fromCID, toCID record.CID) error

// Renamer orchestrates CID and folder renames over one session.
type Renamer struct {
	msgidx  *msgindex.Store
	convs   *conversation.Store
	folders *folders.Table
	log     zerolog.Logger
}

// NewRenamer binds a Renamer to a session's msgid, conversation, and folder
// stores.
func NewRenamer(msgidx *msgindex.Store, convs *conversation.Store, ft *folders.Table, sessID string) *Renamer {
	return &Renamer{
		msgidx:  msgidx,
		convs:   convs,
		folders: ft,
		log:     logging.WithComponent("rename").With().Str("sess", sessID).Logger(),
	}
}

// RenameCID merges fromCID into toCID. fromCID must be strictly less than
// toCID and neither may be the null conversation — the monotone policy that
// prevents rename cycles.
//
// It rewrites every msgid record pointing at fromCID, then invokes retag
// once per folder the source conversation references. The actual counter
// transfer happens through the normal Update/Save path as the caller's
// mailbox component re-tags messages and reports deltas back in — this
// function only does the re-keying and the callback fan-out.
func (r *Renamer) RenameCID(fromCID, toCID record.CID, retag MailboxRetag) (msgidsRenamed int, err error) {
	if fromCID.IsNil() || toCID.IsNil() || !(fromCID < toCID) {
		return 0, fmt.Errorf("%w: from=%s to=%s", ErrInvalidRename, fromCID, toCID)
	}

	renamed, err := r.msgidx.RenameAll(fromCID, toCID)
	if err != nil {
		return renamed, err
	}

	conv, err := r.convs.Load(fromCID)
	if err != nil {
		return renamed, err
	}
	if conv == nil {
		return renamed, nil
	}

	for _, f := range conv.Folders {
		name, ok := r.folders.NameOf(f.FolderNumber)
		if !ok {
			r.log.Warn().Int32("folderNumber", f.FolderNumber).Msg("rename: unknown folder number on source conversation")
			continue
		}
		if err := retag(name, fromCID, toCID); err != nil {
			return renamed, fmt.Errorf("rename: retag folder %q: %w", name, err)
		}
	}

	return renamed, nil
}

// RenameFolder renames a folder, or deletes it if to is empty. Conversation
// records reference folders by number, so no conversation needs rewriting —
// only $FOLDER_NAMES and the "F" status record move.
func (r *Renamer) RenameFolder(from, to string) error {
	if to == "" {
		return r.folders.Delete(from)
	}
	return r.folders.Rename(from, to)
}
