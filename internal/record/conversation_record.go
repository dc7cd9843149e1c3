package record

import "fmt"

// MaxStoredSenders is the hard cap on sender records persisted per
// conversation.
const MaxStoredSenders = 100

// FolderEntry is one element of a conversation's folder list: its interned
// folder number, per-folder modseq, message count, and exists count.
type FolderEntry struct {
	FolderNumber int32
	Modseq       int64
	NumRecords   uint32
	Exists       uint32
}

// SenderEntry is one observed envelope-From identity on a conversation.
type SenderEntry struct {
	Name     string
	Route    string
	Mailbox  string
	Domain   string
	LastSeen int64
	Exists   uint32
}

// ConversationRecord is the on-disk shape of a "B"-prefixed value: a
// 9-element list.
type ConversationRecord struct {
	Modseq     int64
	NumRecords uint32
	Exists     uint32
	Unseen     uint32
	Counts     []uint32
	Folders    []FolderEntry
	Senders    []SenderEntry
	Subject    string
	Size       uint32
}

// EncodeConversationRecord renders r as "<version> (modseq num_records
// exists unseen (counts...) (folders...) (senders...) subject size)".
// Folders with zero num_records and senders with zero exists are elided;
// senders are truncated to MaxStoredSenders, keeping the most recent ones —
// the caller is expected to have already sorted them so recency wins.
func EncodeConversationRecord(r ConversationRecord) string {
	counts := make([]Value, len(r.Counts))
	for i, c := range r.Counts {
		counts[i] = NumberVal(int64(c))
	}

	var folders []Value
	for _, f := range r.Folders {
		if f.NumRecords == 0 {
			continue
		}
		folders = append(folders, ListVal([]Value{
			NumberVal(int64(f.FolderNumber)),
			NumberVal(f.Modseq),
			NumberVal(int64(f.NumRecords)),
			NumberVal(int64(f.Exists)),
		}))
	}

	var senders []Value
	written := 0
	for _, s := range r.Senders {
		if s.Exists == 0 {
			continue
		}
		if written >= MaxStoredSenders {
			break
		}
		senders = append(senders, ListVal([]Value{
			AtomVal(s.Name),
			AtomVal(s.Route),
			AtomVal(s.Mailbox),
			AtomVal(s.Domain),
			NumberVal(s.LastSeen),
			NumberVal(int64(s.Exists)),
		}))
		written++
	}

	top := []Value{
		NumberVal(r.Modseq),
		NumberVal(int64(r.NumRecords)),
		NumberVal(int64(r.Exists)),
		NumberVal(int64(r.Unseen)),
		ListVal(counts),
		ListVal(folders),
		ListVal(senders),
		AtomVal(r.Subject),
		NumberVal(int64(r.Size)),
	}
	return fmt.Sprintf("%d %s", CurrentVersion, EncodeList(top))
}

// DecodeConversationRecord parses a "B"-prefixed value. Missing trailing
// elements (older data) default to zero/empty.
func DecodeConversationRecord(value string) (ConversationRecord, error) {
	version, rest, err := SplitVersion(value)
	if err != nil {
		return ConversationRecord{}, err
	}
	if err := CheckVersion(version); err != nil {
		return ConversationRecord{}, err
	}
	top, err := ParseList(rest)
	if err != nil {
		return ConversationRecord{}, err
	}

	r := ConversationRecord{
		Modseq:     At(top, 0).Int64(),
		NumRecords: At(top, 1).Uint32(),
		Exists:     At(top, 2).Uint32(),
		Unseen:     At(top, 3).Uint32(),
	}

	for _, c := range At(top, 4).ListItems() {
		r.Counts = append(r.Counts, c.Uint32())
	}

	for _, f := range At(top, 5).ListItems() {
		items := f.ListItems()
		r.Folders = append(r.Folders, FolderEntry{
			FolderNumber: int32(At(items, 0).Int64()),
			Modseq:       At(items, 1).Int64(),
			NumRecords:   At(items, 2).Uint32(),
			Exists:       At(items, 3).Uint32(),
		})
	}

	for _, s := range At(top, 6).ListItems() {
		items := s.ListItems()
		r.Senders = append(r.Senders, SenderEntry{
			Name:     At(items, 0).Atom(),
			Route:    At(items, 1).Atom(),
			Mailbox:  At(items, 2).Atom(),
			Domain:   At(items, 3).Atom(),
			LastSeen: At(items, 4).Int64(),
			Exists:   At(items, 5).Uint32(),
		})
	}

	r.Subject = At(top, 7).Atom()
	r.Size = At(top, 8).Uint32()

	return r, nil
}
