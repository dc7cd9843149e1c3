package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRecordRoundTrip(t *testing.T) {
	rec := ConversationRecord{
		Modseq:     42,
		NumRecords: 10,
		Exists:     8,
		Unseen:     3,
		Counts:     []uint32{1, 2, 3},
		Folders: []FolderEntry{
			{FolderNumber: 0, Modseq: 40, NumRecords: 5, Exists: 4},
			{FolderNumber: 1, Modseq: 42, NumRecords: 5, Exists: 4},
		},
		Senders: []SenderEntry{
			{Name: "Alice", Route: "", Mailbox: "alice", Domain: "example.com", LastSeen: 100, Exists: 5},
		},
		Subject: "hello world",
		Size:    4096,
	}

	encoded := EncodeConversationRecord(rec)
	decoded, err := DecodeConversationRecord(encoded)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestConversationRecordElidesZeroEntries(t *testing.T) {
	rec := ConversationRecord{
		Modseq:     1,
		NumRecords: 1,
		Exists:     1,
		Folders: []FolderEntry{
			{FolderNumber: 0, NumRecords: 0}, // elided: no live records in this folder
			{FolderNumber: 1, NumRecords: 1, Exists: 1},
		},
		Senders: []SenderEntry{
			{Mailbox: "gone", Exists: 0}, // elided: no remaining observed messages
			{Mailbox: "alice", Exists: 1},
		},
	}
	encoded := EncodeConversationRecord(rec)
	decoded, err := DecodeConversationRecord(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Folders, 1)
	assert.Equal(t, int32(1), decoded.Folders[0].FolderNumber)
	require.Len(t, decoded.Senders, 1)
	assert.Equal(t, "alice", decoded.Senders[0].Mailbox)
}

func TestConversationRecordTruncatesSendersAt100(t *testing.T) {
	var rec ConversationRecord
	for i := 0; i < 150; i++ {
		rec.Senders = append(rec.Senders, SenderEntry{Mailbox: "u", Domain: "d", Exists: 1, LastSeen: int64(i)})
	}
	encoded := EncodeConversationRecord(rec)
	decoded, err := DecodeConversationRecord(encoded)
	require.NoError(t, err)
	assert.Len(t, decoded.Senders, MaxStoredSenders)
}

func TestDecodeConversationRecordDefaultsMissingTrailingFields(t *testing.T) {
	// An old-format record with only modseq/num_records/exists/unseen present.
	decoded, err := DecodeConversationRecord("0 (5 2 2 0)")
	require.NoError(t, err)
	assert.Equal(t, int64(5), decoded.Modseq)
	assert.Equal(t, uint32(2), decoded.NumRecords)
	assert.Empty(t, decoded.Counts)
	assert.Empty(t, decoded.Folders)
	assert.Empty(t, decoded.Senders)
	assert.Equal(t, "", decoded.Subject)
}
