package conversations

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkdb/convstore/internal/config"
)

func openTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	sess, err := OpenPath(path, config.Default())
	require.NoError(t, err)
	return sess, path
}

func TestOpenPathTwiceFails(t *testing.T) {
	sess, path := openTestSession(t)
	defer sess.Abort()

	_, err := OpenPath(path, config.Default())
	assert.ErrorIs(t, err, ErrAlreadyOpen)
}

func TestConversationLifecycleCommitsAcrossSessions(t *testing.T) {
	sess, path := openTestSession(t)

	conv := sess.NewConversation(CID(1))
	require.NoError(t, sess.UpdateConversation(conv, "INBOX", 1, 1, 1, 2048, nil, 10))
	sess.UpdateSender(conv, "Alice", "", "alice", "example.com", 5, 1)
	sess.SetSubject(conv, "Re: hello")
	require.NoError(t, sess.SaveConversation(conv))
	require.NoError(t, sess.SetMsgid("<a@x>", CID(1)))
	require.NoError(t, sess.Commit())

	sess2, err := OpenPath(path, config.Default())
	require.NoError(t, err)
	defer sess2.Abort()

	loaded, err := sess2.LoadConversation(CID(1))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "hello", loaded.Subject)
	require.Len(t, loaded.Senders, 1)
	assert.Equal(t, "alice", loaded.Senders[0].Mailbox)

	cid, err := sess2.GetMsgid("<a@x>")
	require.NoError(t, err)
	assert.Equal(t, CID(1), cid)
}

func TestWipeCountsRemovesRecordsAndReseedsFlags(t *testing.T) {
	sess, path := openTestSession(t)

	conv := sess.NewConversation(CID(1))
	require.NoError(t, sess.UpdateConversation(conv, "INBOX", 1, 1, 1, 0, nil, 1))
	require.NoError(t, sess.SaveConversation(conv))
	require.NoError(t, sess.Commit())

	sess2, err := OpenPath(path, config.Default())
	require.NoError(t, err)

	require.NoError(t, sess2.WipeCounts(config.Default(), true))
	require.NoError(t, sess2.Commit())

	sess3, err := OpenPath(path, config.Default())
	require.NoError(t, err)
	defer sess3.Abort()

	loaded, err := sess3.LoadConversation(CID(1))
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Equal(t, config.DefaultCountedFlags, sess3.Stats().CountedFlags)
}

func TestDumpUndumpRoundTripThroughFacade(t *testing.T) {
	sess, path := openTestSession(t)

	conv := sess.NewConversation(CID(7))
	require.NoError(t, sess.UpdateConversation(conv, "INBOX", 1, 1, 0, 0, nil, 1))
	require.NoError(t, sess.SaveConversation(conv))

	var buf bytes.Buffer
	require.NoError(t, sess.Dump(&buf))
	require.NoError(t, sess.Commit())

	sess2, err := OpenPath(path, config.Default())
	require.NoError(t, err)

	require.NoError(t, sess2.Truncate())
	require.NoError(t, sess2.Undump(&buf))
	require.NoError(t, sess2.Commit())

	sess3, err := OpenPath(path, config.Default())
	require.NoError(t, err)
	defer sess3.Abort()

	loaded, err := sess3.LoadConversation(CID(7))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, uint32(1), loaded.Exists)
}

func TestRenameCIDThroughFacade(t *testing.T) {
	sess, _ := openTestSession(t)
	defer sess.Abort()

	conv := sess.NewConversation(CID(1))
	require.NoError(t, sess.UpdateConversation(conv, "INBOX", 1, 1, 0, 0, nil, 1))
	require.NoError(t, sess.SaveConversation(conv))
	require.NoError(t, sess.SetMsgid("<a@x>", CID(1)))

	n, err := sess.RenameCID(CID(1), CID(2), func(folder string, from, to CID) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cid, err := sess.GetMsgid("<a@x>")
	require.NoError(t, err)
	assert.Equal(t, CID(2), cid)
}

func TestRenameFolderThroughFacade(t *testing.T) {
	sess, _ := openTestSession(t)
	defer sess.Abort()

	conv := sess.NewConversation(CID(1))
	require.NoError(t, sess.UpdateConversation(conv, "INBOX", 1, 1, 0, 0, nil, 1))
	require.NoError(t, sess.SaveConversation(conv))

	require.NoError(t, sess.RenameFolder("INBOX", "Archive"))
}
