package record

import (
	"fmt"
	"strconv"
	"strings"
)

// MsgidEntry is the value stored under a "<...>" key: the conversation the
// message-id points to, and the unix timestamp it was last written at — the
// stamp enables prune's time-based garbage collection.
type MsgidEntry struct {
	CID   CID
	Stamp int64
}

// EncodeMsgidEntry renders the fixed three-token form "0 <cid-hex>
// <stamp-decimal>". This is not a parenthesised list — it predates the
// generic codec and is parsed by a plain token split.
func EncodeMsgidEntry(e MsgidEntry) string {
	return fmt.Sprintf("%d %s %d", CurrentVersion, e.CID.String(), e.Stamp)
}

// DecodeMsgidEntry parses the fixed three-token msgid value form.
func DecodeMsgidEntry(value string) (MsgidEntry, error) {
	fields := strings.Fields(value)
	if len(fields) < 3 {
		return MsgidEntry{}, fmt.Errorf("%w: msgid entry %q: too few fields", ErrBadFormat, value)
	}
	version, err := strconv.Atoi(fields[0])
	if err != nil {
		return MsgidEntry{}, fmt.Errorf("%w: msgid entry version: %v", ErrBadFormat, err)
	}
	if err := CheckVersion(version); err != nil {
		return MsgidEntry{}, err
	}
	cid, err := ParseCID(fields[1])
	if err != nil {
		return MsgidEntry{}, err
	}
	stamp, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return MsgidEntry{}, fmt.Errorf("%w: msgid entry stamp: %v", ErrBadFormat, err)
	}
	return MsgidEntry{CID: cid, Stamp: stamp}, nil
}
