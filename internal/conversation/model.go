// Package conversation implements the conversation aggregate: the in-memory
// model built from a "B" record, its mutators (Update, UpdateSender,
// SetSubject), subject normalisation, sender preference ordering, and the
// folder-status propagation Save performs.
package conversation

import "github.com/hkdb/convstore/internal/record"

// Folder is one folder entry inside a loaded conversation, tracking both
// the current and load-time ("prev") exists count needed to compute the
// folder-status delta on Save.
type Folder struct {
	FolderNumber int32
	Modseq       int64
	NumRecords   uint32
	Exists       uint32
	PrevExists   uint32
}

// Sender is one observed envelope-From identity on a conversation.
type Sender struct {
	Name     string
	Route    string
	Mailbox  string
	Domain   string
	LastSeen int64
	Exists   uint32
}

// Conversation is the in-memory aggregate for one CID.
type Conversation struct {
	CID        record.CID
	Modseq     int64
	NumRecords uint32
	Exists     uint32
	Unseen     uint32
	PrevUnseen uint32
	Size       uint32
	Counts     []uint32
	Subject    string
	Folders    []Folder
	Senders    []Sender
	Dirty      bool
}

// folderIndex returns the index of the folder entry with the given number,
// or -1 if absent.
func (c *Conversation) folderIndex(num int32) int {
	for i := range c.Folders {
		if c.Folders[i].FolderNumber == num {
			return i
		}
	}
	return -1
}

// senderIndex returns the index of the sender matching (mailbox, domain)
// case-insensitively, or -1 if none matches.
func (c *Conversation) senderIndex(mailbox, domain string) int {
	fm, fd := foldKey(mailbox), foldKey(domain)
	for i := range c.Senders {
		if foldKey(c.Senders[i].Mailbox) == fm && foldKey(c.Senders[i].Domain) == fd {
			return i
		}
	}
	return -1
}
