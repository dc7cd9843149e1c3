package conversation

import (
	"sort"
	"strings"
)

// preferName picks which of two observed display names to keep: non-ASCII
// bytes win, then longer length, then lexicographically earlier as the
// final tie-break.
func preferName(current, candidate string) string {
	curNonASCII, candNonASCII := hasNonASCII(current), hasNonASCII(candidate)
	if curNonASCII != candNonASCII {
		if candNonASCII {
			return candidate
		}
		return current
	}
	if len(current) != len(candidate) {
		if len(candidate) > len(current) {
			return candidate
		}
		return current
	}
	if candidate < current {
		return candidate
	}
	return current
}

// preferLexical picks the lexicographically earlier of two strings for
// mailbox/domain/route, which lets a capitalised form win over an
// all-lowercase one.
func preferLexical(current, candidate string) string {
	if candidate < current {
		return candidate
	}
	return current
}

func hasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return true
		}
	}
	return false
}

// sortSenders orders senders descending by LastSeen, then ascending by
// (domain, mailbox).
func sortSenders(senders []Sender) {
	sort.SliceStable(senders, func(i, j int) bool {
		a, b := senders[i], senders[j]
		if a.LastSeen != b.LastSeen {
			return a.LastSeen > b.LastSeen
		}
		if !strings.EqualFold(a.Domain, b.Domain) {
			return foldKey(a.Domain) < foldKey(b.Domain)
		}
		return foldKey(a.Mailbox) < foldKey(b.Mailbox)
	})
}
