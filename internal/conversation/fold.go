package conversation

import (
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// foldKey case-folds s for sender identity: mailbox/domain equality and the
// sender sort order are case-insensitive. Folder and flag names are not
// folded; they are compared exactly.
// cases.Fold is used in place of strings.ToLower because it correctly
// handles non-ASCII mailbox/domain names, unlike a byte-wise lowercasing.
func foldKey(s string) string {
	return folder.String(s)
}
