package record

import "fmt"

// FolderStatus is the value of an "F"-prefixed key: the per-folder IMAP
// status triple.
type FolderStatus struct {
	Modseq int64
	Exists uint32
	Unseen uint32
}

// EncodeFolderStatus renders "<version> (modseq exists unseen)".
func EncodeFolderStatus(s FolderStatus) string {
	vals := []Value{
		NumberVal(s.Modseq),
		NumberVal(int64(s.Exists)),
		NumberVal(int64(s.Unseen)),
	}
	return fmt.Sprintf("%d %s", CurrentVersion, EncodeList(vals))
}

// DecodeFolderStatus parses an "F"-prefixed value.
func DecodeFolderStatus(value string) (FolderStatus, error) {
	version, rest, err := SplitVersion(value)
	if err != nil {
		return FolderStatus{}, err
	}
	if err := CheckVersion(version); err != nil {
		return FolderStatus{}, err
	}
	top, err := ParseList(rest)
	if err != nil {
		return FolderStatus{}, err
	}
	return FolderStatus{
		Modseq: At(top, 0).Int64(),
		Exists: At(top, 1).Uint32(),
		Unseen: At(top, 2).Uint32(),
	}, nil
}
