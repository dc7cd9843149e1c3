package record

import "fmt"

// TombstoneName is the slot marker for a deleted folder-name entry; the slot
// index may be reused by a later create.
const TombstoneName = "-"

// EncodeFolderNames renders the $FOLDER_NAMES intern table as a flat,
// version-prefixed list of atoms, one per folder number in ascending order.
func EncodeFolderNames(names []string) string {
	vals := make([]Value, len(names))
	for i, n := range names {
		vals[i] = AtomVal(n)
	}
	return fmt.Sprintf("%d %s", CurrentVersion, EncodeList(vals))
}

// DecodeFolderNames parses the $FOLDER_NAMES record back into a slice
// indexed by folder number.
func DecodeFolderNames(value string) ([]string, error) {
	version, rest, err := SplitVersion(value)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	top, err := ParseList(rest)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(top))
	for i, v := range top {
		names[i] = v.Atom()
	}
	return names, nil
}
