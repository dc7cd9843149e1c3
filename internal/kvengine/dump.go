package kvengine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Dump writes every entry in the database to w as quoted key/value pairs,
// one per line, in ascending key order — a textual, round-trippable form in
// the spirit of the storage engine's own dumpfile primitives.
func (db *DB) Dump(w io.Writer) error {
	if db.closed {
		return fmt.Errorf("%w: dump on closed session", ErrInternal)
	}
	rows, err := db.tx.Query(`SELECT k, v FROM kv ORDER BY k ASC`)
	if err != nil {
		return fmt.Errorf("%w: dump: %v", ErrIo, err)
	}
	defer rows.Close()

	bw := bufio.NewWriter(w)
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("%w: dump scan: %v", ErrIo, err)
		}
		line := strconv.Quote(string(k)) + " " + strconv.Quote(string(v)) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("%w: dump write: %v", ErrIo, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: dump: %v", ErrIo, err)
	}
	return bw.Flush()
}

// Undump ingests the form Dump produces. The caller must have already
// called Truncate in the current transaction; a malformed line aborts and
// returns an error, leaving commit-vs-abort to the caller.
func (db *DB) Undump(r io.Reader) error {
	if db.closed {
		return fmt.Errorf("%w: undump on closed session", ErrInternal)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		k, v, err := splitDumpLine(line)
		if err != nil {
			return fmt.Errorf("%w: undump line %d: %v", ErrIo, lineNo, err)
		}
		if err := db.Put(k, v); err != nil {
			return fmt.Errorf("undump line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: undump: %v", ErrIo, err)
	}
	return nil
}

// splitDumpLine parses a `"key" "value"` dump line, each field independently
// Go-quoted (so embedded spaces and quotes in either key or value survive).
func splitDumpLine(line string) (key, value []byte, err error) {
	rest := line
	k, n, err := readQuoted(rest)
	if err != nil {
		return nil, nil, fmt.Errorf("key: %w", err)
	}
	rest = rest[n:]
	rest = trimOneSpace(rest)
	v, _, err := readQuoted(rest)
	if err != nil {
		return nil, nil, fmt.Errorf("value: %w", err)
	}
	return []byte(k), []byte(v), nil
}

func trimOneSpace(s string) string {
	if len(s) > 0 && s[0] == ' ' {
		return s[1:]
	}
	return s
}

// readQuoted reads one Go-quoted string from the front of s, returning the
// decoded value and the number of bytes consumed from s.
func readQuoted(s string) (string, int, error) {
	if len(s) == 0 || s[0] != '"' {
		return "", 0, fmt.Errorf("expected quoted string")
	}
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			val, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", 0, err
			}
			return val, i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted string")
}

// Truncate removes every entry in the database.
func (db *DB) Truncate() error {
	if db.closed {
		return fmt.Errorf("%w: truncate on closed session", ErrInternal)
	}
	if _, err := db.tx.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("%w: truncate: %v", ErrIo, err)
	}
	return nil
}
