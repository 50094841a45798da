package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/beamstd/internal/record"
)

// Dataset dtypes. The payload of numeric dtypes is canonical JSON TEXT
// so that byte-identical records produce byte-identical containers.
const (
	dtypeFloat      = "float64"   // scalar number
	dtypeFloatArray = "float64[]" // 1D numeric array
	dtypeImage      = "image"     // 2D numeric grid
	dtypeString     = "string"    // UTF-8 text
)

const (
	kindGroup   = "group"
	kindDataset = "dataset"
)

// encodeValue serializes an attribute value to canonical JSON TEXT.
func encodeValue(v any) (string, error) {
	data, err := record.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("encode attribute: %w", err)
	}
	return string(data), nil
}

// decodeValue parses attribute TEXT back into a Go value. Numbers come
// back as float64; nested arrays and objects as []any / map[string]any.
func decodeValue(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode attribute: %w", err)
	}
	return v, nil
}

func encodeFloat(v float64) ([]byte, error) {
	return record.MarshalCanonical(v)
}

func encodeFloats(v []float64) ([]byte, error) {
	return record.MarshalCanonical(v)
}

func encodeImage(img record.Image) ([]byte, error) {
	rows := make([]any, len(img))
	for i, row := range img {
		rows[i] = row
	}
	return record.MarshalCanonical(rows)
}

func encodeShape(dims ...int) string {
	if len(dims) == 0 {
		return ""
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range dims {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d", d)
	}
	buf.WriteByte(']')
	return buf.String()
}

// encodePosition renders a Position as its attribute form: the label for
// named positions, the coordinate for numeric ones.
func encodePosition(p record.Position) any {
	if p.Named {
		return p.Label
	}
	return p.S
}

// decodePosition inverts encodePosition.
func decodePosition(v any) (record.Position, error) {
	switch val := v.(type) {
	case string:
		return record.AtLabel(val), nil
	case float64:
		return record.At(val), nil
	default:
		return record.Position{}, fmt.Errorf("position must be a string or number, got %T", v)
	}
}

// encodeLocations renders the location attribute: a single position
// stays scalar, multiple positions become an array.
func encodeLocations(locs []record.Position) any {
	if len(locs) == 1 {
		return encodePosition(locs[0])
	}
	arr := make([]any, len(locs))
	for i, p := range locs {
		arr[i] = encodePosition(p)
	}
	return arr
}

func decodeLocations(v any) ([]record.Position, error) {
	arr, ok := v.([]any)
	if !ok {
		p, err := decodePosition(v)
		if err != nil {
			return nil, err
		}
		return []record.Position{p}, nil
	}
	locs := make([]record.Position, len(arr))
	for i, elem := range arr {
		p, err := decodePosition(elem)
		if err != nil {
			return nil, err
		}
		locs[i] = p
	}
	return locs, nil
}

func (f *File) putGroup(tx *sql.Tx, path string) error {
	_, err := tx.Exec(`
		INSERT INTO objects (path, kind) VALUES (?, 'group')
		ON CONFLICT(path) DO NOTHING
	`, path)
	if err != nil {
		return fmt.Errorf("put group %q: %w", path, err)
	}
	return nil
}

func (f *File) putDataset(tx *sql.Tx, path, dtype, shape string, data []byte) error {
	_, err := tx.Exec(`
		INSERT INTO objects (path, kind, dtype, shape, data)
		VALUES (?, 'dataset', ?, ?, ?)
	`, path, dtype, shape, data)
	if err != nil {
		return fmt.Errorf("put dataset %q: %w", path, err)
	}
	return nil
}

func (f *File) setAttr(tx *sql.Tx, path, name string, value any) error {
	text, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("attr %q on %q: %w", name, path, err)
	}
	_, err = tx.Exec(`
		INSERT INTO attrs (path, name, value) VALUES (?, ?, ?)
		ON CONFLICT(path, name) DO UPDATE SET value = excluded.value
	`, path, name, text)
	if err != nil {
		return fmt.Errorf("set attr %q on %q: %w", name, path, err)
	}
	return nil
}

// object looks up one object row. Missing objects return sql.ErrNoRows.
func (f *File) object(path string) (kind, dtype, shape string, data []byte, err error) {
	err = f.db.QueryRow(`
		SELECT kind, dtype, shape, data FROM objects WHERE path = ?
	`, path).Scan(&kind, &dtype, &shape, &data)
	if err != nil {
		return "", "", "", nil, err
	}
	return kind, dtype, shape, data, nil
}

// hasObject reports whether an object exists at path.
func (f *File) hasObject(path string) (bool, error) {
	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM objects WHERE path = ?`, path).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup %q: %w", path, err)
	}
	return n > 0, nil
}

// children returns the immediate child names under a group path, sorted.
func (f *File) children(path string) ([]string, error) {
	prefix := path + "/"
	rows, err := f.db.Query(`
		SELECT path FROM objects WHERE path LIKE ? || '%'
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list children of %q: %w", path, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var names []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list children of %q: %w", path, err)
		}
		// LIKE treats _ and % as wildcards; re-check the prefix exactly.
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				rest = rest[:i]
				break
			}
		}
		if rest != "" && !seen[rest] {
			seen[rest] = true
			names = append(names, rest)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list children of %q: %w", path, err)
	}
	sort.Strings(names)
	return names, nil
}

// topGroups returns the top-level group names, sorted.
func (f *File) topGroups() ([]string, error) {
	rows, err := f.db.Query(`
		SELECT path FROM objects WHERE kind = 'group' AND instr(path, '/') = 0
	`)
	if err != nil {
		return nil, fmt.Errorf("list top groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list top groups: %w", err)
		}
		names = append(names, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list top groups: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// attrsAt returns all attributes on a path, decoded.
func (f *File) attrsAt(path string) (map[string]any, error) {
	rows, err := f.db.Query(`SELECT name, value FROM attrs WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("attrs of %q: %w", path, err)
	}
	defer rows.Close()

	attrs := make(map[string]any)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("attrs of %q: %w", path, err)
		}
		v, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("attr %q of %q: %w", name, path, err)
		}
		attrs[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attrs of %q: %w", path, err)
	}
	return attrs, nil
}
