// Package resources reads the indexed resource containers that ship BLANG
// tables among other assets. Only entries stored uncompressed can be extracted.
package resources

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"blang-tool/internal/binreader"
)

// DefaultSuffix selects string tables.
const DefaultSuffix = ".blang"

var magic = []byte("IDCL")

const (
	// dirPrefixLen is the length of the directory prefix ("strings/") removed
	// from extracted names.
	dirPrefixLen = 8
	// infoRecordTail is the unread remainder of each file-info record.
	infoRecordTail = 64
)

// Record is one extracted table.
type Record struct {
	Name string
	Data []byte
}

type header struct {
	fileCount   uint32
	namesOffset uint64
	infoOffset  uint64
	// nameIDBase is where the per-file name index slots start.
	nameIDBase uint64
}

type fileInfo struct {
	nameIDOffset     uint64
	offset           uint64
	compressedSize   uint64
	uncompressedSize uint64
}

// ExtractByExtension returns the uncompressed entries whose name ends with
// suffix, keyed by name without its directory prefix. It either returns every
// match or an error; a partial map is never returned.
func ExtractByExtension(data []byte, suffix string) (map[string][]byte, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, &FormatError{Detail: "magic", Err: ErrBadMagic}
	}

	r := binreader.New(data)
	if err := r.Seek(uint64(len(magic))); err != nil {
		return nil, truncated("magic", 0)
	}

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	names, err := readNames(r, h.namesOffset)
	if err != nil {
		return nil, err
	}

	tables := make(map[string][]byte)
	next := h.infoOffset

	for i := uint32(0); i < h.fileCount; i++ {
		if err := r.Seek(next); err != nil {
			return nil, truncated(fmt.Sprintf("file info %d", i), next)
		}
		info, err := readFileInfo(r)
		if err != nil {
			return nil, err
		}
		next = uint64(r.Pos()) + infoRecordTail

		if info.compressedSize != info.uncompressedSize {
			continue
		}

		if info.nameIDOffset >= (math.MaxUint64-h.nameIDBase)/8 {
			return nil, &FormatError{Offset: uint64(r.Pos()), Detail: fmt.Sprintf("name id offset %d of file %d", info.nameIDOffset, i), Err: ErrCorrupt}
		}
		slot := (info.nameIDOffset+1)*8 + h.nameIDBase
		if err := r.Seek(slot); err != nil {
			return nil, truncated(fmt.Sprintf("name id of file %d", i), slot)
		}
		nameID, err := r.Uint64LE()
		if err != nil {
			return nil, truncated(fmt.Sprintf("name id of file %d", i), slot)
		}
		if nameID >= uint64(len(names)) {
			return nil, &FormatError{Offset: slot, Detail: fmt.Sprintf("name id %d of %d", nameID, len(names)), Err: ErrCorrupt}
		}

		name := names[nameID]
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		if len(name) < dirPrefixLen {
			return nil, &FormatError{Offset: slot, Detail: fmt.Sprintf("name %q", name), Err: ErrCorrupt}
		}

		if info.uncompressedSize > uint64(r.Len()) {
			return nil, truncated(fmt.Sprintf("data of %s", name), info.offset)
		}
		if err := r.Seek(info.offset); err != nil {
			return nil, truncated(fmt.Sprintf("data of %s", name), info.offset)
		}
		blob, err := r.Bytes(int(info.uncompressedSize))
		if err != nil {
			return nil, truncated(fmt.Sprintf("data of %s", name), info.offset)
		}

		key := name[dirPrefixLen:]
		if _, dup := tables[key]; dup {
			return nil, &FormatError{Offset: info.offset, Detail: fmt.Sprintf("duplicate entry %q", key), Err: ErrCorrupt}
		}
		tables[key] = bytes.Clone(blob)
	}

	return tables, nil
}

// readHeader reads the fixed scalars that follow the magic.
func readHeader(r *binreader.Reader) (header, error) {
	var h header
	var err error

	if err = r.Skip(28); err != nil {
		return h, truncated("header", uint64(r.Pos()))
	}
	if h.fileCount, err = r.Uint32LE(); err != nil {
		return h, truncated("file count", uint64(r.Pos()))
	}
	if err = r.Skip(4); err != nil {
		return h, truncated("header", uint64(r.Pos()))
	}
	dummyCount, err := r.Uint32LE()
	if err != nil {
		return h, truncated("dummy count", uint64(r.Pos()))
	}
	if err = r.Skip(20); err != nil {
		return h, truncated("header", uint64(r.Pos()))
	}
	if h.namesOffset, err = r.Uint64LE(); err != nil {
		return h, truncated("names offset", uint64(r.Pos()))
	}
	if err = r.Skip(8); err != nil {
		return h, truncated("header", uint64(r.Pos()))
	}
	if h.infoOffset, err = r.Uint64LE(); err != nil {
		return h, truncated("info offset", uint64(r.Pos()))
	}
	if err = r.Skip(8); err != nil {
		return h, truncated("header", uint64(r.Pos()))
	}
	base, err := r.Uint64LE()
	if err != nil {
		return h, truncated("dummy offset", uint64(r.Pos()))
	}
	h.nameIDBase = base + uint64(dummyCount)*4
	if h.nameIDBase < base {
		return h, &FormatError{Offset: uint64(r.Pos()), Detail: "dummy offset", Err: ErrCorrupt}
	}

	return h, nil
}

// readNames resolves the name table: a count, one relative offset per name,
// then the NUL-terminated strings those offsets point into.
func readNames(r *binreader.Reader, namesOffset uint64) ([]string, error) {
	if err := r.Seek(namesOffset); err != nil {
		return nil, truncated("name table", namesOffset)
	}
	count, err := r.Uint64LE()
	if err != nil {
		return nil, truncated("name count", namesOffset)
	}
	if count > uint64(r.Len())/8 {
		return nil, truncated(fmt.Sprintf("%d name offsets", count), namesOffset)
	}

	stringsBase := namesOffset + count*8 + 8
	names := make([]string, 0, count)

	for i := uint64(0); i < count; i++ {
		slot := namesOffset + 8 + i*8
		if err := r.Seek(slot); err != nil {
			return nil, truncated(fmt.Sprintf("name offset %d", i), slot)
		}
		rel, err := r.Uint64LE()
		if err != nil {
			return nil, truncated(fmt.Sprintf("name offset %d", i), slot)
		}
		at := stringsBase + rel
		if at < stringsBase {
			return nil, &FormatError{Offset: slot, Detail: fmt.Sprintf("name offset %d", i), Err: ErrCorrupt}
		}
		if err := r.Seek(at); err != nil {
			return nil, truncated(fmt.Sprintf("name %d", i), at)
		}
		name, err := r.CString()
		if err != nil {
			return nil, truncated(fmt.Sprintf("name %d", i), at)
		}
		names = append(names, name)
	}

	return names, nil
}

func readFileInfo(r *binreader.Reader) (fileInfo, error) {
	var info fileInfo
	start := uint64(r.Pos())

	if err := r.Skip(32); err != nil {
		return info, truncated("file info", start)
	}
	var err error
	if info.nameIDOffset, err = r.Uint64LE(); err != nil {
		return info, truncated("file info", start)
	}
	if err := r.Skip(16); err != nil {
		return info, truncated("file info", start)
	}
	if info.offset, err = r.Uint64LE(); err != nil {
		return info, truncated("file info", start)
	}
	if info.compressedSize, err = r.Uint64LE(); err != nil {
		return info, truncated("file info", start)
	}
	if info.uncompressedSize, err = r.Uint64LE(); err != nil {
		return info, truncated("file info", start)
	}
	return info, nil
}

func truncated(detail string, offset uint64) error {
	return &FormatError{Offset: offset, Detail: detail, Err: ErrTruncated}
}

// List returns the sorted names of the tables ExtractByExtension would return.
func List(data []byte, suffix string) ([]string, error) {
	tables, err := ExtractByExtension(data, suffix)
	if err != nil {
		return nil, err
	}
	return sortedNames(tables), nil
}

// Lookup returns the bytes of one extracted table.
func Lookup(tables map[string][]byte, name string) ([]byte, error) {
	data, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, nil
}

// Records flattens extracted tables into name order.
func Records(tables map[string][]byte) []Record {
	names := sortedNames(tables)
	out := make([]Record, 0, len(names))
	for _, name := range names {
		out = append(out, Record{Name: name, Data: tables[name]})
	}
	return out
}

func sortedNames(tables map[string][]byte) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
