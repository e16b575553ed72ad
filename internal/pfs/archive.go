// Package pfs reads the PFS compressed asset container used by the legacy
// client data files. An archive is read fully into memory at open time;
// entries stay compressed until requested.
package pfs

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"
)

// filenameTableCrc is the reserved directory hash marking the entry that
// holds the archive's filename table. Magic constant with no known
// derivation.
const filenameTableCrc = 0x61580AC9

type entry struct {
	block []byte // raw chunk stream, still compressed
	size  uint32 // declared uncompressed size
}

// Archive is an opened container. It is immutable after Open and not safe
// for concurrent use with itself; open one per goroutine if needed.
type Archive struct {
	entries map[string]entry // keyed by lower-cased filename
}

// Open reads and indexes the archive at path.
func Open(path string) (*Archive, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pfs: read %s: %w", path, err)
	}
	a, err := New(raw)
	if err != nil {
		return nil, fmt.Errorf("pfs: open %s: %w", path, err)
	}
	return a, nil
}

// New indexes an archive already held in memory.
func New(raw []byte) (*Archive, error) {
	// The directory offset comes first, before the magic tag. That field
	// order is part of the format.
	if len(raw) < 8 {
		return nil, fmt.Errorf("pfs: truncated header")
	}
	dirOffset := binary.LittleEndian.Uint32(raw[0:4])
	if string(raw[4:8]) != "PFS " {
		return nil, fmt.Errorf("pfs: bad magic %q", raw[4:8])
	}

	if int(dirOffset)+4 > len(raw) {
		return nil, fmt.Errorf("pfs: directory offset past end of file")
	}
	dirCount := binary.LittleEndian.Uint32(raw[dirOffset:])

	type dirEntry struct {
		crc    int32
		offset uint32
		size   uint32
	}
	var dir []dirEntry
	var names []string

	for i := uint32(0); i < dirCount; i++ {
		pos := dirOffset + 4 + i*12
		if int(pos)+12 > len(raw) {
			return nil, fmt.Errorf("pfs: truncated directory")
		}
		crc := int32(binary.LittleEndian.Uint32(raw[pos:]))
		offset := binary.LittleEndian.Uint32(raw[pos+4:])
		size := binary.LittleEndian.Uint32(raw[pos+8:])

		if crc == filenameTableCrc {
			var err error
			names, err = parseFilenameTable(raw, offset, size)
			if err != nil {
				return nil, err
			}
			continue
		}
		dir = append(dir, dirEntry{crc: crc, offset: offset, size: size})
	}

	crcs := make([]int32, len(names))
	for i, name := range names {
		crcs[i] = Crc(name)
	}

	a := &Archive{entries: make(map[string]entry, len(dir))}
	for _, de := range dir {
		for i, c := range crcs {
			if c != de.crc {
				continue
			}
			blockLen, err := blockLength(raw, de.offset, de.size)
			if err != nil {
				return nil, err
			}
			block := make([]byte, blockLen)
			copy(block, raw[de.offset:de.offset+blockLen])
			a.entries[names[i]] = entry{block: block, size: de.size}
			break
		}
	}
	return a, nil
}

func parseFilenameTable(raw []byte, offset, size uint32) ([]string, error) {
	table, err := inflateChunks(raw[min(int(offset), len(raw)):], size)
	if err != nil {
		return nil, fmt.Errorf("pfs: filename table: %w", err)
	}

	if len(table) < 4 {
		return nil, fmt.Errorf("pfs: truncated filename table")
	}
	count := binary.LittleEndian.Uint32(table)
	pos := uint32(4)

	// Each entry needs at least 5 bytes; a larger declared count is bogus.
	names := make([]string, 0, min(int(count), len(table)/5))
	for i := uint32(0); i < count; i++ {
		if int(pos)+4 > len(table) {
			return nil, fmt.Errorf("pfs: truncated filename table")
		}
		// Length includes the NUL terminator.
		nameLen := binary.LittleEndian.Uint32(table[pos:])
		pos += 4
		if nameLen == 0 || int(pos)+int(nameLen) > len(table) {
			return nil, fmt.Errorf("pfs: malformed filename entry")
		}
		names = append(names, strings.ToLower(string(table[pos:pos+nameLen-1])))
		pos += nameLen
	}
	return names, nil
}

// Get decompresses and returns the named entry.
func (a *Archive) Get(name string) ([]byte, error) {
	e, ok := a.entries[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("pfs: no entry %q", name)
	}
	data, err := inflateChunks(e.block, e.size)
	if err != nil {
		return nil, fmt.Errorf("pfs: entry %q: %w", name, err)
	}
	return data, nil
}

// Exists reports whether the archive holds the named entry.
// The lookup is case-insensitive.
func (a *Archive) Exists(name string) bool {
	_, ok := a.entries[strings.ToLower(name)]
	return ok
}

// Filenames returns the entry names with the given extension, sorted.
// "*" matches every entry. Matching is case-insensitive.
func (a *Archive) Filenames(ext string) []string {
	ext = strings.ToLower(ext)
	all := ext == "*"

	var names []string
	for name := range a.entries {
		if all || (len(name) > len(ext) && strings.HasSuffix(name, ext)) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of named entries.
func (a *Archive) Len() int {
	return len(a.entries)
}
