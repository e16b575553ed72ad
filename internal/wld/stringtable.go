package wld

// The shared string table ships XOR-obfuscated with a fixed repeating
// 8-byte key. Names referenced by fragments are negative offsets into the
// decoded blob; names embedded inside texture fragments use the same key
// applied from offset 0.
var stringKey = [8]byte{0x95, 0x3A, 0xC5, 0x2A, 0x95, 0x7A, 0x95, 0x6A}

// decodeString XORs buf in place with the obfuscation key.
func decodeString(buf []byte) {
	for i := range buf {
		buf[i] ^= stringKey[i%8]
	}
}

// stringTable is the decoded blob, treated as immutable after load.
type stringTable []byte

// at returns the NUL-terminated string starting at offset, or "" when the
// offset is out of range.
func (t stringTable) at(offset int32) string {
	if offset < 0 || int(offset) >= len(t) {
		return ""
	}
	b := t[offset:]
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// name resolves a fragment name reference: 0 is unnamed, a negative value
// is a byte offset into the table.
func (t stringTable) name(ref int32) string {
	if ref >= 0 {
		return ""
	}
	return t.at(-ref)
}
