package pfs

// Directory entries are keyed by a CRC of the lower-cased filename rather
// than by name. The variant used here is unreflected (MSB-first), seeded
// with 0, no final XOR, and hashes the string plus its NUL terminator.
const crcPolynomial = 0x04C11DB7

var crcTable = buildCrcTable()

func buildCrcTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		accum := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if accum&0x80000000 != 0 {
				accum = accum<<1 ^ crcPolynomial
			} else {
				accum <<= 1
			}
		}
		table[i] = accum
	}
	return table
}

func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// Crc hashes s plus one trailing NUL byte. The empty string hashes to 0.
// Callers are expected to lower-case names before hashing; the hash itself
// is case-sensitive.
func Crc(s string) int32 {
	if s == "" {
		return 0
	}
	crc := crcUpdate(0, []byte(s))
	crc = crcUpdate(crc, []byte{0})
	return int32(crc)
}
