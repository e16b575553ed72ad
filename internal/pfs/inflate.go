package pfs

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// An entry's payload is a sequence of independently deflated chunks, each
// prefixed by an 8-byte (compressedLen, uncompressedLen) header. The stream
// ends when the produced bytes reach the entry's declared size.

// inflateChunk decodes a single zlib stream into a buffer of exactly n bytes.
func inflateChunk(src []byte, n uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("pfs: open chunk: %w", err)
	}
	defer zr.Close()

	out := make([]byte, n)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("pfs: inflate chunk: %w", err)
	}
	return out, nil
}

// inflateChunks decodes a whole chunk stream until size bytes are produced.
// A chunk header that would read past the available input is a hard failure.
func inflateChunks(src []byte, size uint32) ([]byte, error) {
	out := make([]byte, 0, size)
	pos := 0
	for uint32(len(out)) < size {
		if pos+8 > len(src) {
			return nil, fmt.Errorf("pfs: chunk header past end of block (%d produced of %d)", len(out), size)
		}
		compLen := binary.LittleEndian.Uint32(src[pos:])
		fullLen := binary.LittleEndian.Uint32(src[pos+4:])
		pos += 8
		if pos+int(compLen) > len(src) {
			return nil, fmt.Errorf("pfs: chunk body past end of block")
		}
		chunk, err := inflateChunk(src[pos:pos+int(compLen)], fullLen)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		pos += int(compLen)
	}
	return out[:size], nil
}

// blockLength walks the chunk headers starting at offset and returns the
// total byte length of the chunk stream that produces size bytes. The
// cursor advances in int space so a near-maximum compressed length cannot
// wrap it back onto itself.
func blockLength(src []byte, offset, size uint32) (uint32, error) {
	pos := int(offset)
	var produced uint32
	for produced < size {
		if pos+8 > len(src) {
			return 0, fmt.Errorf("pfs: chunk header past end of archive")
		}
		compLen := binary.LittleEndian.Uint32(src[pos:])
		fullLen := binary.LittleEndian.Uint32(src[pos+4:])
		produced += fullLen
		pos += 8 + int(compLen)
		if pos > len(src) {
			return 0, fmt.Errorf("pfs: chunk body past end of archive")
		}
	}
	return uint32(pos) - offset, nil
}
