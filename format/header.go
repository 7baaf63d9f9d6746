package format

import (
	"encoding/binary"
	"fmt"

	"github.com/Shiloren/gics/errs"
)

// FileHeader is the fixed 9-byte prefix of a gics file: magic + version +
// flags (SPEC_FULL.md §6). It is followed by the optional encryption
// header, the optional schema section, one or more Segments, and the File
// EOS trailer — all outside this type's scope.
type FileHeader struct {
	Version Version
	Flags   uint32
}

// FileHeaderSize is the fixed serialized size of FileHeader.
const FileHeaderSize = 4 + 1 + 4

// Bytes serializes the header.
func (h FileHeader) Bytes() []byte {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = byte(h.Version)
	binary.LittleEndian.PutUint32(buf[5:9], h.Flags)

	return buf
}

// Encrypted reports whether FileFlagEncrypted is set.
func (h FileHeader) Encrypted() bool { return h.Flags&FileFlagEncrypted != 0 }

// HasSchema reports whether FileFlagHasSchema is set.
func (h FileHeader) HasSchema() bool { return h.Flags&FileFlagHasSchema != 0 }

// ParseFileHeader parses the first FileHeaderSize bytes of data.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, fmt.Errorf("%w", errs.ErrUnexpectedEOF)
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return FileHeader{}, fmt.Errorf("%w", errs.ErrInvalidMagic)
	}

	return FileHeader{
		Version: Version(data[4]),
		Flags:   binary.LittleEndian.Uint32(data[5:9]),
	}, nil
}

// FileEOS is the 37-byte trailer closing a gics file: a 0xFF marker byte,
// the final hash-chain root, and zero padding to the fixed size.
type FileEOS struct {
	RootHash [SectionHashSize]byte
}

// FileEOSMarker is the first byte of a File EOS block.
const FileEOSMarker = 0xFF

// Bytes serializes the File EOS block.
func (e FileEOS) Bytes() []byte {
	buf := make([]byte, FileEOSSize)
	buf[0] = FileEOSMarker
	copy(buf[1:1+SectionHashSize], e.RootHash[:])

	return buf
}

// ParseFileEOS parses a File EOS block from the last FileEOSSize bytes of data.
func ParseFileEOS(data []byte) (FileEOS, error) {
	if len(data) < FileEOSSize {
		return FileEOS{}, fmt.Errorf("%w", errs.ErrUnexpectedEOF)
	}
	if data[0] != FileEOSMarker {
		return FileEOS{}, fmt.Errorf("%w", errs.ErrMissingEOS)
	}

	var e FileEOS
	copy(e.RootHash[:], data[1:1+SectionHashSize])

	return e, nil
}
