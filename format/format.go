// Package format defines the wire-level constants shared by every layer of
// gics: the file magic and version bytes, file/segment/block flags, stream
// identifiers, and the inner/outer codec id spaces. Nothing in this package
// performs I/O; it is the vocabulary the other packages speak.
package format

// Magic is the 4-byte file signature, always the ASCII bytes "GICS".
var Magic = [4]byte{'G', 'I', 'C', 'S'}

// Version identifies one exact file layout. The format makes no promise of
// compatibility across versions; a Reader that does not recognize a version
// byte must refuse to parse rather than guess.
type Version uint8

const (
	VersionLegacy Version = 0x02 // read-only best-effort, see DESIGN.md Open Question 2
	VersionCore   Version = 0x03 // primary version implemented by this module
	VersionFuture Version = 0x04 // reserved, defined but unimplemented
)

// File-level flags (byte offset 5, 4 bytes LE in the file header).
const (
	FileFlagEncrypted  uint32 = 1 << 0
	FileFlagHasSchema  uint32 = 1 << 2
)

// StreamID identifies a logical column spanning a segment.
type StreamID uint8

const (
	StreamTime         StreamID = 1
	StreamSnapshotLen  StreamID = 2
	StreamItemID       StreamID = 3
	StreamLegacyValue  StreamID = 4 // legacy schema "price"
	StreamLegacyQty    StreamID = 5 // legacy schema "quantity"
	StreamFieldBase    StreamID = 100
)

// FieldStreamID returns the stream identifier for the field at the given
// zero-based index in schema declaration order.
func FieldStreamID(fieldIndex int) StreamID {
	return StreamFieldBase + StreamID(fieldIndex)
}

// InnerCodecID identifies one of the seven candidate inner numeric codecs
// trialed per block, plus the 0 value reserved as "unset".
type InnerCodecID uint8

const (
	InnerVarintDelta InnerCodecID = iota + 1
	InnerBitPackDelta
	InnerRLEZigZag
	InnerDictVarint
	InnerDoDVarint
	InnerRLEDoD
	InnerFixed64
)

func (c InnerCodecID) String() string {
	switch c {
	case InnerVarintDelta:
		return "VarintDelta"
	case InnerBitPackDelta:
		return "BitPackDelta"
	case InnerRLEZigZag:
		return "RLEZigZag"
	case InnerDictVarint:
		return "DictVarint"
	case InnerDoDVarint:
		return "DoDVarint"
	case InnerRLEDoD:
		return "RLEDoD"
	case InnerFixed64:
		return "Fixed64"
	default:
		return "Unknown"
	}
}

// OuterCodecID identifies the byte compressor applied to a stream section's
// concatenated block payloads.
type OuterCodecID uint8

const (
	OuterNone OuterCodecID = iota + 1
	OuterZstd
	OuterS2
	OuterLZ4
	OuterXZ
)

func (c OuterCodecID) String() string {
	switch c {
	case OuterNone:
		return "None"
	case OuterZstd:
		return "Zstd"
	case OuterS2:
		return "S2"
	case OuterLZ4:
		return "LZ4"
	case OuterXZ:
		return "XZ"
	default:
		return "Unknown"
	}
}

// Block flags (low byte of a Block Manifest Entry's flags field).
const (
	BlockFlagQuarantine   uint8 = 1 << 4
	BlockFlagAnomalyStart uint8 = 1 << 5
	BlockFlagAnomalyEnd   uint8 = 1 << 6
)

// Segment header flags (byte offset 10 of the 14-byte segment header).
const (
	SegmentFlagItemMajorLayout uint8 = 1 << 0
)

// ItemIDType distinguishes numeric- from string-keyed schemas.
type ItemIDType uint8

const (
	ItemIDNumber ItemIDType = iota + 1
	ItemIDString
)

// FieldType is the wire tag for a schema field's value domain.
type FieldType uint8

const (
	FieldNumeric     FieldType = iota + 1
	FieldCategorical
)

// CodecStrategy hints how a numeric field's values should be normalized
// before the per-block inner-codec trial (see SPEC_FULL.md codec dispatch).
type CodecStrategy uint8

const (
	CodecStrategyValue      CodecStrategy = iota + 1 // Delta or DoD, picked by linear-fit heuristic
	CodecStrategyStructural                          // raw values, no state
)

// Size and limit constants.
const (
	// SegmentHeaderSize is the fixed size of a Segment Header.
	SegmentHeaderSize = 14
	// SegmentFooterSize is the fixed size of a Segment Footer.
	SegmentFooterSize = 36
	// FileEOSSize is the fixed size of the trailing File EOS block.
	FileEOSSize = 37
	// SectionHashSize is the size of a section's recorded hash-chain value.
	SectionHashSize = 32
	// AuthTagSize is the size of a section's AES-256-GCM authentication tag.
	AuthTagSize = 16
	// DefaultBloomSize is the default serialized size of a segment's bloom
	// filter, in bytes (2048 bits).
	DefaultBloomSize = 256
	// DefaultBlockSize is the default number of items per block.
	DefaultBlockSize = 1000
	// DefaultSegmentByteLimit is the default uncompressed-size threshold that
	// triggers sealing the current segment.
	DefaultSegmentByteLimit = 1 << 20 // 1 MiB
	// MaxSectionUncompressedSize is the hard safety cap enforced before any
	// decompression buffer is allocated.
	MaxSectionUncompressedSize = 64 << 20 // 64 MiB
	// DefaultDictionaryCapacity bounds the Dictionary+Varint codec's table.
	DefaultDictionaryCapacity = 4096
	// MaxRunLength is the largest run length the RLE codec can emit in a
	// single pair; longer runs are split.
	MaxRunLength = 255

	// BloomSeed1, BloomSeed2, BloomSeed3 parametrize the three independent
	// multiply-xor-shift hash mixes used by the segment bloom filter.
	BloomSeed1 uint32 = 0x12345678
	BloomSeed2 uint32 = 0x87654321
	BloomSeed3 uint32 = 0xABCDEF01
)

// EncMode identifies the authenticated-encryption scheme named in a file's
// encryption header.
type EncMode uint8

const (
	EncModeAES256GCM EncMode = 1
)

// KDFID identifies the key-derivation function named in a file's encryption
// header.
type KDFID uint8

const (
	KDFPBKDF2 KDFID = 1
)

// DigestID identifies the PBKDF2 pseudo-random function.
type DigestID uint8

const (
	DigestSHA256 DigestID = 1
)
