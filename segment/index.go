package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/Shiloren/gics/bloomfilter"
	"github.com/Shiloren/gics/codec"
	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
)

var le = endian.GetLittleEndianEngine()

// Index is the Segment Index: a bloom filter over item keys, the sorted
// deduplicated item-ID list (varint-delta on the wire), and an optional
// string dictionary for string-keyed schemas.
type Index struct {
	Bloom      *bloomfilter.Filter
	ItemIDs    []uint64 // sorted ascending, deduplicated, numeric or dict-mapped
	Dictionary []string // present iff the schema is string-keyed; index = wire id
}

// dictTracker dedups string keys (after NFC normalization) into small
// integer ids within one segment, mirroring the teacher's hash-collision
// tracker shape but keyed on normalized string identity rather than a hash.
type dictTracker struct {
	index map[string]int
	order []string
}

func newDictTracker() *dictTracker {
	return &dictTracker{index: make(map[string]int)}
}

// Intern normalizes s to NFC and returns its small integer id, assigning a
// new one if s has not been seen before in this segment.
func (t *dictTracker) Intern(s string) int {
	n := norm.NFC.String(s)
	if id, ok := t.index[n]; ok {
		return id
	}

	id := len(t.order)
	t.index[n] = id
	t.order = append(t.order, n)

	return id
}

func (t *dictTracker) Strings() []string { return t.order }

// NewDictTracker exposes dictTracker to the writer package.
func NewDictTracker() *dictTracker { return newDictTracker() } //nolint:revive

// StringHash returns the xxhash of s (mirroring the teacher's
// internal/hash.ID). dictTracker.Intern does not use it; interning is
// keyed on the NFC-normalized string itself.
func StringHash(s string) uint64 { return xxhash.Sum64String(s) }

// Build assembles an Index from the segment's full set of item keys
// (already resolved to uint64, with string keys pre-interned through a
// dictTracker) and an optional dictionary.
func Build(itemIDs []uint64, dictionary []string) *Index {
	unique := dedupSorted(itemIDs)

	bloom := bloomfilter.New(format.DefaultBloomSize)
	for _, id := range unique {
		bloom.Add(id)
	}

	return &Index{Bloom: bloom, ItemIDs: unique, Dictionary: dictionary}
}

func dedupSorted(ids []uint64) []uint64 {
	cp := make([]uint64, len(ids))
	copy(cp, ids)

	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j] < cp[j-1]; j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}

	out := cp[:0]
	for i, v := range cp {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}

	return out
}

// Bytes serializes the index: bloomSize u16 LE + bloom bits + itemCount
// varint + varint-delta sorted ids + hasDict byte + [dictLen u32 LE +
// dictCount varint + (strLen varint + utf8)*count].
func (idx *Index) Bytes() []byte {
	var buf []byte

	var sz [2]byte
	le.PutUint16(sz[:], uint16(idx.Bloom.Size()))
	buf = append(buf, sz[:]...)
	buf = append(buf, idx.Bloom.Bytes()...)

	buf = codec.AppendVarint(buf, uint64(len(idx.ItemIDs)))
	var prev uint64
	for _, id := range idx.ItemIDs {
		buf = codec.AppendVarint(buf, id-prev)
		prev = id
	}

	if len(idx.Dictionary) == 0 {
		buf = append(buf, 0)

		return buf
	}

	dictBuf := codec.AppendVarint(nil, uint64(len(idx.Dictionary)))
	for _, s := range idx.Dictionary {
		dictBuf = codec.AppendVarint(dictBuf, uint64(len(s)))
		dictBuf = append(dictBuf, s...)
	}

	buf = append(buf, 1)
	var dlen [4]byte
	le.PutUint32(dlen[:], uint32(len(dictBuf)))
	buf = append(buf, dlen[:]...)
	buf = append(buf, dictBuf...)

	return buf
}

// ParseIndex parses an Index starting at the beginning of data, returning
// the index and the number of bytes consumed.
func ParseIndex(data []byte) (*Index, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: index bloom size", errs.ErrUnexpectedEOF)
	}

	bloomSize := int(le.Uint16(data[0:2]))
	pos := 2
	if len(data) < pos+bloomSize {
		return nil, 0, fmt.Errorf("%w: index bloom bits", errs.ErrOutOfBounds)
	}
	bloom := bloomfilter.FromBytes(append([]byte(nil), data[pos:pos+bloomSize]...))
	pos += bloomSize

	r := &byteCursor{data: data, pos: pos}
	count, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, 0, count)
	var prev uint64
	for i := uint64(0); i < count; i++ {
		d, err := r.uvarint()
		if err != nil {
			return nil, 0, err
		}
		prev += d
		ids = append(ids, prev)
	}

	if r.pos >= len(data) {
		return nil, 0, fmt.Errorf("%w: index hasDict flag", errs.ErrUnexpectedEOF)
	}
	hasDict := data[r.pos]
	r.pos++

	idx := &Index{Bloom: bloom, ItemIDs: ids}

	if hasDict == 0 {
		return idx, r.pos, nil
	}

	if len(data) < r.pos+4 {
		return nil, 0, fmt.Errorf("%w: index dict length", errs.ErrUnexpectedEOF)
	}
	dictLen := int(le.Uint32(data[r.pos : r.pos+4]))
	r.pos += 4

	dictEnd := r.pos + dictLen
	if dictLen < 0 || len(data) < dictEnd {
		return nil, 0, fmt.Errorf("%w: index dict payload", errs.ErrOutOfBounds)
	}

	dictCount, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}

	dict := make([]string, 0, dictCount)
	for i := uint64(0); i < dictCount; i++ {
		strLen, err := r.uvarint()
		if err != nil {
			return nil, 0, err
		}
		if uint64(r.pos)+strLen > uint64(dictEnd) {
			return nil, 0, fmt.Errorf("%w: index dict string", errs.ErrOutOfBounds)
		}
		dict = append(dict, string(data[r.pos:r.pos+int(strLen)]))
		r.pos += int(strLen)
	}

	idx.Dictionary = dict

	return idx, dictEnd, nil
}

type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) uvarint() (uint64, error) {
	v, n := binary.Uvarint(c.data[c.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: index varint", errs.ErrUnexpectedEOF)
	}
	c.pos += n

	return v, nil
}
