package codec

import (
	"fmt"
	"math"

	"github.com/Shiloren/gics/format"
)

// maxSafeInteger is the practical 53-bit limit spec.md names for the
// source's numeric type (mirrors JS Number.MAX_SAFE_INTEGER). A block is
// only eligible for the six integer-domain codecs when every value in it
// round-trips exactly through int64 within this magnitude; any other block
// is stored with Fixed64-LE only.
const maxSafeInteger = 1 << 53

// isInt64Exact reports whether v is finite, has no fractional part, and its
// magnitude is within the 53-bit practical limit.
func isInt64Exact(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v != math.Trunc(v) {
		return false
	}

	return math.Abs(v) <= maxSafeInteger
}

// integerDomainEligible reports whether every value in the block can be
// losslessly represented as int64, making it eligible for the six
// integer-domain inner codecs in addition to Fixed64-LE.
func integerDomainEligible(values []float64) bool {
	for _, v := range values {
		if !isInt64Exact(v) {
			return false
		}
	}

	return true
}

func toInt64Slice(values []float64) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}

	return out
}

func toFloat64Slice(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}

type candidate struct {
	id      format.InnerCodecID
	payload []byte
}

// Trial encodes values under every eligible candidate inner codec and
// returns the one producing the smallest payload, per SPEC_FULL.md §4.2.
// The returned quarantine flag is a purely observational health signal
// (set when the winner is the Fixed64-LE safety floor, i.e. no packing
// codec beat raw IEEE-754 storage); it has no effect on decoding.
func Trial(values []float64) (id format.InnerCodecID, payload []byte, quarantine bool, err error) {
	return trial(values, false)
}

// TrialHinted is Trial restricted by a Delta-vs-DoD preference, for streams
// where the Writer has already computed codec.PreferDoD on the full column
// (SPEC_FULL.md §4.2's "value numerics: Delta OR DoD ... selected when
// neighboring deltas are roughly linear"). When preferDoD is true, the
// Varint-Delta and BitPack-Delta candidates are skipped so the trial cost
// stays proportional to the already-made heuristic decision rather than
// brute-forcing both families on every block.
func TrialHinted(values []float64, preferDoD bool) (id format.InnerCodecID, payload []byte, quarantine bool, err error) {
	return trial(values, preferDoD)
}

func trial(values []float64, preferDoD bool) (id format.InnerCodecID, payload []byte, quarantine bool, err error) {
	if len(values) == 0 {
		return format.InnerFixed64, nil, false, nil
	}

	candidates := make([]candidate, 0, 7)

	if integerDomainEligible(values) {
		ints := toInt64Slice(values)

		if !preferDoD {
			candidates = append(candidates,
				candidate{format.InnerVarintDelta, EncodeVarintDelta(ints)},
				candidate{format.InnerBitPackDelta, EncodeBitPackDelta(ints)},
			)
		}

		candidates = append(candidates,
			candidate{format.InnerRLEZigZag, EncodeRLEZigZag(ints)},
			candidate{format.InnerDoDVarint, EncodeDoDVarint(ints)},
			candidate{format.InnerRLEDoD, EncodeRLEDoD(ints)},
		)

		if dictPayload, ok := EncodeDictVarint(ints, format.DefaultDictionaryCapacity); ok {
			candidates = append(candidates, candidate{format.InnerDictVarint, dictPayload})
		}
	}

	fixed64 := EncodeFixed64(values)
	candidates = append(candidates, candidate{format.InnerFixed64, fixed64})

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.payload) < len(best.payload) {
			best = c
		}
	}

	quarantine = best.id == format.InnerFixed64

	return best.id, best.payload, quarantine, nil
}

// Decode inverts Trial's chosen encoding, returning exactly n float64
// values.
func Decode(id format.InnerCodecID, data []byte, n int) ([]float64, error) {
	switch id {
	case format.InnerFixed64:
		return DecodeFixed64(data, n)
	case format.InnerVarintDelta:
		ints, err := DecodeVarintDelta(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	case format.InnerBitPackDelta:
		ints, err := DecodeBitPackDelta(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	case format.InnerRLEZigZag:
		ints, err := DecodeRLEZigZag(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	case format.InnerDictVarint:
		ints, err := DecodeDictVarint(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	case format.InnerDoDVarint:
		ints, err := DecodeDoDVarint(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	case format.InnerRLEDoD:
		ints, err := DecodeRLEDoD(data, n)
		if err != nil {
			return nil, err
		}

		return toFloat64Slice(ints), nil
	default:
		return nil, fmt.Errorf("codec: unknown inner codec id %d", id)
	}
}
