// Package errs defines the stable error taxonomy used throughout gics.
//
// Every error surfaced by a public operation wraps one of the sentinel
// errors below via fmt.Errorf("%w: ...", errs.ErrX, ...) and satisfies
// errors.Is against that sentinel; errors classified with Wrap also
// satisfy errs.Is against their Kind.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the taxonomy fixed by the format.
type Kind uint8

const (
	// KindUnknown is never returned by the package; it is the zero value.
	KindUnknown Kind = iota
	// KindIncompleteData covers unexpected EOF, truncated structures, missing EOS.
	KindIncompleteData
	// KindIntegrity covers magic/CRC/hash-chain mismatches, bad bounds, bad password.
	KindIntegrity
	// KindLimitExceeded covers declared sizes or counts above a safety cap.
	KindLimitExceeded
	// KindSchemaViolation covers data that does not conform to the active schema.
	KindSchemaViolation
	// KindVersionMismatch covers an unsupported version byte.
	KindVersionMismatch
	// KindIoError covers failures at the file-handle boundary only.
	KindIoError
)

func (k Kind) String() string {
	switch k {
	case KindIncompleteData:
		return "IncompleteData"
	case KindIntegrity:
		return "Integrity"
	case KindLimitExceeded:
		return "LimitExceeded"
	case KindSchemaViolation:
		return "SchemaViolation"
	case KindVersionMismatch:
		return "VersionMismatch"
	case KindIoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error wraps a sentinel error with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error for op, classified as kind, wrapping err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind: err must be, or wrap, an
// *Error with that Kind. A bare sentinel that was never passed through Wrap
// carries no Kind and yields false.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// Sentinel errors. Every returned error from a public operation wraps one
// of these via fmt.Errorf("%w: ...", ErrX, ...).
var (
	// IncompleteData
	ErrUnexpectedEOF  = errors.New("unexpected end of data")
	ErrTruncatedBlock = errors.New("truncated block")
	ErrTruncatedFile  = errors.New("truncated file")
	ErrMissingEOS     = errors.New("missing file EOS marker")

	// Integrity
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrCRCMismatch        = errors.New("CRC32 mismatch")
	ErrChainMismatch      = errors.New("hash-chain mismatch")
	ErrDecompressedLen    = errors.New("decompressed length mismatch")
	ErrOutOfBounds        = errors.New("offset or length out of bounds")
	ErrCrossStreamLength  = errors.New("cross-stream length invariant violated")
	ErrInvalidPassword    = errors.New("invalid encryption password")
	ErrDecryptionFailed   = errors.New("authenticated decryption failed")
	ErrDuplicateItemKey   = errors.New("duplicate item key within snapshot")
	ErrUnsortedItemKeys   = errors.New("item keys not sorted ascending")
	ErrNonMonotonicTime   = errors.New("timestamp decreased within file")

	// LimitExceeded
	ErrSectionTooLarge = errors.New("declared uncompressed size exceeds safety cap")
	ErrDictionaryFull  = errors.New("dictionary exceeded its bounded capacity")
	ErrTooManyBlocks   = errors.New("block count exceeds implementation maximum")

	// SchemaViolation
	ErrUnknownCategorical    = errors.New("categorical value not in enum and not passthrough")
	ErrMissingField          = errors.New("record missing required field")
	ErrWrongItemIDType       = errors.New("item key type does not match schema itemIdType")
	ErrWrongFieldType        = errors.New("field value does not match schema field type")
	ErrAppendToEncryptedFile = errors.New("cannot reopen an encrypted file for append")

	// VersionMismatch
	ErrUnsupportedVersion = errors.New("unsupported version byte")

	// IoError
	ErrIO = errors.New("i/o error")
)
