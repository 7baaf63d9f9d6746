package codec

import "errors"

// ErrMalformedVarint is returned when a varint cannot be decoded from the
// remaining bytes (truncated or corrupt stream).
var ErrMalformedVarint = errors.New("codec: malformed varint")

// ErrItemCountMismatch is returned when a decoder finishes without having
// consumed exactly the number of items the caller declared.
var ErrItemCountMismatch = errors.New("codec: decoded item count mismatch")

// ErrBitWidthOutOfRange is returned when a bit-pack width byte is 0 or > 64.
var ErrBitWidthOutOfRange = errors.New("codec: bit-pack width out of range")

// ErrDictionaryOverflow is returned when the dictionary codec exceeds its
// bounded capacity mid-block.
var ErrDictionaryOverflow = errors.New("codec: dictionary capacity exceeded")

// ErrTruncatedPayload is returned when a codec's payload ends before the
// declared item count has been produced.
var ErrTruncatedPayload = errors.New("codec: truncated payload")
