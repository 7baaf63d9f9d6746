// Package crypt implements gics' optional authenticated encryption
// (SPEC_FULL.md §4.8): PBKDF2 key derivation, AES-256-GCM per-section
// sealing, and the deterministic nonce scheme resolving DESIGN.md's Open
// Question 1.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/Shiloren/gics/endian"
	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/format"
)

var le = endian.GetLittleEndianEngine()

// KeySize is the AES-256 key size in bytes.
const KeySize = 32

// SaltSize is the PBKDF2 salt size in bytes.
const SaltSize = 16

// NonceSize is the AES-GCM nonce size in bytes.
const NonceSize = 12

// Header is the file's optional encryption header (§4.8): written
// immediately after the file header when FileFlagEncrypted is set.
type Header struct {
	Mode       format.EncMode
	Salt       [SaltSize]byte
	AuthVerify [32]byte
	KDF        format.KDFID
	Iterations uint32
	Digest     format.DigestID
	FileNonce  [NonceSize]byte
}

// Size is the fixed serialized size of Header.
const Size = 1 + SaltSize + 32 + 1 + 4 + 1 + NonceSize

// DeriveKey derives a 32-byte AES-256 key from password, salt and
// iterations via PBKDF2-HMAC-SHA256.
func DeriveKey(password string, salt [SaltSize]byte, iterations uint32) []byte {
	return pbkdf2.Key([]byte(password), salt[:], int(iterations), KeySize, sha256.New)
}

// authVerifyTag computes the HMAC-SHA256 of the salt under the derived
// key, letting a Reader reject a wrong password before attempting to
// decrypt any section payload.
func authVerifyTag(key []byte, salt [SaltSize]byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(salt[:])

	var out [32]byte
	copy(out[:], mac.Sum(nil))

	return out
}

// NewHeader builds a fresh encryption header for password, generating a
// random salt and file nonce.
func NewHeader(password string, iterations uint32) (Header, []byte, error) {
	h := Header{
		Mode:       format.EncModeAES256GCM,
		KDF:        format.KDFPBKDF2,
		Iterations: iterations,
		Digest:     format.DigestSHA256,
	}

	if _, err := rand.Read(h.Salt[:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: generating salt: %v", errs.ErrIO, err)
	}
	if _, err := rand.Read(h.FileNonce[:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: generating nonce: %v", errs.ErrIO, err)
	}

	key := DeriveKey(password, h.Salt, h.Iterations)
	h.AuthVerify = authVerifyTag(key, h.Salt)

	return h, key, nil
}

// VerifyPassword derives the key from password against h and checks it
// against h.AuthVerify, returning the key on success.
func VerifyPassword(h Header, password string) ([]byte, error) {
	key := DeriveKey(password, h.Salt, h.Iterations)
	want := authVerifyTag(key, h.Salt)
	if !hmac.Equal(want[:], h.AuthVerify[:]) {
		return nil, errs.ErrInvalidPassword
	}

	return key, nil
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	buf := make([]byte, 0, Size)
	buf = append(buf, byte(h.Mode))
	buf = append(buf, h.Salt[:]...)
	buf = append(buf, h.AuthVerify[:]...)
	buf = append(buf, byte(h.KDF))

	var iter [4]byte
	le.PutUint32(iter[:], h.Iterations)
	buf = append(buf, iter[:]...)

	buf = append(buf, byte(h.Digest))
	buf = append(buf, h.FileNonce[:]...)

	return buf
}

// ParseHeader parses an encryption header from the first Size bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < Size {
		return Header{}, fmt.Errorf("%w: encryption header", errs.ErrUnexpectedEOF)
	}

	var h Header
	h.Mode = format.EncMode(data[0])
	copy(h.Salt[:], data[1:1+SaltSize])
	off := 1 + SaltSize
	copy(h.AuthVerify[:], data[off:off+32])
	off += 32
	h.KDF = format.KDFID(data[off])
	off++
	h.Iterations = le.Uint32(data[off : off+4])
	off += 4
	h.Digest = format.DigestID(data[off])
	off++
	copy(h.FileNonce[:], data[off:off+NonceSize])

	return h, nil
}

// sectionNonce derives the deterministic per-section nonce: fileNonce
// XOR-folded with the stream id and the absolute section ordinal (across
// the whole file), big-endian. See DESIGN.md Open Question 1.
func sectionNonce(fileNonce [NonceSize]byte, streamID format.StreamID, ordinal uint32) [NonceSize]byte {
	nonce := fileNonce

	nonce[NonceSize-5] ^= byte(streamID)

	var ord [4]byte
	binary.BigEndian.PutUint32(ord[:], ordinal)
	for i := 0; i < 4; i++ {
		nonce[NonceSize-4+i] ^= ord[i]
	}

	return nonce
}

// Seal encrypts plaintext for one section under key, returning ciphertext
// and the 16-byte GCM tag. associatedData is fileHeaderBytes || streamId
// per §4.8.
func Seal(key []byte, fileNonce [NonceSize]byte, streamID format.StreamID, ordinal uint32, associatedData, plaintext []byte) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: aes cipher: %v", errs.ErrIO, err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, format.AuthTagSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: gcm: %v", errs.ErrIO, err)
	}

	nonce := sectionNonce(fileNonce, streamID, ordinal)
	sealed := gcm.Seal(nil, nonce[:], plaintext, associatedData)

	ctLen := len(sealed) - format.AuthTagSize

	return sealed[:ctLen], sealed[ctLen:], nil
}

// Open decrypts ciphertext+tag for one section under key, verifying the
// authentication tag. Any failure is reported as errs.ErrDecryptionFailed.
func Open(key []byte, fileNonce [NonceSize]byte, streamID format.StreamID, ordinal uint32, associatedData, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: aes cipher: %v", errs.ErrDecryptionFailed, err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, format.AuthTagSize)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm: %v", errs.ErrDecryptionFailed, err)
	}

	nonce := sectionNonce(fileNonce, streamID, ordinal)
	sealed := append(append([]byte(nil), ciphertext...), tag...)

	plaintext, err := gcm.Open(nil, nonce[:], sealed, associatedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDecryptionFailed, err)
	}

	return plaintext, nil
}
