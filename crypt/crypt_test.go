package crypt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shiloren/gics/format"
)

func TestHeaderRoundTrip(t *testing.T) {
	h, _, err := NewHeader("hunter2", 10000)
	require.NoError(t, err)

	parsed, err := ParseHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	h, _, err := NewHeader("correct-password", 10000)
	require.NoError(t, err)

	_, err = VerifyPassword(h, "wrong-password")
	require.Error(t, err)

	key, err := VerifyPassword(h, "correct-password")
	require.NoError(t, err)
	require.Len(t, key, KeySize)
}

func TestSealOpenRoundTrip(t *testing.T) {
	h, key, err := NewHeader("pw", 10000)
	require.NoError(t, err)

	ad := append([]byte("file-header-bytes"), byte(format.StreamTime))
	plaintext := []byte("stream section payload bytes")

	ct, tag, err := Seal(key, h.FileNonce, format.StreamTime, 0, ad, plaintext)
	require.NoError(t, err)

	pt, err := Open(key, h.FileNonce, format.StreamTime, 0, ad, ct, tag)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestOpenRejectsTamperedTag(t *testing.T) {
	h, key, err := NewHeader("pw", 10000)
	require.NoError(t, err)

	ad := []byte("ad")
	ct, tag, err := Seal(key, h.FileNonce, format.StreamItemID, 3, ad, []byte("secret"))
	require.NoError(t, err)

	tag[0] ^= 0xFF
	_, err = Open(key, h.FileNonce, format.StreamItemID, 3, ad, ct, tag)
	require.Error(t, err)
}

func TestDifferentOrdinalsYieldDifferentNonces(t *testing.T) {
	h, key, err := NewHeader("pw", 10000)
	require.NoError(t, err)

	ad := []byte("ad")
	ct1, tag1, err := Seal(key, h.FileNonce, format.StreamTime, 0, ad, []byte("same-plaintext!!"))
	require.NoError(t, err)
	ct2, tag2, err := Seal(key, h.FileNonce, format.StreamTime, 1, ad, []byte("same-plaintext!!"))
	require.NoError(t, err)

	require.NotEqual(t, ct1, ct2)
	require.NotEqual(t, tag1, tag2)
}
