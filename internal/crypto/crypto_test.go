package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHKDFSHA256KAT(t *testing.T) {
	t.Parallel()

	ikm := bytes.Repeat([]byte{0x0b}, 22)
	salt := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c}
	info := []byte{0xf0, 0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8, 0xf9}

	got, err := DeriveHKDFSHA256(ikm, salt, info, 42)
	require.NoError(t, err)
	require.Equal(t, mustDecodeHex(t, "3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865"), got)
}

func TestHKDFRejectsEmptyIKM(t *testing.T) {
	t.Parallel()

	_, err := DeriveHKDFSHA256(nil, nil, nil, 32)
	require.ErrorIs(t, err, ErrInvalidHKDFInput)
}

func TestXChaCha20Poly1305RoundTripAndTamper(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0x11}, 32)
	nonce := bytes.Repeat([]byte{0x22}, 24)
	aad := []byte("securebank-card:v1:card_number")

	sealed, err := SealXChaCha20Poly1305(key, nonce, []byte("4532015112830366"), aad)
	require.NoError(t, err)

	opened, err := OpenXChaCha20Poly1305(key, nonce, sealed, aad)
	require.NoError(t, err)
	require.Equal(t, "4532015112830366", string(opened))

	sealed[0] ^= 0xff
	_, err = OpenXChaCha20Poly1305(key, nonce, sealed, aad)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestXChaCha20Poly1305RejectsShortKey(t *testing.T) {
	t.Parallel()

	_, err := SealXChaCha20Poly1305([]byte("short"), make([]byte, 24), []byte("x"), nil)
	require.ErrorIs(t, err, ErrInvalidAEADInput)
}

func TestHashPasswordVerifies(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Demo123!", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Demo123!", hash)
	require.True(t, strings.HasPrefix(hash, "$2a$"))

	require.NoError(t, ComparePassword(hash, "Demo123!"))
	require.ErrorIs(t, ComparePassword(hash, "demo123!"), ErrPasswordMismatch)
}

func TestHashPasswordRecordsCost(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Demo123!", 5)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, 5, cost)
}

func TestHashPasswordRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("", DefaultPasswordCost)
	require.Error(t, err)

	_, err = HashPassword("Demo123!", 2)
	require.Error(t, err)
}

func TestCardCipherRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCardCipher(t, "test-card-key")

	token, err := c.Seal("card_number", "4532015112830366")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "v1."))
	require.NotContains(t, token, "4532015112830366")

	plain, err := c.Open("card_number", token)
	require.NoError(t, err)
	require.Equal(t, "4532015112830366", plain)
}

func TestCardCipherFreshNoncePerSeal(t *testing.T) {
	t.Parallel()

	c := newTestCardCipher(t, "test-card-key")

	first, err := c.Seal("cvv", "123")
	require.NoError(t, err)
	second, err := c.Seal("cvv", "123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCardCipherTokenBoundToField(t *testing.T) {
	t.Parallel()

	c := newTestCardCipher(t, "test-card-key")

	token, err := c.Seal("cvv", "123")
	require.NoError(t, err)

	_, err = c.Open("card_number", token)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestCardCipherWrongKeyFails(t *testing.T) {
	t.Parallel()

	a := newTestCardCipher(t, "key-a")
	b := newTestCardCipher(t, "key-b")

	token, err := a.Seal("card_number", "4532015112830366")
	require.NoError(t, err)

	_, err = b.Open("card_number", token)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestCardCipherSameSecretOpensAcrossInstances(t *testing.T) {
	t.Parallel()

	a := newTestCardCipher(t, "shared")
	b := newTestCardCipher(t, "shared")

	token, err := a.Seal("card_number", "4532015112830366")
	require.NoError(t, err)

	plain, err := b.Open("card_number", token)
	require.NoError(t, err)
	require.Equal(t, "4532015112830366", plain)
}

func TestCardCipherRejectsMalformedToken(t *testing.T) {
	t.Parallel()

	c := newTestCardCipher(t, "test-card-key")

	for _, token := range []string{"", "4532015112830366", "v2.a.b", "v1.!!.b"} {
		_, err := c.Open("card_number", token)
		require.ErrorIs(t, err, ErrMalformedCardField, token)
	}
}

func TestCardCipherDestroy(t *testing.T) {
	t.Parallel()

	c, err := NewCardCipher("test-card-key")
	require.NoError(t, err)
	c.Destroy()

	_, err = c.Seal("cvv", "123")
	require.ErrorIs(t, err, ErrCardCipherNotReady)
}

func newTestCardCipher(t *testing.T, secret string) *CardCipher {
	t.Helper()
	c, err := NewCardCipher(secret)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func mustDecodeHex(t *testing.T, value string) []byte {
	t.Helper()
	out, err := hex.DecodeString(value)
	require.NoError(t, err)
	return out
}
