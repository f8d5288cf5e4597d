package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	cardFieldVersion = "v1"
	cardKeySalt      = "securebank-card-key"
	cardKeyInfo      = "securebank-card-master-v1"
)

var (
	ErrCardCipherNotReady = errors.New("card cipher not ready")
	ErrMalformedCardField = errors.New("malformed encrypted card field")
)

// CardCipher seals card fields (number, cvv) into printable tokens of the
// form "v1.<nonce>.<ciphertext>" so they fit the TEXT card columns. Each
// field name gets its own subkey and is bound into the associated data, so a
// token cannot be moved between columns.
type CardCipher struct {
	key *memguard.LockedBuffer
}

func NewCardCipher(secret string) (*CardCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("new card cipher: secret must not be empty")
	}
	raw, err := DeriveHKDFSHA256([]byte(secret), []byte(cardKeySalt), []byte(cardKeyInfo), chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("new card cipher: %w", err)
	}
	return &CardCipher{key: memguard.NewBufferFromBytes(raw)}, nil
}

func (c *CardCipher) Seal(field, plaintext string) (string, error) {
	key, err := c.fieldKey(field)
	if err != nil {
		return "", err
	}
	defer memguard.WipeBytes(key)

	nonce, err := randomNonce(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	ciphertext, err := SealXChaCha20Poly1305(key, nonce, []byte(plaintext), cardFieldAAD(field))
	if err != nil {
		return "", fmt.Errorf("seal card %s: %w", field, err)
	}

	enc := base64.RawURLEncoding
	return cardFieldVersion + "." + enc.EncodeToString(nonce) + "." + enc.EncodeToString(ciphertext), nil
}

func (c *CardCipher) Open(field, token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != cardFieldVersion {
		return "", ErrMalformedCardField
	}
	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrMalformedCardField, err)
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrMalformedCardField, err)
	}

	key, err := c.fieldKey(field)
	if err != nil {
		return "", err
	}
	defer memguard.WipeBytes(key)

	plaintext, err := OpenXChaCha20Poly1305(key, nonce, ciphertext, cardFieldAAD(field))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (c *CardCipher) Destroy() {
	if c == nil || c.key == nil {
		return
	}
	if c.key.IsAlive() {
		c.key.Destroy()
	}
	c.key = nil
}

func (c *CardCipher) fieldKey(field string) ([]byte, error) {
	if c == nil || c.key == nil || !c.key.IsAlive() {
		return nil, ErrCardCipherNotReady
	}
	if field == "" {
		return nil, fmt.Errorf("card cipher: field name must not be empty")
	}
	key, err := DeriveHKDFSHA256(c.key.Bytes(), nil, []byte(cardFieldVersion+":"+field), chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive card field key: %w", err)
	}
	return key, nil
}

func cardFieldAAD(field string) []byte {
	return []byte("securebank-card:" + cardFieldVersion + ":" + field)
}
