package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrMissingKey means no key material was available at construction.
	ErrMissingKey = errors.New("field encryption key is not configured")
	// ErrDecryptFailed covers malformed tokens and wrong-key ciphertext.
	// Report generators treat it as "value unavailable", not as a hard stop.
	ErrDecryptFailed = errors.New("failed to decrypt field")
)

// KeyProvider supplies the symmetric key used for field encryption.
// Injecting it keeps key loading out of the codec and makes a missing key
// a construction-time failure.
type KeyProvider interface {
	Key() ([]byte, error)
}

// StaticKeyProvider derives a 32-byte AES key from a configured secret.
type StaticKeyProvider struct {
	secret string
}

func NewStaticKeyProvider(secret string) *StaticKeyProvider {
	return &StaticKeyProvider{secret: secret}
}

func (p *StaticKeyProvider) Key() ([]byte, error) {
	if p.secret == "" {
		return nil, ErrMissingKey
	}
	// PBKDF2 keeps the derived key stable across restarts while tolerating
	// secrets of any length.
	return pbkdf2.Key([]byte(p.secret), []byte("payroll-field-encryption"), 4096, 32, sha256.New), nil
}

// Codec encrypts and decrypts sensitive scalar fields with AES-256-GCM.
// Tokens are "nonceHex:cipherHex"; the nonce is random per call, so equal
// plaintexts never produce equal tokens.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(provider KeyProvider) (*Codec, error) {
	key, err := provider.Key()
	if err != nil {
		return nil, fmt.Errorf("load encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt returns a fresh token for plaintext. Encrypting the same value
// twice yields different tokens.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Any malformed token or wrong-key ciphertext
// comes back as ErrDecryptFailed.
func (c *Codec) Decrypt(token string) (string, error) {
	nonceHex, cipherHex, ok := strings.Cut(token, ":")
	if !ok {
		return "", ErrDecryptFailed
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrDecryptFailed
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", ErrDecryptFailed
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
