package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// ErrEncryption is returned for any encryption or decryption failure,
// including a missing key and tampered or truncated ciphertext.
var ErrEncryption = errors.New("token encryption failure")

// Key derivation parameters. The salt is fixed so that the same operator
// secret always derives the same key across restarts.
const (
	kdfSalt       = "brandai_github_token_salt"
	kdfIterations = 100000
	keyLength     = 32
)

// Cipher encrypts GitHub access tokens for storage at rest using
// AES-256-GCM. The key is derived once at construction via PBKDF2 from an
// operator-supplied secret; the Cipher is immutable afterwards and safe for
// concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New derives the encryption key from secret and returns a ready Cipher.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: encryption key is not configured", ErrEncryption)
	}

	key := pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns a printable base64url string. A fresh
// random nonce is used per call, so ciphertexts differ for equal plaintexts.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. GCM authenticates the ciphertext, so any
// tampering or truncation fails rather than yielding corrupted plaintext.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext encoding", ErrEncryption)
	}

	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryption)
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext authentication failed", ErrEncryption)
	}

	return string(plaintext), nil
}
