package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	ErrInvalidKeySize    = errors.New("credentials: key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("credentials: ciphertext too short")
)

const keySize = 32

// GenerateKey returns a fresh random AES-256 key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Cipher encrypts stored credentials with AES-256-GCM. Output is base64 of
// nonce followed by the sealed ciphertext and tag.
type Cipher struct {
	gcm cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{gcm: gcm}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	n := c.gcm.NonceSize()
	if len(raw) < n+c.gcm.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := c.gcm.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Resolve turns a stored credential into plaintext in two steps: try to
// decrypt, and if that fails treat the stored value as already plaintext.
// Values saved before encryption was introduced keep working this way.
// encrypted reports which branch was taken.
func (c *Cipher) Resolve(stored string) (plaintext string, encrypted bool) {
	if stored == "" {
		return "", false
	}
	if c != nil {
		if p, err := c.Decrypt(stored); err == nil {
			return p, true
		}
	}
	return stored, false
}
