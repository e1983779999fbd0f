package wire

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Cipher seals and opens frame payloads over the authenticated transport.
// Sessions derive one Cipher per connection from the shared secret
// established during login.
type Cipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// aesGCMCipher implements Cipher with AES-256-GCM, keyed by HKDF-SHA256
// over the session's shared secret (DOMAIN STACK: golang.org/x/crypto/hkdf
// for transport key derivation).
type aesGCMCipher struct {
	aead  cipher.AEAD
	nonce []byte // 4-byte salt prefix; the remaining 8 bytes are a counter
	seq   uint64
}

// NewCipher derives an AES-256-GCM cipher from sharedSecret using HKDF,
// with info distinguishing the two directions of traffic so client and
// server never reuse a key for both.
func NewCipher(sharedSecret, salt []byte, info string) (Cipher, error) {
	kdf := hkdf.New(sha256.New, sharedSecret, salt, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("wire: derive cipher key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("wire: new aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wire: new gcm: %w", err)
	}
	noncePrefix := make([]byte, 4)
	if _, err := rand.Read(noncePrefix); err != nil {
		return nil, fmt.Errorf("wire: generate nonce prefix: %w", err)
	}
	return &aesGCMCipher{aead: aead, nonce: noncePrefix}, nil
}

// nextNonce builds the next 12-byte GCM nonce: a 4-byte random prefix
// followed by an 8-byte big-endian sequence counter, so the cipher never
// reuses a nonce within the connection's lifetime.
func (c *aesGCMCipher) nextNonce() []byte {
	n := make([]byte, 0, 12)
	n = append(n, c.nonce...)
	for i := 7; i >= 0; i-- {
		n = append(n, byte(c.seq>>(8*uint(i))))
	}
	c.seq++
	return n
}

func (c *aesGCMCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := c.nextNonce()
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce[4:], sealed...), nil
}

func (c *aesGCMCipher) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 8 {
		return nil, fmt.Errorf("wire: ciphertext too short")
	}
	nonce := append(append([]byte{}, c.nonce...), ciphertext[:8]...)
	plaintext, err := c.aead.Open(nil, nonce, ciphertext[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("wire: open sealed frame: %w", err)
	}
	return plaintext, nil
}
