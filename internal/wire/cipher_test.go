package wire

import (
	"bytes"
	"testing"
)

func TestCipherSealOpenRoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	salt := []byte("corespot-test-salt")

	c, err := NewCipher(secret, salt, "corespot client->server")
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	plaintext := []byte("GETPLAYLIST payload goes here")
	sealed, err := c.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("want %q, got %q", plaintext, opened)
	}
}

func TestCipherSequentialNoncesDontRepeat(t *testing.T) {
	secret := bytes.Repeat([]byte{0x7}, 32)
	c, err := NewCipher(secret, nil, "corespot server->client")
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	a, _ := c.Seal([]byte("first"))
	b, _ := c.Seal([]byte("second"))
	if bytes.Equal(a[:8], b[:8]) {
		t.Fatal("sequential seals should use distinct nonce counters")
	}
}

func TestCipherRejectsShortCiphertext(t *testing.T) {
	secret := bytes.Repeat([]byte{0x1}, 32)
	c, err := NewCipher(secret, nil, "corespot client->server")
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	if _, err := c.Open([]byte{1, 2, 3}); err == nil {
		t.Fatal("want error opening too-short ciphertext")
	}
}
