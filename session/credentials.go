package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// credentialCache remembers a bcrypt hash of the last password used for
// each username that has logged in from this cache directory, so a second
// Login with the wrong password fails fast instead of reaching the wire.
// This is a local unlock check only; it is never sent to the service and
// never substitutes for the wire protocol's own authentication (spec.md
// §6 treats the real handshake as a collaborator concern).
//
// Grounded on the teacher's Auth.passwordHash: hash immediately with
// bcrypt, never retain the plaintext.
type credentialCache struct {
	mu   sync.Mutex
	dir  string
	hash map[string][]byte
}

func newCredentialCache(cacheDir string) (*credentialCache, error) {
	dir := filepath.Join(cacheDir, "credentials")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create credential cache dir: %w", err)
	}
	c := &credentialCache{dir: dir, hash: make(map[string][]byte)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("session: list credential cache: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		c.hash[e.Name()] = data
	}
	return c, nil
}

// lookup returns the cached bcrypt hash for username, if any login from
// this cache directory has saved one.
func (c *credentialCache) lookup(username string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hash[username]
	return h, ok
}

// save hashes password with bcrypt and persists it for username, via the
// same temp-file-then-rename pattern internal/cache.Store uses.
func (c *credentialCache) save(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("session: hash credential: %w", err)
	}

	dst := filepath.Join(c.dir, username)
	tmp, err := os.CreateTemp(c.dir, "cred-*.tmp")
	if err != nil {
		return fmt.Errorf("session: create temp credential file: %w", err)
	}
	if _, err := tmp.Write(hash); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("session: write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("session: close temp credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("session: rename temp credential file: %w", err)
	}

	c.mu.Lock()
	c.hash[username] = hash
	c.mu.Unlock()
	return nil
}

// verifyPassword reports whether password matches a previously cached
// bcrypt hash.
func verifyPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
