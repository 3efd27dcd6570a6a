package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// FileTokenStore keeps tokens sealed with secretbox in a single 0600 file.
type FileTokenStore struct {
	path string
	key  [32]byte

	mu     sync.Mutex
	sealed map[string]string
}

func NewFileTokenStore(path, secret string) (*FileTokenStore, error) {
	if secret == "" {
		return nil, errors.New("file token store requires a secret")
	}
	s := &FileTokenStore{
		path:   path,
		key:    sha256.Sum256([]byte(secret)),
		sealed: make(map[string]string),
	}
	if err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileTokenStore) Save(_ context.Context, sessionID, token string) error {
	box, err := s.seal(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed[sessionID] = box
	return s.write()
}

func (s *FileTokenStore) Load(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	box, ok := s.sealed[sessionID]
	s.mu.Unlock()
	if !ok {
		return "", ErrTokenNotFound
	}
	return s.open(box)
}

func (s *FileTokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sealed[sessionID]; !ok {
		return nil
	}
	delete(s.sealed, sessionID)
	return s.write()
}

func (s *FileTokenStore) seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *FileTokenStore) open(box string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(box)
	if err != nil || len(raw) < nonceSize {
		return "", errors.New("corrupt token entry")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("token entry does not decrypt with the configured secret")
	}
	return string(plain), nil
}

func (s *FileTokenStore) read() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.sealed); err != nil {
		return fmt.Errorf("parse token file: %w", err)
	}
	return nil
}

// write replaces the file atomically. Caller holds s.mu.
func (s *FileTokenStore) write() error {
	data, err := json.Marshal(s.sealed)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
