package message

import (
	"errors"
	"fmt"
	"sync"

	"matrixchat/internal/crypto"
	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/hill"
)

// ErrNoKey is returned when no key has been agreed yet.
var ErrNoKey = errors.New("no key agreed")

// Service encrypts and decrypts chat lines with the current key.
//
// The key matrix and its inverse live together in one *hill.Cipher that is
// swapped whole on Rekey, so a caller always encrypts or decrypts with a
// consistent pair even while a new key lands.
type Service struct {
	mu     sync.RWMutex
	cipher *hill.Cipher
	key    domain.KeyMatrix
}

// New returns a Service with no key.
func New() *Service { return &Service{} }

// Rekey installs key and returns its fingerprint. A key that cannot be
// inverted is rejected and the previous key stays in place.
func (s *Service) Rekey(key domain.KeyMatrix) (domain.Fingerprint, error) {
	c, err := hill.NewCipher(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	crypto.WipeMatrix(&s.key)
	s.cipher = c
	s.key = key
	return crypto.KeyFingerprint(key), nil
}

// Forget drops the current key.
func (s *Service) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	crypto.WipeMatrix(&s.key)
	s.cipher = nil
}

// Fingerprint returns the fingerprint of the current key.
func (s *Service) Fingerprint() (domain.Fingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cipher == nil {
		return "", false
	}
	return crypto.KeyFingerprint(s.key), true
}

func (s *Service) snapshot() (*hill.Cipher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cipher == nil {
		return nil, ErrNoKey
	}
	return s.cipher, nil
}

// Seal encrypts a chat line prefixed with the sender's name.
func (s *Service) Seal(from domain.Username, text string) (string, error) {
	return s.SealRaw(fmt.Sprintf("%s: %s", from, text))
}

// SealRaw encrypts text as-is.
func (s *Service) SealRaw(text string) (string, error) {
	c, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return c.Encrypt(text)
}

// Open decrypts a line received from the relay. Padding spaces are kept.
func (s *Service) Open(line string) (string, error) {
	c, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return c.Decrypt(line)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
