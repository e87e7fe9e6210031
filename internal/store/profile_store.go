package store

import (
	"path/filepath"
	"sync"
	"time"

	"matrixchat/internal/domain"
)

const profilesFile = "profiles.json"

// ProfileFileStore persists per-relay participant profiles to disk.
type ProfileFileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewProfileFileStore returns a ProfileFileStore rooted at dir.
func NewProfileFileStore(dir string) *ProfileFileStore {
	return &ProfileFileStore{dir: dir, now: time.Now}
}

// SaveProfile stores or updates the profile for profile.Relay and marks it
// as the most recently used.
func (s *ProfileFileStore) SaveProfile(profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, profilesFile)
	profiles := make(map[string]domain.Profile)
	_ = readJSON(path, &profiles)
	stamp := s.now().UnixNano()
	for _, p := range profiles {
		if p.LastUsed >= stamp {
			stamp = p.LastUsed + 1
		}
	}
	profile.LastUsed = stamp
	profiles[profile.Relay] = profile
	return writeJSON(path, profiles, 0o600)
}

// LoadProfile returns the most recently used profile.
func (s *ProfileFileStore) LoadProfile() (domain.Profile, bool, error) {
	profiles, err := s.load()
	if err != nil {
		return domain.Profile{}, false, err
	}
	var (
		best  domain.Profile
		found bool
	)
	for _, p := range profiles {
		if !found || p.LastUsed > best.LastUsed {
			best, found = p, true
		}
	}
	return best, found, nil
}

// ProfileFor returns the profile stored for relay.
func (s *ProfileFileStore) ProfileFor(relay string) (domain.Profile, bool, error) {
	profiles, err := s.load()
	if err != nil {
		return domain.Profile{}, false, err
	}
	p, ok := profiles[relay]
	return p, ok, nil
}

func (s *ProfileFileStore) load() (map[string]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make(map[string]domain.Profile)
	if err := readJSON(filepath.Join(s.dir, profilesFile), &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Compile-time assertion that ProfileFileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*ProfileFileStore)(nil)
