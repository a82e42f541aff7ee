package cache

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/voicepost/voicepost/internal/models"
)

// StateStore exposes the client's persisted state as typed accessors
// over a KeyValue. It also satisfies the gateway's TokenStore contract,
// so a 401 from the backend clears the token here directly.
type StateStore struct {
	kv  KeyValue
	log *logrus.Entry
}

func NewStateStore(kv KeyValue) *StateStore {
	return &StateStore{
		kv:  kv,
		log: logrus.WithField("component", "cache"),
	}
}

// AuthToken returns the stored bearer token, empty when signed out.
func (s *StateStore) AuthToken() string {
	token, _ := s.kv.Get(KeyAuthToken)
	return token
}

func (s *StateStore) SetAuthToken(token string) error {
	return s.kv.Set(KeyAuthToken, token)
}

// ClearAuthToken invalidates the local session. Called by the gateway
// on a 401.
func (s *StateStore) ClearAuthToken() {
	if err := s.kv.Delete(KeyAuthToken); err != nil {
		s.log.WithError(err).Warn("failed to clear auth token")
	}
}

// ThemeMode returns the stored theme flag, defaulting to "system".
func (s *StateStore) ThemeMode() string {
	mode, ok := s.kv.Get(KeyThemeMode)
	if !ok {
		return "system"
	}
	return mode
}

func (s *StateStore) SetThemeMode(mode string) error {
	return s.kv.Set(KeyThemeMode, mode)
}

func (s *StateStore) OnboardingComplete() bool {
	value, _ := s.kv.Get(KeyOnboardingComplete)
	return value == "true"
}

func (s *StateStore) SetOnboardingComplete(done bool) error {
	if done {
		return s.kv.Set(KeyOnboardingComplete, "true")
	}
	return s.kv.Delete(KeyOnboardingComplete)
}

// SaveDraftSnapshot persists the last known draft list. The snapshot is
// advisory: a failure here is logged and swallowed, it must never
// surface to the caller of a successful fetch.
func (s *StateStore) SaveDraftSnapshot(drafts []*models.Draft) {
	raw, err := json.Marshal(drafts)
	if err != nil {
		s.log.WithError(err).Warn("failed to serialize draft snapshot")
		return
	}
	if err := s.kv.Set(KeyDraftSnapshot, string(raw)); err != nil {
		s.log.WithError(err).Warn("failed to write draft snapshot")
	}
}

// LoadDraftSnapshot returns the cached draft list, or ok=false when
// there is no usable snapshot.
func (s *StateStore) LoadDraftSnapshot() ([]*models.Draft, bool) {
	raw, ok := s.kv.Get(KeyDraftSnapshot)
	if !ok || raw == "" {
		return nil, false
	}
	var drafts []*models.Draft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		s.log.WithError(err).Warn("discarding corrupt draft snapshot")
		return nil, false
	}
	for _, d := range drafts {
		if d.Media == nil {
			d.Media = []models.MediaAttachment{}
		}
	}
	return drafts, true
}
