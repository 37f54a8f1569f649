package roomstore

import (
	"sync"

	"roomchat/internal/chat"
	"roomchat/internal/codec"
)

// SettingsStore persists the Settings singleton with the same total-decode,
// best-effort-save guarantees as RoomStore.
type SettingsStore struct {
	*Store

	mu       sync.Mutex
	settings chat.Settings
}

// NewSettingsStore creates a SettingsStore over s holding defaults until Load.
func NewSettingsStore(s *Store) *SettingsStore {
	return &SettingsStore{Store: s, settings: chat.DefaultSettings()}
}

// Load 从后端加载设置 / fill the in-memory settings from the backing.
func (ss *SettingsStore) Load() {
	s := ss.GetSettings()
	ss.mu.Lock()
	ss.settings = s
	ss.mu.Unlock()
}

// GetSettings decodes the persisted settings. Missing or corrupt data
// yields DefaultSettings; absent fields keep their defaults.
func (ss *SettingsStore) GetSettings() chat.Settings {
	raw, ok := ss.read(KeySettings)
	return codec.Decode(ss.log, KeySettings, raw, ok, chat.DefaultSettings())
}

// SaveSettings replaces the in-memory settings and persists them.
func (ss *SettingsStore) SaveSettings(s chat.Settings) bool {
	s = cloneSettings(s)

	ss.mu.Lock()
	ss.settings = s
	ok := ss.write(KeySettings, codec.Encode(s), false)
	ss.mu.Unlock()

	ss.emit(Event{Kind: EventSettings, Persisted: ok})
	return ok
}

// Settings returns a copy of the in-memory settings.
func (ss *SettingsStore) Settings() chat.Settings {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return cloneSettings(ss.settings)
}

// Update applies fn to a copy of the current settings and saves the result.
func (ss *SettingsStore) Update(fn func(s *chat.Settings)) bool {
	s := ss.Settings()
	fn(&s)
	return ss.SaveSettings(s)
}

// CompleteOnboarding records first-run completion.
func (ss *SettingsStore) CompleteOnboarding(version string, skipped []string) bool {
	now := ss.now().UnixMilli()
	return ss.Update(func(s *chat.Settings) {
		s.Onboarding = chat.Onboarding{
			Completed:    true,
			Version:      version,
			CompletedAt:  now,
			SkippedSteps: append([]string{}, skipped...),
		}
	})
}

func cloneSettings(s chat.Settings) chat.Settings {
	if s.Onboarding.SkippedSteps != nil {
		s.Onboarding.SkippedSteps = append([]string{}, s.Onboarding.SkippedSteps...)
	}
	return s
}
