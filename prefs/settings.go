package prefs

import (
	"encoding/json"
	"fmt"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// SettingsKey is the per-user storage key for playback settings.
func SettingsKey(userID int64) string {
	return fmt.Sprintf("player:%d:settings", userID)
}

// SettingsStore loads and saves one user's playback settings.
type SettingsStore struct {
	store TextStore
	key   string
}

// NewSettingsStore scopes a settings store to one user.
func NewSettingsStore(store TextStore, userID int64) *SettingsStore {
	return &SettingsStore{store: store, key: SettingsKey(userID)}
}

// Load returns the persisted settings merged under current defaults.
// Anything unreadable — bad JSON, unknown version — degrades to
// defaults entirely rather than trusting part of the blob.
func (s *SettingsStore) Load() model.PlayerSettings {
	raw, ok := s.store.Get(s.key)
	if !ok {
		return model.DefaultSettings()
	}
	return decodeSettings(raw)
}

// Save writes the settings at the current schema version.
func (s *SettingsStore) Save(settings model.PlayerSettings) error {
	env := model.SettingsEnvelope{
		Version:  model.SettingsVersion,
		Settings: settings,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.store.Set(s.key, string(raw)); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// Migrate runs once at startup: whatever version is stored, the entry
// is rewritten at the current version so the accessor path never pays
// for migration again. A missing entry is left missing.
func (s *SettingsStore) Migrate() error {
	raw, ok := s.store.Get(s.key)
	if !ok {
		return nil
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err == nil && probe.Version == model.SettingsVersion {
		return nil
	}

	migrated := decodeSettings(raw)
	if err := s.Save(migrated); err != nil {
		return fmt.Errorf("failed to rewrite settings at current version: %w", err)
	}
	logger.Info("migrated player settings",
		logger.String("key", s.key),
		logger.Int("fromVersion", probe.Version),
		logger.Int("toVersion", model.SettingsVersion))
	return nil
}

// decodeSettings maps a raw persisted blob to settings. Known versions
// are deep-merged under defaults so fields added since the blob was
// written receive their defaults; everything else falls back wholesale.
func decodeSettings(raw string) model.PlayerSettings {
	var env struct {
		Version  int             `json:"version"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return model.DefaultSettings()
	}

	switch env.Version {
	case 1, model.SettingsVersion:
		return mergeUnderDefaults(env.Settings)
	default:
		return model.DefaultSettings()
	}
}

// mergeUnderDefaults overlays the stored fields onto the defaults. A
// blob that doesn't decode cleanly is rejected whole.
func mergeUnderDefaults(raw json.RawMessage) model.PlayerSettings {
	merged := model.DefaultSettings()
	if len(raw) == 0 {
		return merged
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return model.DefaultSettings()
	}
	return normalizeSettings(merged)
}

// normalizeSettings clamps loaded values into their documented ranges.
func normalizeSettings(s model.PlayerSettings) model.PlayerSettings {
	switch s.RepeatMode {
	case model.RepeatOff, model.RepeatOne, model.RepeatAll:
	default:
		s.RepeatMode = model.DefaultSettings().RepeatMode
	}
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
	return s
}
