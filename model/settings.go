package model

// Repeat modes.
const (
	RepeatOff = "off"
	RepeatOne = "one"
	RepeatAll = "all"
)

// SettingsVersion is the current persisted settings schema version.
// Version 1 predates the Shuffle field.
const SettingsVersion = 2

// PlayerSettings are the user-scoped playback preferences. Persisted
// with an explicit schema version; defaults are merged under any loaded
// value so adding a field never breaks an old blob.
type PlayerSettings struct {
	AutoplayNext bool    `json:"autoplayNext"`
	RepeatMode   string  `json:"repeatMode"` // off, one, all
	Volume       float64 `json:"volume"`     // 0..1
	Shuffle      bool    `json:"shuffle"`
}

// DefaultSettings returns the settings applied before anything is
// loaded, and the base every older persisted version is merged onto.
func DefaultSettings() PlayerSettings {
	return PlayerSettings{
		AutoplayNext: true,
		RepeatMode:   RepeatOff,
		Volume:       0.7,
		Shuffle:      false,
	}
}

// SettingsEnvelope is the persisted shape: the version tag wraps the
// settings payload so loaders can dispatch migration before trusting it.
type SettingsEnvelope struct {
	Version  int            `json:"version"`
	Settings PlayerSettings `json:"settings"`
}
