package model

import (
	"encoding/json"
	"time"
)

// QueueTrack is one entry of the play queue. Identity is ID, stable
// across sessions so caches and persisted progress survive a reload.
// Tracks are immutable once enqueued; metadata changes replace the
// entry instead of mutating it.
type QueueTrack struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist,omitempty"`
	Source   string    `json:"source,omitempty"` // where the track came from: library, import, remote
	AudioURL string    `json:"audioUrl"`         // remote resource or a locally materialized blob URL
	Duration float64   `json:"duration,omitempty"`
	Waveform []float64 `json:"waveform,omitempty"` // transient, not persisted with the queue
}

// SerializedQueueTrack is the trimmed projection of QueueTrack that goes
// into persisted queue storage. Transient fields (Waveform) are dropped.
type SerializedQueueTrack struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist,omitempty"`
	Source   string  `json:"source,omitempty"`
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration,omitempty"`
}

// Serialized returns the persistable projection of the track.
func (t QueueTrack) Serialized() SerializedQueueTrack {
	return SerializedQueueTrack{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Source:   t.Source,
		AudioURL: t.AudioURL,
		Duration: t.Duration,
	}
}

// Track converts a restored projection back into a queue track.
func (s SerializedQueueTrack) Track() QueueTrack {
	return QueueTrack{
		ID:       s.ID,
		Title:    s.Title,
		Artist:   s.Artist,
		Source:   s.Source,
		AudioURL: s.AudioURL,
		Duration: s.Duration,
	}
}

// ParseSerializedTrack decodes one persisted queue entry. An entry with
// a non-string id/title/audioUrl fails to decode, and an entry missing
// any of them is invalid; both return ok=false so the caller can drop
// the entry without aborting the whole restore.
func ParseSerializedTrack(raw json.RawMessage) (SerializedQueueTrack, bool) {
	var s SerializedQueueTrack
	if err := json.Unmarshal(raw, &s); err != nil {
		return SerializedQueueTrack{}, false
	}
	if s.ID == "" || s.Title == "" || s.AudioURL == "" {
		return SerializedQueueTrack{}, false
	}
	return s, true
}

// Reference track processing status.
const (
	TrackStatusUploaded  = "uploaded"
	TrackStatusAnalyzing = "analyzing"
	TrackStatusReady     = "ready"
	TrackStatusFailed    = "failed"
)

// ReferenceTrack is a library track owned by a user: the durable record
// behind imported audio, pointing at the blob store object that holds
// the bytes.
type ReferenceTrack struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	UserID          int64     `json:"userId" gorm:"index;not null"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Artist          string    `json:"artist,omitempty" gorm:"size:255"`
	Album           string    `json:"album,omitempty" gorm:"size:255"`
	Genre           string    `json:"genre,omitempty" gorm:"size:100"`
	MimeType        string    `json:"mimeType" gorm:"size:100"`
	SizeBytes       int64     `json:"sizeBytes"`
	DurationSeconds float64   `json:"durationSeconds"`
	BPM             *float64  `json:"bpm,omitempty"`
	KeySignature    *string   `json:"keySignature,omitempty" gorm:"size:10"`
	ObjectKey       string    `json:"-" gorm:"size:255;not null"` // blob store key, not exposed in API
	Status          string    `json:"status" gorm:"size:20;default:'uploaded';index"`
	ErrorMessage    *string   `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName maps the model to its table.
func (ReferenceTrack) TableName() string {
	return "reference_tracks"
}
