package model

import "time"

// Playback status values. Idle is both the initial state and the state
// after the queue is cleared; loading is re-entered on every track
// change; error is reachable from anywhere.
const (
	StatusIdle    = "idle"
	StatusLoading = "loading"
	StatusPlaying = "playing"
	StatusPaused  = "paused"
	StatusError   = "error"
)

// PlayerState is an immutable snapshot of the playback engine, runtime
// only. Invariant: QueueIndex is -1 exactly when the queue is empty,
// otherwise a valid index; CurrentTrack mirrors Queue[QueueIndex].
type PlayerState struct {
	CurrentTrack *QueueTrack    `json:"currentTrack,omitempty"`
	Status       string         `json:"status"`
	CurrentTime  float64        `json:"currentTime"`
	Duration     float64        `json:"duration"`
	Queue        []QueueTrack   `json:"queue"`
	QueueIndex   int            `json:"queueIndex"`
	Settings     PlayerSettings `json:"settings"`
	Error        string         `json:"error,omitempty"`
	IsVisible    bool           `json:"isVisible"`
}

// QueueStorageVersion is the persisted queue schema version.
const QueueStorageVersion = 1

// QueueTTL is how long a persisted queue stays restorable. Entries
// older than this are discarded on load.
const QueueTTL = 24 * time.Hour

// QueueStorage is the persisted queue/position shape.
type QueueStorage struct {
	Version     int                    `json:"version"`
	Queue       []SerializedQueueTrack `json:"queue"`
	QueueIndex  int                    `json:"queueIndex"`
	CurrentTime float64                `json:"currentTime"`
	UpdatedAt   int64                  `json:"updatedAt"` // unix milliseconds
}
