package server

import (
	"encoding/json"
	"net/http"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// writeState responds with the player's current snapshot.
func (h *APIHandler) writeState(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.player.State())
}

// GetPlayerStateHandler returns the current playback snapshot.
func (h *APIHandler) GetPlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeState(w)
}

// SetQueueHandler replaces the play queue.
func (h *APIHandler) SetQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tracks     []model.QueueTrack `json:"tracks"`
		StartIndex int                `json:"startIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.player.SetQueue(req.Tracks, req.StartIndex)
	logger.Debug("queue replaced",
		logger.Int("tracks", len(req.Tracks)),
		logger.Int("startIndex", req.StartIndex))
	h.writeState(w)
}

// RestoreQueueHandler reloads the persisted queue into the player. A
// missing or expired entry leaves the player untouched.
func (h *APIHandler) RestoreQueueHandler(w http.ResponseWriter, r *http.Request) {
	restored := h.queueStore.Load()
	if restored == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"restored": false,
			"state":    h.player.State(),
		})
		return
	}

	h.player.RestoreQueue(restored.Queue, restored.QueueIndex, restored.CurrentTime)
	logger.Info("queue restored",
		logger.Int("tracks", len(restored.Queue)),
		logger.Int("queueIndex", restored.QueueIndex))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"restored": true,
		"state":    h.player.State(),
	})
}

// ClearQueueHandler empties the queue and the persisted copy.
func (h *APIHandler) ClearQueueHandler(w http.ResponseWriter, r *http.Request) {
	h.player.ClearQueue()
	if err := h.queueStore.Clear(); err != nil {
		logger.Warn("failed to clear persisted queue", logger.ErrorField(err))
	}
	h.writeState(w)
}

// PlayHandler starts playback, optionally jumping to an index first.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if r.Body != nil {
		// An empty body means "resume the current track".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Index != nil {
		h.player.SetTrackIndex(*req.Index)
	}
	h.player.Play()
	h.writeState(w)
}

// PauseHandler pauses playback.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.player.Pause()
	h.writeState(w)
}

// NextHandler advances to the next track.
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	h.player.Next()
	h.writeState(w)
}

// PreviousHandler restarts or moves back a track.
func (h *APIHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	h.player.Previous()
	h.writeState(w)
}

// SeekHandler moves the playback position.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time float64 `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.player.Seek(req.Time)
	h.writeState(w)
}

// TimeUpdateHandler records the playback surface's position tick.
func (h *APIHandler) TimeUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time float64 `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.player.UpdateTime(req.Time)
	w.WriteHeader(http.StatusNoContent)
}

// DurationHandler records the current track's duration.
func (h *APIHandler) DurationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.player.SetDuration(req.Duration)
	h.writeState(w)
}

// EndedHandler reacts to the current track finishing.
func (h *APIHandler) EndedHandler(w http.ResponseWriter, r *http.Request) {
	h.player.HandleEnded()
	h.writeState(w)
}

// PlaybackErrorHandler records a playback failure reported by the
// surface.
func (h *APIHandler) PlaybackErrorHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		req.Message = "playback failed"
	}

	h.player.SetError(req.Message)
	h.writeState(w)
}

// VisibilityHandler toggles whether the playback surface is shown.
func (h *APIHandler) VisibilityHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.player.SetVisible(req.Visible)
	h.writeState(w)
}

// UpdateSettingsHandler applies a partial settings update. Absent
// fields keep their current values; invalid values are rejected.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AutoplayNext *bool    `json:"autoplayNext"`
		RepeatMode   *string  `json:"repeatMode"`
		Volume       *float64 `json:"volume"`
		Shuffle      *bool    `json:"shuffle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.RepeatMode != nil {
		switch *req.RepeatMode {
		case model.RepeatOff, model.RepeatOne, model.RepeatAll:
		default:
			http.Error(w, "Invalid repeat mode", http.StatusBadRequest)
			return
		}
	}

	h.player.UpdateSettings(func(s *model.PlayerSettings) {
		if req.AutoplayNext != nil {
			s.AutoplayNext = *req.AutoplayNext
		}
		if req.RepeatMode != nil {
			s.RepeatMode = *req.RepeatMode
		}
		if req.Volume != nil {
			v := *req.Volume
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			s.Volume = v
		}
	})

	// Shuffle reorders the queue, so it goes through its own transition.
	if req.Shuffle != nil {
		h.player.SetShuffle(*req.Shuffle)
	}
	h.writeState(w)
}
