package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// AnalyzeTrackHandler runs tempo and spectrum analysis over a stored
// track. The run is tied to the request context; closing the request
// aborts it and leaves the track unanalyzed.
func (h *APIHandler) AnalyzeTrackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	analysis, errMsg := h.analyzeOne(r, track)
	if analysis == nil {
		if r.Context().Err() != nil {
			// Client went away; nothing to answer.
			return
		}
		http.Error(w, errMsg, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

// analyzeOne runs the full analysis pipeline for one track and records
// the outcome in the catalog. Returns the analysis, or nil and a
// message describing the failure.
func (h *APIHandler) analyzeOne(r *http.Request, track *model.ReferenceTrack) (*model.AudioAnalysis, string) {
	ctx := r.Context()

	if err := h.trackRepo.UpdateStatus(ctx, track.ID, model.TrackStatusAnalyzing, nil); err != nil {
		logger.Warn("failed to mark track analyzing",
			logger.String("id", track.ID),
			logger.ErrorField(err))
	}

	data, err := h.blobs.Fetch(ctx, track.ID)
	if err != nil {
		logger.Error("failed to fetch track audio",
			logger.String("id", track.ID),
			logger.ErrorField(err))
		h.recordAnalysisFailure(track.ID, "audio unavailable")
		return nil, "Failed to fetch track audio"
	}

	analysis := h.analyzer.AnalyzeAudio(ctx, data, func(fraction float64) {
		logger.Debug("analysis progress",
			logger.String("id", track.ID),
			logger.Float64("fraction", fraction))
	})
	if analysis == nil {
		if ctx.Err() != nil {
			// Aborted by the caller; put the track back as it was.
			// The request context is dead, so use a fresh one.
			bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.trackRepo.UpdateStatus(bg, track.ID, model.TrackStatusUploaded, nil); err == nil {
				logger.Info("analysis aborted", logger.String("id", track.ID))
			}
			return nil, "analysis aborted"
		}
		h.recordAnalysisFailure(track.ID, "analysis produced no result")
		return nil, "Track could not be analyzed"
	}

	// Warm the waveform cache while the decoded bytes are at hand; its
	// duration also fills the catalog.
	duration := track.DurationSeconds
	if wave := h.waveforms.GenerateFromBuffer(ctx, data, track.ID, 0); wave != nil {
		duration = wave.Duration
	}

	if err := h.trackRepo.SetAnalysis(ctx, track.ID, analysis.BPM, analysis.Key, duration); err != nil {
		logger.Error("failed to store analysis",
			logger.String("id", track.ID),
			logger.ErrorField(err))
		return nil, "Failed to store analysis"
	}

	logger.Info("track analyzed",
		logger.String("id", track.ID),
		logger.Any("bpm", analysis.BPM))
	return analysis, ""
}

// recordAnalysisFailure marks a track failed with a diagnostic.
func (h *APIHandler) recordAnalysisFailure(trackID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.trackRepo.UpdateStatus(ctx, trackID, model.TrackStatusFailed, &message); err != nil {
		logger.Warn("failed to mark track failed",
			logger.String("id", trackID),
			logger.ErrorField(err))
	}
}

// batchResult is one track's outcome in a batch run.
type batchResult struct {
	TrackID string   `json:"trackId"`
	OK      bool     `json:"ok"`
	BPM     *float64 `json:"bpm,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// BatchAnalyzeHandler analyzes a list of tracks in order. Individual
// failures don't stop the batch; cancelling the request does.
func (h *APIHandler) BatchAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		TrackIDs []string `json:"trackIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.TrackIDs) == 0 {
		http.Error(w, "trackIds is required", http.StatusBadRequest)
		return
	}

	results := make([]batchResult, 0, len(req.TrackIDs))
	for i, trackID := range req.TrackIDs {
		if r.Context().Err() != nil {
			break
		}
		logger.Info("batch analysis",
			logger.String("id", trackID),
			logger.Int("position", i+1),
			logger.Int("total", len(req.TrackIDs)))

		track, err := h.trackRepo.GetByID(r.Context(), trackID)
		if err != nil || track == nil || track.UserID != userID {
			results = append(results, batchResult{TrackID: trackID, Error: "track not found"})
			continue
		}

		analysis, errMsg := h.analyzeOne(r, track)
		if analysis == nil {
			results = append(results, batchResult{TrackID: trackID, Error: errMsg})
			continue
		}
		results = append(results, batchResult{TrackID: trackID, OK: true, BPM: analysis.BPM})
	}

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
	})
}

// TrackWaveformHandler returns the waveform peaks for a stored track,
// generating and caching them on first request.
func (h *APIHandler) TrackWaveformHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	bars := parseBars(r)
	if cached := h.waveforms.Cached(track.ID); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cached)
		return
	}

	data, err := h.blobs.Fetch(r.Context(), track.ID)
	if err != nil {
		logger.Error("failed to fetch track audio",
			logger.String("id", track.ID),
			logger.ErrorField(err))
		http.Error(w, "Failed to fetch track audio", http.StatusInternalServerError)
		return
	}

	wave := h.waveforms.GenerateFromBuffer(r.Context(), data, track.ID, bars)
	if wave == nil {
		if r.Context().Err() != nil {
			return
		}
		http.Error(w, "Failed to generate waveform", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wave)
}

// WaveformHandler generates waveform peaks for an arbitrary audio URL.
// Query: url (required), id (cache key, defaults to the url), bars.
func (h *APIHandler) WaveformHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	audioURL := r.URL.Query().Get("url")
	if audioURL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		id = audioURL
	}

	wave := h.waveforms.Generate(r.Context(), audioURL, id, parseBars(r))
	if wave == nil {
		if r.Context().Err() != nil {
			return
		}
		http.Error(w, "Failed to generate waveform", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wave)
}

// parseBars reads the bars query parameter; 0 lets the generator pick.
func parseBars(r *http.Request) int {
	raw := r.URL.Query().Get("bars")
	if raw == "" {
		return 0
	}
	bars, err := strconv.Atoi(raw)
	if err != nil || bars < 0 {
		return 0
	}
	return bars
}
