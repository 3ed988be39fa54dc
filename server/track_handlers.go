package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

// maxUploadBytes bounds the multipart form kept in memory.
const maxUploadBytes = 32 << 20

// uploadContentTypes maps accepted upload extensions to mime types.
var uploadContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// UploadTrackHandler ingests an audio file from a multipart form.
// Fields: trackFile (required), title/artist/album (optional, tags win
// when present).
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	trackFile, trackHeader, err := r.FormFile("trackFile")
	if err != nil {
		http.Error(w, "Missing 'trackFile' in form", http.StatusBadRequest)
		return
	}
	defer trackFile.Close()

	ext := strings.ToLower(filepath.Ext(trackHeader.Filename))
	contentType, ok := uploadContentTypes[ext]
	if !ok {
		http.Error(w, "Unsupported audio format", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	artist := r.FormValue("artist")
	album := r.FormValue("album")
	genre := ""

	// Embedded tags fill anything the form left blank.
	if metadata, tagErr := tag.ReadFrom(trackFile); tagErr == nil {
		if title == "" {
			title = metadata.Title()
		}
		if artist == "" {
			artist = metadata.Artist()
		}
		if album == "" {
			album = metadata.Album()
		}
		genre = metadata.Genre()
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(trackHeader.Filename), ext)
	}
	if _, err := trackFile.Seek(0, 0); err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	if err := h.blobs.Store(r.Context(), id, trackFile, trackHeader.Size, contentType); err != nil {
		logger.Error("failed to store uploaded track",
			logger.String("id", id),
			logger.ErrorField(err))
		http.Error(w, "Failed to store track", http.StatusInternalServerError)
		return
	}

	track := &model.ReferenceTrack{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Artist:    artist,
		Album:     album,
		Genre:     genre,
		MimeType:  contentType,
		SizeBytes: trackHeader.Size,
		ObjectKey: h.blobs.ObjectKey(id),
		Status:    model.TrackStatusUploaded,
	}
	if err := h.trackRepo.Create(r.Context(), track); err != nil {
		logger.Error("failed to insert track",
			logger.String("id", id),
			logger.ErrorField(err))
		if delErr := h.blobs.Delete(r.Context(), id); delErr != nil {
			logger.Warn("failed to roll back blob after insert failure",
				logger.String("id", id),
				logger.ErrorField(delErr))
		}
		http.Error(w, "Failed to create track entry", http.StatusInternalServerError)
		return
	}

	logger.Info("track uploaded",
		logger.String("id", id),
		logger.Int64("userId", userID),
		logger.String("title", title))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(track)
}

// GetTracksHandler lists the current user's tracks.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tracks, err := h.trackRepo.GetAllByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list tracks",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Failed to retrieve tracks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tracks)
}

// getOwnedTrack loads a track and checks it belongs to the request
// user. Absent and foreign tracks both read as not found.
func (h *APIHandler) getOwnedTrack(w http.ResponseWriter, r *http.Request) *model.ReferenceTrack {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}

	trackID := mux.Vars(r)["id"]
	track, err := h.trackRepo.GetByID(r.Context(), trackID)
	if err != nil {
		logger.Error("failed to get track",
			logger.String("id", trackID),
			logger.ErrorField(err))
		http.Error(w, "Failed to get track", http.StatusInternalServerError)
		return nil
	}
	if track == nil || track.UserID != userID {
		http.Error(w, "Track not found", http.StatusNotFound)
		return nil
	}
	return track
}

// GetTrackHandler returns one track.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(track)
}

// DeleteTrackHandler removes a track: the catalog row, the stored
// blob, the cached waveform and any annotations.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	if err := h.trackRepo.Delete(r.Context(), track.ID); err != nil {
		logger.Error("failed to delete track",
			logger.String("id", track.ID),
			logger.ErrorField(err))
		http.Error(w, "Failed to delete track", http.StatusInternalServerError)
		return
	}

	// Blob, waveform and annotation cleanup is best-effort; the row is
	// already gone.
	if err := h.blobs.Delete(r.Context(), track.ID); err != nil {
		logger.Warn("failed to delete track blob",
			logger.String("id", track.ID),
			logger.ErrorField(err))
	}
	h.waveforms.Invalidate(r.Context(), track.ID)
	if err := h.annotRepo.Delete(r.Context(), track.ID); err != nil {
		logger.Warn("failed to delete track annotations",
			logger.String("id", track.ID),
			logger.ErrorField(err))
	}

	logger.Info("track deleted", logger.String("id", track.ID))
	w.WriteHeader(http.StatusNoContent)
}

// TrackURLHandler mints a fresh playable URL for a track's audio.
func (h *APIHandler) TrackURLHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	url, err := h.blobs.PlayableURL(r.Context(), track.ID)
	if err != nil {
		logger.Error("failed to mint playable URL",
			logger.String("id", track.ID),
			logger.ErrorField(err))
		http.Error(w, "Failed to create playable URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"id":  track.ID,
		"url": url,
	})
}

// StorageStatsHandler reports blob storage usage.
func (h *APIHandler) StorageStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	ids, err := h.blobs.ListIDs(r.Context())
	if err != nil {
		logger.Error("failed to list blobs", logger.ErrorField(err))
		http.Error(w, "Failed to read storage stats", http.StatusInternalServerError)
		return
	}
	total, err := h.blobs.TotalBytes(r.Context())
	if err != nil {
		logger.Error("failed to sum blob sizes", logger.ErrorField(err))
		http.Error(w, "Failed to read storage stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"objectCount": len(ids),
		"totalBytes":  total,
		"totalHuman":  storage.FormatSize(total),
	})
}

// ClearStorageHandler wipes every stored blob.
func (h *APIHandler) ClearStorageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Only DELETE method is allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.blobs.ClearAll(r.Context()); err != nil {
		logger.Error("failed to clear storage", logger.ErrorField(err))
		http.Error(w, "Failed to clear storage", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Storage cleared",
	})
}
