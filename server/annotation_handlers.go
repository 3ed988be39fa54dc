package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jvetere1999/passion-os-sub009/core/annotate"
	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// loadAnnotations returns a track's stored annotation set, or an empty
// one when none exists yet.
func (h *APIHandler) loadAnnotations(r *http.Request, trackID string) (model.AudioAnnotations, error) {
	stored, err := h.annotRepo.Load(r.Context(), trackID)
	if err != nil {
		return model.AudioAnnotations{}, err
	}
	if stored == nil {
		return annotate.NewAnnotations(), nil
	}
	return *stored, nil
}

// saveAnnotations persists an updated set and writes it back to the
// client.
func (h *APIHandler) saveAnnotations(w http.ResponseWriter, r *http.Request, trackID string, ann model.AudioAnnotations) {
	if err := h.annotRepo.Save(r.Context(), trackID, &ann); err != nil {
		logger.Error("failed to save annotations",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		http.Error(w, "Failed to save annotations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ann)
}

// GetAnnotationsHandler returns a track's annotations.
func (h *APIHandler) GetAnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		logger.Error("failed to load annotations",
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ann)
}

// PutAnnotationsHandler replaces a track's annotation snapshot.
func (h *APIHandler) PutAnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var ann model.AudioAnnotations
	if err := json.NewDecoder(r.Body).Decode(&ann); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.saveAnnotations(w, r, track.ID, ann)
}

// DeleteAnnotationsHandler drops a track's annotations.
func (h *APIHandler) DeleteAnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	if err := h.annotRepo.Delete(r.Context(), track.ID); err != nil {
		logger.Error("failed to delete annotations",
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
		http.Error(w, "Failed to delete annotations", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMarkerHandler appends a marker.
func (h *APIHandler) AddMarkerHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var req struct {
		T     float64 `json:"t"`
		Label string  `json:"label"`
		Color string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}
	h.saveAnnotations(w, r, track.ID, annotate.AddMarker(ann, req.T, req.Label, req.Color))
}

// UpdateMarkerHandler moves or relabels a marker.
func (h *APIHandler) UpdateMarkerHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var req struct {
		T     *float64 `json:"t"`
		Label *string  `json:"label"`
		Color *string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	updated, ok := annotate.UpdateMarker(ann, mux.Vars(r)["markerId"], func(m *model.Marker) {
		if req.T != nil {
			m.T = *req.T
		}
		if req.Label != nil {
			m.Label = *req.Label
		}
		if req.Color != nil {
			m.Color = *req.Color
		}
	})
	if !ok {
		http.Error(w, "Marker not found", http.StatusNotFound)
		return
	}
	h.saveAnnotations(w, r, track.ID, updated)
}

// RemoveMarkerHandler deletes a marker.
func (h *APIHandler) RemoveMarkerHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	updated, ok := annotate.RemoveMarker(ann, mux.Vars(r)["markerId"])
	if !ok {
		http.Error(w, "Marker not found", http.StatusNotFound)
		return
	}
	h.saveAnnotations(w, r, track.ID, updated)
}

// AddRegionHandler appends a region.
func (h *APIHandler) AddRegionHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var req struct {
		T0    float64 `json:"t0"`
		T1    float64 `json:"t1"`
		Label string  `json:"label"`
		Color string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}
	h.saveAnnotations(w, r, track.ID, annotate.AddRegion(ann, req.T0, req.T1, req.Label, req.Color))
}

// UpdateRegionHandler adjusts a region's bounds, label or section.
func (h *APIHandler) UpdateRegionHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var req struct {
		T0      *float64 `json:"t0"`
		T1      *float64 `json:"t1"`
		Label   *string  `json:"label"`
		Color   *string  `json:"color"`
		Section *string  `json:"section"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	updated, ok := annotate.UpdateRegion(ann, mux.Vars(r)["regionId"], func(reg *model.Region) {
		if req.T0 != nil {
			reg.T0 = *req.T0
		}
		if req.T1 != nil {
			reg.T1 = *req.T1
		}
		if req.Label != nil {
			reg.Label = *req.Label
		}
		if req.Color != nil {
			reg.Color = *req.Color
		}
		if req.Section != nil {
			reg.Section = *req.Section
		}
	})
	if !ok {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}
	h.saveAnnotations(w, r, track.ID, updated)
}

// RemoveRegionHandler deletes a region.
func (h *APIHandler) RemoveRegionHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	updated, ok := annotate.RemoveRegion(ann, mux.Vars(r)["regionId"])
	if !ok {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}
	h.saveAnnotations(w, r, track.ID, updated)
}

// AddNoteHandler appends a note.
func (h *APIHandler) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	var req struct {
		T    float64 `json:"t"`
		Body string  `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}
	h.saveAnnotations(w, r, track.ID, annotate.AddNote(ann, req.T, req.Body))
}

// RemoveNoteHandler deletes a note.
func (h *APIHandler) RemoveNoteHandler(w http.ResponseWriter, r *http.Request) {
	track := h.getOwnedTrack(w, r)
	if track == nil {
		return
	}

	ann, err := h.loadAnnotations(r, track.ID)
	if err != nil {
		http.Error(w, "Failed to load annotations", http.StatusInternalServerError)
		return
	}

	updated, ok := annotate.RemoveNote(ann, mux.Vars(r)["noteId"])
	if !ok {
		http.Error(w, "Note not found", http.StatusNotFound)
		return
	}
	h.saveAnnotations(w, r, track.ID, updated)
}
