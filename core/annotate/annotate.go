// Package annotate builds and edits per-track annotation sets. Every
// operation is pure: it takes the current snapshot and returns a new
// one with the ordering invariants re-established, so callers can hold
// any snapshot without seeing later edits.
package annotate

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jvetere1999/passion-os-sub009/model"
)

// palette supplies colors for annotations created without one,
// assigned round-robin.
var palette = []string{
	"#f87171", // red
	"#fbbf24", // amber
	"#34d399", // emerald
	"#60a5fa", // blue
	"#a78bfa", // violet
	"#f472b6", // pink
}

var idSeq atomic.Uint64

// newID mints an annotation id: a kind prefix, a monotonic sequence
// number, and a random tail. The sequence keeps ids distinguishable in
// creation order; the tail keeps them collision-resistant across
// restarts.
func newID(kind string) string {
	seq := idSeq.Add(1)
	return fmt.Sprintf("%s-%d-%s", kind, seq, uuid.NewString()[:8])
}

func nextColor(seq uint64) string {
	return palette[seq%uint64(len(palette))]
}

// NewAnnotations returns an empty annotation set.
func NewAnnotations() model.AudioAnnotations {
	return model.AudioAnnotations{
		Markers: []model.Marker{},
		Regions: []model.Region{},
		Notes:   []model.Note{},
	}
}

// clone copies the snapshot so mutations never alias the input.
func clone(ann model.AudioAnnotations) model.AudioAnnotations {
	out := model.AudioAnnotations{
		Markers: make([]model.Marker, len(ann.Markers)),
		Regions: make([]model.Region, len(ann.Regions)),
		Notes:   make([]model.Note, len(ann.Notes)),
	}
	copy(out.Markers, ann.Markers)
	copy(out.Regions, ann.Regions)
	copy(out.Notes, ann.Notes)
	return out
}

// resort re-establishes the ordering invariants: markers and notes
// ascending by time, regions ascending by start.
func resort(ann *model.AudioAnnotations) {
	sort.SliceStable(ann.Markers, func(i, j int) bool { return ann.Markers[i].T < ann.Markers[j].T })
	sort.SliceStable(ann.Regions, func(i, j int) bool { return ann.Regions[i].T0 < ann.Regions[j].T0 })
	sort.SliceStable(ann.Notes, func(i, j int) bool { return ann.Notes[i].T < ann.Notes[j].T })
}

// AddMarker returns a snapshot with a new marker at t. An empty color
// takes the next palette color.
func AddMarker(ann model.AudioAnnotations, t float64, label, color string) model.AudioAnnotations {
	seq := idSeq.Load()
	if color == "" {
		color = nextColor(seq)
	}
	out := clone(ann)
	out.Markers = append(out.Markers, model.Marker{
		ID:    newID("m"),
		T:     t,
		Label: label,
		Color: color,
	})
	resort(&out)
	return out
}

// UpdateMarker applies fn to the marker with the given id. Returns the
// new snapshot and whether the id existed; an unknown id returns the
// input unchanged.
func UpdateMarker(ann model.AudioAnnotations, id string, fn func(*model.Marker)) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Markers {
		if out.Markers[i].ID == id {
			fn(&out.Markers[i])
			out.Markers[i].ID = id // id is identity, not editable
			resort(&out)
			return out, true
		}
	}
	return ann, false
}

// RemoveMarker returns a snapshot without the given marker.
func RemoveMarker(ann model.AudioAnnotations, id string) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Markers {
		if out.Markers[i].ID == id {
			out.Markers = append(out.Markers[:i], out.Markers[i+1:]...)
			return out, true
		}
	}
	return ann, false
}

// AddRegion returns a snapshot with a new region spanning [t0, t1].
// Reversed bounds are swapped at construction so t0 <= t1 always holds.
func AddRegion(ann model.AudioAnnotations, t0, t1 float64, label, color string) model.AudioAnnotations {
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	seq := idSeq.Load()
	if color == "" {
		color = nextColor(seq)
	}
	out := clone(ann)
	out.Regions = append(out.Regions, model.Region{
		ID:    newID("r"),
		T0:    t0,
		T1:    t1,
		Label: label,
		Color: color,
	})
	resort(&out)
	return out
}

// UpdateRegion applies fn to the region with the given id, then
// re-normalizes its bounds and the ordering.
func UpdateRegion(ann model.AudioAnnotations, id string, fn func(*model.Region)) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Regions {
		if out.Regions[i].ID == id {
			fn(&out.Regions[i])
			out.Regions[i].ID = id
			if out.Regions[i].T0 > out.Regions[i].T1 {
				out.Regions[i].T0, out.Regions[i].T1 = out.Regions[i].T1, out.Regions[i].T0
			}
			resort(&out)
			return out, true
		}
	}
	return ann, false
}

// RemoveRegion returns a snapshot without the given region.
func RemoveRegion(ann model.AudioAnnotations, id string) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Regions {
		if out.Regions[i].ID == id {
			out.Regions = append(out.Regions[:i], out.Regions[i+1:]...)
			return out, true
		}
	}
	return ann, false
}

// AddNote returns a snapshot with a new note at t.
func AddNote(ann model.AudioAnnotations, t float64, body string) model.AudioAnnotations {
	out := clone(ann)
	out.Notes = append(out.Notes, model.Note{
		ID:   newID("n"),
		T:    t,
		Body: body,
	})
	resort(&out)
	return out
}

// UpdateNote applies fn to the note with the given id.
func UpdateNote(ann model.AudioAnnotations, id string, fn func(*model.Note)) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Notes {
		if out.Notes[i].ID == id {
			fn(&out.Notes[i])
			out.Notes[i].ID = id
			resort(&out)
			return out, true
		}
	}
	return ann, false
}

// RemoveNote returns a snapshot without the given note.
func RemoveNote(ann model.AudioAnnotations, id string) (model.AudioAnnotations, bool) {
	out := clone(ann)
	for i := range out.Notes {
		if out.Notes[i].ID == id {
			out.Notes = append(out.Notes[:i], out.Notes[i+1:]...)
			return out, true
		}
	}
	return ann, false
}
