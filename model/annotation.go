package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Marker is a labeled point in track time.
type Marker struct {
	ID    string  `json:"id"`
	T     float64 `json:"t"` // seconds
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"`
}

// Region is a labeled time range. T0 <= T1 always; constructors swap
// reversed bounds.
type Region struct {
	ID      string  `json:"id"`
	T0      float64 `json:"t0"`
	T1      float64 `json:"t1"`
	Label   string  `json:"label"`
	Color   string  `json:"color,omitempty"`
	Section string  `json:"section,omitempty"` // optional section type, see Section* constants
}

// Note is free-form text anchored at a point in track time.
type Note struct {
	ID   string  `json:"id"`
	T    float64 `json:"t"`
	Body string  `json:"body"`
}

// Song section vocabulary for Region.Section.
const (
	SectionIntro     = "intro"
	SectionVerse     = "verse"
	SectionChorus    = "chorus"
	SectionBridge    = "bridge"
	SectionBreakdown = "breakdown"
	SectionBuildup   = "buildup"
	SectionDrop      = "drop"
	SectionOutro     = "outro"
	SectionCustom    = "custom"
)

// AudioAnnotations is the full annotation set of one track. Markers and
// notes stay sorted ascending by T, regions ascending by T0. Mutation
// goes through the annotate package, which returns new snapshots.
type AudioAnnotations struct {
	Markers []Marker `json:"markers"`
	Regions []Region `json:"regions"`
	Notes   []Note   `json:"notes"`
}

// Scan implements sql.Scanner so the set can live in a JSON column.
func (a *AudioAnnotations) Scan(value interface{}) error {
	if value == nil {
		*a = AudioAnnotations{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*a = AudioAnnotations{}
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*a = AudioAnnotations{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer.
func (a AudioAnnotations) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// TrackAnnotationsRecord persists one track's annotation snapshot as a
// JSON column keyed by track id.
type TrackAnnotationsRecord struct {
	TrackID   string           `json:"trackId" gorm:"primaryKey;size:36"`
	Data      AudioAnnotations `json:"data" gorm:"type:json"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// TableName maps the model to its table.
func (TrackAnnotationsRecord) TableName() string {
	return "track_annotations"
}
