package model

import (
	"encoding/json"
	"testing"
)

func TestParseSerializedTrack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"complete", `{"id":"t1","title":"One","artist":"A","audioUrl":"https://blobs/t1.mp3","duration":180}`, true},
		{"minimal", `{"id":"t1","title":"One","audioUrl":"https://blobs/t1.mp3"}`, true},
		{"missing id", `{"title":"One","audioUrl":"https://blobs/t1.mp3"}`, false},
		{"missing title", `{"id":"t1","audioUrl":"https://blobs/t1.mp3"}`, false},
		{"missing audioUrl", `{"id":"t1","title":"One"}`, false},
		{"numeric id", `{"id":7,"title":"One","audioUrl":"https://blobs/t1.mp3"}`, false},
		{"numeric title", `{"id":"t1","title":42,"audioUrl":"https://blobs/t1.mp3"}`, false},
		{"not an object", `"t1"`, false},
		{"empty", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSerializedTrack(json.RawMessage(tt.raw))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.ID == "" {
				t.Errorf("parsed track has no id: %+v", got)
			}
		})
	}
}

func TestQueueTrack_SerializedDropsTransientFields(t *testing.T) {
	track := QueueTrack{
		ID:       "t1",
		Title:    "One",
		Artist:   "A",
		Source:   "library",
		AudioURL: "https://blobs/t1.mp3",
		Duration: 180,
		Waveform: []float64{0.5, 1.0},
	}

	restored := track.Serialized().Track()

	if restored.Waveform != nil {
		t.Error("waveform survived serialization, want it dropped")
	}
	if restored.Serialized() != track.Serialized() {
		t.Errorf("restored = %+v, want all durable fields kept", restored)
	}
}
