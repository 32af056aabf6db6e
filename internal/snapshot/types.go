package snapshot

import (
	"strings"
	"time"
)

// TrackType classifies a session track.
type TrackType string

const (
	TrackAudio      TrackType = "audio"
	TrackMIDI       TrackType = "midi"
	TrackAux        TrackType = "aux"
	TrackMaster     TrackType = "master"
	TrackInstrument TrackType = "instrument"
)

var trackTypes = map[TrackType]struct{}{
	TrackAudio:      {},
	TrackMIDI:       {},
	TrackAux:        {},
	TrackMaster:     {},
	TrackInstrument: {},
}

// ParseTrackType converts a string into a known TrackType.
func ParseTrackType(value string) (TrackType, bool) {
	normalized := TrackType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := trackTypes[normalized]
	return normalized, ok
}

// Track is a live session track as reported by the session service. The core
// never creates or destroys tracks; it only reads them.
type Track struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            TrackType `json:"type"`
	IsMuted         bool      `json:"is_muted"`
	IsSoloed        bool      `json:"is_soloed"`
	IsRecordEnabled bool      `json:"is_record_enabled"`
	Volume          float64   `json:"volume"`
	Pan             float64   `json:"pan"`
	Color           string    `json:"color,omitempty"`
	Comments        string    `json:"comments,omitempty"`
}

// TrackState is the captured solo/mute state of one track. The track name is
// denormalized so the state stays displayable if the track later disappears.
type TrackState struct {
	TrackID   string    `json:"trackId"`
	TrackName string    `json:"trackName"`
	IsSoloed  bool      `json:"is_soloed"`
	IsMuted   bool      `json:"is_muted"`
	Type      TrackType `json:"type"`
	Color     string    `json:"color,omitempty"`
}

// Snapshot is a named, persisted capture of track solo/mute state. Field names
// match the session service wire format.
type Snapshot struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	TrackStates []TrackState `json:"trackStates"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt,omitzero"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.TrackStates = cloneStates(s.TrackStates)
	return cp
}

func cloneStates(states []TrackState) []TrackState {
	if states == nil {
		return nil
	}
	cp := make([]TrackState, len(states))
	copy(cp, states)
	return cp
}

// Stats aggregates the solo/mute composition of a snapshot.
type Stats struct {
	TotalTracks  int
	MutedTracks  int
	SoloedTracks int
	NormalTracks int
}

// StatsFor computes aggregate counts for a snapshot's track states.
func StatsFor(s Snapshot) Stats {
	stats := Stats{TotalTracks: len(s.TrackStates)}
	for _, state := range s.TrackStates {
		if state.IsMuted {
			stats.MutedTracks++
		}
		if state.IsSoloed {
			stats.SoloedTracks++
		}
		if !state.IsMuted && !state.IsSoloed {
			stats.NormalTracks++
		}
	}
	return stats
}

// StatesFromTracks deep-copies live tracks into captured track states.
func StatesFromTracks(tracks []Track) []TrackState {
	states := make([]TrackState, 0, len(tracks))
	for _, track := range tracks {
		states = append(states, TrackState{
			TrackID:   track.ID,
			TrackName: track.Name,
			IsSoloed:  track.IsSoloed,
			IsMuted:   track.IsMuted,
			Type:      track.Type,
			Color:     track.Color,
		})
	}
	return states
}
