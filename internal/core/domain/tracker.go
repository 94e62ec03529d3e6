package domain

import (
	"errors"
	"time"
)

// TrackerStatus is the self-reported condition of a tracked participant.
type TrackerStatus string

const (
	TrackerActive  TrackerStatus = "active"
	TrackerIdle    TrackerStatus = "idle"
	TrackerSOS     TrackerStatus = "sos"
	TrackerOffline TrackerStatus = "offline"
)

var (
	ErrTrackerNotFound = errors.New("tracker not found")
	ErrInvalidStatus   = errors.New("invalid tracker status")
)

// Valid reports whether s is one of the known statuses.
func (s TrackerStatus) Valid() bool {
	switch s {
	case TrackerActive, TrackerIdle, TrackerSOS, TrackerOffline:
		return true
	}
	return false
}

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// TrackerPacket is one reported sample as it travels over the live channel.
// Lat and Lng are always present; everything else may be absent.
type TrackerPacket struct {
	UserID    string        `json:"user_id"`
	Lat       float64       `json:"lat"`
	Lng       float64       `json:"lng"`
	Alt       *float64      `json:"alt,omitempty"`
	Speed     *float64      `json:"speed,omitempty"`
	Battery   *int          `json:"battery,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Status    TrackerStatus `json:"status,omitempty"`
}

// Position returns the packet coordinates.
func (p TrackerPacket) Position() Coordinates {
	return Coordinates{Lat: p.Lat, Lng: p.Lng}
}

// HistoryPoint is a single entry in a tracker's trail.
type HistoryPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// TrackerState is the per-identity view kept by the registry.
// IsOffline is computed when the state is read, never stored.
type TrackerState struct {
	LatestPacket TrackerPacket  `json:"latest_packet"`
	History      []HistoryPoint `json:"history"`
	LastUpdate   time.Time      `json:"last_update"`
	IsOffline    bool           `json:"is_offline"`
}

// TrackerLog is a row of the durable position log.
type TrackerLog struct {
	Identity  string    `json:"identity" bson:"identity"`
	Lat       float64   `json:"lat" bson:"lat"`
	Lng       float64   `json:"lng" bson:"lng"`
	Elevation *float64  `json:"elevation,omitempty" bson:"elevation,omitempty"`
	Speed     *float64  `json:"speed,omitempty" bson:"speed,omitempty"`
	Battery   *int      `json:"battery,omitempty" bson:"battery,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// LogKey is the composite (timestamp, identity) key used to deduplicate rows
// before a bulk insert.
type LogKey struct {
	Timestamp int64
	Identity  string
}

func (l TrackerLog) Key() LogKey {
	return LogKey{Timestamp: l.Timestamp.UnixNano(), Identity: l.Identity}
}

// LocationFix is one sample from the device location stream.
type LocationFix struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Speed     *float64
	Accuracy  float64
	Battery   *int
	Timestamp time.Time
}
