package handler

import (
	"time"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type toggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active idle sos offline"`
}

// locationFixRequest is one device fix. Latitude and longitude are pointers
// so that the equator and the prime meridian are not mistaken for missing
// values.
type locationFixRequest struct {
	Latitude  *float64   `json:"latitude"  validate:"required,gte=-90,lte=90"`
	Longitude *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	Altitude  *float64   `json:"altitude,omitempty"`
	Speed     *float64   `json:"speed,omitempty"    validate:"omitempty,gte=0"`
	Accuracy  float64    `json:"accuracy"           validate:"gte=0"`
	Battery   *int       `json:"battery,omitempty"  validate:"omitempty,gte=0,lte=100"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (r locationFixRequest) toFix() domain.LocationFix {
	fix := domain.LocationFix{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Altitude:  r.Altitude,
		Speed:     r.Speed,
		Accuracy:  r.Accuracy,
		Battery:   r.Battery,
	}
	if r.Timestamp != nil {
		fix.Timestamp = r.Timestamp.UTC()
	}
	return fix
}

type locationErrorRequest struct {
	Code    int    `json:"code"`
	Message string `json:"message" validate:"required"`
}

type acceptedResponse struct {
	Message  string `json:"message"`
	Watchers int    `json:"watchers"`
}

type trackerListResponse struct {
	Trackers []domain.TrackerState `json:"trackers"`
	Count    int                   `json:"count"`
}

type presenceResponse struct {
	Presence []domain.Presence `json:"presence"`
	Count    int               `json:"count"`
}

type logListResponse struct {
	Identity string              `json:"identity"`
	Logs     []domain.TrackerLog `json:"logs"`
	Count    int                 `json:"count"`
}
