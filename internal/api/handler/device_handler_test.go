package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

type stubLocations struct {
	fixes    []domain.LocationFix
	errs     []error
	watchers int
}

func (s *stubLocations) Publish(fix domain.LocationFix) int {
	s.fixes = append(s.fixes, fix)
	return s.watchers
}

func (s *stubLocations) ReportError(err error) { s.errs = append(s.errs, err) }

func TestDeviceHandler_Location_Accepted(t *testing.T) {
	e := newTestEcho()
	locs := &stubLocations{watchers: 1}
	h := NewDeviceHandler(locs)

	body := `{"latitude":0,"longitude":8.5,"altitude":1850.5,"accuracy":4.2,"battery":77,"timestamp":"2026-06-01T11:00:00+02:00"}`
	rec := httptest.NewRecorder()
	if err := h.Location(e.NewContext(jsonRequest(http.MethodPost, "/v1/device/location", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	if len(locs.fixes) != 1 {
		t.Fatalf("expected one fix, got %d", len(locs.fixes))
	}
	fix := locs.fixes[0]
	if fix.Latitude != 0 || fix.Longitude != 8.5 || *fix.Altitude != 1850.5 || *fix.Battery != 77 {
		t.Errorf("unexpected fix: %+v", fix)
	}
	if want := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC); !fix.Timestamp.Equal(want) || fix.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp %v, got %v", want, fix.Timestamp)
	}

	var resp acceptedResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Watchers != 1 {
		t.Errorf("expected 1 watcher, got %d", resp.Watchers)
	}
}

func TestDeviceHandler_Location_Validation(t *testing.T) {
	e := newTestEcho()
	locs := &stubLocations{}
	h := NewDeviceHandler(locs)

	for _, body := range []string{
		`{"longitude":8.5}`,
		`{"latitude":91,"longitude":8.5}`,
		`{"latitude":46,"longitude":-181}`,
		`{"latitude":46,"longitude":8,"battery":120}`,
		`{"latitude":46,"longitude":8,"speed":-1}`,
		`{"latitude":46,"longitude":8,"accuracy":-3}`,
	} {
		err := h.Location(e.NewContext(jsonRequest(http.MethodPost, "/", body), httptest.NewRecorder()))
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %v", body, err)
		}
	}
	if len(locs.fixes) != 0 {
		t.Fatalf("invalid fixes must not be published")
	}
}

func TestDeviceHandler_LocationError(t *testing.T) {
	e := newTestEcho()
	locs := &stubLocations{}
	h := NewDeviceHandler(locs)

	rec := httptest.NewRecorder()
	body := `{"code":1,"message":"permission denied"}`
	if err := h.LocationError(e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(locs.errs) != 1 || locs.errs[0].Error() != "geolocation error 1: permission denied" {
		t.Fatalf("unexpected errors: %v", locs.errs)
	}

	err := h.LocationError(e.NewContext(jsonRequest(http.MethodPost, "/", `{"code":2}`), httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without message, got %v", err)
	}
}
