package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSyncService struct {
	current     domain.SyncStatus
	enabledWith *domain.Session
	disabled    int
	broadcast   *bool
	simulation  *bool
	setStatus   domain.TrackerStatus
	statusErr   error
	peers       []domain.Presence
	presenceErr error
}

func (s *stubSyncService) Enable(session domain.Session) domain.SyncStatus {
	s.enabledWith = &session
	s.current.Toggles.Live = true
	s.current.State = domain.ConnConnecting
	s.current.Identity = session.DisplayIdentity()
	s.current.OwnerID = session.UserID
	return s.current
}

func (s *stubSyncService) Disable() {
	s.disabled++
	s.current.Toggles.Live = false
	s.current.State = domain.ConnDisabled
}

func (s *stubSyncService) SetBroadcast(on bool) {
	s.broadcast = &on
	s.current.Toggles.Broadcast = on
}

func (s *stubSyncService) SetSimulation(on bool) {
	s.simulation = &on
	s.current.Toggles.Simulation = on
}

func (s *stubSyncService) SetStatus(_ context.Context, status domain.TrackerStatus) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	s.setStatus = status
	s.current.LocalStatus = status
	return nil
}

func (s *stubSyncService) Status() domain.SyncStatus { return s.current }

func (s *stubSyncService) Presence(context.Context) ([]domain.Presence, error) {
	return s.peers, s.presenceErr
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func withClaims(c echo.Context, userID, displayName, role, tier string) echo.Context {
	c.Set("user_id", userID)
	c.Set("display_name", displayName)
	c.Set("role", role)
	c.Set("tier", tier)
	return c
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) domain.SyncStatus {
	t.Helper()
	var st domain.SyncStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return st
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTrackingHandler_SetLive_EnablesWithSessionFromClaims(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{}
	h := NewTrackingHandler(svc)

	rec := httptest.NewRecorder()
	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/v1/tracking/live", `{"enabled":true}`), rec),
		"665f1c", "Alice", "monitor", "pro")

	if err := h.SetLive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := domain.Session{UserID: "665f1c", DisplayName: "Alice", Role: domain.RoleMonitor, Tier: domain.TierPro}
	if svc.enabledWith == nil || *svc.enabledWith != want {
		t.Fatalf("unexpected session: %+v", svc.enabledWith)
	}
	if st := decodeStatus(t, rec); !st.Toggles.Live || st.Identity != "Alice" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestTrackingHandler_SetLive_Disable(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{current: domain.SyncStatus{Toggles: domain.Toggles{Live: true}, Identity: "alice", OwnerID: "665f1c"}}
	h := NewTrackingHandler(svc)

	rec := httptest.NewRecorder()
	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/v1/tracking/live", `{"enabled":false}`), rec),
		"665f1c", "Alice", "monitor", "pro")

	if err := h.SetLive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.disabled != 1 {
		t.Fatalf("expected Disable to be called once, got %d", svc.disabled)
	}
	if st := decodeStatus(t, rec); st.Toggles.Live || st.State != domain.ConnDisabled {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestTrackingHandler_SetLive_RejectsOtherSession(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{current: domain.SyncStatus{Toggles: domain.Toggles{Live: true}, Identity: "Bob", OwnerID: "7a01b2"}}
	h := NewTrackingHandler(svc)

	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/v1/tracking/live", `{"enabled":false}`), httptest.NewRecorder()),
		"665f1c", "Alice", "monitor", "pro")

	if err := h.SetLive(c); !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if svc.disabled != 0 {
		t.Fatal("another session must not be able to disable tracking")
	}
}

func TestTrackingHandler_SetLive_RequiresClaims(t *testing.T) {
	e := newTestEcho()
	h := NewTrackingHandler(&stubSyncService{})

	c := e.NewContext(jsonRequest(http.MethodPut, "/v1/tracking/live", `{"enabled":true}`), httptest.NewRecorder())
	err := h.SetLive(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestTrackingHandler_Toggles(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{}
	h := NewTrackingHandler(svc)

	rec := httptest.NewRecorder()
	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/", `{"enabled":true}`), rec), "665f1c", "Alice", "regular", "free")
	if err := h.SetBroadcast(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.broadcast == nil || !*svc.broadcast || !decodeStatus(t, rec).Toggles.Broadcast {
		t.Fatalf("broadcast not enabled")
	}

	rec = httptest.NewRecorder()
	c = withClaims(e.NewContext(jsonRequest(http.MethodPut, "/", `{"enabled":false}`), rec), "665f1c", "Alice", "regular", "free")
	if err := h.SetSimulation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.simulation == nil || *svc.simulation {
		t.Fatalf("simulation not disabled")
	}
}

func TestTrackingHandler_Toggle_RequiresEnabledField(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{}
	h := NewTrackingHandler(svc)

	err := h.SetBroadcast(e.NewContext(jsonRequest(http.MethodPut, "/", `{}`), httptest.NewRecorder()))

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if svc.broadcast != nil {
		t.Fatal("service must not be called")
	}
}

func TestTrackingHandler_SetStatus(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{}
	h := NewTrackingHandler(svc)

	rec := httptest.NewRecorder()
	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/", `{"status":"sos"}`), rec), "665f1c", "Alice", "regular", "free")
	if err := h.SetStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.setStatus != domain.TrackerSOS || decodeStatus(t, rec).LocalStatus != domain.TrackerSOS {
		t.Fatalf("status not applied")
	}

	err := h.SetStatus(e.NewContext(jsonRequest(http.MethodPut, "/", `{"status":"panic"}`), httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %v", err)
	}
}

func TestTrackingHandler_Presence(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{peers: []domain.Presence{{UserID: "u-1", DisplayName: "Alice"}, {UserID: "u-2"}}}
	h := NewTrackingHandler(svc)

	rec := httptest.NewRecorder()
	if err := h.Presence(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/presence", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp presenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 2 || resp.Presence[0].DisplayName != "Alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	svc.presenceErr = errors.New("redis down")
	if err := h.Presence(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/presence", nil), httptest.NewRecorder())); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestTrackingHandler_Toggles_RejectOtherAccountWhileLive(t *testing.T) {
	live := domain.SyncStatus{Toggles: domain.Toggles{Live: true, Broadcast: true}, Identity: "Alice", OwnerID: "665f1c"}

	tests := []struct {
		name string
		body string
		call func(*TrackingHandler, echo.Context) error
	}{
		{"broadcast", `{"enabled":false}`, (*TrackingHandler).SetBroadcast},
		{"simulation", `{"enabled":true}`, (*TrackingHandler).SetSimulation},
		{"status", `{"status":"sos"}`, (*TrackingHandler).SetStatus},
		{"live", `{"enabled":false}`, (*TrackingHandler).SetLive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			svc := &stubSyncService{current: live}
			h := NewTrackingHandler(svc)

			// Same display name, different account.
			c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/", tt.body), httptest.NewRecorder()),
				"7a01b2", "alice", "regular", "free")

			if err := tt.call(h, c); !errors.Is(err, domain.ErrSessionActive) {
				t.Fatalf("expected ErrSessionActive, got %v", err)
			}
			if svc.broadcast != nil || svc.simulation != nil || svc.setStatus != "" || svc.disabled != 0 {
				t.Fatalf("service must not be called: %+v", svc)
			}
		})
	}
}

func TestTrackingHandler_Toggles_OwnerMayChangeWhileLive(t *testing.T) {
	e := newTestEcho()
	svc := &stubSyncService{current: domain.SyncStatus{Toggles: domain.Toggles{Live: true}, Identity: "Alice", OwnerID: "665f1c"}}
	h := NewTrackingHandler(svc)

	c := withClaims(e.NewContext(jsonRequest(http.MethodPut, "/", `{"enabled":true}`), httptest.NewRecorder()),
		"665f1c", "Alice", "regular", "free")
	if err := h.SetBroadcast(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.broadcast == nil || !*svc.broadcast {
		t.Fatal("owner could not enable broadcast")
	}
}
