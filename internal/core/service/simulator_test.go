package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

func TestBuildPatrolPath_ForwardThenReverse(t *testing.T) {
	wps := []domain.Coordinates{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 0}, {Lat: 2, Lng: 2}}
	path := BuildPatrolPath(wps, 2)

	want := []domain.Coordinates{
		{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 2, Lng: 0}, {Lat: 2, Lng: 1}, {Lat: 2, Lng: 2},
		{Lat: 2, Lng: 1}, {Lat: 2, Lng: 0}, {Lat: 1, Lng: 0},
	}
	if len(path) != len(want) {
		t.Fatalf("expected %d points, got %d: %+v", len(want), len(path), path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %+v, want %+v", i, path[i], want[i])
		}
	}
}

func TestBuildPatrolPath_Degenerate(t *testing.T) {
	if p := BuildPatrolPath(nil, 5); p != nil {
		t.Errorf("expected nil path, got %+v", p)
	}
	one := []domain.Coordinates{{Lat: 1, Lng: 1}}
	if p := BuildPatrolPath(one, 5); len(p) != 1 {
		t.Errorf("expected single point, got %+v", p)
	}
}

func TestSimulator_StepLoops(t *testing.T) {
	sim := NewSimulator(SimPlan{
		StepsPerLeg: 1,
		Waypoints:   []domain.Coordinates{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}},
		Cast:        []SimMember{{UserID: "SIM-1"}},
	})
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	// Path is [0, 1]; the member bounces between both ends.
	var lats []float64
	for i := 0; i < 4; i++ {
		pkts := sim.Step(now)
		if len(pkts) != 1 {
			t.Fatalf("expected 1 packet, got %d", len(pkts))
		}
		if pkts[0].Status != domain.TrackerActive {
			t.Errorf("expected default active status, got %q", pkts[0].Status)
		}
		lats = append(lats, pkts[0].Lat)
	}
	want := []float64{0, 1, 0, 1}
	for i := range want {
		if lats[i] != want[i] {
			t.Errorf("step %d lat = %v, want %v", i, lats[i], want[i])
		}
	}
}

func TestSimulator_CastStartsAtDifferentPhases(t *testing.T) {
	sim := NewSimulator(DefaultSimPlan())
	pkts := sim.Step(time.Now())
	if len(pkts) != 3 {
		t.Fatalf("expected 3 members, got %d", len(pkts))
	}
	if pkts[0].Position() == pkts[1].Position() {
		t.Error("expected members spread along the route")
	}
}

func TestLoadSimPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.yaml")
	body := `steps_per_leg: 4
waypoints:
  - {lat: 10, lng: 20}
  - {lat: 11, lng: 21}
cast:
  - user_id: SIM-X
    battery: 50
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	plan, err := LoadSimPlan(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.StepsPerLeg != 4 || len(plan.Waypoints) != 2 || plan.Cast[0].UserID != "SIM-X" {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestLoadSimPlan_RejectsShortRoute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.yaml")
	_ = os.WriteFile(path, []byte("waypoints:\n  - {lat: 1, lng: 1}\ncast:\n  - user_id: A\n"), 0o600)

	if _, err := LoadSimPlan(path); err == nil {
		t.Error("expected error for single waypoint route")
	}
}
