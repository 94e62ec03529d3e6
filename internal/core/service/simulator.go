package service

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

const defaultStepsPerLeg = 10

// SimMember is one synthetic participant.
type SimMember struct {
	UserID  string               `yaml:"user_id"`
	Speed   float64              `yaml:"speed"`
	Battery int                  `yaml:"battery"`
	Status  domain.TrackerStatus `yaml:"status"`
}

// SimPlan describes the cast and the waypoint route they patrol.
type SimPlan struct {
	StepsPerLeg int                  `yaml:"steps_per_leg"`
	Waypoints   []domain.Coordinates `yaml:"waypoints"`
	Cast        []SimMember          `yaml:"cast"`
}

// DefaultSimPlan is used when no route file is configured.
func DefaultSimPlan() SimPlan {
	return SimPlan{
		StepsPerLeg: defaultStepsPerLeg,
		Waypoints: []domain.Coordinates{
			{Lat: 46.5580, Lng: 8.5610},
			{Lat: 46.5612, Lng: 8.5668},
			{Lat: 46.5655, Lng: 8.5702},
			{Lat: 46.5690, Lng: 8.5781},
			{Lat: 46.5731, Lng: 8.5824},
		},
		Cast: []SimMember{
			{UserID: "SIM-ALPHA", Speed: 1.4, Battery: 92, Status: domain.TrackerActive},
			{UserID: "SIM-BRAVO", Speed: 1.1, Battery: 67, Status: domain.TrackerActive},
			{UserID: "SIM-CHARLIE", Speed: 0.0, Battery: 35, Status: domain.TrackerIdle},
		},
	}
}

// LoadSimPlan reads a YAML plan from path.
func LoadSimPlan(path string) (SimPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SimPlan{}, fmt.Errorf("read sim plan: %w", err)
	}
	var plan SimPlan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return SimPlan{}, fmt.Errorf("parse sim plan: %w", err)
	}
	if len(plan.Waypoints) < 2 {
		return SimPlan{}, fmt.Errorf("sim plan: need at least 2 waypoints, got %d", len(plan.Waypoints))
	}
	if len(plan.Cast) == 0 {
		return SimPlan{}, fmt.Errorf("sim plan: empty cast")
	}
	return plan, nil
}

// Simulator advances a synthetic cast along a back-and-forth route.
type Simulator struct {
	mu     sync.Mutex
	cast   []SimMember
	path   []domain.Coordinates
	cursor []int
}

// NewSimulator precomputes the route and spreads the cast along it.
func NewSimulator(plan SimPlan) *Simulator {
	steps := plan.StepsPerLeg
	if steps <= 0 {
		steps = defaultStepsPerLeg
	}
	path := BuildPatrolPath(plan.Waypoints, steps)

	cursor := make([]int, len(plan.Cast))
	if len(path) > 0 {
		for i := range cursor {
			cursor[i] = (i * len(path) / max(len(plan.Cast), 1)) % len(path)
		}
	}
	return &Simulator{cast: plan.Cast, path: path, cursor: cursor}
}

// Step moves every member one position forward and returns their packets.
func (s *Simulator) Step(now time.Time) []domain.TrackerPacket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.path) == 0 {
		return nil
	}
	out := make([]domain.TrackerPacket, 0, len(s.cast))
	for i, m := range s.cast {
		p := s.path[s.cursor[i]]
		s.cursor[i] = (s.cursor[i] + 1) % len(s.path)

		speed := m.Speed
		battery := m.Battery
		status := m.Status
		if status == "" {
			status = domain.TrackerActive
		}
		out = append(out, domain.TrackerPacket{
			UserID:    m.UserID,
			Lat:       p.Lat,
			Lng:       p.Lng,
			Speed:     &speed,
			Battery:   &battery,
			Timestamp: now.UTC(),
			Status:    status,
		})
	}
	return out
}

// BuildPatrolPath interpolates steps points per leg between consecutive
// waypoints, then appends the same route in reverse so the last point
// leads back to the first.
func BuildPatrolPath(waypoints []domain.Coordinates, steps int) []domain.Coordinates {
	switch len(waypoints) {
	case 0:
		return nil
	case 1:
		return []domain.Coordinates{waypoints[0]}
	}

	forward := make([]domain.Coordinates, 0, (len(waypoints)-1)*steps+1)
	for i := 0; i < len(waypoints)-1; i++ {
		a, b := waypoints[i], waypoints[i+1]
		for k := 0; k < steps; k++ {
			f := float64(k) / float64(steps)
			forward = append(forward, domain.Coordinates{
				Lat: a.Lat + (b.Lat-a.Lat)*f,
				Lng: a.Lng + (b.Lng-a.Lng)*f,
			})
		}
	}
	forward = append(forward, waypoints[len(waypoints)-1])

	// Turnaround points are not repeated.
	path := forward
	for i := len(forward) - 2; i > 0; i-- {
		path = append(path, forward[i])
	}
	return path
}
