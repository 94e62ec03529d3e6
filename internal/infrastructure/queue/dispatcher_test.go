package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

type recordingSink struct {
	mu   sync.Mutex
	seen map[string][]float64
	n    int
}

func (s *recordingSink) Upsert(p domain.TrackerPacket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string][]float64)
	}
	s.seen[p.UserID] = append(s.seen[p.UserID], p.Lat)
	s.n++
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func TestDispatcher_PreservesPerTrackerOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, sink, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	ids := []string{"alice", "bob", "carol", "dave", "erin"}
	const perID = 50
	for i := 0; i < perID; i++ {
		for _, id := range ids {
			d.Enqueue(domain.TrackerPacket{UserID: id, Lat: float64(i)})
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < perID*len(ids) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, id := range ids {
		got := sink.seen[id]
		if len(got) != perID {
			t.Fatalf("%s: expected %d packets, got %d", id, perID, len(got))
		}
		for i, lat := range got {
			if lat != float64(i) {
				t.Fatalf("%s: packet %d out of order (lat=%v)", id, i, lat)
			}
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingSink{}, zerolog.Nop())

	first := d.shardIndex("Alice")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("Alice"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
	if got := d.shardIndex("ALICE"); got != first {
		t.Errorf("expected case-insensitive sharding, got %d != %d", got, first)
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard out of range: %d", first)
	}
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	if d := NewDispatcher(0, &recordingSink{}, zerolog.Nop()); len(d.workers) != defaultWorkers {
		t.Errorf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_EnqueueAfterStopDoesNotBlock(t *testing.T) {
	d := NewDispatcher(1, &recordingSink{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.TrackerPacket{UserID: "alice", Lat: float64(i)})
		}
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked after the workers stopped")
	}
}
