package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sink receives the packets routed by the Dispatcher.
type Sink interface {
	Upsert(p domain.TrackerPacket)
}

// Dispatcher routes inbound peer packets to a fixed set of workers using
// consistent hashing on the tracker identity, so packets from one tracker
// are applied in arrival order.
type Dispatcher struct {
	workers []chan domain.TrackerPacket
	sink    Sink
	log     zerolog.Logger
	done    <-chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TrackerPacket, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TrackerPacket, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.done = ctx.Done()
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a packet to the worker responsible for its identity.
// The call is non-blocking up to channelBuffer capacity. Once the workers
// have stopped, packets are dropped instead of blocking the caller.
func (d *Dispatcher) Enqueue(p domain.TrackerPacket) {
	idx := d.shardIndex(p.UserID)
	select {
	case d.workers[idx] <- p:
	case <-d.done:
		d.log.Debug().Str("user_id", p.UserID).Msg("dispatcher stopped, packet dropped")
		return
	}
	metrics.InboundQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an identity deterministically to a worker index. Case is
// ignored so that variants of one identity share a worker.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(userID)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TrackerPacket) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			d.sink.Upsert(p)
			metrics.InboundQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.log.Debug().
				Str("user_id", p.UserID).
				Int("worker_id", id).
				Msg("peer packet applied")
		}
	}
}
