// Package network tracks whether the durable store is reachable.
package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultInterval = 5 * time.Second
	defaultTimeout  = 2 * time.Second
)

// PingFunc checks the store once.
type PingFunc func(ctx context.Context) error

// Probe implements ports.Connectivity by pinging on an interval.
type Probe struct {
	ping     PingFunc
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	online atomic.Bool
	mu     sync.Mutex
	subs   map[chan bool]struct{}
}

// NewProbe returns a Probe that starts out offline until the first ping
// succeeds.
func NewProbe(ping PingFunc, interval time.Duration, log zerolog.Logger) *Probe {
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := defaultTimeout
	if interval < timeout {
		timeout = interval
	}
	return &Probe{
		ping:     ping,
		interval: interval,
		timeout:  timeout,
		log:      log,
		subs:     make(map[chan bool]struct{}),
	}
}

// Run pings until ctx is cancelled.
func (p *Probe) Run(ctx context.Context) {
	p.check(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Probe) Online() bool { return p.online.Load() }

// Changes emits every online/offline transition. A slow reader only sees
// the latest value.
func (p *Probe) Changes(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.subs, ch)
		close(ch)
		p.mu.Unlock()
	}()
	return ch
}

func (p *Probe) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.ping(pingCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	next := err == nil
	if p.online.Swap(next) == next {
		return
	}
	if next {
		p.log.Info().Msg("durable store online")
	} else {
		p.log.Warn().Err(err).Msg("durable store offline")
	}
	p.notify(next)
}

func (p *Probe) notify(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
