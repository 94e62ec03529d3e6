package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/terrasight/tracker-sync/internal/core/buffer"
	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/ports"
	"github.com/terrasight/tracker-sync/internal/core/registry"
	"github.com/terrasight/tracker-sync/internal/pkg/metrics"
	"github.com/terrasight/tracker-sync/internal/pkg/tracing"
)

const untrackTimeout = 3 * time.Second

// SyncConfig holds the tunables of the sync service.
type SyncConfig struct {
	Topic             string
	SubscribeTimeout  time.Duration
	PresenceTTL       time.Duration
	LogCooldown       time.Duration
	BroadcastCooldown time.Duration
	// MinDisplacement is compared against the latitude and longitude deltas
	// independently, in decimal degrees.
	MinDisplacement float64
	// MaxAccuracy is the worst fix accuracy, in meters, still persisted.
	MaxAccuracy float64
	SimTick     time.Duration
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.Topic == "" {
		c.Topic = "tracking:live"
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = 10 * time.Second
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 30 * time.Second
	}
	if c.SimTick <= 0 {
		c.SimTick = 2 * time.Second
	}
	return c
}

// PacketDispatcher hands inbound peer packets to the registry.
type PacketDispatcher interface {
	Enqueue(p domain.TrackerPacket)
}

// activation holds everything started by one Enable call.
type activation struct {
	ctx       context.Context
	cancel    context.CancelFunc
	sessionID string
	sub       ports.Subscription
	stopWatch context.CancelFunc
	stopSim   context.CancelFunc
	wg        sync.WaitGroup
}

// reportGates throttles outbound side effects of location fixes.
type reportGates struct {
	lastLogAt       time.Time
	lastLogged      *domain.Coordinates
	lastBroadcastAt time.Time
}

// allowLog applies the persistence gate and records the attempt when it
// passes: acceptable accuracy, cooldown elapsed and a coarse per-axis
// movement check.
func (g *reportGates) allowLog(fix domain.LocationFix, now time.Time, cfg SyncConfig) bool {
	if cfg.MaxAccuracy > 0 && fix.Accuracy > cfg.MaxAccuracy {
		return false
	}
	if !g.lastLogAt.IsZero() && now.Sub(g.lastLogAt) < cfg.LogCooldown {
		return false
	}
	if g.lastLogged != nil &&
		math.Abs(fix.Latitude-g.lastLogged.Lat) <= cfg.MinDisplacement &&
		math.Abs(fix.Longitude-g.lastLogged.Lng) <= cfg.MinDisplacement {
		return false
	}
	g.lastLogAt = now
	g.lastLogged = &domain.Coordinates{Lat: fix.Latitude, Lng: fix.Longitude}
	return true
}

func (g *reportGates) allowBroadcast(now time.Time, cfg SyncConfig) bool {
	if !g.lastBroadcastAt.IsZero() && now.Sub(g.lastBroadcastAt) < cfg.BroadcastCooldown {
		return false
	}
	g.lastBroadcastAt = now
	return true
}

// SyncService bridges the local registry to the live channel.
//
// It is driven by three toggles. Live is the master switch: turning it off
// tears everything down from any state. Broadcast controls outbound
// reporting and Simulation feeds a synthetic cast into the registry.
type SyncService struct {
	cfg      SyncConfig
	registry *registry.Registry
	inbound  PacketDispatcher
	channel  ports.Channel
	logs     ports.TrackerLogRepository
	queue    *buffer.Queue
	location ports.LocationSource
	network  ports.Connectivity
	sim      *Simulator
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	mu          sync.Mutex
	state       domain.ConnState
	toggles     domain.Toggles
	session     domain.Session
	caps        domain.Capabilities
	localStatus domain.TrackerStatus
	latest      *domain.TrackerPacket
	gates       reportGates
	act         *activation

	flushing atomic.Bool
}

// NewSyncService returns a disabled SyncService. sim may be nil, in which
// case the simulation toggle has no effect.
func NewSyncService(
	cfg SyncConfig,
	reg *registry.Registry,
	inbound PacketDispatcher,
	channel ports.Channel,
	logs ports.TrackerLogRepository,
	queue *buffer.Queue,
	location ports.LocationSource,
	network ports.Connectivity,
	sim *Simulator,
	log zerolog.Logger,
) *SyncService {
	metrics.SetConnectionState(string(domain.ConnDisabled))
	return &SyncService{
		cfg:         cfg.withDefaults(),
		registry:    reg,
		inbound:     inbound,
		channel:     channel,
		logs:        logs,
		queue:       queue,
		location:    location,
		network:     network,
		sim:         sim,
		log:         log.With().Str("component", "sync").Logger(),
		tracer:      tracing.Tracer(),
		now:         time.Now,
		state:       domain.ConnDisabled,
		localStatus: domain.TrackerActive,
	}
}

// Enable turns the master toggle on for session and starts connecting.
// Capabilities are resolved once here. Enabling an enabled service is a
// no-op.
func (s *SyncService) Enable(session domain.Session) domain.SyncStatus {
	s.mu.Lock()
	if s.toggles.Live {
		s.mu.Unlock()
		return s.Status()
	}
	next, err := s.state.Transition(domain.ConnConnecting)
	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("cannot enable live tracking")
		return s.Status()
	}

	ctx, cancel := context.WithCancel(context.Background())
	act := &activation{ctx: ctx, cancel: cancel, sessionID: uuid.NewString()}

	s.state = next
	s.toggles.Live = true
	s.session = session
	s.caps = session.Capabilities()
	s.gates = reportGates{}
	s.latest = nil
	s.act = act

	if s.toggles.Simulation {
		s.startSimulationLocked(act)
	}
	act.wg.Add(1)
	go s.connect(act)
	s.mu.Unlock()

	metrics.SetConnectionState(string(next))
	s.log.Info().
		Str("identity", session.DisplayIdentity()).
		Str("role", string(session.Role)).
		Str("tier", string(session.Tier)).
		Bool("can_monitor", s.caps.CanMonitor).
		Msg("live tracking enabled")
	return s.Status()
}

// Disable turns the master toggle off from any state. It stops the
// location watch and the simulation, closes the channel and waits for all
// background work to finish. Safe to call repeatedly.
func (s *SyncService) Disable() {
	s.mu.Lock()
	if !s.toggles.Live {
		s.mu.Unlock()
		return
	}
	act := s.act
	session := s.session
	s.toggles.Live = false
	s.state, _ = s.state.Transition(domain.ConnDisabled)
	s.act = nil
	s.mu.Unlock()

	act.cancel()
	act.wg.Wait()

	if act.sub != nil {
		if err := act.sub.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close subscription")
		}
		ctx, cancel := context.WithTimeout(context.Background(), untrackTimeout)
		if err := s.channel.Untrack(ctx, s.cfg.Topic, session.UserID); err != nil {
			s.log.Warn().Err(err).Msg("untrack presence")
		}
		cancel()
	}

	metrics.SetConnectionState(string(domain.ConnDisabled))
	s.log.Info().Msg("live tracking disabled")
}

// SetBroadcast toggles outbound reporting of the local position.
func (s *SyncService) SetBroadcast(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toggles.Broadcast = on
	if s.act == nil {
		return
	}
	if on {
		s.startReportingLocked(s.act)
	} else {
		s.stopReportingLocked(s.act)
	}
}

// SetSimulation toggles the synthetic cast.
func (s *SyncService) SetSimulation(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toggles.Simulation = on
	if s.act == nil {
		return
	}
	if on {
		s.startSimulationLocked(s.act)
	} else if s.act.stopSim != nil {
		s.act.stopSim()
		s.act.stopSim = nil
	}
}

// SetStatus changes the status carried on outbound packets. Raising SOS is
// published right away, ignoring the broadcast cooldown.
func (s *SyncService) SetStatus(ctx context.Context, status domain.TrackerStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	s.mu.Lock()
	s.localStatus = status
	var pkt *domain.TrackerPacket
	if s.latest != nil {
		s.latest.Status = status
		p := *s.latest
		pkt = &p
	}
	urgent := status == domain.TrackerSOS && pkt != nil && s.reportingLocked()
	if urgent {
		s.gates.lastBroadcastAt = s.now()
	}
	s.mu.Unlock()

	if pkt != nil {
		s.registry.Upsert(*pkt)
	}
	if urgent {
		s.publish(ctx, *pkt, "status")
	}
	return nil
}

// Status returns a snapshot of the service.
func (s *SyncService) Status() domain.SyncStatus {
	s.mu.Lock()
	st := domain.SyncStatus{
		State:        s.state,
		Toggles:      s.toggles,
		Capabilities: s.caps,
		LocalStatus:  s.localStatus,
	}
	if s.toggles.Live {
		st.Identity = s.session.DisplayIdentity()
		st.OwnerID = s.session.UserID
	}
	s.mu.Unlock()

	st.Buffered = s.queue.Len(context.Background())
	return st
}

// Presence lists participants currently announced on the topic.
func (s *SyncService) Presence(ctx context.Context) ([]domain.Presence, error) {
	return s.channel.Present(ctx, s.cfg.Topic)
}

// connect subscribes and, once acknowledged, starts the connected-state work.
// Failures are not retried: the master toggle has to be cycled.
func (s *SyncService) connect(act *activation) {
	defer act.wg.Done()

	ctx, span := s.tracer.Start(act.ctx, "sync.subscribe",
		trace.WithAttributes(attribute.String("topic", s.cfg.Topic)))
	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubscribeTimeout)
	sub, err := s.channel.Subscribe(subCtx, s.cfg.Topic)
	cancel()
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	s.mu.Lock()
	if s.act != act {
		s.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
		return
	}
	if err != nil {
		s.state, _ = s.state.Transition(domain.ConnError)
		s.mu.Unlock()
		metrics.ConnectionErrorsTotal.Inc()
		metrics.SetConnectionState(string(domain.ConnError))
		s.log.Error().Err(err).Str("topic", s.cfg.Topic).Msg("live channel subscription failed")
		return
	}
	s.state, _ = s.state.Transition(domain.ConnConnected)
	act.sub = sub
	session, caps := s.session, s.caps
	s.mu.Unlock()

	metrics.SetConnectionState(string(domain.ConnConnected))
	s.log.Info().Str("topic", s.cfg.Topic).Msg("live channel connected")

	presence := domain.Presence{
		UserID:      session.UserID,
		DisplayName: session.DisplayIdentity(),
		Role:        session.Role,
		SessionID:   act.sessionID,
		OnlineAt:    s.now().UTC(),
	}
	s.trackPresence(act.ctx, presence)
	act.wg.Add(1)
	go s.refreshPresence(act, presence)

	if caps.CanMonitor {
		msg := domain.ChannelMessage{Event: domain.EventHeartbeatRequest, Sender: session.DisplayIdentity()}
		if err := s.channel.Publish(act.ctx, s.cfg.Topic, msg); err != nil {
			s.log.Warn().Err(err).Msg("heartbeat request failed")
		}
	}

	act.wg.Add(1)
	go s.consume(act, sub)

	s.mu.Lock()
	if s.act == act {
		s.startReportingLocked(act)
	}
	s.mu.Unlock()

	changes := s.network.Changes(act.ctx)
	if s.network.Online() {
		s.flush(act.ctx)
	}
	act.wg.Add(1)
	go s.watchConnectivity(act, changes)
}

func (s *SyncService) consume(act *activation, sub ports.Subscription) {
	defer act.wg.Done()
	msgs := sub.Messages()
	for {
		select {
		case <-act.ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.handleMessage(act.ctx, msg)
		}
	}
}

// handleMessage applies one inbound channel message.
func (s *SyncService) handleMessage(ctx context.Context, msg domain.ChannelMessage) {
	s.mu.Lock()
	caps := s.caps
	self := s.session.DisplayIdentity()
	reporting := s.reportingLocked()
	var latest *domain.TrackerPacket
	if s.latest != nil {
		p := *s.latest
		latest = &p
	}
	s.mu.Unlock()

	switch msg.Event {
	case domain.EventLocationUpdate:
		if !caps.CanMonitor || msg.Packet == nil {
			metrics.PacketsReceivedTotal.WithLabelValues("ignored").Inc()
			return
		}
		if domain.SameIdentity(msg.Packet.UserID, self) {
			metrics.PacketsReceivedTotal.WithLabelValues("self_echo").Inc()
			return
		}
		metrics.PacketsReceivedTotal.WithLabelValues("applied").Inc()
		s.inbound.Enqueue(*msg.Packet)

	case domain.EventHeartbeatRequest:
		if !reporting || latest == nil || domain.SameIdentity(msg.Sender, self) {
			return
		}
		s.mu.Lock()
		s.gates.lastBroadcastAt = s.now()
		s.mu.Unlock()
		s.publish(ctx, *latest, "heartbeat")

	default:
		s.log.Debug().Str("event", msg.Event).Msg("unknown channel event")
	}
}

// reportingLocked reports whether outbound reporting is allowed right now.
func (s *SyncService) reportingLocked() bool {
	return s.state == domain.ConnConnected &&
		s.toggles.Broadcast &&
		s.caps.CanBroadcast &&
		s.session.UserID != ""
}

func (s *SyncService) startReportingLocked(act *activation) {
	if act.stopWatch != nil || !s.reportingLocked() {
		return
	}
	wctx, stop := context.WithCancel(act.ctx)
	act.stopWatch = stop
	fixes, errs := s.location.Watch(wctx)

	act.wg.Add(1)
	go s.report(wctx, act, fixes, errs)
	s.log.Info().Msg("location reporting started")
}

func (s *SyncService) stopReportingLocked(act *activation) {
	if act.stopWatch == nil {
		return
	}
	act.stopWatch()
	act.stopWatch = nil
	s.log.Info().Msg("location reporting stopped")
}

func (s *SyncService) report(ctx context.Context, act *activation, fixes <-chan domain.LocationFix, errs <-chan error) {
	defer act.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				return
			}
			s.handleFix(act.ctx, fix)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn().Err(err).Msg("geolocation error")
		}
	}
}

// handleFix updates the registry optimistically, then applies the broadcast
// and persistence gates independently.
func (s *SyncService) handleFix(ctx context.Context, fix domain.LocationFix) {
	now := s.now()
	ts := fix.Timestamp
	if ts.IsZero() {
		ts = now
	}

	s.mu.Lock()
	pkt := domain.TrackerPacket{
		UserID:    s.session.DisplayIdentity(),
		Lat:       fix.Latitude,
		Lng:       fix.Longitude,
		Alt:       fix.Altitude,
		Speed:     fix.Speed,
		Battery:   fix.Battery,
		Timestamp: ts.UTC(),
		Status:    s.localStatus,
	}
	latest := pkt
	s.latest = &latest
	shouldLog := s.gates.allowLog(fix, now, s.cfg)
	shouldBroadcast := s.gates.allowBroadcast(now, s.cfg)
	identity := s.session.UserID
	s.mu.Unlock()

	s.registry.Upsert(pkt)

	if shouldBroadcast {
		s.publish(ctx, pkt, "fix")
	}
	if shouldLog {
		s.persist(ctx, domain.TrackerLog{
			Identity:  identity,
			Lat:       pkt.Lat,
			Lng:       pkt.Lng,
			Elevation: fix.Altitude,
			Speed:     fix.Speed,
			Battery:   fix.Battery,
			Timestamp: pkt.Timestamp,
		})
	}
}

func (s *SyncService) publish(ctx context.Context, pkt domain.TrackerPacket, reason string) {
	msg := domain.ChannelMessage{Event: domain.EventLocationUpdate, Sender: pkt.UserID, Packet: &pkt}
	if err := s.channel.Publish(ctx, s.cfg.Topic, msg); err != nil {
		metrics.BroadcastsTotal.WithLabelValues(reason, "error").Inc()
		s.log.Warn().Err(err).Str("reason", reason).Msg("broadcast failed")
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(reason, "ok").Inc()
}

// persist writes row to the durable log, falling back to the offline
// buffer. A successful write also drains anything buffered earlier.
func (s *SyncService) persist(ctx context.Context, row domain.TrackerLog) {
	ctx, span := s.tracer.Start(ctx, "sync.persist")
	defer span.End()

	if err := s.logs.Insert(ctx, row); err != nil {
		span.RecordError(err)
		added, bufErr := s.queue.Push(ctx, row)
		switch {
		case bufErr != nil:
			metrics.LogWritesTotal.WithLabelValues("lost").Inc()
			s.log.Error().Err(bufErr).AnErr("write_err", err).Msg("sample lost: write and buffer both failed")
		case added:
			metrics.LogWritesTotal.WithLabelValues("buffered").Inc()
			s.log.Debug().Err(err).Time("timestamp", row.Timestamp).Msg("write failed, sample buffered")
		default:
			metrics.LogWritesTotal.WithLabelValues("duplicate").Inc()
		}
		return
	}

	metrics.LogWritesTotal.WithLabelValues("ok").Inc()
	s.flush(ctx)
}

// flush drains the offline buffer into the durable log. Concurrent calls
// collapse into the one already running.
func (s *SyncService) flush(ctx context.Context) {
	if !s.flushing.CompareAndSwap(false, true) {
		return
	}
	defer s.flushing.Store(false)

	ctx, span := s.tracer.Start(ctx, "sync.flush")
	defer span.End()

	n, err := s.queue.Drain(ctx, s.logs.InsertMany)
	if err != nil {
		span.RecordError(err)
		metrics.FlushesTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("buffer flush failed, will retry on next trigger")
		return
	}
	if n == 0 {
		return
	}
	span.SetAttributes(attribute.Int("rows", n))
	metrics.FlushesTotal.WithLabelValues("ok").Inc()
	metrics.FlushedRowsTotal.Add(float64(n))
	s.log.Info().Int("rows", n).Msg("offline buffer flushed")
}

// watchConnectivity consumes changes, which must be subscribed before the
// startup Online check so that no transition falls between the two.
func (s *SyncService) watchConnectivity(act *activation, changes <-chan bool) {
	defer act.wg.Done()
	for online := range changes {
		if !online {
			s.log.Warn().Msg("durable store unreachable, buffering samples")
			continue
		}
		s.log.Info().Msg("durable store reachable again")
		s.flush(act.ctx)
	}
}

func (s *SyncService) trackPresence(ctx context.Context, p domain.Presence) {
	if err := s.channel.Track(ctx, s.cfg.Topic, p); err != nil {
		s.log.Warn().Err(err).Msg("presence track failed")
	}
}

func (s *SyncService) refreshPresence(act *activation, p domain.Presence) {
	defer act.wg.Done()
	ticker := time.NewTicker(s.cfg.PresenceTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-act.ctx.Done():
			return
		case <-ticker.C:
			s.trackPresence(act.ctx, p)
		}
	}
}

func (s *SyncService) startSimulationLocked(act *activation) {
	if s.sim == nil || act.stopSim != nil {
		return
	}
	sctx, stop := context.WithCancel(act.ctx)
	act.stopSim = stop

	act.wg.Add(1)
	go s.simulate(sctx, act)
	s.log.Info().Dur("tick", s.cfg.SimTick).Msg("simulation started")
}

// simulate feeds the synthetic cast straight into the registry. It never
// touches the channel.
func (s *SyncService) simulate(ctx context.Context, act *activation) {
	defer act.wg.Done()
	ticker := time.NewTicker(s.cfg.SimTick)
	defer ticker.Stop()

	for {
		for _, p := range s.sim.Step(s.now()) {
			s.registry.Upsert(p)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
