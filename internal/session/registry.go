// Package session maps page visits to conversations. Sessions live in memory
// only; ending one, or leaving it idle, discards its transcript.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/chat"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/render"
)

const publishTimeout = 5 * time.Second

type updatePublisher interface {
	PublishUpdate(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) error
}

type Config struct {
	Greeting      string
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Publisher     updatePublisher  // optional
	Renderer      *render.Renderer // defaults to render.New(nil)
	Logger        *slog.Logger
	Now           func() time.Time
}

type Session struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Conversation *chat.Conversation

	mu       sync.Mutex
	lastSeen time.Time

	pubMu   sync.Mutex
	lastSeq uint64
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	gen      chat.Generator
	cfg      Config
	renderer *render.Renderer
	log      *slog.Logger
	now      func() time.Time

	ending   sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewRegistry(gen chat.Generator, cfg Config) *Registry {
	r := &Registry{
		sessions: make(map[uuid.UUID]*Session),
		gen:      gen,
		cfg:      cfg,
		renderer: cfg.Renderer,
		log:      cfg.Logger,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}
	if r.renderer == nil {
		r.renderer = render.New(nil)
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Create starts a fresh session whose conversation holds only the greeting.
func (r *Registry) Create() *Session {
	now := r.now()
	s := &Session{ID: uuid.New(), CreatedAt: now, lastSeen: now}
	s.Conversation = chat.New(r.gen,
		chat.WithGreeting(r.cfg.Greeting),
		chat.WithClock(r.now),
		chat.WithLogger(r.log.With("session_id", s.ID)),
		chat.WithObserver(func(snap models.Snapshot) { r.publish(s, snap) }),
	)

	r.mu.Lock()
	r.sessions[s.ID] = s
	total := len(r.sessions)
	r.mu.Unlock()

	r.log.Info("session created", "session_id", s.ID, "active", total)
	return s
}

// Get returns the session and marks it as seen.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// End removes the session. A reply still being generated is applied to the
// detached conversation and then dropped with it.
func (r *Registry) End(id uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}

	s.Conversation.Close()
	r.retire(s)
	r.log.Info("session ended", "session_id", id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// View renders the session's current state.
func (r *Registry) View(s *Session) models.ConversationView {
	return r.renderer.Conversation(s.ID, s.Conversation.Snapshot())
}

// Sweep ends sessions idle for longer than the idle timeout. Sessions waiting
// on a reply are kept.
func (r *Registry) Sweep(now time.Time) int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		// Closing under the conversation lock keeps a concurrent Submit from
		// starting a reply on a session being removed.
		if now.Sub(s.LastSeen()) > r.cfg.IdleTimeout && s.Conversation.CloseIfIdle() {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.retire(s)
	}
	if len(expired) > 0 {
		r.log.Info("idle sessions swept", "count", len(expired), "active", r.Len())
	}
	return len(expired)
}

func (r *Registry) Start() {
	if r.cfg.SweepInterval <= 0 {
		return
	}
	go r.loop()
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *Registry) loop() {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

// Drain waits for every outstanding generator call, including those of ended
// sessions.
func (r *Registry) Drain() {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	for _, s := range live {
		s.Conversation.Wait()
	}
	r.ending.Wait()
}

func (r *Registry) retire(s *Session) {
	r.ending.Add(1)
	go func() {
		defer r.ending.Done()
		s.Conversation.Wait()
	}()
}

// publish sends the rendered snapshot to subscribers. Snapshots can arrive out
// of order from the request and generator goroutines; older ones are dropped.
func (r *Registry) publish(s *Session, snap models.Snapshot) {
	if r.cfg.Publisher == nil {
		return
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if snap.Seq <= s.lastSeq {
		return
	}
	s.lastSeq = snap.Seq

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := r.cfg.Publisher.PublishUpdate(ctx, s.ID, models.WSMessage{
		Type:    models.WSTypeConversationUpdate,
		Payload: r.renderer.Conversation(s.ID, snap),
	})
	if err != nil {
		r.log.Warn("publish update failed", "session_id", s.ID, "seq", snap.Seq, "err", err)
	}
}
