// Package chat holds the per-visit transcript and the request-in-flight state
// machine in front of the response generator.
//
// A Conversation is Idle or Pending. Submit moves Idle to Pending and starts one
// generator call; the reply moves it back to Idle. Submissions while Pending are
// dropped, so at most one call is outstanding per conversation.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/models"
)

// ProtocolFailureReply replaces the reply when the generator panics.
const ProtocolFailureReply = "Connection error. Protocol failed."

// DefaultGreeting seeds a conversation when no greeting is configured.
const DefaultGreeting = "Systems online. How can I assist with your inquiry today?"

// Generator produces exactly one displayable reply per call and never fails.
type Generator interface {
	Generate(ctx context.Context, text string) string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, text string) string

func (f GeneratorFunc) Generate(ctx context.Context, text string) string { return f(ctx, text) }

// Observer is called after every state change with a snapshot taken under the
// lock. It runs outside the lock and may be called from the generator goroutine.
type Observer func(models.Snapshot)

// Option configures a Conversation at construction.
type Option func(*Conversation)

// WithClock sets the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

// WithGreeting replaces the seed assistant message. Blank text is ignored.
func WithGreeting(text string) Option {
	return func(c *Conversation) {
		if strings.TrimSpace(text) != "" {
			c.greeting = text
		}
	}
}

// WithObserver registers fn to receive every state change.
func WithObserver(fn Observer) Option {
	return func(c *Conversation) { c.observer = fn }
}

// WithLogger sets the logger for generator failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Conversation) { c.log = log }
}

type Conversation struct {
	mu       sync.Mutex
	messages []models.Message
	pending  bool
	draft    string
	seq      uint64
	closed   bool

	gen      Generator
	now      func() time.Time
	greeting string
	observer Observer
	log      *slog.Logger
	inflight sync.WaitGroup
}

// New returns a conversation seeded with the assistant greeting.
func New(gen Generator, opts ...Option) *Conversation {
	c := &Conversation{
		gen:      gen,
		now:      time.Now,
		greeting: DefaultGreeting,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.messages = []models.Message{newMessage(models.RoleAssistant, c.greeting, c.now())}
	return c
}

func newMessage(role models.Role, text string, at time.Time) models.Message {
	return models.Message{ID: uuid.New(), Role: role, Text: text, Timestamp: at}
}

// Submit appends a user message and asks the generator for a reply in the
// background. Blank text, a submission while a reply is pending, or one after
// Close is ignored and reports false.
func (c *Conversation) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	if c.pending || c.closed {
		c.mu.Unlock()
		return false
	}
	c.messages = append(c.messages, newMessage(models.RoleUser, text, c.now()))
	c.pending = true
	c.draft = ""
	c.seq++
	c.inflight.Add(1)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)

	go c.respond(text)
	return true
}

// respond runs the generator call. Its context is detached from any request:
// once issued, the call runs to completion and its reply is always applied.
func (c *Conversation) respond(text string) {
	defer c.inflight.Done()

	reply := c.generate(text)

	c.mu.Lock()
	c.messages = append(c.messages, newMessage(models.RoleAssistant, reply, c.now()))
	c.pending = false
	c.seq++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Conversation) generate(text string) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("generator panic", "err", rec)
			reply = ProtocolFailureReply
		}
	}()

	reply = c.gen.Generate(context.Background(), text)
	if reply == "" {
		// The generator contract forbids this; keep the transcript non-empty anyway.
		reply = ProtocolFailureReply
	}
	return reply
}

// SetDraft replaces the pending input buffer.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	if c.draft == text {
		c.mu.Unlock()
		return
	}
	c.draft = text
	c.seq++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Close stops the conversation accepting submissions. A reply already pending
// is still applied.
func (c *Conversation) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// CloseIfIdle closes the conversation unless a reply is pending, and reports
// whether it did.
func (c *Conversation) CloseIfIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return false
	}
	c.closed = true
	return true
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Messages returns a copy of the transcript in chronological order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until no generator call is outstanding.
func (c *Conversation) Wait() {
	c.inflight.Wait()
}

// snapshotLocked copies the state. Seq increases with every change, so observers
// receiving snapshots out of order can keep the newest.
func (c *Conversation) snapshotLocked() models.Snapshot {
	msgs := make([]models.Message, len(c.messages))
	copy(msgs, c.messages)
	return models.Snapshot{Messages: msgs, Pending: c.pending, Draft: c.draft, Seq: c.seq}
}

func (c *Conversation) notify(snap models.Snapshot) {
	if c.observer != nil {
		c.observer(snap)
	}
}
