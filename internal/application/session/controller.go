package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/application"
	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
	"github.com/bryanwahyu/phish-detector/internal/domain/chat"
)

var (
	ErrEmptyInput      = errors.New("input is empty")
	ErrBusy            = errors.New("operation already in progress")
	ErrInvalidPanel    = errors.New("invalid panel state")
	ErrSessionNotFound = errors.New("session not found")
)

// Phase of the main analysis flow
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseResultShown Phase = "result-shown"
)

// PanelState of the chat panel
type PanelState string

const (
	PanelClosed    PanelState = "closed"
	PanelOpen      PanelState = "open"
	PanelMinimized PanelState = "minimized"
)

func ParsePanel(raw string) (PanelState, error) {
	p := PanelState(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PanelClosed, PanelOpen, PanelMinimized:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPanel, raw)
}

// Scorer port, diimplementasi oleh analysis.Scorer
type Scorer interface {
	Score(in analysis.Input) *analysis.Result
}

// Recorder receives every verdict a session produces.
type Recorder interface {
	Record(ctx context.Context, sessionID string, in analysis.Input, res *analysis.Result) error
}

// Timing holds the artificial latencies of both flows.
type Timing struct {
	AnalyzeDelay time.Duration
	TypingDelay  time.Duration
	TypingJitter time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		AnalyzeDelay: 2 * time.Second,
		TypingDelay:  time.Second,
		TypingJitter: time.Second,
	}
}

// Deps dipakai bareng oleh semua controller dalam satu Store
type Deps struct {
	Scorer    Scorer
	Responder chat.Responder
	Recorder  Recorder
	Clock     application.Clock
	Sleeper   application.Sleeper
	Random    analysis.Random
	Timing    Timing
	Logger    *zap.Logger
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Scorer == nil {
		out.Scorer = analysis.NewScorer()
	}
	if out.Responder == nil {
		out.Responder = chat.NewSelector()
	}
	if out.Clock == nil {
		out.Clock = application.SystemClock{}
	}
	if out.Sleeper == nil {
		out.Sleeper = application.SystemSleeper{}
	}
	if out.Random == nil {
		out.Random = analysis.SystemRandom{}
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}

// State is a read-only copy of a session.
type State struct {
	ID         string           `json:"id"`
	Phase      Phase            `json:"phase"`
	Input      *analysis.Input  `json:"input,omitempty"`
	Result     *analysis.Result `json:"result,omitempty"`
	Awaiting   bool             `json:"awaiting_response"`
	Panel      PanelState       `json:"panel"`
	Transcript []chat.Message   `json:"transcript"`
	CreatedAt  time.Time        `json:"created_at"`
	LastSeen   time.Time        `json:"last_seen"`
}

// Controller owns the state of one session: the active verdict and the
// chat transcript. The analysis flow and the chat flow are independent;
// each refuses a second call while its own call is pending.
type Controller struct {
	id   string
	deps *Deps

	mu         sync.Mutex
	phase      Phase
	input      *analysis.Input
	result     *analysis.Result
	awaiting   bool
	panel      PanelState
	transcript []chat.Message
	createdAt  time.Time
	lastSeen   time.Time
}

func NewController(id string, deps *Deps) *Controller {
	d := deps.withDefaults()
	now := d.Clock.Now()
	return &Controller{
		id:         id,
		deps:       d,
		phase:      PhaseIdle,
		panel:      PanelClosed,
		transcript: []chat.Message{chat.NewMessage(chat.RoleBot, chat.Greeting, now)},
		createdAt:  now,
		lastSeen:   now,
	}
}

func (c *Controller) ID() string { return c.id }

// Analyze runs one analysis after the analyze delay and replaces the active
// verdict. A cancelled wait restores the previous input, verdict and phase.
func (c *Controller) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	if in.Blank() {
		return nil, ErrEmptyInput
	}
	if !in.Type.Valid() {
		return nil, analysis.ErrInvalidContentType
	}

	c.mu.Lock()
	if c.phase == PhaseAnalyzing {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	prevPhase, prevInput, prevResult := c.phase, c.input, c.result
	c.phase = PhaseAnalyzing
	c.input = &in
	c.result = nil
	c.touch()
	c.mu.Unlock()

	if err := c.deps.Sleeper.Sleep(ctx, c.deps.Timing.AnalyzeDelay); err != nil {
		c.mu.Lock()
		c.phase, c.input, c.result = prevPhase, prevInput, prevResult
		c.mu.Unlock()
		return nil, fmt.Errorf("analyze: %w", err)
	}

	res := c.deps.Scorer.Score(in)

	c.mu.Lock()
	c.result = res
	c.phase = PhaseResultShown
	c.touch()
	c.mu.Unlock()

	if c.deps.Recorder != nil {
		if err := c.deps.Recorder.Record(ctx, c.id, in, res.Clone()); err != nil {
			c.deps.Logger.Warn("failed to record verdict",
				zap.String("session_id", c.id),
				zap.Error(err))
		}
	}

	return res.Clone(), nil
}

// Reset hides the verdict and goes back to idle.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseAnalyzing {
		return ErrBusy
	}
	c.phase = PhaseIdle
	c.result = nil
	c.touch()
	return nil
}

// Ask appends the question, waits the typing delay and appends the bot
// reply. The transcript only ever grows.
func (c *Controller) Ask(ctx context.Context, question string) (chat.Message, error) {
	if strings.TrimSpace(question) == "" {
		return chat.Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.awaiting {
		c.mu.Unlock()
		return chat.Message{}, ErrBusy
	}
	c.transcript = append(c.transcript, chat.NewMessage(chat.RoleUser, question, c.deps.Clock.Now()))
	c.awaiting = true
	c.touch()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.awaiting = false
		c.mu.Unlock()
	}()

	if err := c.deps.Sleeper.Sleep(ctx, c.typingDelay()); err != nil {
		return chat.Message{}, fmt.Errorf("ask: %w", err)
	}

	answer, err := c.deps.Responder.Respond(ctx, question)
	if err != nil {
		return chat.Message{}, fmt.Errorf("ask: %w", err)
	}

	msg := chat.NewMessage(chat.RoleBot, answer, c.deps.Clock.Now())
	c.mu.Lock()
	c.transcript = append(c.transcript, msg)
	c.touch()
	c.mu.Unlock()
	return msg, nil
}

func (c *Controller) typingDelay() time.Duration {
	d := c.deps.Timing.TypingDelay
	if ms := int(c.deps.Timing.TypingJitter / time.Millisecond); ms > 0 {
		d += time.Duration(c.deps.Random.IntN(ms)) * time.Millisecond
	}
	return d
}

func (c *Controller) SetPanel(p PanelState) error {
	if _, err := ParsePanel(string(p)); err != nil {
		return err
	}
	c.mu.Lock()
	c.panel = p
	c.touch()
	c.mu.Unlock()
	return nil
}

// Transcript returns a copy of the messages in append order.
func (c *Controller) Transcript() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.transcript...)
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		ID:         c.id,
		Phase:      c.phase,
		Awaiting:   c.awaiting,
		Panel:      c.panel,
		Transcript: append([]chat.Message(nil), c.transcript...),
		CreatedAt:  c.createdAt,
		LastSeen:   c.lastSeen,
	}
	if c.input != nil {
		in := *c.input
		st.Input = &in
	}
	if c.phase == PhaseResultShown {
		st.Result = c.result.Clone()
	}
	return st
}

// idle reports whether nothing is pending and the session was last used before cutoff.
func (c *Controller) idle(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase != PhaseAnalyzing && !c.awaiting && c.lastSeen.Before(cutoff)
}

// touch must be called with mu held.
func (c *Controller) touch() {
	c.lastSeen = c.deps.Clock.Now()
}
