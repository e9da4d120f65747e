package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
	"github.com/bryanwahyu/phish-detector/internal/domain/chat"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// gateSleeper records requested delays and, when gate is set, blocks until it is closed.
type gateSleeper struct {
	mu      sync.Mutex
	delays  []time.Duration
	entered chan struct{}
	gate    chan struct{}
}

func (g *gateSleeper) Sleep(ctx context.Context, d time.Duration) error {
	g.mu.Lock()
	g.delays = append(g.delays, d)
	g.mu.Unlock()
	if g.gate == nil {
		return ctx.Err()
	}
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.gate:
		return nil
	}
}

type zeroRandom struct{}

func (zeroRandom) IntN(int) int { return 0 }

type recorderFunc func(ctx context.Context, sessionID string, in analysis.Input, res *analysis.Result) error

func (f recorderFunc) Record(ctx context.Context, sessionID string, in analysis.Input, res *analysis.Result) error {
	return f(ctx, sessionID, in, res)
}

func newTestController(t *testing.T, sl *gateSleeper, rec Recorder) *Controller {
	t.Helper()
	return NewController("s-1", &Deps{
		Scorer:   analysis.NewScorer(analysis.WithRandom(zeroRandom{})),
		Recorder: rec,
		Clock:    &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		Sleeper:  sl,
		Random:   zeroRandom{},
		Timing:   DefaultTiming(),
		Logger:   zaptest.NewLogger(t),
	})
}

func TestController_InitialState(t *testing.T) {
	c := newTestController(t, &gateSleeper{}, nil)
	st := c.Snapshot()
	if st.Phase != PhaseIdle || st.Panel != PanelClosed || st.Result != nil {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if len(st.Transcript) != 1 || st.Transcript[0].Role != chat.RoleBot || st.Transcript[0].Content != chat.Greeting {
		t.Fatalf("transcript should start with greeting, got %+v", st.Transcript)
	}
}

func TestController_Analyze(t *testing.T) {
	sl := &gateSleeper{}
	var recorded []string
	rec := recorderFunc(func(_ context.Context, id string, _ analysis.Input, res *analysis.Result) error {
		recorded = append(recorded, id+":"+string(res.RiskLevel))
		return nil
	})
	c := newTestController(t, sl, rec)

	res, err := c.Analyze(context.Background(), analysis.Input{Text: "URGENT! Verify your account now, click here: http://bit.ly/xyz", Type: analysis.TypeEmail})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RiskLevel != analysis.RiskHigh {
		t.Errorf("RiskLevel = %s, want high", res.RiskLevel)
	}
	if len(sl.delays) != 1 || sl.delays[0] != 2*time.Second {
		t.Errorf("delays = %v, want [2s]", sl.delays)
	}
	st := c.Snapshot()
	if st.Phase != PhaseResultShown || st.Result == nil || st.Result.RiskLevel != analysis.RiskHigh {
		t.Errorf("snapshot after analyze = %+v", st)
	}
	if len(recorded) != 1 || recorded[0] != "s-1:high" {
		t.Errorf("recorded = %v", recorded)
	}

	// returned verdict is a copy
	res.Threats[0] = "tampered"
	if c.Snapshot().Result.Threats[0] == "tampered" {
		t.Error("caller mutated stored verdict")
	}
}

func TestController_AnalyzeRejects(t *testing.T) {
	c := newTestController(t, &gateSleeper{}, nil)

	if _, err := c.Analyze(context.Background(), analysis.Input{Text: "  \n\t", Type: analysis.TypeEmail}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank input err = %v, want ErrEmptyInput", err)
	}
	if _, err := c.Analyze(context.Background(), analysis.Input{Text: "hello", Type: "fax"}); !errors.Is(err, analysis.ErrInvalidContentType) {
		t.Errorf("bad type err = %v, want ErrInvalidContentType", err)
	}
	if st := c.Snapshot(); st.Phase != PhaseIdle {
		t.Errorf("phase = %s, want idle", st.Phase)
	}
}

func TestController_AnalyzeBusy(t *testing.T) {
	sl := &gateSleeper{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newTestController(t, sl, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Analyze(context.Background(), analysis.Input{Text: "first", Type: analysis.TypeEmail})
		done <- err
	}()
	<-sl.entered

	if st := c.Snapshot(); st.Phase != PhaseAnalyzing {
		t.Errorf("phase = %s, want analyzing", st.Phase)
	}
	if _, err := c.Analyze(context.Background(), analysis.Input{Text: "second", Type: analysis.TypeEmail}); !errors.Is(err, ErrBusy) {
		t.Errorf("second analyze err = %v, want ErrBusy", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("reset err = %v, want ErrBusy", err)
	}

	close(sl.gate)
	if err := <-done; err != nil {
		t.Fatalf("first analyze failed: %v", err)
	}
	if st := c.Snapshot(); st.Phase != PhaseResultShown {
		t.Errorf("phase = %s, want result-shown", st.Phase)
	}
}

func TestController_AnalyzeCancelled(t *testing.T) {
	sl := &gateSleeper{gate: make(chan struct{})}
	c := newTestController(t, sl, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Analyze(ctx, analysis.Input{Text: "hello", Type: analysis.TypeSMS}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if st := c.Snapshot(); st.Phase != PhaseIdle || st.Result != nil {
		t.Errorf("state after cancel = %+v", st)
	}
}

func TestController_AnalyzeCancelledKeepsPreviousVerdict(t *testing.T) {
	c := newTestController(t, &gateSleeper{}, nil)
	first := analysis.Input{Text: "Hey, lunch at noon?", Type: analysis.TypeEmail}
	want, err := c.Analyze(context.Background(), first)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Analyze(ctx, analysis.Input{Text: "URGENT verify now", Type: analysis.TypeSMS}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	st := c.Snapshot()
	if st.Phase != PhaseResultShown {
		t.Errorf("phase = %s, want %s", st.Phase, PhaseResultShown)
	}
	if st.Input == nil || *st.Input != first {
		t.Errorf("input = %+v, want %+v", st.Input, first)
	}
	if st.Result == nil || st.Result.RiskLevel != want.RiskLevel || st.Result.Confidence != want.Confidence {
		t.Errorf("result = %+v, want %+v", st.Result, want)
	}
}

func TestController_Reset(t *testing.T) {
	c := newTestController(t, &gateSleeper{}, nil)
	if _, err := c.Analyze(context.Background(), analysis.Input{Text: "hello", Type: analysis.TypeEmail}); err != nil {
		t.Fatal(err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st := c.Snapshot()
	if st.Phase != PhaseIdle || st.Result != nil {
		t.Errorf("state after reset = %+v", st)
	}
	if st.Input == nil || st.Input.Text != "hello" {
		t.Errorf("last input should survive reset, got %+v", st.Input)
	}
}

func TestController_Ask(t *testing.T) {
	sl := &gateSleeper{}
	c := newTestController(t, sl, nil)

	msg, err := c.Ask(context.Background(), "What is phishing?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Role != chat.RoleBot || msg.Content != chat.Rules[0].Answer {
		t.Errorf("reply = %+v", msg)
	}
	if len(sl.delays) != 1 || sl.delays[0] != time.Second {
		t.Errorf("delays = %v, want [1s]", sl.delays)
	}

	tr := c.Transcript()
	if len(tr) != 3 {
		t.Fatalf("transcript len = %d, want 3", len(tr))
	}
	if tr[1].Role != chat.RoleUser || tr[1].Content != "What is phishing?" {
		t.Errorf("user message = %+v", tr[1])
	}
	if tr[2].ID != msg.ID {
		t.Errorf("last message id = %s, want %s", tr[2].ID, msg.ID)
	}
	if c.Snapshot().Awaiting {
		t.Error("awaiting should be cleared")
	}
}

func TestController_AskRejects(t *testing.T) {
	sl := &gateSleeper{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newTestController(t, sl, nil)

	if _, err := c.Ask(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank question err = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(context.Background(), "help")
		done <- err
	}()
	<-sl.entered

	if _, err := c.Ask(context.Background(), "thanks"); !errors.Is(err, ErrBusy) {
		t.Errorf("second ask err = %v, want ErrBusy", err)
	}
	close(sl.gate)
	if err := <-done; err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	if got := len(c.Transcript()); got != 3 {
		t.Errorf("transcript len = %d, want 3", got)
	}
}

func TestController_AskCancelledKeepsQuestion(t *testing.T) {
	c := newTestController(t, &gateSleeper{gate: make(chan struct{})}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Ask(ctx, "help me"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	tr := c.Transcript()
	if len(tr) != 2 || tr[1].Content != "help me" {
		t.Errorf("transcript = %+v", tr)
	}
	if c.Snapshot().Awaiting {
		t.Error("awaiting should be cleared after cancel")
	}
}

func TestController_SetPanel(t *testing.T) {
	c := newTestController(t, &gateSleeper{}, nil)
	for _, p := range []PanelState{PanelOpen, PanelMinimized, PanelClosed} {
		if err := c.SetPanel(p); err != nil {
			t.Fatalf("SetPanel(%s): %v", p, err)
		}
		if got := c.Snapshot().Panel; got != p {
			t.Errorf("panel = %s, want %s", got, p)
		}
	}
	if err := c.SetPanel("maximized"); !errors.Is(err, ErrInvalidPanel) {
		t.Errorf("err = %v, want ErrInvalidPanel", err)
	}
}
