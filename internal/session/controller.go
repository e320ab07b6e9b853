package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"onlevel/internal/model"
)

// Config holds the per-deployment values of the controller.
type Config struct {
	// WorkflowID is the voice target used in generate mode.
	WorkflowID string
	// InterviewerID is the voice target used in interview mode.
	InterviewerID string
	Logger        *log.Logger
}

// Controller drives one interview attempt from start to the terminal redirect.
type Controller struct {
	cfg       Config
	client    VoiceClient
	submitter Submitter
	nav       Navigator
	observer  Observer
	logger    *log.Logger

	mu          sync.Mutex
	status      Status
	req         StartRequest
	transcript  []model.TranscriptTurn
	speaking    bool
	unsubscribe func()
	// navigated is set by the first redirect of the current attempt.
	navigated bool

	submitted atomic.Bool
	doneOnce  sync.Once
	done      chan struct{}
}

// New creates an idle controller. observer may be nil.
func New(cfg Config, client VoiceClient, submitter Submitter, nav Navigator, observer Observer) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		cfg:       cfg,
		client:    client,
		submitter: submitter,
		nav:       nav,
		observer:  observer,
		logger:    logger,
		status:    StatusIdle,
		done:      make(chan struct{}),
	}
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Transcript returns a copy of the finalized turns received so far.
func (c *Controller) Transcript() []model.TranscriptTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.TranscriptTurn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Speaking reports whether the agent is currently speaking.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Done is closed once the attempt has settled: the terminal redirect was
// issued and any feedback submission has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start opens the call. It is only allowed while idle; on failure the
// controller returns to idle so the user can try again.
func (c *Controller) Start(ctx context.Context, req StartRequest) error {
	if req.Mode != ModeGenerate && req.Mode != ModeInterview {
		return fmt.Errorf("start: unknown mode %q", req.Mode)
	}

	c.mu.Lock()
	if c.status != StatusIdle {
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("start in %s: %w", status, ErrInvalidState)
	}
	c.status = StatusConnecting
	c.req = req
	c.transcript = nil
	c.navigated = false
	if c.unsubscribe == nil {
		c.unsubscribe = c.client.Subscribe(c.HandleEvent)
	}
	c.mu.Unlock()
	c.notifyStatus(StatusConnecting)

	target, params := c.startArgs(req)
	c.logger.Printf("[Session] starting %s call for user %s (target %s)", req.Mode, req.UserID, target)
	if err := c.client.Start(ctx, target, params); err != nil {
		c.rollback()
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return nil
}

func (c *Controller) startArgs(req StartRequest) (string, StartParams) {
	if req.Mode == ModeGenerate {
		return c.cfg.WorkflowID, StartParams{VariableValues: map[string]string{
			"username": req.UserName,
			"userid":   req.UserID,
		}}
	}
	return c.cfg.InterviewerID, StartParams{VariableValues: map[string]string{
		"questions": FormatQuestions(req.Questions),
	}}
}

// HandleEvent applies one voice agent event. It is registered with the
// voice client on Start and may be called from any goroutine.
func (c *Controller) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventCallStarted:
		c.mu.Lock()
		ok := c.status == StatusConnecting
		if ok {
			c.status = StatusActive
		}
		c.mu.Unlock()
		if ok {
			c.notifyStatus(StatusActive)
		}
	case EventCallEnded:
		c.finish()
	case EventSpeechStarted, EventSpeechEnded:
		speaking := ev.Kind == EventSpeechStarted
		c.mu.Lock()
		c.speaking = speaking
		c.mu.Unlock()
		if c.observer != nil {
			c.observer.SpeakingChanged(speaking)
		}
	case EventTranscript:
		if !ev.Final {
			return
		}
		c.mu.Lock()
		ok := c.status == StatusActive
		if ok {
			c.transcript = append(c.transcript, ev.Turn)
		}
		c.mu.Unlock()
		if ok && c.observer != nil {
			c.observer.TranscriptAppended(ev.Turn)
		}
	case EventError:
		c.handleError(ev.Err)
	}
}

func (c *Controller) handleError(err error) {
	if errors.Is(err, ErrCallTerminated) {
		c.logger.Printf("[Session] call terminated by agent: %v", err)
		return
	}
	c.mu.Lock()
	connecting := c.status == StatusConnecting
	c.mu.Unlock()
	if connecting {
		c.logger.Printf("[Session] connection failed before call start: %v", err)
		// The agent may keep its socket open after refusing the call.
		if stopErr := c.client.Stop(); stopErr != nil {
			c.logger.Printf("[Session] error during disconnect: %v", stopErr)
		}
		c.rollback()
		if c.observer != nil {
			c.observer.Failed(fmt.Errorf("%w: %v", ErrConnectFailed, err))
		}
		return
	}
	c.logger.Printf("[Session] voice agent error: %v", err)
}

// rollback returns a connecting session to idle.
func (c *Controller) rollback() {
	c.mu.Lock()
	ok := c.status == StatusConnecting
	if ok {
		c.status = StatusIdle
		c.transcript = nil
		c.speaking = false
	}
	c.mu.Unlock()
	if ok {
		c.notifyStatus(StatusIdle)
	}
}

// Stop ends an active call on the user's request. It reports whether the
// call was active; in any other state it does nothing.
func (c *Controller) Stop() bool {
	if c.Status() != StatusActive {
		return false
	}
	if err := c.client.Stop(); err != nil {
		c.logger.Printf("[Session] error during disconnect: %v", err)
	}
	c.finish()
	return true
}

// Leave navigates to path ahead of any pending redirect and ends the call
// if it is still running.
func (c *Controller) Leave(path string) {
	c.redirect(path)
	c.Stop()
}

// Close detaches the controller from the voice client.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Controller) finish() {
	c.mu.Lock()
	if c.status != StatusActive && c.status != StatusConnecting {
		c.mu.Unlock()
		return
	}
	c.status = StatusFinished
	c.speaking = false
	req := c.req
	transcript := make([]model.TranscriptTurn, len(c.transcript))
	copy(transcript, c.transcript)
	c.mu.Unlock()
	c.notifyStatus(StatusFinished)

	if req.Mode == ModeGenerate {
		c.redirect(HomePath)
		c.settle()
		return
	}
	if len(transcript) == 0 {
		c.logger.Printf("[Session] call for interview %s ended without transcript, skipping feedback", req.InterviewID)
		c.redirect(HomePath)
		c.settle()
		return
	}
	if !c.submitted.CompareAndSwap(false, true) {
		return
	}

	fb := model.FeedbackRequest{
		UserID:      req.UserID,
		InterviewID: req.InterviewID,
		Transcript:  transcript,
	}
	go c.submit(fb)
}

func (c *Controller) submit(req model.FeedbackRequest) {
	defer c.settle()

	c.logger.Printf("[Session] submitting %d transcript turns for interview %s", len(req.Transcript), req.InterviewID)
	res, err := c.submitter.Submit(context.Background(), req)
	switch {
	case err != nil:
		c.logger.Printf("[Session] feedback submission failed for interview %s: %v", req.InterviewID, err)
		c.redirect(HomePath)
	case res.Success && res.FeedbackID != "":
		c.redirect(FeedbackPath(req.InterviewID))
	default:
		c.logger.Printf("[Session] feedback unavailable for interview %s", req.InterviewID)
		c.redirect(HomePath)
	}
}

// redirect navigates once per attempt; later redirects are dropped.
func (c *Controller) redirect(path string) {
	c.mu.Lock()
	if c.navigated {
		c.mu.Unlock()
		return
	}
	c.navigated = true
	c.mu.Unlock()
	if c.nav != nil {
		c.nav.Navigate(path)
	}
}

func (c *Controller) settle() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) notifyStatus(status Status) {
	if c.observer != nil {
		c.observer.StatusChanged(status)
	}
}
