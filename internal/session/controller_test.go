package session

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"onlevel/internal/model"
)

type startCall struct {
	target string
	params StartParams
}

type fakeVoice struct {
	mu       sync.Mutex
	handlers map[int]func(Event)
	next     int
	startErr error
	starts   []startCall
	stops    int
}

func (f *fakeVoice) Start(_ context.Context, target string, params StartParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, startCall{target: target, params: params})
	return f.startErr
}

func (f *fakeVoice) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeVoice) Subscribe(h func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[int]func(Event))
	}
	id := f.next
	f.next++
	f.handlers[id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

func (f *fakeVoice) emit(ev Event) {
	f.mu.Lock()
	handlers := make([]func(Event), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func finalTurn(role, text string) Event {
	return Event{Kind: EventTranscript, Final: true, Turn: model.TranscriptTurn{Role: role, Content: text}}
}

func partialTurn(role, text string) Event {
	return Event{Kind: EventTranscript, Final: false, Turn: model.TranscriptTurn{Role: role, Content: text}}
}

func newTestController(t *testing.T, submitter Submitter) (*Controller, *fakeVoice, *recordingNav) {
	t.Helper()
	voice := &fakeVoice{}
	nav := &recordingNav{}
	cfg := Config{
		WorkflowID:    "workflow-1",
		InterviewerID: "interviewer-1",
		Logger:        log.New(io.Discard, "", 0),
	}
	ctrl := New(cfg, voice, submitter, nav, nil)
	t.Cleanup(ctrl.Close)
	return ctrl, voice, nav
}

func waitDone(t *testing.T, ctrl *Controller) {
	t.Helper()
	select {
	case <-ctrl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not settle")
	}
}

func interviewRequest(questions ...string) StartRequest {
	return StartRequest{
		Mode:        ModeInterview,
		UserName:    "Ada",
		UserID:      "user-1",
		InterviewID: "iv-1",
		Questions:   questions,
	}
}

func TestFixedQuestionCallSubmitsOnceAndRedirectsToFeedback(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)

	want := model.FeedbackRequest{
		UserID:      "user-1",
		InterviewID: "iv-1",
		Transcript: []model.TranscriptTurn{
			{Role: model.RoleAgent, Content: "Tell me about yourself."},
			{Role: model.RoleCandidate, Content: "I build backends."},
		},
	}
	submitter.EXPECT().
		Submit(gomock.Any(), want).
		Return(model.FeedbackResult{Success: true, FeedbackID: "fb-1"}, nil).
		Times(1)

	ctrl, voice, nav := newTestController(t, submitter)
	if err := ctrl.Start(context.Background(), interviewRequest("q1", "q2", "q3")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := ctrl.Status(); got != StatusConnecting {
		t.Fatalf("expected connecting, got %s", got)
	}
	if len(voice.starts) != 1 {
		t.Fatalf("expected one voice start, got %d", len(voice.starts))
	}
	if voice.starts[0].target != "interviewer-1" {
		t.Fatalf("unexpected target %q", voice.starts[0].target)
	}
	if got := voice.starts[0].params.VariableValues["questions"]; got != "- q1\n- q2\n- q3" {
		t.Fatalf("unexpected questions block %q", got)
	}

	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(partialTurn(model.RoleAgent, "Tell me"))
	voice.emit(finalTurn(model.RoleAgent, "Tell me about yourself."))
	voice.emit(partialTurn(model.RoleCandidate, "I build"))
	voice.emit(finalTurn(model.RoleCandidate, "I build backends."))
	voice.emit(Event{Kind: EventCallEnded})

	waitDone(t, ctrl)
	if got := nav.Paths(); !reflect.DeepEqual(got, []string{"/interview/iv-1/feedback"}) {
		t.Fatalf("unexpected redirects %v", got)
	}
	if got := ctrl.Status(); got != StatusFinished {
		t.Fatalf("expected finished, got %s", got)
	}
}

func TestSubmissionOutcomeRedirects(t *testing.T) {
	cases := []struct {
		name   string
		result model.FeedbackResult
		err    error
		want   string
	}{
		{name: "with feedback id", result: model.FeedbackResult{Success: true, FeedbackID: "fb"}, want: "/interview/iv-1/feedback"},
		{name: "success without id", result: model.FeedbackResult{Success: true}, want: "/"},
		{name: "unsuccessful", result: model.FeedbackResult{Success: false}, want: "/"},
		{name: "transport error", err: errors.New("connection reset"), want: "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockCtrl := gomock.NewController(t)
			submitter := NewMockSubmitter(mockCtrl)
			submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(tc.result, tc.err).Times(1)

			ctrl, voice, nav := newTestController(t, submitter)
			if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
				t.Fatalf("start: %v", err)
			}
			voice.emit(Event{Kind: EventCallStarted})
			voice.emit(finalTurn(model.RoleCandidate, "hello"))
			voice.emit(Event{Kind: EventCallEnded})

			waitDone(t, ctrl)
			if got := nav.Paths(); !reflect.DeepEqual(got, []string{tc.want}) {
				t.Fatalf("expected redirect %q, got %v", tc.want, got)
			}
		})
	}
}

func TestGenerateModeNeverSubmits(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)

	ctrl, voice, nav := newTestController(t, submitter)
	err := ctrl.Start(context.Background(), StartRequest{Mode: ModeGenerate, UserName: "Ada", UserID: "user-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if voice.starts[0].target != "workflow-1" {
		t.Fatalf("unexpected target %q", voice.starts[0].target)
	}
	vars := voice.starts[0].params.VariableValues
	if vars["username"] != "Ada" || vars["userid"] != "user-1" {
		t.Fatalf("unexpected variables %v", vars)
	}

	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(finalTurn(model.RoleCandidate, "a frontend role please"))
	voice.emit(Event{Kind: EventCallEnded})

	waitDone(t, ctrl)
	if got := nav.Paths(); !reflect.DeepEqual(got, []string{"/"}) {
		t.Fatalf("expected redirect home, got %v", got)
	}
}

func TestRepeatedCallEndSubmitsOnce(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)
	submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(model.FeedbackResult{Success: true, FeedbackID: "fb"}, nil).
		Times(1)

	ctrl, voice, nav := newTestController(t, submitter)
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(finalTurn(model.RoleCandidate, "answer"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			voice.emit(Event{Kind: EventCallEnded})
		}()
	}
	wg.Wait()
	ctrl.Stop()

	waitDone(t, ctrl)
	if got := nav.Paths(); len(got) != 1 {
		t.Fatalf("expected a single redirect, got %v", got)
	}
}

func TestEmptyTranscriptSkipsSubmission(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)

	ctrl, voice, nav := newTestController(t, submitter)
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(partialTurn(model.RoleCandidate, "only interim"))
	voice.emit(Event{Kind: EventCallEnded})

	waitDone(t, ctrl)
	if got := nav.Paths(); !reflect.DeepEqual(got, []string{"/"}) {
		t.Fatalf("expected redirect home, got %v", got)
	}
}

func TestConnectionErrorBeforeCallStartResetsToIdle(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)

	ctrl, voice, nav := newTestController(t, submitter)
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	voice.emit(finalTurn(model.RoleAgent, "too early"))
	voice.emit(Event{Kind: EventError, Err: errors.New("microphone permission denied")})

	if got := ctrl.Status(); got != StatusIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if got := ctrl.Transcript(); len(got) != 0 {
		t.Fatalf("expected empty transcript, got %v", got)
	}
	if got := nav.Paths(); len(got) != 0 {
		t.Fatalf("expected no redirect, got %v", got)
	}
	if voice.stops != 1 {
		t.Fatalf("expected the refused call to be torn down, got %d stops", voice.stops)
	}

	// The user may retry after a failed attempt.
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("retry start: %v", err)
	}
	if got := ctrl.Status(); got != StatusConnecting {
		t.Fatalf("expected connecting after retry, got %s", got)
	}
}

func TestStartFailureRollsBack(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	ctrl, voice, _ := newTestController(t, NewMockSubmitter(mockCtrl))
	voice.startErr = errors.New("dial: 403 forbidden")

	err := ctrl.Start(context.Background(), interviewRequest("q1"))
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
	if UserMessage(err) == "" {
		t.Fatal("expected a user facing message")
	}
	if got := ctrl.Status(); got != StatusIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestStartRequiresIdle(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	ctrl, voice, _ := newTestController(t, NewMockSubmitter(mockCtrl))
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := ctrl.Start(context.Background(), interviewRequest("q1"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(voice.starts) != 1 {
		t.Fatalf("expected one voice start, got %d", len(voice.starts))
	}
}

func TestStopOnlyWhileActive(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	submitter := NewMockSubmitter(mockCtrl)
	submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(model.FeedbackResult{Success: true, FeedbackID: "fb"}, nil).
		Times(1)

	ctrl, voice, nav := newTestController(t, submitter)
	if ctrl.Stop() {
		t.Fatal("stop should be a no-op while idle")
	}
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ctrl.Stop() {
		t.Fatal("stop should be a no-op while connecting")
	}
	if voice.stops != 0 {
		t.Fatalf("voice client stopped %d times before call start", voice.stops)
	}

	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(finalTurn(model.RoleCandidate, "answer"))
	if !ctrl.Stop() {
		t.Fatal("stop should end an active call")
	}
	waitDone(t, ctrl)

	if ctrl.Stop() {
		t.Fatal("stop should be a no-op once finished")
	}
	if voice.stops != 1 {
		t.Fatalf("expected one voice stop, got %d", voice.stops)
	}
	if got := nav.Paths(); !reflect.DeepEqual(got, []string{"/interview/iv-1/feedback"}) {
		t.Fatalf("unexpected redirects %v", got)
	}
}

func TestAgentErrorsWhileActive(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	ctrl, voice, _ := newTestController(t, NewMockSubmitter(mockCtrl))
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	voice.emit(Event{Kind: EventCallStarted})

	voice.emit(Event{Kind: EventError, Err: errors.New("audio glitch")})
	voice.emit(Event{Kind: EventError, Err: errors.Join(ErrCallTerminated, errors.New("meeting ended"))})

	if got := ctrl.Status(); got != StatusActive {
		t.Fatalf("expected call to stay active, got %s", got)
	}
}

func TestTranscriptKeepsArrivalOrderOfFinalTurns(t *testing.T) {
	sequences := [][]Event{
		{finalTurn("user", "a"), partialTurn("user", "b"), finalTurn("assistant", "c")},
		{partialTurn("user", "x"), partialTurn("user", "xy"), finalTurn("user", "xyz"), finalTurn("user", "xyz")},
		{finalTurn("system", "1"), finalTurn("assistant", "2"), finalTurn("user", "3"), partialTurn("assistant", "4")},
		{partialTurn("user", "never")},
	}
	for i, seq := range sequences {
		mockCtrl := gomock.NewController(t)
		ctrl, voice, _ := newTestController(t, NewMockSubmitter(mockCtrl))
		if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
			t.Fatalf("start: %v", err)
		}
		voice.emit(Event{Kind: EventCallStarted})

		var want []model.TranscriptTurn
		for _, ev := range seq {
			voice.emit(ev)
			if ev.Final {
				want = append(want, ev.Turn)
			}
		}
		got := ctrl.Transcript()
		if len(got) != len(want) {
			t.Fatalf("sequence %d: expected %d turns, got %d", i, len(want), len(got))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("sequence %d: turn %d = %+v, want %+v", i, j, got[j], want[j])
			}
		}
	}
}

func TestSpeakingFollowsSpeechEvents(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	ctrl, voice, _ := newTestController(t, NewMockSubmitter(mockCtrl))
	if err := ctrl.Start(context.Background(), interviewRequest("q1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	voice.emit(Event{Kind: EventCallStarted})
	voice.emit(Event{Kind: EventSpeechStarted})
	if !ctrl.Speaking() {
		t.Fatal("expected speaking after speech-start")
	}
	voice.emit(Event{Kind: EventSpeechEnded})
	if ctrl.Speaking() {
		t.Fatal("expected silence after speech-end")
	}
}

func TestFormatQuestions(t *testing.T) {
	if got := FormatQuestions(nil); got != "" {
		t.Fatalf("expected empty block, got %q", got)
	}
	if got := FormatQuestions([]string{"Why Go?", "What is a goroutine?"}); got != "- Why Go?\n- What is a goroutine?" {
		t.Fatalf("unexpected block %q", got)
	}
}
