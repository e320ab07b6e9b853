package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"onlevel/internal/model"
)

// Status is the lifecycle state of one call attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusFinished   Status = "finished"
)

// Mode selects what the voice agent does during the call.
type Mode string

const (
	// ModeGenerate runs the workflow that creates a new interview.
	ModeGenerate Mode = "generate"
	// ModeInterview runs a fixed question set and is evaluated afterwards.
	ModeInterview Mode = "interview"
)

// Redirect targets.
const (
	HomePath = "/"
)

// FeedbackPath returns the feedback view of an attempt.
func FeedbackPath(interviewID string) string {
	return "/interview/" + interviewID + "/feedback"
}

var (
	// ErrInvalidState is returned when an operation is not allowed in the current status.
	ErrInvalidState = errors.New("invalid session state")
	// ErrConnectFailed wraps failures of the voice client before the call became active.
	ErrConnectFailed = errors.New("could not connect to the interviewer")
	// ErrCallTerminated marks agent errors that only report a normal end of call.
	// Voice clients wrap their documented termination codes with it.
	ErrCallTerminated = errors.New("call terminated")
)

// UserMessage turns a Start error into text that can be shown to the candidate.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectFailed):
		return "Could not connect to the interviewer. Check your microphone permission and try again."
	case errors.Is(err, ErrInvalidState):
		return "A call is already in progress."
	default:
		return "Something went wrong. Please try again."
	}
}

// EventKind discriminates voice agent events.
type EventKind int

const (
	EventCallStarted EventKind = iota + 1
	EventCallEnded
	EventSpeechStarted
	EventSpeechEnded
	EventTranscript
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventCallStarted:
		return "call-start"
	case EventCallEnded:
		return "call-end"
	case EventSpeechStarted:
		return "speech-start"
	case EventSpeechEnded:
		return "speech-end"
	case EventTranscript:
		return "transcript"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a single notification from the voice agent.
// Turn and Final are set for EventTranscript, Err for EventError.
type Event struct {
	Kind  EventKind
	Turn  model.TranscriptTurn
	Final bool
	Err   error
}

// StartParams are the mode specific values handed to the voice agent.
type StartParams struct {
	VariableValues map[string]string
}

// VoiceClient is the external conversational agent.
type VoiceClient interface {
	// Start opens a call against target (a workflow or assistant id).
	Start(ctx context.Context, target string, params StartParams) error
	// Stop tears the call down.
	Stop() error
	// Subscribe registers h for every event; the returned func removes it.
	Subscribe(h func(Event)) (unsubscribe func())
}

// Submitter sends the transcript of a finished attempt for evaluation.
type Submitter interface {
	Submit(ctx context.Context, req model.FeedbackRequest) (model.FeedbackResult, error)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(path string)
}

// Observer receives progress of the call for display. All methods may be
// called from the voice client's goroutine.
type Observer interface {
	StatusChanged(status Status)
	SpeakingChanged(speaking bool)
	TranscriptAppended(turn model.TranscriptTurn)
	Failed(err error)
}

// StartRequest describes one attempt.
type StartRequest struct {
	Mode        Mode
	UserName    string
	UserID      string
	InterviewID string
	Questions   []string
}

// FormatQuestions flattens questions into the prompt block the interviewer expects.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}
