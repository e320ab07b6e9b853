package voice

import (
	"encoding/json"
	"fmt"
	"strings"

	"onlevel/internal/model"
	"onlevel/internal/session"
)

// Message types of the voice agent protocol.
const (
	typeStart       = "start"
	typeStop        = "stop"
	typeCallStart   = "call-start"
	typeCallEnd     = "call-end"
	typeSpeechStart = "speech-start"
	typeSpeechEnd   = "speech-end"
	typeTranscript  = "transcript"
	typeError       = "error"

	transcriptFinal = "final"
)

// Error codes the agent documents as a normal end of call.
const (
	CodeNoRoom       = "no-room"
	CodeMeetingEnded = "meeting-ended"
	CodeEjected      = "ejected"
)

var terminationCodes = map[string]bool{
	CodeNoRoom:       true,
	CodeMeetingEnded: true,
	CodeEjected:      true,
}

// AgentError is an error event reported by the voice agent.
type AgentError struct {
	Code    string `json:"type"`
	Message string `json:"message"`
}

func (e *AgentError) Error() string {
	if e.Message == "" {
		return "voice agent error: " + e.Code
	}
	return fmt.Sprintf("voice agent error: %s: %s", e.Code, e.Message)
}

// Unwrap maps documented termination codes to session.ErrCallTerminated.
func (e *AgentError) Unwrap() error {
	if terminationCodes[e.Code] {
		return session.ErrCallTerminated
	}
	return nil
}

type startMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"assistantId"`
	Overrides overrides `json:"assistantOverrides"`
}

type overrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type controlMessage struct {
	Type string `json:"type"`
}

type inboundMessage struct {
	Type           string      `json:"type"`
	Role           string      `json:"role,omitempty"`
	TranscriptType string      `json:"transcriptType,omitempty"`
	Transcript     string      `json:"transcript,omitempty"`
	Error          *AgentError `json:"error,omitempty"`
}

// decodeEvent translates one protocol message. Unknown types are reported
// with ok=false.
func decodeEvent(raw []byte) (session.Event, bool, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return session.Event{}, false, fmt.Errorf("decode voice message: %w", err)
	}

	switch msg.Type {
	case typeCallStart:
		return session.Event{Kind: session.EventCallStarted}, true, nil
	case typeCallEnd:
		return session.Event{Kind: session.EventCallEnded}, true, nil
	case typeSpeechStart:
		return session.Event{Kind: session.EventSpeechStarted}, true, nil
	case typeSpeechEnd:
		return session.Event{Kind: session.EventSpeechEnded}, true, nil
	case typeTranscript:
		return session.Event{
			Kind:  session.EventTranscript,
			Final: msg.TranscriptType == transcriptFinal,
			Turn: model.TranscriptTurn{
				Role:    normalizeRole(msg.Role),
				Content: strings.TrimSpace(msg.Transcript),
			},
		}, true, nil
	case typeError:
		agentErr := msg.Error
		if agentErr == nil {
			agentErr = &AgentError{Code: "unknown"}
		}
		return session.Event{Kind: session.EventError, Err: agentErr}, true, nil
	default:
		return session.Event{}, false, nil
	}
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "customer", "candidate":
		return model.RoleCandidate
	case "system":
		return model.RoleSystem
	default:
		return model.RoleAgent
	}
}
