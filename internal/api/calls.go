package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"onlevel/internal/model"
	"onlevel/internal/repository"
	"onlevel/internal/session"
)

const (
	callWriteTimeout = 5 * time.Second
	callPongWait     = 60 * time.Second
	callPingPeriod   = callPongWait * 9 / 10
	callMaxMessage   = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Browser to server messages.
const (
	msgStart        = "start"
	msgStop         = "stop"
	msgLeave        = "leave"
	msgLeaveConfirm = "leave-confirm"
)

// Server to browser messages.
const (
	msgStatus       = "status"
	msgSpeaking     = "speaking"
	msgTranscript   = "transcript"
	msgConfirmLeave = "confirm-leave"
	msgNavigate     = "navigate"
	msgError        = "error"
)

type clientMessage struct {
	Type        string `json:"type"`
	Mode        string `json:"mode,omitempty"`
	InterviewID string `json:"interviewId,omitempty"`
	To          string `json:"to,omitempty"`
	End         bool   `json:"end,omitempty"`
}

type serverMessage struct {
	Type     string                `json:"type"`
	Status   session.Status        `json:"status,omitempty"`
	Speaking *bool                 `json:"speaking,omitempty"`
	Turn     *model.TranscriptTurn `json:"turn,omitempty"`
	To       string                `json:"to,omitempty"`
	Message  string                `json:"message,omitempty"`
}

// callSocket is the browser end of one call. It is both the navigator and
// the observer of the call's session controller.
type callSocket struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func (s *callSocket) send(msg serverMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(callWriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Printf("[Calls] write %s failed: %v", msg.Type, err)
	}
}

func (s *callSocket) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(callWriteTimeout))
}

func (s *callSocket) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = s.conn.Close()
}

func (s *callSocket) Navigate(path string) {
	s.send(serverMessage{Type: msgNavigate, To: path})
}

func (s *callSocket) StatusChanged(status session.Status) {
	s.send(serverMessage{Type: msgStatus, Status: status})
}

func (s *callSocket) SpeakingChanged(speaking bool) {
	s.send(serverMessage{Type: msgSpeaking, Speaking: &speaking})
}

func (s *callSocket) TranscriptAppended(turn model.TranscriptTurn) {
	s.send(serverMessage{Type: msgTranscript, Turn: &turn})
}

func (s *callSocket) Failed(err error) {
	s.send(serverMessage{Type: msgError, Message: session.UserMessage(err)})
}

func (s *callSocket) fail(msg string) {
	s.send(serverMessage{Type: msgError, Message: msg})
}

// calls upgrades to the call websocket. One socket runs one attempt.
func (s *Server) calls(c *gin.Context) {
	user := currentUser(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Calls] upgrade failed: %v", err)
		return
	}
	sock := &callSocket{conn: conn}
	defer sock.close()

	if s.Voice == nil {
		sock.fail("Voice interviews are not available right now.")
		return
	}

	client := s.Voice()
	ctrl := session.New(s.Session, client, s.Submitter, sock, sock)
	guard := session.NewGuard(ctrl, s.GuardTimeout)
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go s.keepAlive(ctx, sock)

	conn.SetReadLimit(callMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(callPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(callPongWait))
	})

	log.Printf("[Calls] socket opened for user %s", user.ID)
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Calls] socket for user %s closed: %v", user.ID, err)
			}
			break
		}
		s.handleCallMessage(ctx, sock, ctrl, guard, user, msg)
	}

	// The page went away: end a running call so its transcript is still
	// evaluated, and abandon one that never connected.
	guard.Unload()
	if ctrl.Status() == session.StatusConnecting {
		if err := client.Stop(); err != nil {
			log.Printf("[Calls] abandon connecting call: %v", err)
		}
	}
}

func (s *Server) handleCallMessage(ctx context.Context, sock *callSocket, ctrl *session.Controller, guard *session.Guard, user *model.User, msg clientMessage) {
	switch msg.Type {
	case msgStart:
		req, errMsg := s.startRequest(ctx, user, msg)
		if errMsg != "" {
			sock.fail(errMsg)
			return
		}
		if err := ctrl.Start(ctx, req); err != nil {
			log.Printf("[Calls] start for user %s failed: %v", user.ID, err)
			sock.fail(session.UserMessage(err))
		}
	case msgStop:
		ctrl.Stop()
	case msgLeave:
		if !isLocalPath(msg.To) {
			sock.fail("invalid destination")
			return
		}
		if !guard.RequestLeave(msg.To) {
			sock.send(serverMessage{Type: msgConfirmLeave, To: msg.To})
		}
	case msgLeaveConfirm:
		guard.Resolve(msg.End)
	default:
		sock.fail("unknown message type " + msg.Type)
	}
}

// startRequest builds the attempt described by msg. The second result is a
// message for the user when the request cannot be served.
func (s *Server) startRequest(ctx context.Context, user *model.User, msg clientMessage) (session.StartRequest, string) {
	req := session.StartRequest{
		Mode:     session.Mode(msg.Mode),
		UserName: user.Name,
		UserID:   user.ID,
	}
	switch req.Mode {
	case session.ModeGenerate:
		return req, ""
	case session.ModeInterview:
		if msg.InterviewID == "" {
			return req, "interviewId is required"
		}
		iv, err := s.Interviews.Get(ctx, msg.InterviewID)
		if errors.Is(err, repository.ErrNotFound) {
			return req, "interview not found"
		}
		if err != nil {
			log.Printf("[Calls] load interview %s failed: %v", msg.InterviewID, err)
			return req, "failed to load interview"
		}
		req.InterviewID = iv.ID
		req.Questions = iv.Questions
		return req, ""
	default:
		return req, "mode must be generate or interview"
	}
}

func (s *Server) keepAlive(ctx context.Context, sock *callSocket) {
	ticker := time.NewTicker(callPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sock.ping(); err != nil {
				return
			}
		}
	}
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}
