package api

import (
	"time"

	"onlevel/internal/auth"
	"onlevel/internal/feedback"
	"onlevel/internal/interview"
	"onlevel/internal/session"
	"onlevel/internal/techicons"
	"onlevel/internal/voice"
)

// Server holds the services the HTTP handlers work with.
type Server struct {
	Auth       *auth.Service
	Interviews *interview.Service
	Feedback   *feedback.Service
	Submitter  session.Submitter
	Icons      *techicons.Resolver

	// Voice creates the voice agent client of a call. Calls are refused when nil.
	Voice voice.Factory
	// Session carries the voice targets used by call sessions.
	Session      session.Config
	GuardTimeout time.Duration

	CookieSecure bool
}
