package model

import "time"

// Speaker roles as reported by the voice agent.
const (
	RoleCandidate = "user"
	RoleSystem    = "system"
	RoleAgent     = "assistant"
)

// TranscriptTurn is one finalized utterance of a call.
type TranscriptTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// FeedbackRequest asks the evaluation service to grade one attempt.
// FeedbackID is optional; when set the user's stored feedback with that id is overwritten.
type FeedbackRequest struct {
	UserID      string           `json:"userId"`
	InterviewID string           `json:"interviewId" binding:"required"`
	Transcript  []TranscriptTurn `json:"transcript" binding:"required,dive"`
	FeedbackID  string           `json:"feedbackId,omitempty"`
}

// FeedbackResult is the answer of the feedback submission boundary.
type FeedbackResult struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

// CategoryScore is the grade for one evaluation category.
type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Feedback is the stored evaluation of one attempt.
type Feedback struct {
	ID                  string          `json:"id"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}
