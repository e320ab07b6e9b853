package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"onlevel/internal/ai"
	"onlevel/internal/events"
	"onlevel/internal/model"
)

// ErrInvalidRequest is returned for submissions missing an interview or user.
var ErrInvalidRequest = errors.New("invalid feedback request")

// Evaluator grades a transcript.
type Evaluator interface {
	Evaluate(ctx context.Context, turns []model.TranscriptTurn) (*ai.Evaluation, error)
}

// Store persists feedback.
type Store interface {
	SaveFeedback(ctx context.Context, fb *model.Feedback) error
	GetFeedbackByInterview(ctx context.Context, interviewID, userID string) (*model.Feedback, error)
	ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error)
}

// CreatedEvent is the payload of events.FeedbackCreated.
type CreatedEvent struct {
	FeedbackID  string `json:"feedbackId"`
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	TotalScore  int    `json:"totalScore"`
}

// Service evaluates finished attempts and stores the result.
type Service struct {
	evaluator Evaluator
	store     Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(evaluator Evaluator, store Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		evaluator: evaluator,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create grades req.Transcript and saves it. A supplied FeedbackID overwrites
// the user's stored record with that id; an id owned by someone else fails
// with repository.ErrNotFound. On any failure the result is unsuccessful and
// the error says why.
func (s *Service) Create(ctx context.Context, req model.FeedbackRequest) (model.FeedbackResult, error) {
	if req.InterviewID == "" || req.UserID == "" {
		return model.FeedbackResult{Success: false}, fmt.Errorf("%w: interview and user are required", ErrInvalidRequest)
	}

	eval, err := s.evaluator.Evaluate(ctx, req.Transcript)
	if err != nil {
		return model.FeedbackResult{Success: false}, fmt.Errorf("evaluate transcript: %w", err)
	}

	id := req.FeedbackID
	if id == "" {
		id = uuid.NewString()
	}
	fb := &model.Feedback{
		ID:                  id,
		InterviewID:         req.InterviewID,
		UserID:              req.UserID,
		TotalScore:          eval.TotalScore,
		CategoryScores:      eval.CategoryScores,
		Strengths:           eval.Strengths,
		AreasForImprovement: eval.AreasForImprovement,
		FinalAssessment:     eval.FinalAssessment,
		CreatedAt:           s.now(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return model.FeedbackResult{Success: false}, fmt.Errorf("save feedback: %w", err)
	}
	log.Printf("[Feedback] saved %s for interview %s (score %d)", fb.ID, fb.InterviewID, fb.TotalScore)

	evt := CreatedEvent{FeedbackID: fb.ID, InterviewID: fb.InterviewID, UserID: fb.UserID, TotalScore: fb.TotalScore}
	if err := s.publisher.Publish(ctx, events.FeedbackCreated, evt); err != nil {
		log.Printf("[Feedback] publish %s failed: %v", events.FeedbackCreated, err)
	}

	return model.FeedbackResult{Success: true, FeedbackID: fb.ID}, nil
}

// ByInterview returns the user's feedback for an interview.
func (s *Service) ByInterview(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	return s.store.GetFeedbackByInterview(ctx, interviewID, userID)
}

// ByUser returns all feedback of a user, newest first.
func (s *Service) ByUser(ctx context.Context, userID string) ([]model.Feedback, error) {
	return s.store.ListFeedbackByUser(ctx, userID)
}
