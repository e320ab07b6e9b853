package repository

import (
	"context"
	"errors"

	"onlevel/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultLatestLimit is the page size of ListLatestInterviews.
const DefaultLatestLimit = 10

// UserRepository stores user profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// InterviewRepository stores interview definitions.
type InterviewRepository interface {
	CreateInterview(ctx context.Context, interview *model.Interview) error
	GetInterview(ctx context.Context, id string) (*model.Interview, error)
	// ListInterviewsByUser returns the user's interviews, newest first.
	ListInterviewsByUser(ctx context.Context, userID string) ([]model.Interview, error)
	// ListLatestInterviews returns finalized interviews of other users, newest first.
	ListLatestInterviews(ctx context.Context, userID string, limit int) ([]model.Interview, error)
}

// FeedbackRepository stores evaluations.
type FeedbackRepository interface {
	// SaveFeedback inserts fb or overwrites the same user's record with that id.
	SaveFeedback(ctx context.Context, fb *model.Feedback) error
	GetFeedbackByInterview(ctx context.Context, interviewID, userID string) (*model.Feedback, error)
	ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error)
}

// Repository is the complete data access surface.
type Repository interface {
	UserRepository
	InterviewRepository
	FeedbackRepository
	Close() error
}
