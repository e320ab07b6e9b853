package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"onlevel/internal/ai"
	"onlevel/internal/cache"
	"onlevel/internal/events"
	"onlevel/internal/model"
	"onlevel/internal/repository"
)

const (
	cacheTTL    = 10 * time.Minute
	cachePrefix = "interview:"
)

// ErrInvalidRequest is returned for generation requests missing a field.
var ErrInvalidRequest = errors.New("invalid interview request")

// CoverImages are the public images an interview card can show.
var CoverImages = []string{
	"/adobe.png",
	"/amazon.png",
	"/facebook.png",
	"/hostinger.png",
	"/pinterest.png",
	"/quora.png",
	"/reddit.png",
	"/skype.png",
	"/spotify.png",
	"/telegram.png",
	"/tiktok.png",
	"/yahoo.png",
}

// RandomCover picks one of CoverImages.
func RandomCover() string {
	return CoverImages[rand.IntN(len(CoverImages))]
}

// QuestionGenerator prepares interview questions.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, p ai.QuestionParams) ([]string, error)
}

// GenerateRequest is sent by the voice workflow once it has collected the
// candidate's preferences.
type GenerateRequest struct {
	Type      string `json:"type" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Level     string `json:"level" binding:"required"`
	TechStack string `json:"techstack" binding:"required"`
	Amount    int    `json:"amount" binding:"required,min=1,max=20"`
	UserID    string `json:"userid" binding:"required"`
}

// GeneratedEvent is the payload of events.InterviewGenerated.
type GeneratedEvent struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	Questions   int    `json:"questions"`
}

type Service struct {
	repo      repository.InterviewRepository
	cache     cache.Cache
	generator QuestionGenerator
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo repository.InterviewRepository, c cache.Cache, generator QuestionGenerator, publisher events.Publisher) *Service {
	if c == nil {
		c = cache.NewMemory()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		cache:     c,
		generator: generator,
		publisher: publisher,
		now:       time.Now,
	}
}

// Get returns one interview, served from the cache when possible.
func (s *Service) Get(ctx context.Context, id string) (*model.Interview, error) {
	key := cachePrefix + id
	var iv model.Interview
	found, err := cache.GetJSON(ctx, s.cache, key, &iv)
	if err != nil {
		log.Printf("[Interview] cache read %s failed: %v", key, err)
	}
	if found {
		return &iv, nil
	}

	stored, err := s.repo.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, stored, cacheTTL); err != nil {
		log.Printf("[Interview] cache write %s failed: %v", key, err)
	}
	return stored, nil
}

// ByUser returns the interviews a user created, newest first.
func (s *Service) ByUser(ctx context.Context, userID string) ([]model.Interview, error) {
	return s.repo.ListInterviewsByUser(ctx, userID)
}

// Latest returns finalized interviews of other users, newest first.
func (s *Service) Latest(ctx context.Context, userID string, limit int) ([]model.Interview, error) {
	return s.repo.ListLatestInterviews(ctx, userID, limit)
}

// Create stores iv, filling in the id, cover and creation time when empty.
func (s *Service) Create(ctx context.Context, iv *model.Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if iv.CoverImage == "" {
		iv.CoverImage = RandomCover()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now()
	}
	return s.repo.CreateInterview(ctx, iv)
}

// Generate asks the model for questions and stores a finalized interview.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*model.Interview, error) {
	techstack := SplitTechStack(req.TechStack)
	if req.UserID == "" || req.Role == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: userid, role and amount are required", ErrInvalidRequest)
	}

	questions, err := s.generator.GenerateQuestions(ctx, ai.QuestionParams{
		Role:      req.Role,
		Level:     req.Level,
		TechStack: techstack,
		Type:      req.Type,
		Amount:    req.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	iv := &model.Interview{
		UserID:    req.UserID,
		Role:      req.Role,
		Level:     req.Level,
		Type:      req.Type,
		TechStack: techstack,
		Questions: questions,
		Finalized: true,
	}
	if err := s.Create(ctx, iv); err != nil {
		return nil, fmt.Errorf("save interview: %w", err)
	}
	log.Printf("[Interview] generated %s for user %s (%d questions)", iv.ID, iv.UserID, len(iv.Questions))

	evt := GeneratedEvent{InterviewID: iv.ID, UserID: iv.UserID, Role: iv.Role, Questions: len(iv.Questions)}
	if err := s.publisher.Publish(ctx, events.InterviewGenerated, evt); err != nil {
		log.Printf("[Interview] publish %s failed: %v", events.InterviewGenerated, err)
	}
	return iv, nil
}

// SplitTechStack splits a comma separated list and drops empty entries.
func SplitTechStack(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
