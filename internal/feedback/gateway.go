package feedback

import (
	"context"
	"log"

	"onlevel/internal/model"
)

// Gateway is the feedback submission boundary used by call sessions.
// It adds no deadline of its own; the evaluation transport's defaults apply.
type Gateway struct {
	service *Service
}

func NewGateway(service *Service) *Gateway {
	return &Gateway{service: service}
}

// Submit runs Create with the caller's context.
func (g *Gateway) Submit(ctx context.Context, req model.FeedbackRequest) (model.FeedbackResult, error) {
	res, err := g.service.Create(ctx, req)
	if err != nil {
		log.Printf("[Feedback] submission for interview %s failed: %v", req.InterviewID, err)
	}
	return res, err
}
