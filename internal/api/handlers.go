package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"onlevel/internal/feedback"
	"onlevel/internal/interview"
	"onlevel/internal/model"
	"onlevel/internal/repository"
	"onlevel/internal/utils"
)

func RegisterRoutes(r *gin.Engine, s *Server) {
	// Health check
	r.GET("/health", healthCheck)

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.POST("/sign-up", s.signUp)
		v1.POST("/sign-in", s.signIn)
		v1.POST("/logout", s.logout)
		v1.GET("/auth/status", s.authStatus)
		v1.GET("/tech-icons", s.techIcons)

		// Called by the voice workflow, not by a signed-in browser.
		v1.POST("/interviews/generate", s.generateInterview)

		user := v1.Group("", s.requireUser())
		user.GET("/me", s.me)
		user.GET("/interviews", s.userInterviews)
		user.GET("/interviews/latest", s.latestInterviews)
		user.GET("/interviews/:id", s.getInterview)
		user.POST("/feedback", s.createFeedback)
		user.GET("/feedback", s.userFeedback)
		user.GET("/feedback/:interviewId", s.getFeedback)
		user.GET("/calls", s.calls)
	}
}

// healthCheck returns server health status
func healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "onlevel-backend",
	})
}

// userInterviews lists the interviews the current user created
func (s *Server) userInterviews(c *gin.Context) {
	user := currentUser(c)
	interviews, err := s.Interviews.ByUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[Interviews] list for %s failed: %v", user.ID, err)
		utils.Error(c, http.StatusInternalServerError, "failed to load interviews")
		return
	}
	utils.Success(c, gin.H{"interviews": interviews})
}

// latestInterviews lists finalized interviews of other users
func (s *Server) latestInterviews(c *gin.Context) {
	user := currentUser(c)
	limit := repository.DefaultLatestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			utils.Error(c, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}
	interviews, err := s.Interviews.Latest(c.Request.Context(), user.ID, limit)
	if err != nil {
		log.Printf("[Interviews] latest for %s failed: %v", user.ID, err)
		utils.Error(c, http.StatusInternalServerError, "failed to load interviews")
		return
	}
	utils.Success(c, gin.H{"interviews": interviews})
}

func (s *Server) getInterview(c *gin.Context) {
	id := c.Param("id")
	iv, err := s.Interviews.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, "interview not found")
		return
	}
	if err != nil {
		log.Printf("[Interviews] get %s failed: %v", id, err)
		utils.Error(c, http.StatusInternalServerError, "failed to load interview")
		return
	}
	utils.Success(c, gin.H{"interview": iv})
}

// generateInterview stores the interview the voice workflow collected
func (s *Server) generateInterview(c *gin.Context) {
	var req interview.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "type, role, level, techstack, amount and userid are required")
		return
	}
	iv, err := s.Interviews.Generate(c.Request.Context(), req)
	if errors.Is(err, interview.ErrInvalidRequest) {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("[Interviews] generate failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to generate interview")
		return
	}
	utils.Success(c, gin.H{"interview": iv})
}

// createFeedback evaluates a transcript for the current user
func (s *Server) createFeedback(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "interviewId and transcript are required")
		return
	}
	req.UserID = currentUser(c).ID

	res, err := s.Feedback.Create(c.Request.Context(), req)
	if errors.Is(err, feedback.ErrInvalidRequest) {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, "feedback not found")
		return
	}
	if err != nil || !res.Success {
		log.Printf("[Feedback] create for interview %s failed: %v", req.InterviewID, err)
		utils.Success(c, gin.H{"success": false})
		return
	}
	utils.Success(c, gin.H{"success": true, "feedbackId": res.FeedbackID})
}

func (s *Server) getFeedback(c *gin.Context) {
	user := currentUser(c)
	interviewID := c.Param("interviewId")
	fb, err := s.Feedback.ByInterview(c.Request.Context(), interviewID, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, "feedback not found")
		return
	}
	if err != nil {
		log.Printf("[Feedback] get for interview %s failed: %v", interviewID, err)
		utils.Error(c, http.StatusInternalServerError, "failed to load feedback")
		return
	}
	utils.Success(c, gin.H{"feedback": fb})
}

// userFeedback lists all feedback of the current user
func (s *Server) userFeedback(c *gin.Context) {
	user := currentUser(c)
	list, err := s.Feedback.ByUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[Feedback] list for %s failed: %v", user.ID, err)
		utils.Error(c, http.StatusInternalServerError, "failed to load feedback")
		return
	}
	utils.Success(c, gin.H{"feedback": list})
}

// techIcons resolves logos for ?stack=a,b,c
func (s *Server) techIcons(c *gin.Context) {
	stack := interview.SplitTechStack(c.Query("stack"))
	if len(stack) == 0 {
		utils.Error(c, http.StatusBadRequest, "stack is required")
		return
	}
	if len(stack) > 20 {
		stack = stack[:20]
	}
	icons, err := s.Icons.Resolve(c.Request.Context(), stack)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to resolve icons: "+strings.TrimSpace(err.Error()))
		return
	}
	utils.Success(c, gin.H{"icons": icons})
}
