package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"onlevel/internal/ai"
	"onlevel/internal/api"
	"onlevel/internal/auth"
	"onlevel/internal/cache"
	"onlevel/internal/config"
	"onlevel/internal/events"
	"onlevel/internal/feedback"
	"onlevel/internal/interview"
	"onlevel/internal/repository"
	"onlevel/internal/session"
	"onlevel/internal/techicons"
	"onlevel/internal/voice"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := repository.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database ready at %s", cfg.DatabasePath)

	store := openCache(cfg)
	publisher := openPublisher(cfg)
	defer publisher.Close()

	llm, err := ai.NewClient(ai.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel})
	if err != nil {
		log.Fatalf("Failed to create OpenAI client: %v", err)
	}

	feedbackService := feedback.NewService(llm, repo, publisher)
	srv := &api.Server{
		Auth: auth.NewService(repo,
			auth.NewIdentityClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey),
			auth.NewSessions(store, cfg.SessionTTL)),
		Interviews: interview.NewService(repo, store, llm, publisher),
		Feedback:   feedbackService,
		Submitter:  feedback.NewGateway(feedbackService),
		Icons:      techicons.NewResolver(cfg.TechIconBaseURL, store),
		Session: session.Config{
			WorkflowID:    cfg.VoiceWorkflowID,
			InterviewerID: cfg.VoiceInterviewerID,
		},
		GuardTimeout: cfg.GuardTimeout,
		CookieSecure: cfg.CookieSecure,
	}
	if cfg.VoiceEnabled() {
		factory, err := voice.NewFactory(voice.Config{URL: cfg.VoiceAgentURL, APIKey: cfg.VoiceAgentAPIKey})
		if err != nil {
			log.Fatalf("Invalid voice agent configuration: %v", err)
		}
		srv.Voice = factory
	} else {
		log.Println("VOICE_AGENT_URL not set, calls are disabled")
	}

	r := gin.Default()

	// Add CORS middleware for the web client
	r.Use(api.CORSMiddleware(cfg.CORSOrigin))

	// Register routes
	api.RegisterRoutes(r, srv)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("OnLevel backend running on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

// openCache connects to Redis when configured and falls back to process memory.
func openCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, using in-memory cache (sessions are lost on restart)")
		return cache.NewMemory()
	}
	rc, err := cache.DialRedis(cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Using in-memory cache.", err)
		return cache.NewMemory()
	}
	log.Printf("Redis connected at %s", cfg.RedisAddr)
	return rc
}

// openPublisher connects to the broker when configured; events are dropped otherwise.
func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		log.Println("AMQP_URL not set, domain events are disabled")
		return events.Nop{}
	}
	p, err := events.DialAMQP(cfg.AMQPURL, events.DefaultExchange)
	if err != nil {
		log.Printf("Warning: Failed to connect to broker: %v. Events are disabled.", err)
		return events.Nop{}
	}
	return p
}
