package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"onlevel/internal/auth"
	"onlevel/internal/model"
	"onlevel/internal/utils"
)

const (
	sessionCookie = "session"
	userKey       = "user"
)

func (s *Server) signUp(c *gin.Context) {
	var req auth.SignUpParams
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "uid, name and a valid email are required")
		return
	}
	err := s.Auth.SignUp(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		utils.Error(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidSignUp):
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("[Auth] sign-up failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Failed to create an account. Please try again.")
		return
	}
	utils.Success(c, gin.H{"message": "Account created successfully, Please sign in."})
}

func (s *Server) signIn(c *gin.Context) {
	var req auth.SignInParams
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "email and idToken are required")
		return
	}
	token, user, err := s.Auth.SignIn(c.Request.Context(), req)
	if err != nil {
		log.Printf("[Auth] sign-in failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrUnauthenticated) {
			status = http.StatusUnauthorized
		}
		utils.Error(c, status, "Failed to log into account, Please try again.")
		return
	}

	s.setSessionCookie(c, token, int(s.Auth.Sessions().TTL().Seconds()))
	utils.Success(c, gin.H{"message": "Sign in successful", "user": user})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if err := s.Auth.Logout(c.Request.Context(), token); err != nil {
			log.Printf("[Auth] logout failed: %v", err)
		}
	}
	s.setSessionCookie(c, "", -1)
	utils.Success(c, gin.H{"message": "Signed out"})
}

func (s *Server) authStatus(c *gin.Context) {
	_, err := s.userFromCookie(c)
	utils.Success(c, gin.H{"authenticated": err == nil})
}

func (s *Server) me(c *gin.Context) {
	utils.Success(c, gin.H{"user": currentUser(c)})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", s.CookieSecure, true)
}

func (s *Server) userFromCookie(c *gin.Context) (*model.User, error) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, auth.ErrUnauthenticated
	}
	return s.Auth.CurrentUser(c.Request.Context(), token)
}

// requireUser rejects requests without a valid session
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.userFromCookie(c)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				log.Printf("[Auth] session lookup failed: %v", err)
			}
			utils.Abort(c, http.StatusUnauthorized, "not signed in")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}

// CORSMiddleware adds CORS headers for the web client
func CORSMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
