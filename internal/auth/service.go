package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"onlevel/internal/model"
	"onlevel/internal/repository"
)

var (
	// ErrUnauthenticated means the request carries no valid session or token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUserExists is returned by SignUp for a known uid.
	ErrUserExists = errors.New("User already exists, Please sign in.")
	// ErrInvalidSignUp is returned when sign-up fields are missing.
	ErrInvalidSignUp = errors.New("uid, name and email are required")
)

// SignUpParams registers the profile of an account created in the identity service.
type SignUpParams struct {
	UID   string `json:"uid" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// SignInParams exchanges an ID token for a session.
type SignInParams struct {
	Email   string `json:"email" binding:"required,email"`
	IDToken string `json:"idToken" binding:"required"`
}

type Service struct {
	users    repository.UserRepository
	verifier Verifier
	sessions *Sessions
}

func NewService(users repository.UserRepository, verifier Verifier, sessions *Sessions) *Service {
	return &Service{users: users, verifier: verifier, sessions: sessions}
}

// Sessions exposes the session store, mainly for its TTL.
func (s *Service) Sessions() *Sessions { return s.sessions }

// SignUp stores the user profile.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) error {
	if p.UID == "" || p.Name == "" || p.Email == "" {
		return ErrInvalidSignUp
	}
	_, err := s.users.GetUser(ctx, p.UID)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check user: %w", err)
	}
	if err := s.users.CreateUser(ctx, &model.User{ID: p.UID, Name: p.Name, Email: p.Email}); err != nil {
		return err
	}
	log.Printf("[Auth] signed up %s", p.UID)
	return nil
}

// SignIn verifies the ID token and opens a session. The profile is created
// when the account has none yet.
func (s *Service) SignIn(ctx context.Context, p SignInParams) (string, *model.User, error) {
	identity, err := s.verifier.Verify(ctx, p.IDToken)
	if err != nil {
		return "", nil, err
	}
	if identity.Email != "" && p.Email != "" && !strings.EqualFold(identity.Email, p.Email) {
		return "", nil, fmt.Errorf("%w: email does not match token", ErrUnauthenticated)
	}

	user, err := s.users.GetUser(ctx, identity.UID)
	if errors.Is(err, repository.ErrNotFound) {
		name := identity.Name
		if name == "" {
			name = "No name"
		}
		email := identity.Email
		if email == "" {
			email = p.Email
		}
		user = &model.User{ID: identity.UID, Name: name, Email: email}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return "", nil, err
		}
		log.Printf("[Auth] created profile for %s on sign-in", identity.UID)
	} else if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CurrentUser resolves a session token to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
