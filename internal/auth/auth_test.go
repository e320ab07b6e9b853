package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"onlevel/internal/cache"
	"onlevel/internal/repository"
)

type stubVerifier map[string]Identity

func (v stubVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	id, ok := v[token]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &id, nil
}

func newTestService(t *testing.T, verifier Verifier) *Service {
	t.Helper()
	repo, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo, verifier, NewSessions(cache.NewMemory(), 0))
}

func TestSignUpRejectsExistingUser(t *testing.T) {
	svc := newTestService(t, stubVerifier{})
	ctx := context.Background()
	params := SignUpParams{UID: "u1", Name: "Ada", Email: "ada@example.com"}

	if err := svc.SignUp(ctx, params); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	err := svc.SignUp(ctx, params)
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if err.Error() != "User already exists, Please sign in." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err := svc.SignUp(ctx, SignUpParams{UID: "u2"}); !errors.Is(err, ErrInvalidSignUp) {
		t.Fatalf("expected ErrInvalidSignUp, got %v", err)
	}
}

func TestSignInSessionLifecycle(t *testing.T) {
	svc := newTestService(t, stubVerifier{
		"good": {UID: "u9", Email: "grace@example.com"},
	})
	ctx := context.Background()

	token, user, err := svc.SignIn(ctx, SignInParams{Email: "grace@example.com", IDToken: "good"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if token == "" || user.ID != "u9" || user.Name != "No name" {
		t.Fatalf("unexpected sign-in result %q %+v", token, user)
	}

	current, err := svc.CurrentUser(ctx, token)
	if err != nil || current.Email != "grace@example.com" {
		t.Fatalf("current user: %+v %v", current, err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.CurrentUser(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestSignInRejectsBadTokens(t *testing.T) {
	svc := newTestService(t, stubVerifier{"good": {UID: "u9", Email: "grace@example.com"}})
	ctx := context.Background()

	if _, _, err := svc.SignIn(ctx, SignInParams{Email: "grace@example.com", IDToken: "forged"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, _, err := svc.SignIn(ctx, SignInParams{Email: "mallory@example.com", IDToken: "good"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected email mismatch to fail, got %v", err)
	}
	if _, err := svc.CurrentUser(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

func TestIdentityClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:lookup" || r.URL.Query().Get("key") != "api-key" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		var body struct {
			IDToken string `json:"idToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.IDToken != "valid" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"INVALID_ID_TOKEN"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"users":[{"localId":"abc","email":"ada@example.com","displayName":"Ada"}]}`))
	}))
	defer server.Close()

	client := NewIdentityClient(server.URL, "api-key")
	id, err := client.Verify(context.Background(), "valid")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if *id != (Identity{UID: "abc", Email: "ada@example.com", Name: "Ada"}) {
		t.Fatalf("unexpected identity %+v", id)
	}

	if _, err := client.Verify(context.Background(), "expired"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := client.Verify(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}
