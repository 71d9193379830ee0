package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

// Auth wraps the account endpoints.
type Auth struct {
	c *client.Client
}

func NewAuth(c *client.Client) *Auth { return &Auth{c: c} }

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns its token.
func (s *Auth) Register(ctx context.Context, username, email, password string) (*models.AuthResult, error) {
	var out models.AuthResult
	body := registerRequest{Username: username, Email: email, Password: password}
	if err := s.c.Do(ctx, http.MethodPost, "/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (s *Auth) Login(ctx context.Context, username, password string) (*models.AuthResult, error) {
	var out models.AuthResult
	body := loginRequest{Username: username, Password: password}
	if err := s.c.Do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the current profile. A non-empty token overrides the stored one.
func (s *Auth) Me(ctx context.Context, token string) (*models.User, error) {
	var opts []client.RequestOption
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	var u models.User
	if err := s.c.Do(ctx, http.MethodGet, "/me", nil, &u, opts...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Auth) UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	var u models.User
	if err := s.c.Do(ctx, http.MethodPut, "/profile", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SearchUsers looks users up by username or email fragment.
func (s *Auth) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var out []models.User
	q := url.Values{"q": {query}}
	if err := s.c.Do(ctx, http.MethodGet, "/users/search", nil, &out, client.WithQuery(q)); err != nil {
		return nil, err
	}
	return out, nil
}
