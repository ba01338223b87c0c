package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

type devAccount struct {
	password string
	user     httpx.UserResponse
}

var devAccounts = map[string]devAccount{
	"test@example.com": {
		password: "password123",
		user:     httpx.UserResponse{ID: 1, Name: "Test User", Email: "test@example.com", Role: "user", Company: "Test Technology Ltda"},
	},
	"admin@example.com": {
		password: "admin123",
		user:     httpx.UserResponse{ID: 2, Name: "Administrator", Email: "admin@example.com", Role: "admin", Company: "System Administration"},
	},
}

// Login opens a session and keeps its token for later calls. In dev mode
// only the built-in accounts are accepted and no request is sent.
func (c *Client) Login(ctx context.Context, email, password string) (*httpx.LoginResponse, error) {
	var out httpx.LoginResponse
	if c.dev {
		acc, ok := devAccounts[strings.ToLower(strings.TrimSpace(email))]
		if !ok || acc.password != password {
			return nil, &APIError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "invalid email or password"}
		}
		out = httpx.LoginResponse{Token: "dev-" + uuid.NewString(), ExpiresAt: time.Now().Add(24 * time.Hour).UTC(), User: acc.user}
	} else if err := c.request(ctx, http.MethodPost, "/auth/login", httpx.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Register signs up a buyer company. Dev mode rejects existing@example.com
// and CNPJ 11111111111111 as already registered and accepts everything else.
func (c *Client) Register(ctx context.Context, req httpx.RegisterRequest) (*httpx.UserResponse, error) {
	if c.dev {
		switch {
		case req.Email == "existing@example.com":
			return nil, &APIError{Status: http.StatusConflict, Code: "conflict", Message: "email already registered"}
		case req.CNPJ == "11111111111111":
			return nil, &APIError{Status: http.StatusConflict, Code: "conflict", Message: "cnpj already registered"}
		}
		return &httpx.UserResponse{
			ID:             time.Now().UnixMilli(),
			Name:           req.Name,
			Email:          req.Email,
			CNPJ:           req.CNPJ,
			Phone:          req.Phone,
			EmployeeCount:  req.EmployeeCount,
			MonthlyRevenue: req.MonthlyRevenue,
			Role:           "user",
			Company:        req.Name,
		}, nil
	}

	var out httpx.UserResponse
	if err := c.request(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if c.dev {
		c.SetToken("")
		return nil
	}
	if err := c.request(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Me(ctx context.Context) (*httpx.UserResponse, error) {
	var out httpx.UserResponse
	if err := c.request(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
