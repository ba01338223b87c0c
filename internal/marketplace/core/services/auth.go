package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
)

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost sets the bcrypt cost of new password hashes.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Register creates a buyer account.
func (s *AuthService) Register(ctx context.Context, reg entity.Registration) (*entity.User, error) {
	return s.create(ctx, reg, entity.RoleUser)
}

func (s *AuthService) create(ctx context.Context, reg entity.Registration, role entity.Role) (*entity.User, error) {
	reg = reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		Name:           reg.Name,
		Email:          reg.Email,
		PasswordHash:   string(hash),
		CNPJ:           reg.CNPJ,
		Phone:          reg.Phone,
		EmployeeCount:  reg.EmployeeCount,
		MonthlyRevenue: reg.MonthlyRevenue,
		Role:           role,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "account registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// EnsureAccount creates the account unless the email is already taken.
// Startup uses it to provision the demo logins.
func (s *AuthService) EnsureAccount(ctx context.Context, reg entity.Registration, role entity.Role) (*entity.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(reg.Email)))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}
	return s.create(ctx, reg, role)
}

// Login matches the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, *entity.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil, entity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, entity.ErrInvalidCredentials
	}

	sess := ports.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	slog.InfoContext(ctx, "user logged in", "user_id", u.ID, "role", u.Role)
	return &sess, u, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*ports.Session, error) {
	if token == "" {
		return nil, entity.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) User(ctx context.Context, id int64) (*entity.User, error) {
	return s.users.GetUserByID(ctx, id)
}
