package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tripRecapAPI/internal/auth"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/user"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UserService struct {
	store    store.UserRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewUserService(s store.UserRepository, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		store:    s,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest) (*user.RegisterResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := auth.GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &user.RegisterResponse{Token: token}, nil
}

func (s *UserService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &user.LoginResponse{Success: true, User: u, Token: token}, nil
}
