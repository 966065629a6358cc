// Package auth is the access gateway: it owns user records, password hashes
// and token issuance. The core services never see raw credentials; they only
// receive the userID this package resolves.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/models"
)

const tokenTTL = 24 * time.Hour

type Service struct {
	users  interfaces.UserStore
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

func New(users interfaces.UserStore, secret string, log *zap.Logger) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    tokenTTL,
		log:    log,
	}
}

// Claims is the token payload. user_id is the only claim the core consumes.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}

	taken, err := s.users.UserTaken(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies the credentials and issues a signed token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", apperr.Auth("invalid credentials")
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", apperr.Auth("invalid credentials")
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return token, nil
}

// ResolveUser validates a bearer token and returns the acting user's id.
func (s *Service) ResolveUser(tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperr.Auth("token is missing")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Auth("token has expired")
		}
		return "", apperr.Auth("token is invalid")
	}
	if claims.UserID == "" {
		return "", apperr.Auth("token is invalid")
	}
	return claims.UserID, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *Service) UpdateUsername(ctx context.Context, userID, username string) error {
	if strings.TrimSpace(username) == "" {
		return apperr.Validation("username must not be empty")
	}
	taken, err := s.users.UserTaken(ctx, username, "")
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("username already taken")
	}
	return s.users.UpdateUsername(ctx, userID, username)
}

func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// DeleteProfile removes the user; the store cascades accounts and transactions.
func (s *Service) DeleteProfile(ctx context.Context, userID string) error {
	return s.users.DeleteUser(ctx, userID)
}
