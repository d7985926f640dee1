package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	commoncrypto "github.com/hyttebook/backend/internal/common/crypto"
	"github.com/hyttebook/backend/internal/common/db"
	commonerrors "github.com/hyttebook/backend/internal/common/errors"
	"github.com/hyttebook/backend/internal/common/logger"
	"github.com/hyttebook/backend/internal/observability/metrics"
	userdomain "github.com/hyttebook/backend/internal/user/domain"
	userrepo "github.com/hyttebook/backend/internal/user/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type RegisterInput struct {
	Email     string `validate:"required,email,max=254"`
	Password  string `validate:"required,min=8,max=128"`
	FirstName string `validate:"max=120"`
	LastName  string `validate:"max=120"`
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type AuthResult struct {
	UserID         userdomain.ID
	Email          string
	AccessToken    string
	TokenExpiresAt time.Time
}

type AuthServiceDeps struct {
	Users       userrepo.Repository
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Tokens      *TokenIssuer
	Log         *logger.Logger
}

type AuthService struct {
	users       userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	tokens      *TokenIssuer
	log         *logger.Logger
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	return &AuthService{
		users:       deps.Users,
		hasher:      deps.Hasher,
		idGenerator: deps.IDGenerator,
		tokens:      deps.Tokens,
		log:         deps.Log,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if err := validate.Struct(input); err != nil {
		return AuthResult{}, ErrValidation.WithCause(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to generate user id: %w", err)
	}

	user := userdomain.User{
		ID:           userdomain.ID(id),
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         "user",
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, s.mapStoreError(ctx, "register user", err)
	}

	token, expiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "user_registered",
	}).Info("user registered")

	return AuthResult{
		UserID:         user.ID,
		Email:          user.Email,
		AccessToken:    token,
		TokenExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if err := validate.Struct(input); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return AuthResult{}, ErrValidation.WithCause(err)
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, s.mapStoreError(ctx, "find user by email", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_failed",
		}).Warn("login failed: password mismatch")
		return AuthResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return AuthResult{
		UserID:         user.ID,
		Email:          user.Email,
		AccessToken:    token,
		TokenExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) mapStoreError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) || db.IsUnavailable(err) {
		s.log.WithFields(ctx, logger.Fields{
			"operation": operation,
			"action":    "storage_unavailable",
		}).Errorf("%s failed: storage unavailable: %v", operation, err)
		return ErrStorageUnavailable.WithCause(err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}
