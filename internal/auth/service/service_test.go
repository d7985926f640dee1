package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyttebook/backend/internal/common/clock"
	"github.com/hyttebook/backend/internal/common/logger"
	userdomain "github.com/hyttebook/backend/internal/user/domain"
	userrepo "github.com/hyttebook/backend/internal/user/repository"
)

// Token parsing validates exp against the wall clock, so the mock clock has
// to track it.
var testTime = time.Now().Truncate(time.Second)

type mockUserRepository struct {
	createFn      func(ctx context.Context, user userdomain.User) error
	findByEmailFn func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFn    func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user userdomain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return userdomain.User{}, errors.New("findByEmailFn not set")
}

func (m *mockUserRepository) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return userdomain.User{}, errors.New("findByIDFn not set")
}

type mockHasher struct {
	hashFn    func(password string) (string, error)
	compareFn func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFn != nil {
		return m.hashFn(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFn != nil {
		return m.compareFn(hash, password)
	}
	if hash != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

type mockIDGenerator struct {
	id string
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.id == "" {
		return "generated-id", nil
	}
	return m.id, nil
}

func newTestAuthService(t *testing.T, users *mockUserRepository) *AuthService {
	t.Helper()

	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	idGen := &mockIDGenerator{}
	issuer := NewTokenIssuer(
		"test-secret-test-secret-test-secret!",
		idGen,
		30*time.Minute,
		clock.NewMockClock(testTime),
	)

	return NewAuthService(AuthServiceDeps{
		Users:       users,
		Hasher:      &mockHasher{},
		IDGenerator: idGen,
		Tokens:      issuer,
		Log:         log,
	})
}

func TestRegisterIssuesToken(t *testing.T) {
	var created userdomain.User
	users := &mockUserRepository{
		createFn: func(ctx context.Context, user userdomain.User) error {
			created = user
			return nil
		},
	}
	svc := newTestAuthService(t, users)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "owner@example.com",
		Password:  "correct-horse",
		FirstName: "Kari",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if created.Email != "owner@example.com" {
		t.Errorf("expected stored email owner@example.com, got %q", created.Email)
	}
	if created.PasswordHash != "hashed:correct-horse" {
		t.Errorf("expected hashed password, got %q", created.PasswordHash)
	}
	if created.Role != "user" {
		t.Errorf("expected role user, got %q", created.Role)
	}
	if result.AccessToken == "" {
		t.Error("expected a non-empty access token")
	}
	if !result.TokenExpiresAt.Equal(testTime.Add(30 * time.Minute)) {
		t.Errorf("unexpected token expiry %v", result.TokenExpiresAt)
	}

	claims, err := svc.tokens.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.UserID != "generated-id" || claims.Email != "owner@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepository{})

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "correct-horse"}},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "correct-horse"}},
		{"short password", RegisterInput{Email: "owner@example.com", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.input); !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := &mockUserRepository{
		createFn: func(ctx context.Context, user userdomain.User) error {
			return userrepo.ErrEmailAlreadyExists
		},
	}
	svc := newTestAuthService(t, users)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "owner@example.com",
		Password: "correct-horse",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken error, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	users := &mockUserRepository{
		findByEmailFn: func(ctx context.Context, email string) (userdomain.User, error) {
			return userdomain.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: "hashed:correct-horse",
			}, nil
		},
	}
	svc := newTestAuthService(t, users)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.UserID != "user-1" {
		t.Errorf("expected user id user-1, got %q", result.UserID)
	}
	if result.AccessToken == "" {
		t.Error("expected a non-empty access token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := &mockUserRepository{
		findByEmailFn: func(ctx context.Context, email string) (userdomain.User, error) {
			return userdomain.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: "hashed:correct-horse",
			}, nil
		},
	}
	svc := newTestAuthService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	users := &mockUserRepository{
		findByEmailFn: func(ctx context.Context, email string) (userdomain.User, error) {
			return userdomain.User{}, userrepo.ErrUserNotFound
		},
	}
	svc := newTestAuthService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginStorageUnavailable(t *testing.T) {
	users := &mockUserRepository{
		findByEmailFn: func(ctx context.Context, email string) (userdomain.User, error) {
			return userdomain.User{}, context.DeadlineExceeded
		},
	}
	svc := newTestAuthService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "correct-horse",
	})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}
