package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/jwt"
	"github.com/xxxsen/medassist/internal/pkg/password"
	"github.com/xxxsen/medassist/internal/pkg/timeutil"
)

const guestEmail = "guest@example.com"

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	UpdateHealth(ctx context.Context, userID string, profile model.HealthProfile, mtime int64) error
}

type AuthService struct {
	users      userStore
	jwtSecret  []byte
	jwtTTL     time.Duration
	newSession func() string
}

func NewAuthService(users userStore, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, newSession: uuid.NewString}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Symptoms string
	Diseases string
}

// LoginResult carries the token for a fresh conversation session.
type LoginResult struct {
	Token     string      `json:"token"`
	SessionID string      `json:"session_id"`
	User      *model.User `json:"user"`
	Guest     bool        `json:"guest"`
}

// Signup creates an account. A taken email reports false without an error.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || strings.TrimSpace(in.Name) == "" {
		return false, appErr.ErrInvalid
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return false, appErr.ErrInvalid
		}
		return false, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Symptoms:     strings.TrimSpace(in.Symptoms),
		Diseases:     strings.TrimSpace(in.Diseases),
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, appErr.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	logutil.GetLogger(ctx).Info("user signed up", zap.String("user_id", user.ID))
	return true, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, appErr.ErrUnauthorized
	}
	return s.issue(user, false)
}

// GuestLogin starts an anonymous session. Guests share one user id and have
// no health profile.
func (s *AuthService) GuestLogin(_ context.Context) (*LoginResult, error) {
	return s.issue(&model.User{ID: model.GuestUserID, Name: "Guest", Email: guestEmail}, true)
}

func (s *AuthService) issue(user *model.User, guest bool) (*LoginResult, error) {
	sessionID := s.newSession()
	token, err := jwt.GenerateToken(jwt.TokenInput{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
		Guest:     guest,
	}, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, SessionID: sessionID, User: user, Guest: guest}, nil
}

// HealthProfile returns nil for guests.
func (s *AuthService) HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error) {
	if userID == "" || userID == model.GuestUserID {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.HealthProfile()
	return &profile, nil
}

func (s *AuthService) UpdateHealthProfile(ctx context.Context, userID string, profile model.HealthProfile) error {
	if userID == "" || userID == model.GuestUserID {
		return appErr.ErrForbidden
	}
	profile.Symptoms = strings.TrimSpace(profile.Symptoms)
	profile.Diseases = strings.TrimSpace(profile.Diseases)
	return s.users.UpdateHealth(ctx, userID, profile, timeutil.NowUnix())
}
