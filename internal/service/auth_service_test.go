package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/jwt"
)

var testSecret = []byte("unit-test-secret")

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewAuthService(users, testSecret, time.Hour)

	ok, err := svc.Signup(ctx, SignupInput{Name: "Asha", Email: "Asha@Example.com", Password: "secret1", Symptoms: "cough"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Signup(ctx, SignupInput{Name: "Other", Email: "asha@example.com", Password: "secret2"})
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Login(ctx, "asha@example.com", "wrong-pass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	res, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	claims, err := jwt.ParseToken(res.Token, testSecret)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)
	require.Equal(t, res.SessionID, claims.SessionID)
	require.False(t, claims.Guest)

	again, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	require.NotEqual(t, res.SessionID, again.SessionID)
}

func TestSignupRejectsBadInput(t *testing.T) {
	svc := NewAuthService(newMemUsers(), testSecret, time.Hour)
	_, err := svc.Signup(context.Background(), SignupInput{Name: "A", Email: "not-an-email", Password: "secret1"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Signup(context.Background(), SignupInput{Name: "A", Email: "a@b.com", Password: "123"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestGuestHasNoProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newMemUsers(), testSecret, time.Hour)
	res, err := svc.GuestLogin(ctx)
	require.NoError(t, err)
	require.True(t, res.Guest)
	claims, err := jwt.ParseToken(res.Token, testSecret)
	require.NoError(t, err)
	require.Equal(t, model.GuestUserID, claims.UserID)

	profile, err := svc.HealthProfile(ctx, model.GuestUserID)
	require.NoError(t, err)
	require.Nil(t, profile)
	require.ErrorIs(t, svc.UpdateHealthProfile(ctx, model.GuestUserID, model.HealthProfile{}), appErr.ErrForbidden)
}

func TestUpdateHealthProfile(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewAuthService(users, testSecret, time.Hour)
	_, err := svc.Signup(ctx, SignupInput{Name: "B", Email: "b@b.com", Password: "secret1"})
	require.NoError(t, err)
	u, err := users.GetByEmail(ctx, "b@b.com")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateHealthProfile(ctx, u.ID, model.HealthProfile{Symptoms: " fever ", Diseases: "asthma"}))
	profile, err := svc.HealthProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, &model.HealthProfile{Symptoms: "fever", Diseases: "asthma"}, profile)
}
