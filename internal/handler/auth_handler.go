package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/pkg/errcode"
	"github.com/xxxsen/medassist/internal/pkg/response"
	"github.com/xxxsen/medassist/internal/service"
)

type authenticator interface {
	Signup(ctx context.Context, in service.SignupInput) (bool, error)
	Login(ctx context.Context, email, plainPassword string) (*service.LoginResult, error)
	GuestLogin(ctx context.Context) (*service.LoginResult, error)
	HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error)
	UpdateHealthProfile(ctx context.Context, userID string, profile model.HealthProfile) error
}

type AuthHandler struct {
	auth authenticator
}

func NewAuthHandler(auth authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Symptoms string `json:"symptoms"`
	Diseases string `json:"diseases"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		response.Error(c, errcode.ErrInvalid, "email and password are required")
		return
	}
	ok, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Symptoms: req.Symptoms,
		Diseases: req.Diseases,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if !ok {
		response.Success(c, gin.H{"success": false, "message": "Email already registered"})
		return
	}
	response.Success(c, gin.H{"success": true, "message": "Registration successful"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AuthHandler) GuestLogin(c *gin.Context) {
	result, err := h.auth.GuestLogin(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AuthHandler) GetHealth(c *gin.Context) {
	profile, err := h.auth.HealthProfile(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *AuthHandler) UpdateHealth(c *gin.Context) {
	var req model.HealthProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.auth.UpdateHealthProfile(c.Request.Context(), getUserID(c), req); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, req)
}
