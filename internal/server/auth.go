package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	registrationdomain "github.com/zapdash/zapdash/internal/registration/domain"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		AbortWithError(c, newValidationError("email", "invalid", "a valid email is required"))
		return
	}
	if len(strings.TrimSpace(req.Password)) < 8 {
		AbortWithError(c, newValidationError("password", "weak_password", "password must be at least 8 characters"))
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		AbortWithError(c, newValidationError("full_name", "required", "full name is required"))
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		AbortWithError(c, newValidationError("company_name", "required", "company name is required"))
		return
	}

	result, err := s.regSvc.Register(c.Request.Context(), registrationdomain.RegisterRequest{
		Email:       email,
		Password:    req.Password,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusCreated, gin.H{
		"user_id":         result.UserID.String(),
		"organization_id": result.OrgID.String(),
		"role":            result.Role,
	})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.identitySvc.Login(c.Request.Context(), identitydomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusOK, gin.H{
		"user_id":    result.User.ID.String(),
		"expires_at": result.ExpiresAt,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		// Best effort: an already-dead session still gets its cookie cleared.
		_ = s.identitySvc.Logout(c.Request.Context(), token)
	}
	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.identitySvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"id":           user.ID.String(),
		"email":        user.Email,
		"display_name": user.DisplayName,
	}

	if profile, err := s.orgRepo.FindProfile(c.Request.Context(), userID); err == nil {
		resp["organization_id"] = profile.OrgID.String()
		resp["role"] = profile.Role
		resp["full_name"] = profile.FullName
	}

	c.JSON(http.StatusOK, resp)
}
