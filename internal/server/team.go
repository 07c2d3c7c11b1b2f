package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) ListTeam(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	members, err := s.teamSvc.ListMembers(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) UpdateMemberRole(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	memberID, err := parseID(c.Param("memberId"))
	if err != nil {
		AbortWithError(c, newValidationError("memberId", "invalid", "invalid member id"))
		return
	}

	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.teamSvc.UpdateMemberRole(c.Request.Context(), userID, memberID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RemoveMember(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	memberID, err := parseID(c.Param("memberId"))
	if err != nil {
		AbortWithError(c, newValidationError("memberId", "invalid", "invalid member id"))
		return
	}

	if err := s.teamSvc.RemoveMember(c.Request.Context(), userID, memberID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
