package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	profile, err := s.orgRepo.FindProfile(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	org, err := s.orgSvc.GetByID(c.Request.Context(), profile.OrgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// TeardownOrganization deletes the acting admin's entire organization. The
// session cookie is cleared even on partial failure: the acting user's
// account may already be gone by the time a late step fails.
func (s *Server) TeardownOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.teardownSvc.Teardown(c.Request.Context(), userID); err != nil {
		if isStepError(err) {
			s.sessions.Clear(c)
		}
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}
