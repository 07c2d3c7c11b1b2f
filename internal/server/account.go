package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) DeleteAccount(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.accountSvc.DeleteOwnAccount(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}
