package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/middleware"
	"github.com/flicky/bakery-api/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Get(c *gin.Context) {
	s := middleware.GetSession(c)
	c.JSON(http.StatusOK, dto.SessionResponse{
		UserID:    s.UserID,
		Email:     s.Email,
		Role:      s.Role,
		IsAdmin:   s.IsAdmin(),
		ExpiresAt: s.ExpiresAt,
	})
}

// Logout forgets the cached role. The token itself is revoked by the auth
// provider.
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.GetSession(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
