package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/bakery-api/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized},

	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrInvalidItem, http.StatusBadRequest},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrInvalidRating, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrInvalidTransactionType, http.StatusBadRequest},
	{service.ErrInvalidPeriod, http.StatusBadRequest},
	{service.ErrInvalidIngredient, http.StatusBadRequest},

	{service.ErrUserMismatch, http.StatusForbidden},
	{service.ErrOrderAccessDenied, http.StatusForbidden},

	{service.ErrProductNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrIngredientNotFound, http.StatusNotFound},

	{service.ErrProductUnavailable, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrFeedbackNotAllowed, http.StatusConflict},
	{service.ErrFeedbackExists, http.StatusConflict},
}

// respondError maps service errors to their HTTP status. Anything unknown
// is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	slog.Default().Error("request failed", "error", err, "method", c.Request.Method, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
