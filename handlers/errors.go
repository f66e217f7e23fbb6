package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/store"
)

// writeError maps service and engine errors onto HTTP statuses. Every handler
// routes failures through here so the mapping stays in one place:
//
//	validation        -> 400
//	forbidden         -> 403
//	not found         -> 404
//	conflict / state  -> 409
//	rejected fields   -> 422
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, authz.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrConflict), errors.Is(err, authz.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, authz.ErrRejectedFields):
		var rerr *authz.RejectedFieldsError
		if errors.As(err, &rerr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":           "request contains fields outside your write permissions",
				"rejected_fields": rerr.Fields,
			})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
