package handlers

import (
	"errors"
	"net/http"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError translates a service error into the response envelope.
// Store failures are logged in full; clients only see failMsg.
func writeError(c *gin.Context, log logrus.FieldLogger, err error, failMsg string) {
	var ve *dom.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.Fail("Validation error", ve.Fields...))
	case errors.Is(err, dom.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.Fail("Task not found"))
	default:
		log.WithError(err).Error(failMsg)
		c.JSON(http.StatusInternalServerError, dto.Fail(failMsg))
	}
}
