package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/apperr"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps the error taxonomy onto HTTP statuses. Unexpected
// errors are logged with the operation name and masked before leaving the
// server.
func RespondAppError(c *gin.Context, op string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		RespondError(c, http.StatusNotFound, err)
	case apperr.KindBadRequest:
		RespondError(c, http.StatusBadRequest, err)
	case apperr.KindUnauthorized:
		RespondError(c, http.StatusUnauthorized, err)
	case apperr.KindForbidden:
		RespondError(c, http.StatusForbidden, err)
	default:
		ErrorLogger.Printf("%s: %v", op, err)
		RespondError(c, http.StatusInternalServerError, apperr.Internal(err))
	}
}
