package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgInvalidPayload = "invalid request payload"
	MsgInvalidID      = "invalid user id"
	MsgInternal       = "internal server error"
)

// JSON writes the value itself as the body; user routes carry no envelope.
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Text writes a plain-text body, used for confirmations and error messages.
func Text(c *gin.Context, status int, message string) {
	c.String(status, message)
}

func InternalError(c *gin.Context) {
	Text(c, http.StatusInternalServerError, MsgInternal)
}
