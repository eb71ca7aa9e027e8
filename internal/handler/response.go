package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ubuzima-connect/api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err as a JSON error response, mapping AppErrors to their
// HTTP status and hiding the details of everything else.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	_ = c.Error(err)
}
