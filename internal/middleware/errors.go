package middleware

import (
	"github.com/gin-gonic/gin"

	"baasbox-client/internal/model"
)

const APIVersion = "0.8.4"

// BaasBox error codes reported in bb_code.
const (
	CodeAuthInvalid    = "40101"
	CodeAppCodeInvalid = "40102"
	CodeSessionExpired = "40103"
)

// ErrorBody renders a failure in the BaasBox error shape, echoing the
// headers a BaasBox server reports back.
func ErrorBody(c *gin.Context, status int, message, bbCode string) model.ErrorResult {
	h := c.Request.Header
	return model.ErrorResult{
		Result:   "error",
		Message:  message,
		Resource: c.Request.URL.Path,
		Method:   c.Request.Method,
		RequestHeader: model.RequestHeader{
			Accept:    h.Values("Accept"),
			Host:      []string{c.Request.Host},
			UserAgent: h.Values("User-Agent"),
			Session:   h.Values(HeaderSession),
		},
		APIVersion: APIVersion,
		HTTPCode:   status,
		BBCode:     bbCode,
	}
}

func RespondError(c *gin.Context, status int, message, bbCode string) {
	c.JSON(status, ErrorBody(c, status, message, bbCode))
}

func AbortWithError(c *gin.Context, status int, message, bbCode string) {
	c.AbortWithStatusJSON(status, ErrorBody(c, status, message, bbCode))
}
