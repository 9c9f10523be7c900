package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorKind struct {
	target   error
	status   int
	grpcCode codes.Code
	code     string
}

var errorKinds = []errorKind{
	{domain.ErrInvalidURL, http.StatusBadRequest, codes.InvalidArgument, "invalid_url"},
	{domain.ErrInvalidCode, http.StatusBadRequest, codes.InvalidArgument, "invalid_short_code"},
	{domain.ErrInvalidExpiration, http.StatusBadRequest, codes.InvalidArgument, "invalid_expiration"},
	{domain.ErrCodeAlreadyExists, http.StatusConflict, codes.AlreadyExists, "short_code_taken"},
	{domain.ErrNotFound, http.StatusNotFound, codes.NotFound, "not_found"},
}

// classify maps a service error to transport codes. Unknown errors are
// internal and their text is not exposed.
func classify(err error) (int, codes.Code, APIError) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.grpcCode, APIError{Code: k.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, codes.Internal,
		APIError{Code: "internal_error", Message: "internal server error"}
}

func writeError(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}
