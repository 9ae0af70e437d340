package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/estora/storefront/errors"
	"github.com/estora/storefront/transport"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError maps an error onto an HTTP response. AppErrors carry
// their own status and structured body. Backend transport errors keep the
// backend's message: client errors (4xx) pass through with their original
// status so the caller sees exactly what the backend objected to, anything
// else becomes a bad gateway. Unknown errors are a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}

	if te, ok := transport.AsError(err); ok {
		backendErr := apperrors.Backend(te.Message, te).
			WithDetail("backend_status", te.Status)
		status := http.StatusBadGateway
		if te.Status >= 400 && te.Status < 500 {
			status = te.Status
		}
		c.JSON(status, backendErr.ToResponse())
		return
	}

	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
