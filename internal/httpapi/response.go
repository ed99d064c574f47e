package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/store"
)

// Error codes returned in the "code" field.
const (
	codeValidation       = "VALIDATION_ERROR"
	codeNotFound         = "RESOURCE_NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeDatabase         = "DATABASE_ERROR"
)

type metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Timezone  string    `json:"timezone,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

type successResponse struct {
	Status   string   `json:"status"`
	Data     any      `json:"data"`
	Metadata metadata `json:"metadata"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) ok(c echo.Context, data any, md metadata) error {
	md.Timestamp = s.now().UTC()
	return c.JSON(http.StatusOK, successResponse{Status: "success", Data: data, Metadata: md})
}

// handleError is the echo HTTPErrorHandler. It maps bind, validation, domain
// and store errors onto the JSON error envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, msg := classify(err)
	fields := []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
	} else {
		s.log.Debug("request rejected", fields...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Status: "error", Code: code, Message: msg})
	}
	if err != nil {
		s.log.Warn("write error response", zap.Error(err))
	}
}

func classify(err error) (int, string, string) {
	var ve validator.ValidationErrors
	var be *echo.BindingError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, codeValidation, describeValidation(err)
	case errors.As(err, &be):
		return http.StatusBadRequest, codeValidation, "invalid value for " + be.Field
	case domain.IsValidation(err):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, codeNotFound, "lead not found"
	case errors.As(err, &he):
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, codeNotFound, "route not found"
		case http.StatusMethodNotAllowed:
			return he.Code, codeMethodNotAllowed, "method not allowed"
		case http.StatusBadRequest, http.StatusUnsupportedMediaType:
			return http.StatusBadRequest, codeValidation, "invalid request data"
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, codeValidation, http.StatusText(he.Code)
		}
	}
	return http.StatusInternalServerError, codeDatabase, "a database error occurred, please try again later"
}
