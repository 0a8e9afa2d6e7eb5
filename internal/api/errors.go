package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		permissionErr *service.PermissionError
		existsErr     *service.AlreadyExistsError
		missingErr    *service.NotFoundError
		selfErr       *service.SelfReferenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: validationErr.Message, Field: validationErr.Field})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, middleware.ErrorResponse{Error: permissionErr.Message})
	case errors.As(err, &existsErr):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: existsErr.Message})
	case errors.As(err, &missingErr):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: missingErr.Message})
	case errors.As(err, &selfErr):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: selfErr.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, middleware.ErrorResponse{Error: "internal server error"})
	}
}

// respondBindError reports the first invalid field of a request body or query
func respondBindError(c *gin.Context, err error) {
	var (
		fieldErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: fieldMessage(fe), Field: fe.Field()})
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "invalid value type", Field: typeErr.Field})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "malformed request body"})
	default:
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: err.Error()})
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	case "uuid":
		return "must be a valid id"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	}
	return "invalid value"
}

// notFound answers 404 for malformed path ids
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "not found"})
}
