package apierr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Classify maps any error coming out of a handler, a guard or a store onto
// the taxonomy. Unknown errors become KindInternal
func Classify(err error) *Error {
	var (
		e       *Error
		dup     *store.DuplicateError
		verrs   validator.ValidationErrors
		syntax  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
		tooBig  *http.MaxBytesError
		numErr  *strconv.NumError
	)

	switch {
	case errors.As(err, &e):
		return e
	case errors.As(err, &dup):
		return Wrap(KindConflict, dup.Field+" already exists", err)
	case errors.Is(err, store.ErrInvalidID):
		return Wrap(KindBadRequest, "Invalid ID format", err)
	case errors.Is(err, store.ErrNotFound):
		return Wrap(KindNotFound, "Resource not found", err)
	case errors.As(err, &verrs):
		return Wrap(KindBadRequest, validators.Message(verrs), err)
	case errors.As(err, &tooBig):
		return Wrap(KindTooLarge, "Request body size exceeds limit", err)
	case errors.As(err, &syntax), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return Wrap(KindBadRequest, "Invalid request body", err)
	case errors.As(err, &numErr):
		return Wrap(KindBadRequest, "Invalid query parameter", err)
	default:
		return Internal(err)
	}
}

// Respond writes the error envelope and aborts the chain. Internal errors
// are logged with the request ID, the cause never reaches the client
func Respond(c *gin.Context, err error) {
	e := Classify(err)
	requestID := c.GetString("requestID")

	if e.Kind == KindInternal {
		zap.L().Error("Request failed",
			zap.Error(err),
			zap.String("requestID", requestID),
			zap.String("path", c.FullPath()),
		)
	} else {
		zap.L().Debug("Request rejected",
			zap.Error(err),
			zap.String("kind", e.Kind.String()),
			zap.String("requestID", requestID),
		)
	}

	body := gin.H{
		"success": false,
		"message": e.Message,
	}
	if requestID != "" {
		body["requestID"] = requestID
	}

	c.AbortWithStatusJSON(e.Kind.Status(), body)
}
