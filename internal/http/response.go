package http

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"campus-connect/internal/service"
)

// Codigos de error del envelope.
const (
	codeBadRequest       = "BAD_REQUEST"
	codeValidation       = "VALIDATION_ERROR"
	codeUnauthorized     = "UNAUTHORIZED"
	codeInvalidSession   = "INVALID_SESSION"
	codeSessionExpired   = "SESSION_EXPIRED"
	codeForbidden        = "FORBIDDEN"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeConflict         = "CONFLICT"
	codeRateLimited      = "RATE_LIMITED"
	codeInternal         = "INTERNAL_ERROR"
)

// envelope es la forma comun de todas las respuestas.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Error: code, Details: details})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable se recorre en orden: ErrAccountNotVerified envuelve ErrInvalidCredentials
// y tiene que ir antes.
var errorTable = []errorMapping{
	{service.ErrInvalidEmail, http.StatusBadRequest, codeValidation},
	{service.ErrEmailDomainNotAllowed, http.StatusBadRequest, "EMAIL_DOMAIN_NOT_ALLOWED"},
	{service.ErrInvalidPurpose, http.StatusBadRequest, codeValidation},
	{service.ErrInvalidRole, http.StatusBadRequest, codeValidation},
	{service.ErrInvalidCodeFormat, http.StatusBadRequest, codeValidation},
	{service.ErrWeakPassword, http.StatusBadRequest, codeValidation},
	{service.ErrInvalidInput, http.StatusBadRequest, codeValidation},
	{service.ErrInvalidCategory, http.StatusBadRequest, "INVALID_CATEGORY"},
	{service.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
	{service.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{service.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{service.ErrCodeNotFound, http.StatusBadRequest, "CODE_NOT_FOUND"},
	{service.ErrCodeExpired, http.StatusBadRequest, "CODE_EXPIRED"},
	{service.ErrAttemptsExceeded, http.StatusTooManyRequests, "ATTEMPTS_EXCEEDED"},
	{service.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
	{service.ErrAccountNotVerified, http.StatusUnauthorized, "ACCOUNT_NOT_VERIFIED"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrIncorrectPassword, http.StatusBadRequest, "INCORRECT_PASSWORD"},
	{service.ErrInvalidSession, http.StatusUnauthorized, codeInvalidSession},
	{service.ErrSessionExpired, http.StatusUnauthorized, codeSessionExpired},
	{service.ErrJWTDisabled, http.StatusServiceUnavailable, "TOKENS_DISABLED"},

	{service.ErrForbidden, http.StatusForbidden, codeForbidden},
	{service.ErrUserNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrEventNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrGroupNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrPostNotFound, http.StatusNotFound, codeNotFound},
	{service.ErrAlreadyJoined, http.StatusUnprocessableEntity, "ALREADY_JOINED"},
	{service.ErrNotJoined, http.StatusUnprocessableEntity, "NOT_JOINED"},
	{service.ErrEventFull, http.StatusUnprocessableEntity, "EVENT_FULL"},
	{service.ErrAlreadySaved, http.StatusUnprocessableEntity, "ALREADY_SAVED"},
	{service.ErrNotSaved, http.StatusUnprocessableEntity, "NOT_SAVED"},
	{service.ErrAlreadyMember, http.StatusUnprocessableEntity, "ALREADY_MEMBER"},
	{service.ErrNotMember, http.StatusUnprocessableEntity, "NOT_MEMBER"},
	{service.ErrAlreadyLiked, http.StatusUnprocessableEntity, "ALREADY_LIKED"},
	{service.ErrNotLiked, http.StatusUnprocessableEntity, "NOT_LIKED"},

	{service.ErrUnsupportedImageType, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
	{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{service.ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
}

// respondServiceError traduce errores de la capa de servicio. Lo que no esta en la
// tabla se loguea y sale como 500 sin detalle.
func respondServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var codeErr *service.InvalidCodeError
	if errors.As(err, &codeErr) {
		respondError(c, http.StatusBadRequest, "INVALID_CODE", err.Error(),
			gin.H{"remaining_attempts": codeErr.Remaining})
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.code, err.Error(), nil)
			return
		}
	}
	logger.Error(op+" failed",
		zap.String("request_id", requestID(c)),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, codeInternal, "internal server error", nil)
}

type fieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// bindJSON valida el body; si falla ya deja escrita la respuesta 400.
func bindJSON(c *gin.Context, logger *zap.Logger, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	logger.Warn("invalid request body",
		zap.String("path", c.FullPath()),
		zap.String("request_id", requestID(c)),
		zap.Error(err),
	)

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		respondError(c, http.StatusBadRequest, codeValidation, "invalid request data",
			gin.H{"validation_errors": fields})
	case errors.Is(err, io.EOF):
		respondError(c, http.StatusBadRequest, codeBadRequest, "request body is required", nil)
	default:
		respondError(c, http.StatusBadRequest, codeBadRequest, "request body must be valid JSON", nil)
	}
	return false
}

// bindOptionalJSON acepta body vacio.
func bindOptionalJSON(c *gin.Context, logger *zap.Logger, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, logger, req)
}

var registerTagNames sync.Once

// useJSONFieldNames hace que los errores de validacion usen el nombre JSON del campo.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
