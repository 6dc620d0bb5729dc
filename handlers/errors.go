package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/middleware"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindDuplicateReference, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Internal failures are logged and
// reported without leaking their cause to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	trace.SpanFromContext(c.Request.Context()).RecordError(err)

	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal("", err)
	}
	status := statusFor(e.Kind)

	body := gin.H{}
	for k, v := range e.Details {
		body[k] = v
	}
	body["error"] = string(e.Kind)
	body["message"] = e.Message

	if status >= http.StatusInternalServerError {
		body["message"] = "Internal server error"
		logger.Error("Request failed",
			zap.String("trace_id", middleware.GetTraceID(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		_ = c.Error(err)
	}

	c.JSON(status, body)
}

// bindError reports a request body or query that failed binding.
func bindError(c *gin.Context, err error) {
	body := gin.H{"error": string(apperr.KindValidation), "message": err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
		body["fields"] = fields
		body["message"] = strings.Join(msgs, "; ")
	}
	c.JSON(http.StatusBadRequest, body)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   string(apperr.KindValidation),
			"message": "invalid " + name,
		})
		return 0, false
	}
	return id, true
}
