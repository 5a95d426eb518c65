package http

import (
	"context"
	"errors"
	"net/http"

	"energylog/internal/core"
	"energylog/internal/log"
	"energylog/internal/records"
	"energylog/internal/share"
	"energylog/internal/stats"
)

// errorResponse maps a service error to its response. Unknown errors are
// logged and answered with a generic 500.
func errorResponse(ctx context.Context, err error) *ResponseBuilder {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, stats.ErrInvalidFilter),
		errors.Is(err, records.ErrMalformedImport),
		errors.Is(err, share.ErrMalformedPayload):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidAmount):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, records.ErrNotFound):
		return NotFoundError("record not found")
	case errors.Is(err, context.Canceled):
		// The client is gone; the status is only seen by the logs.
		return ErrorResponse(499, "request canceled")
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Request failed", log.FieldError, err)
		return InternalServerError("internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(r.Context(), err).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}
