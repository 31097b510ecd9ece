package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	xlogger "github.com/Bessaq/AstroManusJules/pkg/logger"
)

// unavailableRetryAfter is the Retry-After hint, in seconds, sent with 503s.
const unavailableRetryAfter = 5

// toAppError maps a domain error kind onto the HTTP error envelope.
func toAppError(err error) *xhttp.AppError {
	var de *models.Error
	if !errors.As(err, &de) {
		if errors.Is(err, context.DeadlineExceeded) {
			return xhttp.ServiceUnavailableError("ERR_TIMEOUT", "request timed out").
				WithParam(xhttp.RetryAfterParam, unavailableRetryAfter).
				WithError(err)
		}
		return xhttp.InternalError("internal error").WithError(err)
	}

	switch de.Kind {
	case models.KindInvalid:
		return xhttp.BadRequestError(de.Field, de.Message).WithError(err)
	case models.KindNotFound:
		ae := xhttp.NotFoundError("ERR_LOCATION_NOT_FOUND", de.Message).WithError(err)
		ae.Field = de.Field
		return ae
	case models.KindProvider:
		return xhttp.BadGatewayError("ERR_PROVIDER", de.Error()).WithError(err)
	case models.KindUnavailable:
		return xhttp.ServiceUnavailableError("ERR_SERVICE_UNAVAILABLE", de.Error()).
			WithParam(xhttp.RetryAfterParam, unavailableRetryAfter).
			WithError(err)
	}
	return xhttp.InternalError("internal error").WithError(err)
}

// respondError logs server-side failures and writes the error envelope.
// Caller errors are logged at debug only.
func respondError(c echo.Context, l *xlogger.Logger, op string, err error) error {
	if models.IsCallerError(err) {
		l.Debug(op+" rejected", xlogger.Error(err))
	} else {
		l.Error(op+" failed", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, toAppError(err))
}
