package api

import (
	"context"
	"errors"

	"GlobalLiquidity/internal/domain/models"
	xhttp "GlobalLiquidity/pkg/http"
)

// appError maps engine errors onto API error codes.
func appError(err error) *xhttp.AppError {
	var fe *models.FetchError
	switch {
	case errors.Is(err, models.ErrInvalidParams):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrMissingCredential):
		return xhttp.UnauthorizedError("macro data provider rejected the credential").WithError(err)
	case errors.As(err, &fe):
		return xhttp.UpstreamError(fe.Error()).
			WithParam("source", string(fe.Source)).
			WithParam("id", fe.ID).
			WithError(err)
	case errors.Is(err, models.ErrEmptyResult):
		return xhttp.EmptyResultError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.TimeoutError("computation timed out").WithError(err)
	default:
		return xhttp.InternalError("computation failed").WithError(err)
	}
}
