package segmenter

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/segmenter/internal/model"
)

var (
	ErrEmptyProcess    = errors.New("as-is process description must not be empty")
	ErrInvalidOptions  = errors.New("invalid pagination options")
	ErrNoResult        = errors.New("model produced no usable subactivities")
	ErrInvalidResponse = errors.New("model response is not a valid page")
)

// MapHTTPStatus maps segmenter errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyProcess), errors.Is(err, ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoResult), errors.Is(err, ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrQuotaExceeded), errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrModelUnavailable), errors.Is(err, model.ErrTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
