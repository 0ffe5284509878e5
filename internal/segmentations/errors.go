package segmentations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/segmenter/internal/segmenter"
)

// Domain errors for segmentation operations.
var (
	ErrNotFound       = errors.New("segmentation not found")
	ErrDuplicate      = errors.New("segmentation already exists")
	ErrNoData         = errors.New("no source rows provided")
	ErrInvalidRequest = errors.New("invalid segmentation request")
	ErrNotCompleted   = errors.New("segmentation has no result")
	ErrBodyTooLarge   = errors.New("request body exceeds maximum size")
)

// MapHTTPStatus maps segmentation and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, ErrNoData), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return segmenter.MapHTTPStatus(err)
}
