package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a model invocation failure so callers branch on type
// instead of inspecting error text.
type Kind int

const (
	KindNone Kind = iota
	KindQuotaExceeded
	KindRateLimited
	KindModelUnavailable
	KindTransient
	KindFatal
)

var (
	ErrQuotaExceeded    = errors.New("model quota exceeded")
	ErrRateLimited      = errors.New("model rate limited")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrTransient        = errors.New("transient model error")
	ErrFatal            = errors.New("model invocation failed")
	ErrMissingAPIKey    = errors.New("model api key required")
	ErrNoModels         = errors.New("no models configured")
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindRateLimited:
		return "rate_limited"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Retryable reports whether the same model may be retried after a backoff.
func (k Kind) Retryable() bool {
	return k == KindQuotaExceeded || k == KindRateLimited || k == KindTransient
}

func (k Kind) sentinel() error {
	switch k {
	case KindQuotaExceeded:
		return ErrQuotaExceeded
	case KindRateLimited:
		return ErrRateLimited
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindTransient:
		return ErrTransient
	default:
		return ErrFatal
	}
}

// Classify wraps err with the sentinel for kind and the model that produced it.
func Classify(kind Kind, model string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind.sentinel(), model)
	}
	return fmt.Errorf("%w: %s: %w", kind.sentinel(), model, err)
}

// KindOf returns the classification carried by err.
// Unclassified errors are fatal; nil is KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindFatal
	}
}

// ClassifyStatus maps a provider HTTP status and message to a Kind.
func ClassifyStatus(code int, message string) Kind {
	msg := strings.ToLower(message)

	switch code {
	case http.StatusTooManyRequests:
		if strings.Contains(msg, "quota") {
			return KindQuotaExceeded
		}
		return KindRateLimited
	case http.StatusNotFound:
		return KindModelUnavailable
	case http.StatusBadRequest:
		if strings.Contains(msg, "not found") || strings.Contains(msg, "not supported") {
			return KindModelUnavailable
		}
		return KindFatal
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return KindTransient
	default:
		return KindFatal
	}
}

func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindFatal
}
