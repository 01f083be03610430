package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuery         = errors.New("invalid query")
	ErrProviderTimeout      = errors.New("provider timeout")
	ErrProviderUnauthorized = errors.New("provider unauthorized")
	ErrProviderRateLimited  = errors.New("provider rate limited")
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrMalformedResponse    = errors.New("malformed provider response")
	ErrProviderNotFound     = errors.New("provider not found")
	ErrAllProvidersFailed   = errors.New("all providers failed")
	ErrStreamCancelled      = errors.New("stream cancelled")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
