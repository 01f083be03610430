// Package httpapi carries the transport plumbing shared by the HTTP
// provider adapters: JSON round-trips, status errors, and the
// translation of transport failures into the domain error taxonomy.
// Request and response shapes stay private to each adapter.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/infrastructure/resilience"
)

type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "provider status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// PostJSON performs one JSON POST and decodes the response. Non-2xx
// statuses surface as *StatusError; an undecodable body surfaces as a
// malformed-response domain error.
func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(payload),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(domain.ErrMalformedResponse, operation, err)
	}
	return nil
}

// Translate maps a transport failure onto the provider error taxonomy.
// Errors already carrying a domain kind pass through unchanged, and
// caller-side cancellation is left for the engine to interpret.
func Translate(operation string, err error) error {
	if err == nil {
		return nil
	}
	if hasProviderKind(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrProviderTimeout, operation, err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.WrapError(domain.ErrProviderUnauthorized, operation, err)
		case http.StatusTooManyRequests:
			return domain.WrapError(domain.ErrProviderRateLimited, operation, err)
		default:
			return domain.WrapError(domain.ErrProviderUnavailable, operation, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.WrapError(domain.ErrProviderTimeout, operation, err)
	}
	return domain.WrapError(domain.ErrProviderUnavailable, operation, err)
}

func hasProviderKind(err error) bool {
	for _, kind := range []error{
		domain.ErrProviderTimeout,
		domain.ErrProviderUnauthorized,
		domain.ErrProviderRateLimited,
		domain.ErrProviderUnavailable,
		domain.ErrMalformedResponse,
	} {
		if domain.IsKind(err, kind) {
			return true
		}
	}
	return false
}

// Classify feeds the circuit breaker: cancellations never count as
// backend failures, auth and request-shape errors are not the backend's
// health, everything else records.
func Classify(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
