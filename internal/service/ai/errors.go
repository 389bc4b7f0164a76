package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is wrapped in a ProviderResponseError when the provider returns no text.
var ErrEmptyResponse = errors.New("APIから有効なテキストが返されませんでした")

// ProviderTimeoutError reports an attempt that ran past its deadline.
type ProviderTimeoutError struct {
	Err error
}

func (e *ProviderTimeoutError) Error() string {
	return fmt.Sprintf("provider request timed out: %v", e.Err)
}

func (e *ProviderTimeoutError) Unwrap() error { return e.Err }

// ProviderResponseError reports a failed call or an unusable response body.
type ProviderResponseError struct {
	Err error
}

func (e *ProviderResponseError) Error() string {
	return fmt.Sprintf("provider API error: %v", e.Err)
}

func (e *ProviderResponseError) Unwrap() error { return e.Err }

// classify maps a raw provider failure onto the error taxonomy. Cancellation
// by the caller is passed through untouched.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var timeout *ProviderTimeoutError
	var response *ProviderResponseError
	if errors.As(err, &timeout) || errors.As(err, &response) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ProviderTimeoutError{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ProviderResponseError{Err: err}
}

// IsTimeout reports whether err carries a ProviderTimeoutError.
func IsTimeout(err error) bool {
	var timeout *ProviderTimeoutError
	return errors.As(err, &timeout)
}

// IsResponse reports whether err carries a ProviderResponseError.
func IsResponse(err error) bool {
	var response *ProviderResponseError
	return errors.As(err, &response)
}
