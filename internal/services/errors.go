package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying on a later run: network
	// errors, timeouts, 5xx responses, rate limiting.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks failures that will not resolve on their own: 4xx
	// responses other than rate limiting, malformed response bodies.
	ErrPermanent = errors.New("permanent failure")
	// ErrNotFound marks a remote "not found". For mutations this usually
	// means the goal was already achieved.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes service context while tagging
// it with the provided marker for later classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, service, operation, message string, err error) error {
	detail := buildDetail(service, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err is tagged as retriable on a future run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsPermanent reports whether err is tagged as not self-resolving.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// IsNotFound reports whether err is tagged as a remote "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func buildDetail(service, operation, message string) string {
	parts := make([]string, 0, 3)
	if service = strings.TrimSpace(service); service != "" {
		parts = append(parts, service)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
