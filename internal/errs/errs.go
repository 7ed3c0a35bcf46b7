package errs

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors: it decides whether a failure is fatal,
// re-promptable or retryable.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindDelivery      Kind = "delivery"
)

type Error struct {
	Kind        Kind
	Message     string
	UserMessage string
	Retryable   bool
	cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Configuration marks a malformed scenario or registry setup. Fatal at
// load time: the bot stays offline until fixed.
func Configuration(format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation marks bad user input. Recoverable: the engine re-prompts
// with UserMessage.
func Validation(userMessage string) *Error {
	return &Error{
		Kind:        KindValidation,
		Message:     "input validation failed",
		UserMessage: userMessage,
	}
}

// NotFound marks an unknown bot, scenario or chat. Fatal for the request.
func NotFound(format string, args ...any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Delivery marks a platform send failure. Retryable with backoff, then
// logged and dropped.
func Delivery(cause error) *Error {
	return &Error{
		Kind:      KindDelivery,
		Message:   "message delivery failed",
		Retryable: true,
		cause:     cause,
	}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind == kind
	}
	return false
}

func IsValidation(err error) bool    { return IsKind(err, KindValidation) }
func IsConfiguration(err error) bool { return IsKind(err, KindConfiguration) }
func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsDelivery(err error) bool      { return IsKind(err, KindDelivery) }

// UserMessage extracts the re-prompt text from a validation error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.UserMessage
	}
	return ""
}
