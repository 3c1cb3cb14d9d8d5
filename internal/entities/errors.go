package entities

import (
	"errors"
	"fmt"
)

// Error kinds. Every workflow error wraps exactly one of them.
var (
	ErrValidation       = errors.New("validation error")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrGatewayFailure   = errors.New("gateway failure")
)

var kinds = []error{
	ErrValidation,
	ErrForbidden,
	ErrInvalidState,
	ErrConflict,
	ErrNotFound,
	ErrAlreadyProcessed,
	ErrGatewayFailure,
}

var (
	ErrInvalidWindow     = newCodedError(ErrValidation, "invalid_window", "end time must be after start time")
	ErrInvalidAmount     = newCodedError(ErrValidation, "invalid_amount", "amount must be greater than zero")
	ErrInvalidTicketCode = newCodedError(ErrValidation, "invalid", "ticket code does not match the ticket")
	ErrWrongEvent        = newCodedError(ErrValidation, "wrong_event", "ticket belongs to a different event")
	ErrVenueUnavailable  = newCodedError(ErrConflict, "venue_unavailable", "venue is not available for the requested window")
	ErrSoldOut           = newCodedError(ErrConflict, "sold_out", "not enough places left for the event")
	ErrAlreadyUsed       = newCodedError(ErrConflict, "already_used", "ticket has already been used")
	ErrAlreadyDecided    = newCodedError(ErrAlreadyProcessed, "already_decided", "approval stage has already been decided")
	ErrDuplicate         = newCodedError(ErrConflict, "duplicate", "record already exists")
)

type CodedError struct {
	kind error
	code string
	msg  string
}

func newCodedError(kind error, code, msg string) *CodedError {
	return &CodedError{kind: kind, code: code, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Unwrap() error {
	return e.kind
}

func (e *CodedError) Code() string {
	return e.code
}

// Errorf wraps a kind with a formatted message, keeping errors.Is(err, kind) true.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// KindOf returns the kind wrapped by err, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// CodeOf returns a stable machine-readable code for err.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}

	switch KindOf(err) {
	case ErrValidation:
		return "validation_error"
	case ErrForbidden:
		return "forbidden"
	case ErrInvalidState:
		return "invalid_state"
	case ErrConflict:
		return "conflict"
	case ErrNotFound:
		return "not_found"
	case ErrAlreadyProcessed:
		return "already_processed"
	case ErrGatewayFailure:
		return "gateway_failure"
	default:
		return "internal_error"
	}
}
