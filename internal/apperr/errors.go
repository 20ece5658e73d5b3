// Package apperr définit la taxonomie d'erreurs partagée par les services et les handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classe une erreur pour le mapping HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinelles utilisables avec errors.Is, y compris par les repositories.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError décrit une erreur de validation sur un champ.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error porte le type, le message destiné au client et la cause éventuelle.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is rapproche une *Error de la sentinelle de son type.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrUnauthorized:
		return e.Kind == KindAuthentication
	case ErrForbidden:
		return e.Kind == KindAuthorization
	case ErrInvalidInput:
		return e.Kind == KindValidation
	}
	return false
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Field raccourci pour une erreur de validation sur un seul champ.
func Field(field, message string) *Error {
	return Validation(message, FieldError{Field: field, Message: message})
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal enveloppe une panne du store ou d'un collaborateur.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Wrap convertit une erreur de repository en *Error : les sentinelles gardent
// leur type, le reste devient Internal.
func Wrap(err error, notFoundMessage, internalMessage string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound(notFoundMessage)
	case errors.Is(err, ErrConflict):
		return &Error{Kind: KindConflict, Message: internalMessage, Err: err}
	}
	return Internal(internalMessage, err)
}

// KindOf retourne le type d'une erreur quelconque.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindAuthentication
	case errors.Is(err, ErrForbidden):
		return KindAuthorization
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	}
	return KindInternal
}

// StatusCode mappe un type vers le code HTTP. Les conflits répondent 400.
func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
