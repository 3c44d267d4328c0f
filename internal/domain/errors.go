package domain

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNotFound   = "GUEST_NOT_FOUND"
	TextCodeDuplicate  = "DUPLICATE_GUEST"
	TextCodeValidation = "VALIDATION_ERROR"
)

// NewNotFound reports that no live guest carries id.
func NewNotFound(id int64) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("guest %d not found", id), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{"id": id})
}

// NewConflict reports a live guest already holding the name pair.
func NewConflict(firstName, lastName string) *goerrors.Error {
	return goerrors.New("duplicate guest", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(TextCodeDuplicate).
		WithMetadata(map[string]any{"firstName": firstName, "lastName": lastName})
}

// NewValidationError reports a single malformed input field.
func NewValidationError(field, message string) *goerrors.Error {
	return goerrors.NewValidation("invalid input", goerrors.FieldError{Field: field, Message: message}).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidation)
}

// FromValidation converts an ozzo validation failure.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "invalid input").
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidation)
}

// IsNotFound, IsConflict and IsValidation classify errors crossing the service boundary.
func IsNotFound(err error) bool   { return goerrors.IsNotFound(err) }
func IsConflict(err error) bool   { return goerrors.IsCategory(err, goerrors.CategoryConflict) }
func IsValidation(err error) bool { return goerrors.IsValidation(err) }
