package portal

import (
	"errors"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound   = "portal_identity_not_found"
	TextCodeInvalidEmail       = "portal_invalid_email"
	TextCodeInvalidCredentials = "portal_invalid_credentials"
	TextCodeIncorrectPassword  = "portal_incorrect_password"
	TextCodeDuplicateAccount   = "portal_duplicate_account"
	TextCodeForbidden          = "portal_forbidden"
	TextCodeInvalidRole        = "portal_invalid_role"
	TextCodeInjectionDetected  = "portal_injection_detected"
	TextCodeInvalidPayload     = "portal_invalid_payload"
	TextCodeEmptyPassword      = "portal_empty_password"
	TextCodePasswordMismatch   = "portal_password_mismatch"
	TextCodeStoreFailure       = "portal_store_failure"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidEmail the submitted email is not a valid address
var ErrInvalidEmail = goerrors.New("invalid email", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials no single account matches the email. Used for both
// missing and ambiguous accounts so the two cannot be told apart.
var ErrInvalidCredentials = goerrors.New("invalid email/password combination", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrIncorrectPassword the account exists but the password does not match
var ErrIncorrectPassword = goerrors.New("incorrect password", goerrors.CategoryAuth).
	WithTextCode(TextCodeIncorrectPassword).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateAccount signup for an email that is already registered
var ErrDuplicateAccount = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(goerrors.CodeConflict)

// ErrForbidden the session lacks the role required for the operation
var ErrForbidden = goerrors.New("you are not authorized to perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidRole unknown role name
var ErrInvalidRole = goerrors.New("invalid role", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrInjectionDetected a query value was not a scalar
var ErrInjectionDetected = goerrors.New("injection attack detected", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInjectionDetected).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidPayload signup payload failed validation
var ErrInvalidPayload = goerrors.New("invalid signup payload", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidPayload).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString refuses to hash an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword password does not match hash
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeUnauthorized)

// derive returns a copy of kind that still matches kind with errors.Is
func derive(kind *goerrors.Error, meta ...map[string]any) *goerrors.Error {
	clone := kind.Clone()
	clone.Source = kind
	clone.Timestamp = time.Now()
	if len(meta) > 0 {
		clone.WithMetadata(meta...)
	}
	return clone
}

// NewValidationError derives a validation error from kind carrying the
// field messages of an ozzo validation error.
func NewValidationError(kind *goerrors.Error, err error) *goerrors.Error {
	verr := derive(kind)
	verr.Category = goerrors.CategoryValidation

	fields := FormatValidationErrorToMap(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		verr.ValidationErrors = append(verr.ValidationErrors, goerrors.FieldError{
			Field:   k,
			Message: fields[k],
		})
	}
	return verr
}

// WrapStoreError tags a store failure as internal
func WrapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeStoreFailure).
		WithCode(goerrors.CodeInternal)
}

// IsValidationError reports whether err carries field validation messages
func IsValidationError(err error) bool {
	_, ok := goerrors.GetValidationErrors(err)
	return ok
}

// ValidationFields returns the field messages carried by err
func ValidationFields(err error) map[string]string {
	out := map[string]string{}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		for _, fe := range rich.AllValidationErrors() {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// ErrorMessage returns the user facing message of err without the
// category and text code prefix.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Message
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Message
	}

	return err.Error()
}

// ToRichError maps any error to a *goerrors.Error. Unknown errors become
// internal errors. A nil error maps to nil.
func ToRichError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return goerrors.MapToError(err, []goerrors.ErrorMapper{mapFiberError})
}

func mapFiberError(err error) *goerrors.Error {
	var ferr *fiber.Error
	if !errors.As(err, &ferr) {
		return nil
	}

	return goerrors.New(ferr.Message, goerrors.HTTPStatusToCategory(ferr.Code)).
		WithCode(ferr.Code).
		WithTextCode(goerrors.HTTPStatusToTextCode(ferr.Code))
}

// HTTPStatus picks the response status for err from its code, falling back
// to its category.
func HTTPStatus(err error) int {
	if err == nil {
		return fiber.StatusOK
	}

	rich := ToRichError(err)
	if rich.Code > 0 {
		return rich.Code
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field to message map suitable for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[field] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
