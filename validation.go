package portal

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// MaxUsernameLength is the longest username accepted at signup
	MaxUsernameLength = 20
	// MaxPasswordLength is the longest password accepted at signup
	MaxPasswordLength = 20
)

// SignupPayload is the signup form payload
type SignupPayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload as a single record
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.RuneLength(1, MaxUsernameLength),
			is.Alphanumeric,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.RuneLength(1, MaxPasswordLength),
		),
	)
}

// LoginPayload is the login form payload
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate only checks the email shape, the password is checked
// against the stored hash.
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

// ValidateEmail checks a single email value
func ValidateEmail(email string) error {
	return validation.Validate(email, validation.Required, is.Email)
}

var errNotScalar = errors.New("must be a single text value")

// Scalar rejects values that can not be used as an equality query
// argument: maps, slices, arrays and structs.
var Scalar = validation.By(func(value any) error {
	if value == nil {
		return nil
	}

	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Interface:
		return errNotScalar
	default:
		return nil
	}
})

// ValidateScalarEmail runs the injection check followed by the email
// format check. The injection check comes first so a structured value
// never reaches the format rule.
func ValidateScalarEmail(value any) error {
	if err := validation.Validate(value, Scalar); err != nil {
		return ErrInjectionDetected
	}

	s, _ := value.(string)
	if err := ValidateEmail(s); err != nil {
		return NewValidationError(ErrInvalidEmail, validation.Errors{"email": err})
	}
	return nil
}

// QueryPair is a raw query string argument
type QueryPair struct {
	Key   string
	Value string
}

// QueryValue rebuilds the value a permissive query parser would produce
// for key:
//   - key=a yields "a"
//   - key=a&key=b yields []string{"a", "b"}
//   - key[$ne]=x yields map[string]any{"$ne": "x"}
//   - key={"$ne":"x"} yields the decoded JSON object
//
// A nil result means the key was absent.
func QueryValue(key string, pairs []QueryPair) any {
	var values []string
	nested := map[string]any{}

	prefix := key + "["
	for _, p := range pairs {
		switch {
		case p.Key == key:
			values = append(values, p.Value)
		case strings.HasPrefix(p.Key, prefix) && strings.HasSuffix(p.Key, "]"):
			sub := strings.TrimSuffix(strings.TrimPrefix(p.Key, prefix), "]")
			nested[sub] = p.Value
		}
	}

	if len(nested) > 0 {
		return nested
	}

	switch len(values) {
	case 0:
		return nil
	case 1:
		return decodeStructured(values[0])
	default:
		return values
	}
}

func decodeStructured(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw
	}

	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return raw
	}
	return out
}

var colorRe = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]{1,20})$`)

// AboutPayload is the about page query
type AboutPayload struct {
	Color string `query:"color" json:"color"`
}

// Validate will validate the payload
func (r AboutPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Color,
			validation.Match(colorRe),
		),
	)
}
