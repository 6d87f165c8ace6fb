// Package domain contains the core business entities for the weather gateway.
// This package defines the fundamental types and validation rules that are
// independent of external frameworks and infrastructure concerns.
package domain

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WeatherQuery identifies the location a caller wants current weather for.
// City is required; Country is optional but, when present, must match one of
// the recognized English country names.
type WeatherQuery struct {
	// City is the city name to look up
	City string `validate:"required"`

	// Country is an optional English country name qualifier
	Country string `validate:"omitempty,country_name"`
}

// validate is the shared validator instance with the custom country rule
// registered. Validation runs explicitly through WeatherQuery.Validate rather
// than through any framework's model binding.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// RegisterValidation only fails for a blank tag name.
	_ = v.RegisterValidation("country_name", func(fl validator.FieldLevel) bool {
		return IsRecognizedCountry(fl.Field().String())
	})

	return v
}

// Validate checks the query and returns one message per failing field.
// A nil slice means the query is valid.
func (q WeatherQuery) Validate() []string {
	err := validate.Struct(q)

	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)

	if !ok {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(errs))

	for _, fieldErr := range errs {
		switch fieldErr.Field() {
		case "City":
			messages = append(messages, "The city field is required.")
		case "Country":
			messages = append(messages, "Country name is invalid.")
		default:
			messages = append(messages, fieldErr.Error())
		}
	}

	return messages
}

// Location renders the query the way the upstream provider expects it:
// "City, Country" when a country is given, otherwise just the city.
func (q WeatherQuery) Location() string {
	if strings.TrimSpace(q.Country) != "" {
		return fmt.Sprintf("%s, %s", q.City, q.Country)
	}

	return q.City
}

// CurrentWeather is the public result shape returned to callers.
// Every field defaults to the empty string when the provider omits it so the
// response never carries nulls.
type CurrentWeather struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	Description string `json:"description"`
}

// UpstreamResult is the raw transport outcome of a single provider call.
// It is synthesized on transport failure so the client never propagates
// network errors, and it is never mutated after creation.
type UpstreamResult struct {
	// StatusCode is the provider's HTTP status, or 500 when synthesized
	StatusCode int

	// Body is the raw response body, empty on transport failure
	Body []byte

	// ReasonPhrase carries the status text or the transport error message
	ReasonPhrase string
}

// Success reports whether the upstream call completed with a 2xx status.
func (u UpstreamResult) Success() bool {
	return u.StatusCode >= http.StatusOK && u.StatusCode < http.StatusMultipleChoices
}

// ProviderReport is the normalized shape parsed out of the provider payload.
// Absent fields default rather than fail; ErrorMessage is set only when the
// provider signals a failure such as "city not found".
type ProviderReport struct {
	CityName     string
	CountryCode  string
	Description  string
	ErrorMessage string
}

// OperationResult is the uniform envelope produced by the orchestrator and
// translated into an HTTP response by the endpoint. It intentionally couples
// an HTTP-flavored status code to an application-layer result because its
// sole consumer is an HTTP endpoint.
type OperationResult[T any] struct {
	StatusCode int
	Data       *T
	Errors     []string
}

// OKResult builds a successful envelope carrying data and no errors.
func OKResult[T any](data T) OperationResult[T] {
	return OperationResult[T]{
		StatusCode: http.StatusOK,
		Data:       &data,
		Errors:     []string{},
	}
}

// FailureResult builds a failed envelope with no data.
func FailureResult[T any](statusCode int, errors ...string) OperationResult[T] {
	return OperationResult[T]{
		StatusCode: statusCode,
		Errors:     errors,
	}
}
