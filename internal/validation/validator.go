// Package validation wraps go-playground/validator with messages that read
// well in a {"error": "..."} response body.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// RequestValidationError collects every failed field of one request body.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator. Field names in errors come from json tags.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct returns nil or a *RequestValidationError.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translateError(fe)}
	}
	return &RequestValidationError{Fields: fields}
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"email":     "%s must be a valid email address",
	"latitude":  "%s must be a valid latitude (-90 to 90)",
	"longitude": "%s must be a valid longitude (-180 to 180)",
	"uuid":      "%s must be a valid id",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"min":   "%s must be at least %s characters",
	"max":   "%s must be at most %s characters",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	if ns := fe.Namespace(); strings.Count(ns, ".") > 1 {
		// drop the root struct name: "UpdateCanvasRequest.elements[0].type" -> "elements[0].type"
		field = ns[strings.Index(ns, ".")+1:]
	}

	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
