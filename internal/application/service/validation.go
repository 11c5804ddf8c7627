package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/secu-devis/internal/pricing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Dates and times accept exactly what pricing can parse.
	_ = v.RegisterValidation("quotedate", func(fl validator.FieldLevel) bool {
		return pricing.ValidDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return pricing.ValidClock(fl.Field().String())
	})
	return v
}

// dataQualityTags are rules pricing degrades on locally: a malformed date or
// time gives an all-zero line rather than a failed render.
var dataQualityTags = map[string]bool{"quotedate": true, "clock": true}

// ValidationError lists the rejected fields by JSON path and failed rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func validateStruct(v any) error {
	return check(v, false)
}

// validateShape is validateStruct without the data-quality rules, for input
// that is rendered but never stored.
func validateShape(v any) error {
	return check(v, true)
}

func check(v any, skipDataQuality bool) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			if skipDataQuality && dataQualityTags[fe.Tag()] {
				continue
			}
			path := fe.Namespace()
			if i := strings.Index(path, "."); i >= 0 {
				path = path[i+1:]
			}
			fields[path] = fe.Tag()
		}
		if len(fields) == 0 {
			return nil
		}
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
