package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// attributeNames overrides the field name used in messages.
var attributeNames = map[string]string{
	"category_id": "category",
	"author_ids":  "authors",
}

var (
	indexPattern = regexp.MustCompile(`\[(\d+)\]`)
	colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// #rgb or #rrggbb; the built-in hexcolor also takes alpha forms.
	if err := v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return colorPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidationErrors maps a form field to the first message that failed for it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// For returns the message for field, falling back to the first failing element
// ("tags.0", "tags.1", ...) of a list field.
func (v ValidationErrors) For(field string) string {
	if msg, ok := v[field]; ok {
		return msg
	}
	first, msg := -1, ""
	for key, m := range v {
		rest, ok := strings.CutPrefix(key, field+".")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if first < 0 || i < first {
			first, msg = i, m
		}
	}
	return msg
}

// Add records msg for field unless the field already failed.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// IsValidationError reports whether err carries field messages.
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}

// validateStruct runs the struct tags of s and converts failures to ValidationErrors.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verrs := ValidationErrors{}
	for _, fe := range fieldErrs {
		field := fieldKey(fe)
		verrs.Add(field, message(field, fe))
	}
	return verrs
}

// fieldKey turns "PostInput.tags[2]" into "tags.2".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return indexPattern.ReplaceAllString(ns, ".$1")
}

func message(field string, fe validator.FieldError) string {
	name := field
	if alias, ok := attributeNames[field]; ok {
		name = alias
	}
	name = strings.ReplaceAll(name, "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must not have more than %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "color":
		return fmt.Sprintf("The %s field must be a valid color.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "gt":
		return fmt.Sprintf("The selected %s is invalid.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}
