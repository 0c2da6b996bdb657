package jscontact

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"cardbridge/internal/diagnostic"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterStructValidation(validateOrganization, Organization{})
	v.RegisterStructValidation(validateOnlineService, OnlineService{})
	v.RegisterStructValidation(validateDate, DateValue{})

	return v
}

func validateOrganization(sl validator.StructLevel) {
	o := sl.Current().Interface().(Organization)
	if o.Name == "" && len(o.Units) == 0 {
		sl.ReportError(o.Name, "name", "Name", "name_or_units", "")
	}
}

func validateOnlineService(sl validator.StructLevel) {
	s := sl.Current().Interface().(OnlineService)
	if s.URI == "" && s.User == "" {
		sl.ReportError(s.URI, "uri", "URI", "uri_or_user", "")
	}
}

func validateDate(sl validator.StructLevel) {
	d := sl.Current().Interface().(DateValue)
	if !d.IsTimestamp() && d.Year == 0 && d.Month == 0 && d.Day == 0 {
		sl.ReportError(d.Year, "year", "Year", "partial_date", "")
	}
}

// Validate checks the structural rules of c. The returned error joins every
// problem found and wraps diagnostic.ErrValidation.
func Validate(c *Card) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("card %s: %w: %w", c.UID, diagnostic.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldPath(fe.Namespace())+": "+describe(fe))
	}

	// map members are visited in random order
	slices.Sort(msgs)

	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, errors.New(m))
	}

	return fmt.Errorf("card %s: %w: %w", c.UID, diagnostic.ErrValidation, errors.Join(errs...))
}

// fieldPath turns a validator namespace such as
// "Card.addresses[ADR-1].Meta.pref" into "addresses[ADR-1].pref".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Card.")

	return strings.ReplaceAll(ns, ".Meta.", ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("invalid kind %q", fe.Value())
	case "datetime":
		return fmt.Sprintf("invalid timestamp %q", fe.Value())
	case "min", "max":
		return fmt.Sprintf("%v out of range", fe.Value())
	case "name_or_units":
		return "name or units required"
	case "uri_or_user":
		return "uri or user required"
	case "partial_date":
		return "empty date"
	default:
		return "failed " + fe.Tag()
	}
}
