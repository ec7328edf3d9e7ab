package form

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate   = newValidator()
	looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)
	allDigits  = regexp.MustCompile(`^\d+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return allDigits.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// messages maps "field.tag" to the text shown under the field. A bare
// "field" entry is the fallback for any tag on that field.
type messages map[string]string

// check runs struct validation and translates failures into field messages.
// Only the first failure per field is kept.
func check(input any, msgs messages) map[string]string {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if m, ok := msgs[field+"."+fe.Tag()]; ok {
			out[field] = m
		} else if m, ok := msgs[field]; ok {
			out[field] = m
		} else {
			out[field] = field + " is invalid"
		}
	}
	return out
}
