package dto

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/contacts-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names ("email"), not Go field names ("Email").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes limits the encoded length; "max" counts runes on strings.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// validateStruct turns the first validator failure into a domain validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrInternal(err)
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(field)
	case "email":
		return domain.ErrInvalidField(field, "invalid format")
	case "max", "maxbytes":
		return domain.ErrInvalidField(field, "too long")
	case "min":
		return domain.ErrInvalidField(field, "too short")
	case "e164", "phone":
		return domain.ErrInvalidField(field, "invalid phone number")
	default:
		return domain.ErrInvalidField(field, fe.Tag())
	}
}
