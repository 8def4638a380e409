package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromValidator turns validator field errors into one validation error.
// Email failures use the fixed "invalid email" message.
func FromValidator(op string, err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Wrap(KindValidation, op, err)
	}
	parts := make([]string, 0, len(ves))
	for _, ve := range ves {
		switch ve.Tag() {
		case "email":
			return Validation(op, MsgInvalidEmail)
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(ve.Field())))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(ve.Field()), ve.Tag()))
		}
	}
	return Validation(op, strings.Join(parts, "; "))
}
