package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that also understands the catalog enums
// through the `main_category` and `target_audience` tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("main_category", func(fl validator.FieldLevel) bool {
		return MainCategory(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("target_audience", func(fl validator.FieldLevel) bool {
		return TargetAudience(fl.Field().String()).Valid()
	})
	return v
}

// ValidationMessages flattens validator errors into one message per field.
func ValidationMessages(err error) map[string]string {
	messages := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		messages["_"] = err.Error()
		return messages
	}
	for _, e := range validationErrors {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return messages
}
