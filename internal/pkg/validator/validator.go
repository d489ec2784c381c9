package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Role validation
	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []string{"member", "creator", "admin"}
		for _, r := range validRoles {
			if role == r {
				return true
			}
		}
		return false
	})

	// Payment method validation for conversion/withdrawal requests
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		validMethods := []string{"bank_transfer", "paypal", "card"}
		for _, m := range validMethods {
			if method == m {
				return true
			}
		}
		return false
	})

	// Review action validation
	validate.RegisterValidation("review_action", func(fl validator.FieldLevel) bool {
		action := fl.Field().String()
		return action == "approve" || action == "reject"
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email address"
		case "min":
			errors[field] = "Value is too small"
		case "max":
			errors[field] = "Value is too large"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "oneof":
			errors[field] = "Must be one of: " + err.Param()
		case "role":
			errors[field] = "Invalid role"
		case "payment_method":
			errors[field] = "Unsupported payment method"
		case "review_action":
			errors[field] = "Action must be approve or reject"
		case "uuid":
			errors[field] = "Invalid identifier"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
