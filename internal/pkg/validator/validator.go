package validator

import (
	"reflect"
	"slices"
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

func oneOf(valid ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(valid, fl.Field().String())
	}
}

// timeSlot accepts "<context>|<session>" with both parts present
func timeSlot(fl validator.FieldLevel) bool {
	days, session, ok := strings.Cut(fl.Field().String(), "|")
	return ok && strings.TrimSpace(days) != "" && strings.TrimSpace(session) != ""
}

func registerCustomValidations() {
	validate.RegisterValidation("role", oneOf("member", "admin"))
	validate.RegisterValidation("geo_system", oneOf("old", "new"))
	validate.RegisterValidation("listing_status", oneOf("draft", "pending", "approved", "rejected", "expired"))
	validate.RegisterValidation("session_label", oneOf(
		"Buổi sáng", "Buổi trưa", "Buổi chiều", "Buổi tối",
		"Sáng", "Trưa", "Chiều", "Tối",
	))
	validate.RegisterValidation("time_slot", timeSlot)
	validate.RegisterValidation("ledger_type", oneOf("topup", "unlock", "admin_adjustment", "reward"))
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "role":
			errors[field] = "Invalid role. Must be: member or admin"
		case "geo_system":
			errors[field] = "Invalid geo system. Must be: old or new"
		case "listing_status":
			errors[field] = "Invalid listing status"
		case "session_label":
			errors[field] = "Invalid time slot"
		case "time_slot":
			errors[field] = "Invalid time slot. Must be: <days>|<session>"
		case "ledger_type":
			errors[field] = "Invalid transaction type"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
