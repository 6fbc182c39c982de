// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/pirotecnica-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("order_status", validateOrderStatus)
	validate.RegisterValidation("nonzero_int", validateNonZeroInt)
	validate.RegisterValidation("money", validateMoney)
	validate.RegisterCustomTypeFunc(moneyValue, models.Money{})
}

// moneyValue lets validation tags see Money as its decimal string.
func moneyValue(field reflect.Value) interface{} {
	if m, ok := field.Interface().(models.Money); ok {
		return m.String()
	}
	return nil
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateUserRole(fl validator.FieldLevel) bool {
	_, err := models.ToRole(fl.Field().String())
	return err == nil
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	_, err := models.ToOrderStatus(fl.Field().String())
	return err == nil
}

func validateNonZeroInt(fl validator.FieldLevel) bool {
	return fl.Field().Int() != 0
}

// validateMoney accepts non-negative amounts up to models.MaxPrice with at most two
// decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	m, err := models.ParseMoney(fl.Field().String())
	if err != nil {
		return false
	}
	return !m.IsNegative() &&
		m.LessThanOrEqual(models.MaxPrice.Decimal) &&
		m.Equal(models.NewMoney(m.Round(2)))
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.Int {
			return e.Field() + " must be at least " + e.Param()
		}
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		if e.Kind() == reflect.Int {
			return e.Field() + " must be at most " + e.Param()
		}
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "user_role":
		return "Role must be one of buyer, seller, admin"
	case "order_status":
		return "Status must be one of pending, shipped, completed"
	case "nonzero_int":
		return e.Field() + " must not be zero"
	case "money":
		return e.Field() + " must be a non-negative amount up to " + models.MaxPrice.Display() + " with at most two decimals"
	case "required_if":
		return e.Field() + " is required when applying as a seller"
	default:
		return e.Field() + " is invalid"
	}
}
