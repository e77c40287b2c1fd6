package validators

import (
	"fmt"
	"strings"

	"bitwise74/rental-api/internal/model"

	"github.com/go-playground/validator/v10"
)

// Message flattens validation errors into a single client facing line
func Message(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s %s", e.Field(), fieldMessage(e)))
	}

	return "Validation Error: " + strings.Join(parts, ", ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters long", e.Param())
		}
		return fmt.Sprintf("must have at most %s entries", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "item_category":
		return "must be one of: " + strings.Join(model.Categories, ", ")
	case "item_condition":
		return "must be one of: " + strings.Join(model.Conditions, ", ")
	case "price_unit":
		return "must be one of: " + strings.Join(model.PriceUnits, ", ")
	case "lnglat":
		return "must be [longitude, latitude] within valid ranges"
	default:
		return fmt.Sprintf("failed on the '%s' rule", e.Tag())
	}
}
