package validators

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"bitwise74/rental-api/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register adds the item tags to gin's binding validator and makes field
// errors report JSON names. Safe to call more than once
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		v.RegisterValidation("item_category", oneOfFunc(model.Categories))
		v.RegisterValidation("item_condition", oneOfFunc(model.Conditions))
		v.RegisterValidation("price_unit", oneOfFunc(model.PriceUnits))
		v.RegisterValidation("lnglat", validLngLat)
	})
}

func oneOfFunc(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

// validLngLat checks a [lng, lat] pair
func validLngLat(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Slice || f.Len() != 2 {
		return false
	}

	lng, lat := f.Index(0).Float(), f.Index(1).Float()
	return ValidLngLat(lng, lat)
}

func ValidLngLat(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}
