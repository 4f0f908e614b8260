package cart

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func cartValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// Validate checks the structural constraints of the cart and returns a
// DomainError with code INVALID_CART listing every violation.
func (c *ShoppingCart) Validate() error {
	if c == nil {
		return shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is required")
	}

	err := cartValidator().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate cart: %w", err)
	}

	details := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, fmt.Sprintf("%s: %s", fieldPath(e), validationMessage(e)))
	}
	return shared.NewDomainError(shared.ErrInvalidCart.Code, "Shopping cart is invalid: "+strings.Join(details, "; "))
}

// fieldPath drops the root struct name from the namespace
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email format"
	case "ip":
		return "invalid IP address"
	case "iso4217":
		return "invalid ISO 4217 currency code"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return "invalid value"
	}
}
