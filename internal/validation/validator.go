package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"zapas-be/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator runs `binding` struct tags and reports every violation as an
// apperror.Validation. It satisfies gin's binding.StructValidator.
type Validator struct {
	validate *validator.Validate
}

var Default = New()

var indexRegex = regexp.MustCompile(`\[(\w+)\]`)

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return &Validator{validate: v}
}

func (v *Validator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	if err := v.validate.Struct(obj); err != nil {
		return translate(err)
	}
	return nil
}

func (v *Validator) Engine() any {
	return v.validate
}

// Var validates a single value such as a path parameter.
func (v *Validator) Var(path string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Path: path, Message: message(fe)})
	}
	return apperror.Validation(fields)
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Path: fieldPath(fe), Message: message(fe)})
	}
	return apperror.Validation(fields)
}

// fieldPath turns "CreateOrderRequest.items[0].productId" into "items.0.productId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return indexRegex.ReplaceAllString(ns, ".$1")
}

func message(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be at most " + param
	case "min":
		return boundMessage("at least", param, fe.Kind())
	case "max":
		return boundMessage("at most", param, fe.Kind())
	default:
		return "is invalid"
	}
}

func boundMessage(bound, param string, kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("must be %s %s characters long", bound, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("must contain %s %s items", bound, param)
	default:
		return fmt.Sprintf("must be %s %s", bound, param)
	}
}
