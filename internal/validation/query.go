package validation

import (
	"net/url"
	"strconv"
	"strings"

	"zapas-be/internal/apperror"

	"github.com/shopspring/decimal"
)

// Query coerces query-string values into typed fields, collecting one
// FieldError per value that cannot be parsed instead of stopping at the first.
type Query struct {
	values url.Values
	errs   []apperror.FieldError
	failed map[string]bool
}

func NewQuery(values url.Values) *Query {
	return &Query{values: values, failed: map[string]bool{}}
}

func (q *Query) String(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *Query) Int(key string, def int) int {
	raw := q.String(key)
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(key, "must be an integer")
		return def
	}
	return n
}

func (q *Query) Decimal(key string) *decimal.Decimal {
	raw := q.String(key)
	if raw == "" {
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		q.fail(key, "must be a number")
		return nil
	}
	return &d
}

func (q *Query) fail(key, msg string) {
	q.failed[key] = true
	q.errs = append(q.errs, apperror.FieldError{Path: key, Message: msg})
}

// Check merges coercion failures with the struct-tag rules on dst. Fields
// that already failed coercion are not reported twice.
func (q *Query) Check(dst any) error {
	fields := append([]apperror.FieldError(nil), q.errs...)

	if err := Default.ValidateStruct(dst); err != nil {
		appErr, ok := err.(*apperror.Error)
		if !ok {
			return err
		}
		for _, fe := range appErr.Fields {
			if !q.failed[fe.Path] {
				fields = append(fields, fe)
			}
		}
	}

	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}
