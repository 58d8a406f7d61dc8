package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"zapas-be/internal/apperror"
)

// FromBindError normalises JSON decoding and binding failures into
// validation errors with field paths. body is the raw request payload; when
// given, type mismatches inside arrays are reported with their index
// (items.1.quantity) like validator failures are.
func FromBindError(err error, body []byte) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if located := locate(body, typeErr.Offset); located != "" && sameField(located, path) {
			path = located
		}
		if path == "" {
			path = "body"
		}
		return apperror.Validation([]apperror.FieldError{{Path: path, Message: "must be " + describe(typeErr.Type)}})
	}

	if errors.Is(err, io.EOF) {
		return apperror.Validation([]apperror.FieldError{{Path: "body", Message: "is required"}})
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperror.Validation([]apperror.FieldError{{Path: "body", Message: "must be valid JSON"}})
	}

	return apperror.BadRequest("invalid request body", err)
}

type frame struct {
	array  bool
	index  int
	key    string
	hasKey bool
}

// locate walks body and returns the indexed path of the last value that
// starts before offset. encoding/json reports a type mismatch at the end of
// the offending scalar, or just past the opening delimiter of a container.
func locate(body []byte, offset int64) string {
	if len(body) == 0 || offset <= 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	var (
		stack []frame
		found string
	)

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return found
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			advance(stack)
			continue
		}

		if n := len(stack); n > 0 && !stack[n-1].array && !stack[n-1].hasKey {
			key, _ := tok.(string)
			stack[n-1].key, stack[n-1].hasKey = key, true
			continue
		}

		if start >= offset {
			return found
		}
		found = joinPath(stack)

		if d, ok := tok.(json.Delim); ok {
			stack = append(stack, frame{array: d == '['})
			continue
		}
		advance(stack)
	}
}

func advance(stack []frame) {
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	if top.array {
		top.index++
	} else {
		top.hasKey = false
	}
}

func joinPath(stack []frame) string {
	parts := make([]string, len(stack))
	for i, f := range stack {
		if f.array {
			parts[i] = strconv.Itoa(f.index)
		} else {
			parts[i] = f.key
		}
	}
	return strings.Join(parts, ".")
}

// sameField reports whether located names the field encoding/json reported
// once array indexes are dropped.
func sameField(located, field string) bool {
	var named []string
	for _, part := range strings.Split(located, ".") {
		if _, err := strconv.Atoi(part); err != nil {
			named = append(named, part)
		}
	}
	return strings.EqualFold(strings.Join(named, "."), field)
}

func describe(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}
