// util/json.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// UnmarshalJSONBytes unmarshals the bytes into the given type but goes
// through some effort to return useful error messages (with line and
// character positions) when the JSON is invalid.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

// FindDuplicateJSONKeys walks the token stream and reports every object
// key that appears more than once in the same object, as "path.key".
// encoding/json silently keeps the last value in that case, which in a
// hand-edited scenario file is almost always a mistake.
func FindDuplicateJSONKeys(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))

	type level struct {
		keys      map[string]bool // nil for arrays
		expectKey bool
		name      string
	}
	var stack []level
	var dups []string
	var pendingKey string

	path := func(key string) string {
		var parts []string
		for _, l := range stack {
			if l.name != "" {
				parts = append(parts, l.name)
			}
		}
		return strings.Join(append(parts, key), ".")
	}
	// Called after a complete value has been consumed.
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].keys != nil {
			stack[n-1].expectKey = true
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, level{keys: make(map[string]bool), expectKey: true, name: pendingKey})
				pendingKey = ""
			case '[':
				stack = append(stack, level{name: pendingKey})
				pendingKey = ""
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}

		case string:
			if n := len(stack); n > 0 && stack[n-1].keys != nil && stack[n-1].expectKey {
				top := &stack[n-1]
				if top.keys[v] {
					dups = append(dups, path(v))
				}
				top.keys[v] = true
				top.expectKey = false
				pendingKey = v
				continue
			}
			pendingKey = ""
			valueDone()

		default:
			pendingKey = ""
			valueDone()
		}
	}

	return dups
}

// CheckJSON checks whether the provided JSON is syntactically valid and
// then typechecks it with respect to the provided type T, reporting
// object keys that T does not have a field for.
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSONBytes(contents, &items); err != nil {
		e.Error(err)
		return
	}

	var t T
	typeCheckJSON(items, reflect.TypeOf(t), e)
}

var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

func typeCheckJSON(v any, ty reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}

	// Types with their own unmarshalers get to decide for themselves.
	if reflect.PointerTo(ty).Implements(jsonUnmarshalerType) {
		return
	}

	switch ty.Kind() {
	case reflect.Array, reflect.Slice:
		if array, ok := v.([]any); ok {
			for i, item := range array {
				e.Push(fmt.Sprintf("[%d]", i))
				typeCheckJSON(item, ty.Elem(), e)
				e.Pop()
			}
		} else {
			e.ErrorString("expected an array, got %s", jsonTypeName(v))
		}

	case reflect.Map:
		if m, ok := v.(map[string]any); ok {
			for k, item := range m {
				e.Push(k)
				typeCheckJSON(item, ty.Elem(), e)
				e.Pop()
			}
		} else {
			e.ErrorString("expected an object, got %s", jsonTypeName(v))
		}

	case reflect.Struct:
		items, ok := v.(map[string]any)
		if !ok {
			e.ErrorString("expected an object, got %s", jsonTypeName(v))
			return
		}

		types := make(map[string]reflect.Type)
		for _, field := range reflect.VisibleFields(ty) {
			if jtag, ok := field.Tag.Lookup("json"); ok {
				name, _, _ := strings.Cut(jtag, ",")
				types[name] = field.Type
			}
		}

		for item, values := range items {
			if fty, ok := types[item]; ok {
				e.Push(item)
				typeCheckJSON(values, fty, e)
				e.Pop()
			} else {
				e.ErrorString("The entry %q is not an expected JSON object. Is it misspelled?", item)
			}
		}
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return reflect.TypeOf(v).String()
	}
}
