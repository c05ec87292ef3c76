// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"strings"
)

// sensitiveKeywords contains keywords that indicate sensitive fields.
// Any field name containing these keywords (case-insensitive) will be masked.
var sensitiveKeywords = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"credential",
}

// MaskSecrets recursively masks sensitive fields in the given data structure.
// Structs become maps keyed by field name; sensitive non-empty strings become "***".
func MaskSecrets(data any) any {
	if data == nil {
		return nil
	}

	val := reflect.ValueOf(data)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		result := make(map[string]any)
		iter := val.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			result[key] = maskField(key, iter.Value())
		}
		return result

	case reflect.Slice, reflect.Array:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = MaskSecrets(val.Index(i).Interface())
		}
		return result

	case reflect.Struct:
		if isSimpleStruct(val.Type()) {
			return val.Interface()
		}
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			result[field.Name] = maskField(field.Name, val.Field(i))
		}
		return result

	default:
		return val.Interface()
	}
}

func maskField(name string, v reflect.Value) any {
	if isSensitiveKey(name) {
		if v.Kind() == reflect.String && v.Len() == 0 {
			return ""
		}
		return "***"
	}
	return MaskSecrets(v.Interface())
}

// isSensitiveKey checks if a key name contains any sensitive keyword.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
