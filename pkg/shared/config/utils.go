package config

import (
	"reflect"
	"strings"
)

// GetBoolValue reads an optional boolean from cfg by a dot-separated field
// path such as "TLSClientConfig.Verify". Both *bool and bool fields are
// supported; a nil pointer, a nil cfg or an unknown field yields fallback.
func GetBoolValue(cfg interface{}, fieldPath string, fallback bool) bool {
	if cfg == nil {
		return fallback
	}

	v := reflect.ValueOf(cfg)
	for _, name := range strings.Split(fieldPath, ".") {
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return fallback
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return fallback
		}
		if v = v.FieldByName(name); !v.IsValid() {
			return fallback
		}
	}

	switch {
	case v.Kind() == reflect.Bool:
		return v.Bool()
	case v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Kind() == reflect.Bool:
		return v.Elem().Bool()
	}
	return fallback
}

// SetThen returns value unless it is the zero value of T, then fallback.
func SetThen[T any](value T, fallback T) T {
	if reflect.ValueOf(&value).Elem().IsZero() {
		return fallback
	}
	return value
}
