// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"reflect"
	"strings"
)

// ChangeSummary describes the result of comparing two AppConfigs.
type ChangeSummary struct {
	ChangedFields   []string // List of field paths that changed
	RestartRequired bool     // True if any changed field cannot be applied by rebuilding the handler
}

// restartFields are bound to listeners or exporters created once at startup.
var restartFields = map[string]struct{}{
	"ListenAddr":         {},
	"ShutdownTimeout":    {},
	"Metrics.Enabled":    {},
	"Metrics.ListenAddr": {},
	"Tracing.Enabled":    {},
	"Tracing.Exporter":   {},
	"Tracing.Endpoint":   {},
	"LogService":         {},
	"BaseDir":            {},
	"Version":            {},
}

// Diff compares two configurations field by field. Slice order matters:
// reordering middleware is a change.
func Diff(old, next AppConfig) ChangeSummary {
	summary := ChangeSummary{}
	summary.compareStruct("", reflect.ValueOf(old), reflect.ValueOf(next))
	return summary
}

func (s *ChangeSummary) compareStruct(prefix string, oldVal, nextVal reflect.Value) {
	t := oldVal.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		ov := oldVal.Field(i)
		nv := nextVal.Field(i)

		if ov.Kind() == reflect.Struct && !isSimpleStruct(ov.Type()) {
			s.compareStruct(fieldPath, ov, nv)
			continue
		}
		if !reflect.DeepEqual(normalizeValue(ov), normalizeValue(nv)) {
			s.recordChange(fieldPath)
		}
	}
}

func (s *ChangeSummary) recordChange(fieldPath string) {
	s.ChangedFields = append(s.ChangedFields, fieldPath)
	if _, ok := restartFields[fieldPath]; ok || strings.HasPrefix(fieldPath, "Tracing.") {
		s.RestartRequired = true
	}
}

// normalizeValue treats nil and empty string slices as equal.
func normalizeValue(v reflect.Value) any {
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String && v.Len() == 0 {
		return []string{}
	}
	return v.Interface()
}
