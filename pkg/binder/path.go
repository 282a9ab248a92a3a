package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path returns a binder copying URL parameters into string fields tagged
// `path:"name"`. extractor is usually chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a non-nil pointer to struct", ErrFailedToParsePath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			field := rt.Field(i)
			name := field.Tag.Get("path")
			if name == "" || name == "-" || !field.IsExported() {
				continue
			}
			if field.Type.Kind() != reflect.String {
				return fmt.Errorf("%w: field %s must be a string", ErrFailedToParsePath, field.Name)
			}
			rv.Field(i).SetString(extractor(r, name))
		}
		return nil
	}
}
