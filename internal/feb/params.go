package feb

import (
	"fmt"
	"reflect"
	"strconv"
)

// addParams writes every field of the settings struct v that carries a feb
// tag as a child of parent, in field order. override replaces the element
// for a tag name, for parameters that need attributes.
func addParams(parent *Element, v any, override map[string]*Element) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("feb")
		if name == "" {
			continue
		}
		if e, ok := override[name]; ok {
			parent.Children = append(parent.Children, e)
			continue
		}
		parent.AddText(name, formatValue(rv.Field(i)))
	}
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float64:
		return formatFloat(v.Float())
	case reflect.Int:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.String:
		return v.String()
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	default:
		panic(fmt.Sprintf("feb: unsupported parameter kind %s", v.Kind()))
	}
}
