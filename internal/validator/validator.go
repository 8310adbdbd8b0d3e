package validator

import (
	"fmt"
	"reflect"
)

// Validate fails when any constructor dependency is nil or zero-valued.
func Validate(name string, deps ...any) error {
	for _, dep := range deps {
		if dep == nil {
			return fmt.Errorf("missing required deps for component: %s", name)
		}

		v := reflect.ValueOf(dep)
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if v.IsNil() {
				return fmt.Errorf("missing required deps for component: %s", name)
			}
		default:
			if v.IsZero() {
				return fmt.Errorf("missing required deps for component: %s", name)
			}
		}
	}

	return nil
}
