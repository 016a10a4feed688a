package aspect

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

// FromDig adapts a dig container to Resolver.
//
// Each resolve invokes the container with a parameter object holding one
// optional field of the requested type, so types the container does not
// provide report ErrUnresolvable instead of a dig error. Zero values are
// treated as missing.
func FromDig(c *dig.Container) Resolver {
	inType := reflect.TypeFor[dig.In]()
	return ResolverFunc(func(t reflect.Type) (any, error) {
		param := reflect.StructOf([]reflect.StructField{
			{Name: "In", Type: inType, Anonymous: true},
			{Name: "Value", Type: t, Tag: `optional:"true"`},
		})
		var out reflect.Value
		fn := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{param}, nil, false), func(args []reflect.Value) []reflect.Value {
			out = args[0].Field(1)
			return nil
		})
		if err := c.Invoke(fn.Interface()); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", t, err)
		}
		if !out.IsValid() || out.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvable, t)
		}
		return out.Interface(), nil
	})
}
