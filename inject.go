package aspect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("aspect")
}

// injectionPoint is a field filled from the resolver when an
// implementation is constructed without a registered constructor.
type injectionPoint struct {
	name     string
	index    []int
	typ      reflect.Type
	optional bool
}

var (
	injectionPlans   = make(map[reflect.Type][]injectionPoint)
	injectionPlansMu sync.RWMutex
)

// construct builds an implementation instance. The resolver is asked first;
// if it cannot produce impl, a zero value is allocated and its fields tagged
// `aspect:"inject"` are resolved.
func construct(impl reflect.Type, r Resolver) (any, error) {
	if r != nil {
		v, err := r.Resolve(impl)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrUnresolvable) {
			return nil, err
		}
	}

	switch {
	case impl.Kind() == reflect.Pointer && impl.Elem().Kind() == reflect.Struct:
		v := reflect.New(impl.Elem())
		if err := inject(v.Elem(), r); err != nil {
			return nil, err
		}
		return v.Interface(), nil
	case impl.Kind() == reflect.Struct:
		v := reflect.New(impl).Elem()
		if err := inject(v, r); err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %s has no constructor", ErrUnresolvable, impl)
}

// inject resolves every injection point of the struct value v.
func inject(v reflect.Value, r Resolver) error {
	for _, p := range getInjectionPlan(v.Type()) {
		if r == nil {
			if p.optional {
				continue
			}
			return fmt.Errorf("%w: %s.%s (no resolver)", ErrUnresolvable, v.Type(), p.name)
		}
		dep, err := r.Resolve(p.typ)
		if err != nil {
			if p.optional && errors.Is(err, ErrUnresolvable) {
				continue
			}
			return fmt.Errorf("inject %s.%s: %w", v.Type(), p.name, err)
		}
		dv := reflect.ValueOf(dep)
		if !dv.IsValid() {
			continue
		}
		if !dv.Type().AssignableTo(p.typ) {
			return fmt.Errorf("%w: resolver returned %s for %s.%s", ErrUnresolvable, dv.Type(), v.Type(), p.name)
		}
		if fv := v.FieldByIndex(p.index); fv.CanSet() {
			fv.Set(dv)
		}
	}
	return nil
}

// inspectImplementation records the injection plan of I from sentinel
// metadata. Implementations that are not structs are never constructed by
// field injection and are skipped.
func inspectImplementation[I any]() {
	rt := reflect.TypeFor[I]()
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return
	}

	meta, err := sentinel.TryInspect[I]()
	if err != nil {
		return
	}
	// sentinel keys its cache by bare type name; metadata of a same-named
	// type from another package is not ours.
	if meta.TypeName != rt.Name() || meta.PackageName != rt.PkgPath() {
		return
	}

	plan := make([]injectionPoint, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		if p, ok := injectionPointOf(f.Name, f.Index, f.ReflectType, f.Tags["aspect"]); ok {
			plan = append(plan, p)
		}
	}

	injectionPlansMu.Lock()
	injectionPlans[rt] = plan
	injectionPlansMu.Unlock()
}

func getInjectionPlan(rt reflect.Type) []injectionPoint {
	// Fast path
	injectionPlansMu.RLock()
	plan, ok := injectionPlans[rt]
	injectionPlansMu.RUnlock()
	if ok {
		return plan
	}

	injectionPlansMu.Lock()
	defer injectionPlansMu.Unlock()
	if plan, ok := injectionPlans[rt]; ok {
		return plan
	}

	// Dispatchers only know the implementation as a reflect.Type.
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if p, ok := injectionPointOf(sf.Name, sf.Index, sf.Type, sf.Tag.Get("aspect")); ok {
			plan = append(plan, p)
		}
	}
	injectionPlans[rt] = plan
	return plan
}

// injectionPointOf parses an `aspect:"inject[,optional]"` tag.
func injectionPointOf(name string, index []int, typ reflect.Type, tag string) (injectionPoint, bool) {
	opts := strings.Split(tag, ",")
	if opts[0] != "inject" {
		return injectionPoint{}, false
	}
	p := injectionPoint{name: name, index: index, typ: typ}
	for _, o := range opts[1:] {
		if o == "optional" {
			p.optional = true
		}
	}
	return p, true
}
