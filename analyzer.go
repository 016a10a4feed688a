package aspect

import (
	"errors"
	"fmt"
	"reflect"
)

// Analyze maps every member of contract to its implementation on impl.
//
// The contract must be an interface. Every contract member must exist on
// impl with an identical signature; all missing or mismatched members are
// reported together. When shape is non-nil it supplies parameter names,
// ByRef and Out declarations, and the type parameters of a generic contract;
// a shape with members must describe exactly the contract's members.
func Analyze(contract, impl reflect.Type, shape *Shape) (*MemberTable, error) {
	return analyze(contract, impl, shape, nil)
}

// passingOverrides maps member name to parameter index to mode.
type passingOverrides map[string]map[int]Passing

func analyze(contract, impl reflect.Type, shape *Shape, overrides passingOverrides) (*MemberTable, error) {
	if contract == nil || contract.Kind() != reflect.Interface {
		return nil, newConfigError(ErrNotInterface, contract, "", "")
	}
	if impl == nil {
		return nil, newConfigError(ErrMissingMember, contract, "", "no implementation type")
	}

	table := &MemberTable{
		Contract: contract,
		Impl:     impl,
		Members:  make([]*Member, 0, contract.NumMethod()),
		byName:   make(map[string]*Member, contract.NumMethod()),
	}

	var binder *typeBinder
	if shape != nil && len(shape.TypeParams) > 0 {
		binder = newTypeBinder(shape.TypeParams)
	}
	declared := shape != nil && len(shape.Members) > 0

	var errs []error
	for i := 0; i < contract.NumMethod(); i++ {
		cm := contract.Method(i)
		if !cm.IsExported() {
			errs = append(errs, newConfigError(ErrUnsupportedShape, contract, cm.Name, "unexported member"))
			continue
		}

		im, ok := impl.MethodByName(cm.Name)
		if !ok {
			errs = append(errs, newConfigError(ErrMissingMember, contract, cm.Name,
				fmt.Sprintf("%s has no method %s", typeName(impl), cm.Name)))
			continue
		}
		if got := methodType(impl, im); got != cm.Type {
			errs = append(errs, newConfigError(ErrSignatureMismatch, contract, cm.Name,
				fmt.Sprintf("have %s, want %s", got, cm.Type)))
			continue
		}

		var sig *Signature
		if declared {
			sig, ok = shape.signature(cm.Name)
			if !ok {
				errs = append(errs, newConfigError(ErrShapeMismatch, contract, cm.Name, "member not in generated wrapper"))
				continue
			}
		}

		m, err := analyzeMember(contract, i, cm, im, sig, overrides[cm.Name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if binder != nil && sig != nil {
			generic, err := binder.bindSignature(m, sig)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			m.Generic = generic
		}

		table.Members = append(table.Members, m)
		table.byName[m.Name] = m
	}

	if declared {
		for _, s := range shape.Members {
			if _, ok := contract.MethodByName(s.Name); !ok {
				errs = append(errs, newConfigError(ErrShapeMismatch, contract, s.Name, "wrapper member not in contract"))
			}
		}
	}

	if binder != nil && len(errs) == 0 {
		if err := binder.checkContract(contract); err != nil {
			errs = append(errs, err)
		}
		table.TypeArgs = binder.bound
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// methodType returns the type of im without its receiver.
func methodType(impl reflect.Type, im reflect.Method) reflect.Type {
	if impl.Kind() == reflect.Interface {
		return im.Type
	}
	ft := im.Type
	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		out = append(out, ft.Out(i))
	}
	return reflect.FuncOf(in, out, ft.IsVariadic())
}

func analyzeMember(contract reflect.Type, index int, cm, im reflect.Method, sig *Signature, overrides map[int]Passing) (*Member, error) {
	ft := cm.Type
	m := &Member{
		Contract: contract,
		Name:     cm.Name,
		Index:    index,
		Type:     ft,
		Impl:     im,
		Params:   make([]Parameter, ft.NumIn()),
		Context:  -1,
		Variadic: ft.IsVariadic(),
	}

	if sig != nil && (len(sig.Params) != ft.NumIn() || len(sig.Results) != ft.NumOut()) {
		return nil, newConfigError(ErrShapeMismatch, contract, cm.Name,
			fmt.Sprintf("wrapper declares %d params and %d results, contract has %d and %d",
				len(sig.Params), len(sig.Results), ft.NumIn(), ft.NumOut()))
	}

	for i := 0; i < ft.NumIn(); i++ {
		p := Parameter{Name: fmt.Sprintf("arg%d", i), Type: ft.In(i)}
		if sig != nil {
			if sig.Params[i].Name != "" {
				p.Name = sig.Params[i].Name
			}
			p.Passing = sig.Params[i].Passing
		}
		if mode, ok := overrides[i]; ok {
			p.Passing = mode
		}
		if p.Passing != ByValue {
			if p.Type.Kind() != reflect.Pointer || (m.Variadic && i == ft.NumIn()-1) {
				return nil, newConfigError(ErrInvalidPassing, contract, cm.Name,
					fmt.Sprintf("parameter %s is %s, %s passing needs a pointer", p.Name, p.Type, p.Passing))
			}
			m.ByRef = true
		}
		if i == 0 && p.Type == contextType {
			m.Context = 0
		}
		m.Params[i] = p
	}

	outs := ft.NumOut()
	if outs > 0 && ft.Out(outs-1) == errorType {
		m.Errors = true
		outs--
	}
	switch outs {
	case 0:
		m.Kind = Void
	case 1:
		rt := ft.Out(0)
		c, ok := completionOf(rt)
		if !ok {
			m.Kind = SyncResult
			m.Result = rt
			break
		}
		vt := c.valueType()
		switch {
		case c.lightweight() && vt == emptyType:
			m.Kind = ValueDeferredVoid
		case c.lightweight():
			m.Kind = ValueDeferredResult
		case vt == emptyType:
			m.Kind = DeferredVoid
		default:
			m.Kind = DeferredResult
		}
		if vt != emptyType {
			m.Result = vt
		}
		if m.Errors {
			return nil, newConfigError(ErrUnsupportedShape, contract, cm.Name,
				"deferred members report errors through their completion")
		}
	default:
		return nil, newConfigError(ErrUnsupportedShape, contract, cm.Name,
			fmt.Sprintf("%d results; at most one value and an error are supported", ft.NumOut()))
	}

	if m.Kind.Deferred() && m.ByRef {
		return nil, newConfigError(ErrInvalidPassing, contract, cm.Name,
			"deferred members cannot write back ref or out parameters")
	}
	return m, nil
}
