package aspect

import (
	"fmt"
	"go/ast"
	"go/parser"
	"reflect"
	"strings"
)

// typeBinder matches the declared type expressions of a generic contract
// against the instantiated reflect types and records what each type
// parameter was bound to.
type typeBinder struct {
	params []string
	known  map[string]bool
	bound  map[string]reflect.Type
}

func newTypeBinder(params []string) *typeBinder {
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p] = true
	}
	return &typeBinder{params: params, known: known, bound: make(map[string]reflect.Type, len(params))}
}

// bindSignature binds every parameter and result of m against sig.
// It reports whether the signature mentions a type parameter.
func (b *typeBinder) bindSignature(m *Member, sig *Signature) (bool, error) {
	generic := false
	for i, p := range sig.Params {
		t := m.Type.In(i)
		typ := p.Type
		if m.Variadic && i == len(sig.Params)-1 {
			typ = "[]" + strings.TrimPrefix(typ, "...")
		}
		g, err := b.bindExpr(typ, t)
		if err != nil {
			return false, newConfigError(ErrTypeParamMismatch, m.Contract, m.Name, fmt.Sprintf("parameter %s: %v", p.Name, err))
		}
		generic = generic || g
	}
	for i, r := range sig.Results {
		g, err := b.bindExpr(r, m.Type.Out(i))
		if err != nil {
			return false, newConfigError(ErrTypeParamMismatch, m.Contract, m.Name, fmt.Sprintf("result %d: %v", i, err))
		}
		generic = generic || g
	}
	return generic, nil
}

func (b *typeBinder) bindExpr(expr string, t reflect.Type) (bool, error) {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", expr, err)
	}
	return b.match(e, t)
}

// match walks e alongside t. Subexpressions that cannot be decomposed are
// accepted as they are; the reflect signature check already proved the
// instantiated types identical.
func (b *typeBinder) match(e ast.Expr, t reflect.Type) (bool, error) {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return b.match(x.X, t)

	case *ast.Ident:
		if !b.known[x.Name] {
			return false, nil
		}
		if prev, ok := b.bound[x.Name]; ok && prev != t {
			return true, fmt.Errorf("%s bound to both %s and %s", x.Name, prev, t)
		}
		b.bound[x.Name] = t
		return true, nil

	case *ast.StarExpr:
		if t.Kind() != reflect.Pointer {
			return b.kindMismatch(x, t, "pointer")
		}
		return b.match(x.X, t.Elem())

	case *ast.ArrayType:
		if x.Len == nil {
			if t.Kind() != reflect.Slice {
				return b.kindMismatch(x, t, "slice")
			}
		} else if t.Kind() != reflect.Array {
			return b.kindMismatch(x, t, "array")
		}
		return b.match(x.Elt, t.Elem())

	case *ast.MapType:
		if t.Kind() != reflect.Map {
			return b.kindMismatch(x, t, "map")
		}
		gk, err := b.match(x.Key, t.Key())
		if err != nil {
			return gk, err
		}
		gv, err := b.match(x.Value, t.Elem())
		return gk || gv, err

	case *ast.ChanType:
		if t.Kind() != reflect.Chan {
			return b.kindMismatch(x, t, "channel")
		}
		return b.match(x.Value, t.Elem())

	case *ast.FuncType:
		if t.Kind() != reflect.Func {
			return b.kindMismatch(x, t, "func")
		}
		return b.matchFunc(x, t)

	case *ast.IndexExpr:
		// Only the completion types are decomposed; other instantiated
		// types are opaque.
		c, ok := completionOf(t)
		if !ok {
			c, ok = completionOf(reflect.PointerTo(t))
		}
		if ok {
			return b.match(x.Index, c.valueType())
		}
		return b.mentions(x), nil
	}
	return b.mentions(e), nil
}

func (b *typeBinder) matchFunc(x *ast.FuncType, t reflect.Type) (bool, error) {
	generic := false
	pos := 0
	for _, f := range fieldTypes(x.Params) {
		if pos >= t.NumIn() {
			return generic, nil
		}
		ft := f
		if el, ok := f.(*ast.Ellipsis); ok {
			ft = &ast.ArrayType{Elt: el.Elt}
		}
		g, err := b.match(ft, t.In(pos))
		if err != nil {
			return true, err
		}
		generic = generic || g
		pos++
	}
	pos = 0
	for _, f := range fieldTypes(x.Results) {
		if pos >= t.NumOut() {
			break
		}
		g, err := b.match(f, t.Out(pos))
		if err != nil {
			return true, err
		}
		generic = generic || g
		pos++
	}
	return generic, nil
}

// fieldTypes expands a field list so each parameter has its own entry.
func fieldTypes(fl *ast.FieldList) []ast.Expr {
	if fl == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, f.Type)
		}
	}
	return out
}

func (b *typeBinder) kindMismatch(e ast.Expr, t reflect.Type, want string) (bool, error) {
	if !b.mentions(e) {
		return false, nil
	}
	return true, fmt.Errorf("declared %s, instantiated as %s", want, t)
}

// mentions reports whether e refers to any type parameter.
func (b *typeBinder) mentions(e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && b.known[id.Name] {
			found = true
		}
		return !found
	})
	return found
}

// checkContract verifies the contract was instantiated with as many type
// arguments as the wrapper declares and that every bound argument appears
// in the instantiation.
func (b *typeBinder) checkContract(contract reflect.Type) error {
	args := typeArgs(contract)
	if len(args) != len(b.params) {
		return newConfigError(ErrTypeParamMismatch, contract, "",
			fmt.Sprintf("wrapper declares %d type parameters, contract has %d", len(b.params), len(args)))
	}
	for i, p := range b.params {
		t, ok := b.bound[p]
		if !ok {
			continue
		}
		if shortTypeName(args[i]) != shortTypeName(t.String()) {
			return newConfigError(ErrTypeParamMismatch, contract, "",
				fmt.Sprintf("%s resolved to %s, contract instantiated with %s", p, t, args[i]))
		}
	}
	return nil
}

// typeArgs extracts the type arguments from an instantiated type's name.
func typeArgs(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	name := t.Name()
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return nil
	}
	inner := name[open+1 : len(name)-1]

	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(inner[start:]))
}

// shortTypeName drops import paths from qualified names, so
// "map[string]example.com/x/store.User" becomes "map[string]store.User".
func shortTypeName(s string) string {
	var b strings.Builder
	seg := 0
	for _, r := range s {
		switch {
		case r == '/':
			kept := b.String()[:seg]
			b.Reset()
			b.WriteString(kept)
			continue
		case strings.ContainsRune("[]*(),{} ;", r):
			b.WriteRune(r)
			seg = b.Len()
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
