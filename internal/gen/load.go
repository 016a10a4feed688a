package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"maps"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/zoobzio/aspect"
)

const aspectPath = "github.com/zoobzio/aspect"

// Load type-checks the package in dir and describes the named interfaces.
func Load(dir string, names []string) (*File, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
		Dir: dir,
	}

	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("loading package: %w", err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("expected one package in %s, found %d", dir, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
	}

	return describe(pkg.Types, pkg.Syntax, names)
}

// describe builds the File for names declared in pkg.
func describe(pkg *types.Package, files []*ast.File, names []string) (*File, error) {
	imports := make(map[string]bool)
	q := func(p *types.Package) string {
		if p == pkg {
			return ""
		}
		imports[p.Path()] = true
		return p.Name()
	}

	f := &File{Package: pkg.Name()}
	var errs []error
	for _, name := range names {
		c, err := describeContract(pkg, files, strings.TrimSpace(name), q)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.Contracts = append(f.Contracts, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	delete(imports, "context")
	delete(imports, aspectPath)
	f.Imports = slices.Sorted(maps.Keys(imports))
	return f, nil
}

func describeContract(pkg *types.Package, files []*ast.File, name string, q types.Qualifier) (Contract, error) {
	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return Contract{}, fmt.Errorf("type %s not found in package %s", name, pkg.Name())
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return Contract{}, fmt.Errorf("%s: %w", name, aspect.ErrNotInterface)
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return Contract{}, fmt.Errorf("%s: %w", name, aspect.ErrNotInterface)
	}

	c := Contract{Name: name, Package: pkg.Name()}
	for i := range named.TypeParams().Len() {
		tp := named.TypeParams().At(i)
		c.TypeParams = append(c.TypeParams, TypeParam{
			Name:       tp.Obj().Name(),
			Constraint: types.TypeString(tp.Constraint(), q),
		})
	}

	decl := findInterface(files, name)
	passing := directives(decl)

	var errs []error
	for _, fn := range methodOrder(decl, iface) {
		m, err := describeMethod(fn, passing[fn.Name()], q)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", name, fn.Name(), err))
			continue
		}
		c.Methods = append(c.Methods, m)
	}
	return c, errors.Join(errs...)
}

func describeMethod(fn *types.Func, passing map[string]aspect.Passing, q types.Qualifier) (Method, error) {
	sig := fn.Type().(*types.Signature)
	m := Method{Name: fn.Name()}

	params := sig.Params()
	for i := range params.Len() {
		v := params.At(i)
		p := Param{Name: v.Name(), Type: types.TypeString(v.Type(), q)}
		last := sig.Variadic() && i == params.Len()-1
		if last {
			p.Type = "..." + types.TypeString(v.Type().(*types.Slice).Elem(), q)
		}
		if i == 0 && isNamed(v.Type(), "context", "Context") {
			p.Context = true
		}
		if mode, ok := passing[v.Name()]; ok {
			if _, ptr := v.Type().Underlying().(*types.Pointer); !ptr || last {
				return Method{}, fmt.Errorf("%w: %s %s on %s", aspect.ErrInvalidPassing, mode, v.Name(), p.Type)
			}
			p.Passing = mode
		}
		m.Params = append(m.Params, p)
	}
	for pname := range passing {
		if !slices.ContainsFunc(m.Params, func(p Param) bool { return p.Name == pname }) {
			return Method{}, fmt.Errorf("%w: no parameter named %s", aspect.ErrInvalidPassing, pname)
		}
	}

	results := sig.Results()
	n := results.Len()
	for i := range n {
		m.Results = append(m.Results, types.TypeString(results.At(i).Type(), q))
	}
	if n > 0 && isError(results.At(n-1).Type()) {
		m.Errors = true
		n--
	}

	switch n {
	case 0:
		m.Kind = aspect.Void
	case 1:
		t := results.At(0).Type()
		if kind, value, ok := completionOf(t, q); ok {
			if m.Errors {
				return Method{}, fmt.Errorf("%w: deferred members report errors through their completion", aspect.ErrUnsupportedShape)
			}
			m.Kind, m.Value = kind, value
		} else {
			m.Kind, m.Value = aspect.SyncResult, types.TypeString(t, q)
		}
	default:
		return Method{}, fmt.Errorf("%w: %d results", aspect.ErrUnsupportedShape, results.Len())
	}

	if m.Kind.Deferred() && m.hasRefs() {
		return Method{}, fmt.Errorf("%w: deferred members cannot pass by reference", aspect.ErrInvalidPassing)
	}
	return m, nil
}

// completionOf classifies *aspect.Future[T] and aspect.ValueFuture[T]
// results, including their Task aliases.
func completionOf(t types.Type, q types.Qualifier) (aspect.ReturnKind, string, bool) {
	ptr := false
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		ptr = true
		t = p.Elem()
	}
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != aspectPath || named.TypeArgs().Len() != 1 {
		return 0, "", false
	}

	arg := named.TypeArgs().At(0)
	void := types.Identical(arg, types.NewStruct(nil, nil))
	value := types.TypeString(arg, q)

	switch {
	case ptr && named.Obj().Name() == "Future":
		if void {
			return aspect.DeferredVoid, value, true
		}
		return aspect.DeferredResult, value, true
	case !ptr && named.Obj().Name() == "ValueFuture":
		if void {
			return aspect.ValueDeferredVoid, value, true
		}
		return aspect.ValueDeferredResult, value, true
	}
	return 0, "", false
}

func isNamed(t types.Type, pkg, name string) bool {
	named, ok := types.Unalias(t).(*types.Named)
	return ok && named.Obj().Pkg() != nil && named.Obj().Pkg().Path() == pkg && named.Obj().Name() == name
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func findInterface(files []*ast.File, name string) *ast.InterfaceType {
	for _, f := range files {
		for _, d := range f.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, s := range gd.Specs {
				ts, ok := s.(*ast.TypeSpec)
				if !ok || ts.Name.Name != name {
					continue
				}
				if it, ok := ts.Type.(*ast.InterfaceType); ok {
					return it
				}
			}
		}
	}
	return nil
}

// methodOrder lists the interface methods in declaration order. Methods
// promoted from embedded interfaces follow in method-set order.
func methodOrder(decl *ast.InterfaceType, iface *types.Interface) []*types.Func {
	byName := make(map[string]*types.Func, iface.NumMethods())
	for i := range iface.NumMethods() {
		fn := iface.Method(i)
		byName[fn.Name()] = fn
	}

	out := make([]*types.Func, 0, len(byName))
	if decl != nil {
		for _, field := range decl.Methods.List {
			for _, n := range field.Names {
				if fn, ok := byName[n.Name]; ok {
					out = append(out, fn)
					delete(byName, n.Name)
				}
			}
		}
	}
	for i := range iface.NumMethods() {
		if fn := iface.Method(i); byName[fn.Name()] != nil {
			out = append(out, fn)
		}
	}
	return out
}

// directives reads //aspect:ref and //aspect:out comments from method docs.
func directives(decl *ast.InterfaceType) map[string]map[string]aspect.Passing {
	out := make(map[string]map[string]aspect.Passing)
	if decl == nil {
		return out
	}
	for _, field := range decl.Methods.List {
		if field.Doc == nil || len(field.Names) == 0 {
			continue
		}
		for _, c := range field.Doc.List {
			var mode aspect.Passing
			text := strings.TrimPrefix(c.Text, "//")
			switch {
			case strings.HasPrefix(text, "aspect:ref "):
				mode = aspect.ByRef
			case strings.HasPrefix(text, "aspect:out "):
				mode = aspect.Out
			default:
				continue
			}
			_, params, _ := strings.Cut(text, " ")
			for _, n := range field.Names {
				if out[n.Name] == nil {
					out[n.Name] = make(map[string]aspect.Passing)
				}
				for _, p := range strings.Fields(params) {
					out[n.Name][p] = mode
				}
			}
		}
	}
	return out
}
