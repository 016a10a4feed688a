package gen

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/zoobzio/aspect"
)

func calculatorModel() *File {
	return &File{
		Package: "fixtures",
		Contracts: []Contract{{
			Name:    "Calculator",
			Package: "fixtures",
			Methods: []Method{
				{Name: "Add", Params: []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, Results: []string{"int"}, Kind: aspect.SyncResult, Value: "int"},
				{Name: "Divide", Params: []Param{{Name: "ctx", Type: "context.Context", Context: true}, {Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, Results: []string{"int", "error"}, Kind: aspect.SyncResult, Value: "int", Errors: true},
				{Name: "Exchange", Params: []Param{{Name: "x", Type: "*int", Passing: aspect.ByRef}, {Name: "y", Type: "*int", Passing: aspect.Out}}, Kind: aspect.Void},
				{Name: "Reset", Kind: aspect.Void},
				{Name: "Fail", Params: []Param{{Name: "reason", Type: "string"}}, Results: []string{"error"}, Kind: aspect.Void, Errors: true},
				{Name: "Sum", Params: []Param{{Name: "ctx", Type: "context.Context", Context: true}, {Name: "values", Type: "...int"}}, Results: []string{"*aspect.Future[int]"}, Kind: aspect.DeferredResult, Value: "int"},
				{Name: "Flush", Params: []Param{{Name: "ctx", Type: "context.Context", Context: true}}, Results: []string{"*aspect.Task"}, Kind: aspect.DeferredVoid, Value: "struct{}"},
				{Name: "Peek", Results: []string{"aspect.ValueFuture[int]"}, Kind: aspect.ValueDeferredResult, Value: "int"},
				{Name: "Ping", Results: []string{"aspect.ValueTask"}, Kind: aspect.ValueDeferredVoid, Value: "struct{}"},
			},
		}},
	}
}

func repositoryModel() *File {
	return &File{
		Package: "fixtures",
		Contracts: []Contract{{
			Name:       "Repository",
			Package:    "fixtures",
			TypeParams: []TypeParam{{Name: "T", Constraint: "any"}},
			Methods: []Method{
				{Name: "Get", Params: []Param{{Name: "ctx", Type: "context.Context", Context: true}, {Name: "id", Type: "string"}}, Results: []string{"T", "error"}, Kind: aspect.SyncResult, Value: "T", Errors: true},
				{Name: "All", Results: []string{"[]T"}, Kind: aspect.SyncResult, Value: "[]T"},
			},
		}},
	}
}

func generate(t *testing.T, f *File) string {
	t.Helper()
	src, err := Generate(f)
	if err != nil {
		t.Fatalf("Generate() error: %v\n%s", err, src)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "aspect_gen.go", src, 0); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return string(src)
}

func assertContains(t *testing.T, src string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(src, w) {
			t.Errorf("generated code missing %q", w)
		}
	}
}

func TestGenerate_Calculator(t *testing.T) {
	src := generate(t, calculatorModel())

	assertContains(t, src,
		"// Code generated by aspectgen. DO NOT EDIT.",
		"var CalculatorWrapper = aspect.Wrapper[Calculator]{",
		`Contract: "fixtures.Calculator",`,
		`{Name: "x", Type: "*int", Passing: aspect.ByRef}`,
		`{Name: "y", Type: "*int", Passing: aspect.Out}`,
		`{Name: "Reset"},`,
		"aspect.Register(CalculatorWrapper)",
		"handles [9]*aspect.Handle",
		`p.Handle("Ping"),`,
	)
}

func TestGenerate_MemberKinds(t *testing.T) {
	src := generate(t, calculatorModel())

	assertContains(t, src,
		// sync with and without error
		"func (p *calculatorProxy) Add(arg0 int, arg1 int) int {",
		"h.MustRun(inv, rec)",
		"return aspect.Result[int](inv)",
		"err := h.Run(inv, rec)",
		"return aspect.Result[int](inv), err",
		"arg0, arg1, arg2 := inv.Context(), r.arg1, r.arg2",
		"ret, err := r.target.Divide(arg0, arg1, arg2)",
		// void with error
		"return r.target.Fail(arg0)",
		// ref and out
		"inv.Capture(aspect.Deref(arg0), aspect.Deref(arg1))",
		"aspect.Assign(arg1, aspect.Arg[int](inv, 1))",
		"ref0 := aspect.Arg[int](inv, 0)",
		"args[1] = *arg1",
		// deferred
		"func (p *calculatorProxy) Sum(arg0 context.Context, arg1 ...int) *aspect.Future[int] {",
		"return p.target.Sum(arg0, arg1...)",
		"arg1 = aspect.Arg[[]int](inv, 1)",
		"return aspect.Async[int](h, inv, rec)",
		"return aspect.Async[struct{}](h, inv, rec)",
		"return aspect.AsyncValue[struct{}](h, inv, rec)",
		"return aspect.AwaitValue(inv, r.target.Peek())",
		"return aspect.Await(inv, r.target.Flush(arg0))",
		// context-free members start from a background context
		"inv := h.Begin(context.Background())",
	)
}

func TestGenerate_Generic(t *testing.T) {
	src := generate(t, repositoryModel())

	assertContains(t, src,
		"func RepositoryWrapper[T any]() aspect.Wrapper[Repository[T]] {",
		`TypeParams: []string{"T"},`,
		"newRepositoryProxy[T],",
		"type repositoryProxy[T any] struct {",
		"func (p *repositoryProxy[T]) Get(arg0 context.Context, arg1 string) (T, error) {",
		"rec := &repositoryGetRecord[T]{target: p.target}",
		"func (r *repositoryAllRecord[T]) Invoke(inv *aspect.Invocation) error {",
		"return aspect.Result[[]T](inv)",
	)
	if strings.Contains(src, "aspect.Register(") {
		t.Error("generic wrappers are constructed per instantiation, not registered")
	}
}

func TestGenerate_Imports(t *testing.T) {
	f := calculatorModel()
	f.Imports = []string{"time"}
	f.Contracts[0].Methods = append(f.Contracts[0].Methods, Method{
		Name: "Sleep", Params: []Param{{Name: "d", Type: "time.Duration"}}, Kind: aspect.Void,
	})

	src := generate(t, f)
	assertContains(t, src, `"time"`, "handles [10]*aspect.Handle")
}

// check type-checks src, which must not import anything.
func check(t *testing.T, src string) (*types.Package, []*ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "contract.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	pkg, err := (&types.Config{}).Check("example.com/store", fset, []*ast.File{file}, nil)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	return pkg, []*ast.File{file}
}

func TestDescribe(t *testing.T) {
	pkg, files := check(t, `package store

type Store interface {
	// Swap exchanges the stored value with *v.
	//
	//aspect:ref v
	Swap(v *int)

	Get(key string) (string, error)
	Keys(prefix string, extra ...string) []string
	Close() error
}
`)

	f, err := describe(pkg, files, []string{"Store"})
	if err != nil {
		t.Fatalf("describe() error: %v", err)
	}
	if f.Package != "store" || len(f.Contracts) != 1 {
		t.Fatalf("describe() = %+v", f)
	}

	c := f.Contracts[0]
	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "Swap,Get,Keys,Close" {
		t.Errorf("methods = %v, want declaration order", names)
	}

	swap := c.Methods[0]
	if swap.Params[0].Passing != aspect.ByRef || swap.Kind != aspect.Void {
		t.Errorf("Swap = %+v", swap)
	}
	get := c.Methods[1]
	if get.Kind != aspect.SyncResult || !get.Errors || get.Value != "string" {
		t.Errorf("Get = %+v", get)
	}
	keys := c.Methods[2]
	if keys.Params[1].Type != "...string" || keys.Value != "[]string" {
		t.Errorf("Keys = %+v", keys)
	}
	closer := c.Methods[3]
	if closer.Kind != aspect.Void || !closer.Errors {
		t.Errorf("Close = %+v", closer)
	}

	generate(t, f)
}

func TestDescribe_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "ref on value",
			src: `package store
type Store interface {
	//aspect:ref v
	Set(v int)
}`,
			want: aspect.ErrInvalidPassing,
		},
		{
			name: "ref on variadic",
			src: `package store
type Store interface {
	//aspect:out v
	Set(v ...*int)
}`,
			want: aspect.ErrInvalidPassing,
		},
		{
			name: "unknown parameter",
			src: `package store
type Store interface {
	//aspect:ref missing
	Set(v *int)
}`,
			want: aspect.ErrInvalidPassing,
		},
		{
			name: "multiple results",
			src: `package store
type Store interface {
	Pair() (int, int)
}`,
			want: aspect.ErrUnsupportedShape,
		},
		{
			name: "not an interface",
			src: `package store
type Store struct{}`,
			want: aspect.ErrNotInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, files := check(t, tt.src)
			_, err := describe(pkg, files, []string{"Store"})
			if !errors.Is(err, tt.want) {
				t.Errorf("describe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDescribe_UnknownType(t *testing.T) {
	pkg, files := check(t, "package store\n")
	if _, err := describe(pkg, files, []string{"Missing"}); err == nil {
		t.Error("describe() should fail for an undeclared type")
	}
}

func TestLoad_Fixtures(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}

	f, err := Load("../fixtures", []string{"Calculator", "Repository"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(f.Contracts) != 2 {
		t.Fatalf("got %d contracts", len(f.Contracts))
	}

	calc := f.Contracts[0]
	kinds := map[string]aspect.ReturnKind{}
	for _, m := range calc.Methods {
		kinds[m.Name] = m.Kind
	}
	want := map[string]aspect.ReturnKind{
		"Add":      aspect.SyncResult,
		"Divide":   aspect.SyncResult,
		"Exchange": aspect.Void,
		"Reset":    aspect.Void,
		"Fail":     aspect.Void,
		"Sum":      aspect.DeferredResult,
		"Flush":    aspect.DeferredVoid,
		"Peek":     aspect.ValueDeferredResult,
		"Ping":     aspect.ValueDeferredVoid,
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Errorf("%s kind = %v, want %v", name, kinds[name], kind)
		}
	}
	if calc.Methods[2].Params[0].Passing != aspect.ByRef || calc.Methods[2].Params[1].Passing != aspect.Out {
		t.Errorf("Exchange params = %+v", calc.Methods[2].Params)
	}

	repo := f.Contracts[1]
	if len(repo.TypeParams) != 1 || repo.TypeParams[0].Name != "T" {
		t.Errorf("Repository type params = %+v", repo.TypeParams)
	}

	generate(t, f)
}

func TestLoad_TrailingContext(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}

	f, err := Load("../fixtures", []string{"Directory"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	find := f.Contracts[0].Methods[0]
	if find.Params[1].Type != "context.Context" || find.Params[1].Context {
		t.Errorf("Find ctx param = %+v, only a leading context is the invocation context", find.Params[1])
	}

	src := generate(t, f)
	assertContains(t, src,
		"inv := h.Begin(context.Background())",
		"rec.arg0, rec.arg1 = arg0, arg1",
		"arg1 = aspect.Arg[context.Context](inv, 1)",
	)
	if strings.Contains(src, "inv.Context(), ") || strings.Contains(src, ":= r.arg0, inv.Context()") {
		t.Error("a trailing context must be read from the record, not the invocation")
	}
}
