package gen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"

	"github.com/zoobzio/aspect"
)

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by aspectgen. DO NOT EDIT.

package {{.Package}}

import (
	"context"
{{range .Imports}}
	"{{.}}"
{{- end}}

	"github.com/zoobzio/aspect"
)
{{range .Contracts}}
{{- $c := .}}
{{- if .Generic}}
// {{.Name}}Wrapper synthesizes intercepting proxies for {{.Name}}{{.TypeArgs}}.
func {{.Name}}Wrapper{{.TypeParamDecl}}() aspect.Wrapper[{{.Name}}{{.TypeArgs}}] {
	return aspect.Wrapper[{{.Name}}{{.TypeArgs}}]{
		Shape: {{.Shape}},
		New: new{{.Name}}Proxy{{.TypeArgs}},
	}
}
{{- else}}
// {{.Name}}Wrapper synthesizes intercepting proxies for {{.Name}}.
var {{.Name}}Wrapper = aspect.Wrapper[{{.Name}}]{
	Shape: {{.Shape}},
	New: new{{.Name}}Proxy,
}

func init() {
	aspect.Register({{.Name}}Wrapper)
}
{{- end}}

type {{.ProxyName}}{{.TypeParamDecl}} struct {
	target {{.Name}}{{.TypeArgs}}
	handles [{{len .Methods}}]*aspect.Handle
}

func new{{.Name}}Proxy{{.TypeParamDecl}}(target {{.Name}}{{.TypeArgs}}, p *aspect.Proxy) {{.Name}}{{.TypeArgs}} {
	return &{{.ProxyName}}{{.TypeArgs}}{
		target: target,
		handles: [{{len .Methods}}]*aspect.Handle{
{{- range .Methods}}
			p.Handle({{printf "%q" .Name}}),
{{- end}}
		},
	}
}
{{range $i, $_ := .Methods}}
{{$c.Member $i}}
{{- end}}
{{- end}}
`))

// Generate renders f and formats the result. On a formatting failure the
// unformatted source is returned with the error.
func Generate(f *File) ([]byte, error) {
	view := struct {
		*File
		Contracts []contractView
	}{File: f}
	for _, c := range f.Contracts {
		view.Contracts = append(view.Contracts, contractView{c})
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", f.Package, err)
	}

	src, err := imports.Process("aspect_gen.go", buf.Bytes(), nil)
	if err != nil {
		return buf.Bytes(), fmt.Errorf("formatting generated code: %w", err)
	}
	return src, nil
}

type contractView struct {
	Contract
}

func (c contractView) Generic() bool {
	return len(c.TypeParams) > 0
}

// TypeArgs instantiates the contract with its own parameters: "[K, V]".
func (c contractView) TypeArgs() string {
	if !c.Generic() {
		return ""
	}
	names := make([]string, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		names[i] = tp.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// TypeParamDecl declares the contract's parameters: "[K comparable, V any]".
func (c contractView) TypeParamDecl() string {
	if !c.Generic() {
		return ""
	}
	decls := make([]string, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		decls[i] = tp.Name + " " + tp.Constraint
	}
	return "[" + strings.Join(decls, ", ") + "]"
}

func (c contractView) ProxyName() string {
	return lowerFirst(c.Name) + "Proxy"
}

// Shape renders the aspect.Shape literal.
func (c contractView) Shape() string {
	var b strings.Builder
	b.WriteString("aspect.Shape{\n")
	fmt.Fprintf(&b, "Contract: %q,\n", c.Package+"."+c.Name)
	if c.Generic() {
		names := make([]string, len(c.TypeParams))
		for i, tp := range c.TypeParams {
			names[i] = strconv.Quote(tp.Name)
		}
		fmt.Fprintf(&b, "TypeParams: []string{%s},\n", strings.Join(names, ", "))
	}
	b.WriteString("Members: []aspect.Signature{\n")
	for _, m := range c.Methods {
		b.WriteString(signature(m))
		b.WriteString(",\n")
	}
	b.WriteString("},\n}")
	return b.String()
}

func signature(m Method) string {
	parts := []string{"Name: " + strconv.Quote(m.Name)}
	if len(m.Params) > 0 {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			fields := []string{}
			if p.Name != "" && p.Name != "_" {
				fields = append(fields, "Name: "+strconv.Quote(p.Name))
			}
			fields = append(fields, "Type: "+strconv.Quote(p.Type))
			switch p.Passing {
			case aspect.ByRef:
				fields = append(fields, "Passing: aspect.ByRef")
			case aspect.Out:
				fields = append(fields, "Passing: aspect.Out")
			}
			params[i] = "{" + strings.Join(fields, ", ") + "}"
		}
		parts = append(parts, "Params: []aspect.Param{"+strings.Join(params, ", ")+"}")
	}
	if len(m.Results) > 0 {
		results := make([]string, len(m.Results))
		for i, r := range m.Results {
			results[i] = strconv.Quote(r)
		}
		parts = append(parts, "Results: []string{"+strings.Join(results, ", ")+"}")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Member renders the proxy method, record type and Invoke method of
// member i.
func (c contractView) Member(i int) string {
	m := c.Methods[i]
	w := &writer{}
	rec := lowerFirst(c.Name) + m.Name + "Record"
	recType := rec + c.TypeArgs()
	fields := fieldParams(m)

	w.line("func (p *%s%s) %s(%s)%s {", c.ProxyName(), c.TypeArgs(), m.Name, declParams(m), resultDecl(m))
	w.line("h := p.handles[%d]", i)
	w.line("if !h.Intercepted() {")
	if len(m.Results) > 0 {
		w.line("return p.target.%s(%s)", m.Name, callArgs(m))
	} else {
		w.line("p.target.%s(%s)", m.Name, callArgs(m))
		w.line("return")
	}
	w.line("}")
	w.line("inv := h.Begin(%s)", contextArg(m))
	w.line("rec := &%s{target: p.target}", recType)
	w.line("if inv.Captured() {")
	w.line("inv.Capture(%s)", captureArgs(m))
	if len(fields) > 0 {
		w.line("} else {")
		w.line("%s = %s", argList(fields, "rec."), argList(fields, ""))
	}
	w.line("}")

	switch m.Kind {
	case aspect.DeferredVoid, aspect.DeferredResult:
		w.line("return aspect.Async[%s](h, inv, rec)", m.Value)
	case aspect.ValueDeferredVoid, aspect.ValueDeferredResult:
		w.line("return aspect.AsyncValue[%s](h, inv, rec)", m.Value)
	default:
		if m.Kind == aspect.Void && m.Errors && !m.hasRefs() {
			w.line("return h.Run(inv, rec)")
			break
		}
		if m.Errors {
			w.line("err := h.Run(inv, rec)")
		} else {
			w.line("h.MustRun(inv, rec)")
		}
		if m.hasRefs() {
			w.line("if inv.Captured() {")
			for j, p := range m.Params {
				if p.Passing != aspect.ByValue {
					w.line("aspect.Assign(arg%d, aspect.Arg[%s](inv, %d))", j, p.slotType(), j)
				}
			}
			w.line("}")
		}
		switch {
		case m.Kind == aspect.SyncResult && m.Errors:
			w.line("return aspect.Result[%s](inv), err", m.Value)
		case m.Kind == aspect.SyncResult:
			w.line("return aspect.Result[%s](inv)", m.Value)
		case m.Errors:
			w.line("return err")
		}
	}
	w.line("}")
	w.line("")

	w.line("type %s%s struct {", rec, c.TypeParamDecl())
	w.line("target %s%s", c.Name, c.TypeArgs())
	for _, j := range fields {
		w.line("arg%d %s", j, m.Params[j].fieldType())
	}
	w.line("}")
	w.line("")

	w.line("func (r *%s) Invoke(inv *aspect.Invocation) error {", recType)
	if len(m.Params) > 0 {
		names := make([]string, len(m.Params))
		values := make([]string, len(m.Params))
		for j, p := range m.Params {
			names[j] = fmt.Sprintf("arg%d", j)
			values[j] = fmt.Sprintf("r.arg%d", j)
			if p.Context {
				values[j] = "inv.Context()"
			}
		}
		w.line("%s := %s", strings.Join(names, ", "), strings.Join(values, ", "))
	}
	if len(fields) > 0 {
		w.line("if inv.Captured() {")
		for _, j := range fields {
			p := m.Params[j]
			if p.Passing == aspect.ByValue {
				w.line("arg%d = aspect.Arg[%s](inv, %d)", j, p.slotType(), j)
				continue
			}
			w.line("ref%d := aspect.Arg[%s](inv, %d)", j, p.slotType(), j)
			w.line("arg%d = &ref%d", j, j)
		}
		w.line("}")
	}

	call := fmt.Sprintf("r.target.%s(%s)", m.Name, callArgs(m))
	switch m.Kind {
	case aspect.DeferredVoid, aspect.DeferredResult:
		w.line("return aspect.Await(inv, %s)", call)
	case aspect.ValueDeferredVoid, aspect.ValueDeferredResult:
		w.line("return aspect.AwaitValue(inv, %s)", call)
	case aspect.SyncResult:
		if m.Errors {
			w.line("ret, err := %s", call)
		} else {
			w.line("ret := %s", call)
		}
		w.line("inv.SetReturnValue(ret)")
		recordWriteBack(w, m)
		if m.Errors {
			w.line("return err")
		} else {
			w.line("return nil")
		}
	default:
		switch {
		case m.Errors && !m.hasRefs():
			w.line("return %s", call)
		case m.Errors:
			w.line("err := %s", call)
			recordWriteBack(w, m)
			w.line("return err")
		default:
			w.line("%s", call)
			recordWriteBack(w, m)
			w.line("return nil")
		}
	}
	w.line("}")
	return w.String()
}

// recordWriteBack copies ref and out values back into captured slots.
func recordWriteBack(w *writer, m Method) {
	if !m.hasRefs() {
		return
	}
	w.line("if inv.Captured() {")
	w.line("args := inv.Arguments()")
	for j, p := range m.Params {
		if p.Passing != aspect.ByValue {
			w.line("args[%d] = *arg%d", j, j)
		}
	}
	w.line("}")
}

// fieldParams lists the parameters a record stores; the context
// parameter is read from the invocation instead.
func fieldParams(m Method) []int {
	var out []int
	for i, p := range m.Params {
		if !p.Context {
			out = append(out, i)
		}
	}
	return out
}

func declParams(m Method) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = fmt.Sprintf("arg%d %s", i, p.Type)
	}
	return strings.Join(parts, ", ")
}

func resultDecl(m Method) string {
	switch len(m.Results) {
	case 0:
		return ""
	case 1:
		return " " + m.Results[0]
	}
	return " (" + strings.Join(m.Results, ", ") + ")"
}

func callArgs(m Method) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = fmt.Sprintf("arg%d", i)
		if p.variadic() {
			parts[i] += "..."
		}
	}
	return strings.Join(parts, ", ")
}

func captureArgs(m Method) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = fmt.Sprintf("arg%d", i)
		if p.Passing != aspect.ByValue {
			parts[i] = fmt.Sprintf("aspect.Deref(arg%d)", i)
		}
	}
	return strings.Join(parts, ", ")
}

func contextArg(m Method) string {
	for i, p := range m.Params {
		if p.Context {
			return fmt.Sprintf("arg%d", i)
		}
	}
	return "context.Background()"
}

func argList(indexes []int, prefix string) string {
	parts := make([]string, len(indexes))
	for i, j := range indexes {
		parts[i] = fmt.Sprintf("%sarg%d", prefix, j)
	}
	return strings.Join(parts, ", ")
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

type writer struct {
	bytes.Buffer
}

func (w *writer) line(format string, args ...any) {
	fmt.Fprintf(&w.Buffer, format, args...)
	w.WriteByte('\n')
}
