// Package gen renders aspect proxy wrappers from interface declarations.
package gen

import (
	"strings"

	"github.com/zoobzio/aspect"
)

// File describes one generated file.
type File struct {
	Package   string
	Imports   []string // Paths needed by contract types, besides context and aspect
	Contracts []Contract
}

// Contract is an interface to generate a wrapper for.
type Contract struct {
	Name       string
	Package    string
	TypeParams []TypeParam
	Methods    []Method
}

// TypeParam is a type parameter of a generic contract.
type TypeParam struct {
	Name       string
	Constraint string
}

// Method is one contract method, classified the way the analyzer will
// classify it at runtime.
type Method struct {
	Name    string
	Params  []Param
	Results []string
	Kind    aspect.ReturnKind
	Value   string // Result type, or the completion type argument of deferred members
	Errors  bool
}

// Param is one method parameter. Variadic parameters carry a "..." prefix.
type Param struct {
	Name    string
	Type    string
	Passing aspect.Passing
	Context bool // Leading context parameter; the invocation context flows into it
}

func (p Param) variadic() bool {
	return strings.HasPrefix(p.Type, "...")
}

// fieldType is the type the parameter has inside the method body.
func (p Param) fieldType() string {
	if p.variadic() {
		return "[]" + p.Type[3:]
	}
	return p.Type
}

// slotType is the type held in the captured argument slot.
func (p Param) slotType() string {
	if p.Passing != aspect.ByValue {
		return strings.TrimPrefix(p.Type, "*")
	}
	return p.fieldType()
}

func (m Method) hasRefs() bool {
	for _, p := range m.Params {
		if p.Passing != aspect.ByValue {
			return true
		}
	}
	return false
}
