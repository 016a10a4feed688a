package aspect

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrNotInterface indicates the contract type is not an interface.
	ErrNotInterface = errors.New("contract is not an interface")

	// ErrMissingMember indicates the implementation lacks a contract member.
	ErrMissingMember = errors.New("implementation is missing a member")

	// ErrSignatureMismatch indicates an implementation method whose signature
	// differs from the contract member of the same name.
	ErrSignatureMismatch = errors.New("member signature mismatch")

	// ErrUnsupportedShape indicates a member signature that cannot be proxied.
	ErrUnsupportedShape = errors.New("unsupported member shape")

	// ErrInvalidPassing indicates a by-reference or output declaration on a
	// parameter that cannot carry it.
	ErrInvalidPassing = errors.New("invalid parameter passing")

	// ErrTypeParamMismatch indicates a generic parameter that could not be
	// matched consistently between contract and implementation.
	ErrTypeParamMismatch = errors.New("type parameter mismatch")

	// ErrShapeMismatch indicates a generated wrapper that no longer matches
	// the contract it was generated from.
	ErrShapeMismatch = errors.New("wrapper shape mismatch")

	// ErrInvalidInterceptor indicates a binding whose interceptor does not
	// satisfy the invocation signature.
	ErrInvalidInterceptor = errors.New("invalid interceptor")

	// ErrNoWrapper indicates no generated wrapper is registered for a contract.
	ErrNoWrapper = errors.New("no wrapper registered")

	// ErrUnresolvable indicates the resolver has no way to produce a type.
	ErrUnresolvable = errors.New("unresolvable type")

	// ErrNotCaptured indicates argument access on an invocation whose
	// arguments were not captured.
	ErrNotCaptured = errors.New("arguments not captured")

	// ErrArgumentIndex indicates an argument position outside the member's parameters.
	ErrArgumentIndex = errors.New("argument index out of range")

	// ErrArgumentType indicates an argument value not assignable to its parameter.
	ErrArgumentType = errors.New("argument type mismatch")

	// ErrUnknownMember indicates a dynamic call naming no contract member.
	ErrUnknownMember = errors.New("unknown member")

	// ErrNilFuture indicates an await on a nil future.
	ErrNilFuture = errors.New("nil future")

	// ErrInvocationSettled indicates Proceed on an invocation whose chain
	// has already returned.
	ErrInvocationSettled = errors.New("invocation already settled")
)

// ConfigError represents a synthesis-time configuration error.
// It wraps a sentinel error with the contract and member that triggered it.
type ConfigError struct {
	Err      error  // Underlying sentinel error (ErrMissingMember, etc.)
	Contract string // Contract type name
	Member   string // Member name, empty for contract-level errors
	Detail   string // Human-readable specifics
}

func (e *ConfigError) Error() string {
	where := e.Contract
	if e.Member != "" {
		where += "." + e.Member
	}
	switch {
	case where != "" && e.Detail != "":
		return fmt.Sprintf("%s (%s): %s", e.Err.Error(), where, e.Detail)
	case where != "":
		return fmt.Sprintf("%s (%s)", e.Err.Error(), where)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PanicError carries a panic recovered from an asynchronous member.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// newConfigError creates a ConfigError for a contract and optional member.
func newConfigError(sentinel error, contract reflect.Type, member, detail string) error {
	return &ConfigError{
		Err:      sentinel,
		Contract: typeName(contract),
		Member:   member,
		Detail:   detail,
	}
}

// typeName renders a type for messages and signal fields.
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
