package aspect

import (
	"context"
	"fmt"
	"reflect"
)

// Passing describes how a parameter reaches the real member.
type Passing uint8

const (
	// ByValue parameters are copied into the call.
	ByValue Passing = iota

	// ByRef parameters are pointers whose pointee is read before the call
	// and written back after it.
	ByRef

	// Out parameters are pointers the member assigns; the pointee is written
	// back after the call.
	Out
)

func (p Passing) String() string {
	switch p {
	case ByValue:
		return "value"
	case ByRef:
		return "ref"
	case Out:
		return "out"
	}
	return fmt.Sprintf("Passing(%d)", uint8(p))
}

// ReturnKind classifies what a member hands back to its caller.
type ReturnKind uint8

const (
	// Void members return nothing (optionally an error).
	Void ReturnKind = iota

	// SyncResult members return one value (optionally with an error).
	SyncResult

	// DeferredVoid members return a *Task.
	DeferredVoid

	// DeferredResult members return a *Future[T].
	DeferredResult

	// ValueDeferredVoid members return a ValueTask.
	ValueDeferredVoid

	// ValueDeferredResult members return a ValueFuture[T].
	ValueDeferredResult
)

func (k ReturnKind) String() string {
	switch k {
	case Void:
		return "void"
	case SyncResult:
		return "sync"
	case DeferredVoid:
		return "deferred-void"
	case DeferredResult:
		return "deferred-result"
	case ValueDeferredVoid:
		return "value-deferred-void"
	case ValueDeferredResult:
		return "value-deferred-result"
	}
	return fmt.Sprintf("ReturnKind(%d)", uint8(k))
}

// Deferred reports whether the member completes asynchronously.
func (k ReturnKind) Deferred() bool {
	return k >= DeferredVoid
}

// HasValue reports whether the member produces a return value.
func (k ReturnKind) HasValue() bool {
	return k == SyncResult || k == DeferredResult || k == ValueDeferredResult
}

// Parameter describes one declared parameter of a member.
type Parameter struct {
	Name    string
	Type    reflect.Type // Declared type; a pointer for ByRef and Out
	Passing Passing
}

// Slot returns the type held in the parameter's captured argument slot.
func (p Parameter) Slot() reflect.Type {
	if p.Passing != ByValue {
		return p.Type.Elem()
	}
	return p.Type
}

// Member is the analyzed form of one contract method.
type Member struct {
	Contract reflect.Type
	Name     string
	Index    int          // Position in the contract's method set
	Type     reflect.Type // Method type without receiver
	Impl     reflect.Method
	Params   []Parameter
	Kind     ReturnKind
	Result   reflect.Type // Value carried on completion, nil for void kinds
	Errors   bool         // Trailing error result
	Context  int          // Index of the context.Context parameter, or -1
	Variadic bool
	ByRef    bool // Any ByRef or Out parameter
	Generic  bool // Signature mentions a contract type parameter
}

func (m *Member) String() string {
	return typeName(m.Contract) + "." + m.Name
}

// MemberTable maps every contract member to its implementation.
// It is immutable once returned by Analyze.
type MemberTable struct {
	Contract reflect.Type
	Impl     reflect.Type
	Members  []*Member

	// TypeArgs holds the contract type parameters bound during analysis.
	TypeArgs map[string]reflect.Type

	byName map[string]*Member
}

// Lookup returns the member with the given name.
func (t *MemberTable) Lookup(name string) (*Member, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Len returns the number of members.
func (t *MemberTable) Len() int {
	return len(t.Members)
}

var (
	contextType    = reflect.TypeFor[context.Context]()
	errorType      = reflect.TypeFor[error]()
	emptyType      = reflect.TypeFor[struct{}]()
	completionType = reflect.TypeFor[completion]()
)
