package aspect

// Shape is the source-level description of a contract, emitted by aspectgen
// alongside the proxy type. Type expressions are written relative to the
// generated file's package.
type Shape struct {
	Contract   string   // Qualified source name, e.g. "store.Repository"
	TypeParams []string // Type parameter names of a generic contract
	Members    []Signature
}

// Signature describes one contract method as declared in source.
type Signature struct {
	Name    string
	Params  []Param
	Results []string
}

// Param describes one declared parameter.
type Param struct {
	Name    string
	Type    string
	Passing Passing
}

// signature returns the declared signature of a member.
func (s *Shape) signature(name string) (*Signature, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Members {
		if s.Members[i].Name == name {
			return &s.Members[i], true
		}
	}
	return nil, false
}

// Wrapper is a generated proxy definition for contract C.
type Wrapper[C any] struct {
	Shape Shape

	// New builds the proxy for target. Generated implementations fetch one
	// Handle per member from p.
	New func(target C, p *Proxy) C
}
