package xquery

import (
	"github.com/midbel/xq/environ"
)

type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	FunctionScope
	InlineScope
	FlworScope
	QuantifiedScope
	TypeswitchScope
	CatchScope
	CopyScope
)

func (k ScopeKind) String() string {
	switch k {
	case ModuleScope:
		return "module"
	case FunctionScope:
		return "function"
	case InlineScope:
		return "inline"
	case FlworScope:
		return "flwor"
	case QuantifiedScope:
		return "quantified"
	case TypeswitchScope:
		return "typeswitch"
	case CatchScope:
		return "catch"
	case CopyScope:
		return "copy"
	default:
		return "unknown"
	}
}

// Var is a variable declaration. Expressions refer to it through VarRef.
type Var struct {
	Name   QName
	Type   *SeqType
	Scope  int
	ID     int
	Global bool
	Position
}

func (v *Var) String() string {
	return "$" + v.Name.String()
}

type frame struct {
	kind ScopeKind
	id   int
	env  *environ.Env[*Var]
}

// scopes is the stack of lexical scopes of one parse session. A context
// (function body) starts a new chain of environments so that the locals of
// the enclosing declarations are not visible, unless it is a closure.
type scopes struct {
	frames  []frame
	globals *environ.Env[*Var]
	ids     int
	scopes  int
}

func newScopes() *scopes {
	s := scopes{
		globals: environ.Empty[*Var](),
	}
	s.frames = append(s.frames, frame{
		kind: ModuleScope,
		env:  environ.Empty[*Var](),
	})
	return &s
}

func (s *scopes) top() frame {
	return s.frames[len(s.frames)-1]
}

func (s *scopes) open(kind ScopeKind) {
	s.push(kind, s.top().env)
}

func (s *scopes) close() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *scopes) pushContext(kind ScopeKind, closure bool) {
	if closure {
		s.push(kind, s.top().env)
		return
	}
	s.push(kind, nil)
}

func (s *scopes) popContext() {
	s.close()
}

func (s *scopes) push(kind ScopeKind, parent *environ.Env[*Var]) {
	s.scopes++
	f := frame{
		kind: kind,
		id:   s.scopes,
	}
	if parent == nil {
		f.env = environ.Empty[*Var]()
	} else {
		f.env = environ.Enclosed[*Var](parent)
	}
	s.frames = append(s.frames, f)
}

func (s *scopes) create(name QName, typ *SeqType, pos Position) *Var {
	s.ids++
	v := Var{
		Name:     name,
		Type:     typ,
		Scope:    s.top().id,
		ID:       s.ids,
		Position: pos,
	}
	return &v
}

// declare makes v visible in the innermost scope.
func (s *scopes) declare(v *Var) {
	s.top().env.Define(v.Name.Key(), v)
}

func (s *scopes) declareGlobal(v *Var) error {
	v.Global = true
	v.Scope = 0
	return s.globals.DefineUnique(v.Name.Key(), v)
}

func (s *scopes) resolve(name QName) (*Var, bool) {
	if v, ok := s.top().env.Lookup(name.Key()); ok {
		return v, true
	}
	return s.globals.Lookup(name.Key())
}

func (s *scopes) global(name QName) (*Var, bool) {
	return s.globals.Lookup(name.Key())
}

// visible returns the local variables visible in the innermost scope, the
// most recently declared first.
func (s *scopes) visible() []*Var {
	var (
		env  = s.top().env
		list []*Var
		seen = make(map[string]struct{})
	)
	for env != nil {
		names := env.Names()
		for i := len(names) - 1; i >= 0; i-- {
			if _, ok := seen[names[i]]; ok {
				continue
			}
			seen[names[i]] = struct{}{}
			v, _ := env.Lookup(names[i])
			list = append(list, v)
		}
		parent, ok := env.Parent().(*environ.Env[*Var])
		if !ok {
			break
		}
		env = parent
	}
	return list
}

func (s *scopes) depth() int {
	return len(s.frames) - 1
}
