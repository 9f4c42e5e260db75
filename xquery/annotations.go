package xquery

import (
	"fmt"
	"slices"
	"strings"
)

type ArgType int

const (
	ArgAny ArgType = iota
	ArgString
	ArgInteger
	ArgNumeric
)

func (a ArgType) String() string {
	switch a {
	case ArgString:
		return "xs:string"
	case ArgInteger:
		return "xs:integer"
	case ArgNumeric:
		return "xs:numeric"
	default:
		return "xs:anyAtomicType"
	}
}

func (a ArgType) accept(lit *Literal) bool {
	switch a {
	case ArgString:
		return lit.Kind == StringLiteral
	case ArgInteger:
		return lit.Kind == IntegerLiteral
	case ArgNumeric:
		return lit.Kind != StringLiteral
	default:
		return true
	}
}

// AnnotationDef describes a known annotation. Args lists the type of each
// argument; the last one is repeated when Max is larger than len(Args).
type AnnotationDef struct {
	Name   QName
	Single bool
	Min    int
	Max    int
	Args   []ArgType
}

func (a AnnotationDef) arity() string {
	switch {
	case a.Min == a.Max:
		return fmt.Sprint(a.Min)
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	default:
		return fmt.Sprintf("%d to %d", a.Min, a.Max)
	}
}

func (a AnnotationDef) argType(i int) ArgType {
	if len(a.Args) == 0 {
		return ArgAny
	}
	if i >= len(a.Args) {
		return a.Args[len(a.Args)-1]
	}
	return a.Args[i]
}

func annotation(uri, local string, single bool, min, max int, args ...ArgType) AnnotationDef {
	return AnnotationDef{
		Name:   ExpandedName(uri, local),
		Single: single,
		Min:    min,
		Max:    max,
		Args:   args,
	}
}

var builtinAnnotations = []AnnotationDef{
	annotation(AnnURI, "public", true, 0, 0),
	annotation(AnnURI, "private", true, 0, 0),
	annotation(AnnURI, "updating", true, 0, 0),
	annotation(AnnURI, "non-deterministic", true, 0, 0),

	annotation(XqURI, "inline", true, 0, 1, ArgInteger),
	annotation(XqURI, "lazy", true, 0, 0),
	annotation(XqURI, "lock", false, 1, -1, ArgString),
	annotation(XqURI, "deprecated", true, 0, 1, ArgString),

	annotation(RestURI, "path", true, 1, 1, ArgString),
	annotation(RestURI, "error", true, 1, -1, ArgString),
	annotation(RestURI, "produces", false, 1, -1, ArgString),
	annotation(RestURI, "consumes", false, 1, -1, ArgString),
	annotation(RestURI, "query-param", false, 2, -1, ArgString, ArgString, ArgAny),
	annotation(RestURI, "form-param", false, 2, -1, ArgString, ArgString, ArgAny),
	annotation(RestURI, "header-param", false, 2, -1, ArgString, ArgString, ArgAny),
	annotation(RestURI, "cookie-param", false, 2, -1, ArgString, ArgString, ArgAny),
	annotation(RestURI, "error-param", false, 2, -1, ArgString, ArgString, ArgAny),
	annotation(RestURI, "GET", true, 0, 0),
	annotation(RestURI, "POST", true, 0, 1, ArgString),
	annotation(RestURI, "PUT", true, 0, 1, ArgString),
	annotation(RestURI, "DELETE", true, 0, 0),
	annotation(RestURI, "HEAD", true, 0, 0),
	annotation(RestURI, "OPTIONS", true, 0, 0),
	annotation(RestURI, "PATCH", true, 0, 1, ArgString),
	annotation(RestURI, "method", true, 1, 2, ArgString),

	annotation(UnitURI, "test", true, 0, 2, ArgString),
	annotation(UnitURI, "before", true, 0, 1, ArgString),
	annotation(UnitURI, "after", true, 0, 1, ArgString),
	annotation(UnitURI, "before-module", true, 0, 0),
	annotation(UnitURI, "after-module", true, 0, 0),
	annotation(UnitURI, "ignore", true, 0, 1, ArgString),
}

// annotationRegistry validates the annotations in the namespaces it owns.
type annotationRegistry struct {
	defs map[string]AnnotationDef
	uris []string
}

func defaultAnnotations() *annotationRegistry {
	r := annotationRegistry{
		defs: make(map[string]AnnotationDef),
	}
	for _, a := range builtinAnnotations {
		r.register(a)
	}
	return &r
}

func (r *annotationRegistry) register(def AnnotationDef) {
	r.defs[def.Name.Key()] = def
	if !slices.Contains(r.uris, def.Name.URI) {
		r.uris = append(r.uris, def.Name.URI)
	}
}

func (r *annotationRegistry) lookup(name QName) (AnnotationDef, bool) {
	def, ok := r.defs[name.Key()]
	return def, ok
}

func (r *annotationRegistry) owns(uri string) bool {
	return slices.Contains(r.uris, uri)
}

func (r *annotationRegistry) names(uri string) []string {
	var list []string
	for _, def := range r.defs {
		if def.Name.URI == uri {
			list = append(list, def.Name.Local)
		}
	}
	slices.Sort(list)
	return list
}

var registry = defaultAnnotations()

// annotations parses the annotations of a declaration or of an inline
// function. The updating keyword is accepted in place of %updating when
// updating is set.
func (p *Parser) annotations(updating bool) ([]Annotation, error) {
	p.Enter("annotations")
	defer p.Leave("annotations")

	var list []Annotation
	for {
		p.skipWs()
		pos := p.here()
		var ann Annotation
		if p.consumeRune('%') {
			p.skipWs()
			name, err := p.eQName(AnnURI, &errNoName)
			if err != nil {
				return nil, err
			}
			ann = Annotation{
				Name:     name,
				Position: pos,
			}
			if p.wsConsume("(") {
				if ann.Args, err = p.annotationArgs(); err != nil {
					return nil, err
				}
			}
		} else if updating && p.wsConsumeWs("updating") {
			ann = Annotation{
				Name:     ExpandedName(AnnURI, "updating"),
				Position: pos,
			}
		} else {
			break
		}
		if err := p.checkAnnotation(ann, list); err != nil {
			return nil, err
		}
		if ann.Is(AnnURI, "updating") {
			p.updating = true
		}
		list = append(list, ann)
	}
	return list, nil
}

func (p *Parser) annotationArgs() ([]*Literal, error) {
	var args []*Literal
	for {
		p.skipWs()
		pos := p.here()
		var lit *Literal
		switch r := p.curr(); {
		case r == '"' || r == '\'':
			str, err := p.stringLiteral()
			if err != nil {
				return nil, err
			}
			lit = &Literal{
				Kind:     StringLiteral,
				Value:    str,
				Position: pos,
			}
		case isDigit(r) || r == '.' || r == '-':
			neg := p.consumeRune('-')
			expr, err := p.numericLiteral()
			if err != nil {
				return nil, err
			}
			n, ok := expr.(*Literal)
			if !ok {
				return nil, p.errorAt(errAnnValue, pos)
			}
			if neg {
				n.Value = "-" + n.Value
			}
			n.Position = pos
			lit = n
		default:
			return nil, p.error(errAnnValue)
		}
		args = append(args, lit)
		if !p.wsConsume(",") {
			break
		}
	}
	return args, p.wsCheck(")")
}

func (p *Parser) checkAnnotation(ann Annotation, prev []Annotation) error {
	def, ok := registry.lookup(ann.Name)
	if !ok {
		switch {
		case reservedURI(ann.Name.URI):
			return p.errorAt(errAnnReserved, ann.Position, ann.Name, suggest(ann.Name.Local, registry.names(ann.Name.URI)))
		case registry.owns(ann.Name.URI):
			return p.errorAt(errAnnUnknown, ann.Position, ann.Name, suggest(ann.Name.Local, registry.names(ann.Name.URI)))
		default:
			return nil
		}
	}
	if def.Single && hasAnnotation(prev, ann.Name.URI, ann.Name.Local) {
		return p.errorAt(errAnnDupl, ann.Position, ann.Name)
	}
	if n := len(ann.Args); n < def.Min || (def.Max >= 0 && n > def.Max) {
		return p.errorAt(errAnnArity, ann.Position, ann.Name, n, def.arity())
	}
	for i, a := range ann.Args {
		if want := def.argType(i); !want.accept(a) {
			return p.errorAt(errAnnType, a.Position, ann.Name, want, a.Type())
		}
	}
	return nil
}

// checkVisibility rejects declarations being both public and private.
func (p *Parser) checkVisibility(anns []Annotation) error {
	var public, private bool
	for _, a := range anns {
		public = public || a.Is(AnnURI, "public")
		private = private || a.Is(AnnURI, "private")
		if public && private {
			return p.errorAt(errAnnVisibility, a.Position)
		}
	}
	return nil
}

func formatAnnotations(str *strings.Builder, anns []Annotation) {
	for _, a := range anns {
		str.WriteString("%")
		if a.Name.Prefix == "" && a.Name.URI != AnnURI && a.Name.URI != "" {
			str.WriteString("Q{" + a.Name.URI + "}" + a.Name.Local)
		} else {
			str.WriteString(a.Name.String())
		}
		if len(a.Args) > 0 {
			str.WriteString("(")
			for i, x := range a.Args {
				if i > 0 {
					str.WriteString(", ")
				}
				str.WriteString(formatLiteral(x))
			}
			str.WriteString(")")
		}
		str.WriteString(" ")
	}
}
