package xquery

import (
	"strings"

	"github.com/midbel/xq/environ"
)

const (
	XmlURI    = "http://www.w3.org/XML/1998/namespace"
	XmlnsURI  = "http://www.w3.org/2000/xmlns/"
	XsURI     = "http://www.w3.org/2001/XMLSchema"
	XsiURI    = "http://www.w3.org/2001/XMLSchema-instance"
	FnURI     = "http://www.w3.org/2005/xpath-functions"
	MathURI   = "http://www.w3.org/2005/xpath-functions/math"
	MapURI    = "http://www.w3.org/2005/xpath-functions/map"
	ArrayURI  = "http://www.w3.org/2005/xpath-functions/array"
	ErrURI    = "http://www.w3.org/2005/xqt-errors"
	LocalURI  = "http://www.w3.org/2005/xquery-local-functions"
	AnnURI    = "http://www.w3.org/2012/xquery"
	OutputURI = "http://www.w3.org/2010/xslt-xquery-serialization"
	FtURI     = "http://www.w3.org/2007/xpath-full-text"
	XqURI     = "http://github.com/midbel/xq"
	RestURI   = "http://exquery.org/ns/restxq"
	UnitURI   = "http://github.com/midbel/xq/unit"
)

// Unresolved is the URI of a name whose namespace has not been assigned
// yet.
const Unresolved = "\x00"

var predeclared = []struct {
	Prefix string
	URI    string
}{
	{"xml", XmlURI},
	{"xs", XsURI},
	{"xsi", XsiURI},
	{"fn", FnURI},
	{"local", LocalURI},
	{"math", MathURI},
	{"map", MapURI},
	{"array", ArrayURI},
	{"err", ErrURI},
	{"ann", AnnURI},
	{"output", OutputURI},
	{"xq", XqURI},
	{"rest", RestURI},
	{"unit", UnitURI},
}

func predeclaredNamespaces() *environ.Env[string] {
	env := environ.Empty[string]()
	for _, p := range predeclared {
		env.Define(p.Prefix, p.URI)
	}
	return env
}

// prefixHint lists the prefixes in scope that are close to prefix.
func prefixHint(ns environ.Environ[string], prefix string) string {
	all, ok := ns.(interface{ All() []string })
	if !ok {
		return ""
	}
	return suggest(prefix, all.All())
}

// reservedURI reports whether no user definition can be made in uri.
func reservedURI(uri string) bool {
	switch uri {
	case XmlURI, XsURI, XsiURI, FnURI, MathURI, MapURI, ArrayURI, AnnURI:
		return true
	default:
		return false
	}
}

type QName struct {
	Prefix string
	Local  string
	URI    string
}

func LocalName(local string) QName {
	return QName{
		Local: local,
	}
}

func ExpandedName(uri, local string) QName {
	return QName{
		Local: local,
		URI:   uri,
	}
}

func (q QName) Resolved() bool {
	return q.URI != Unresolved
}

func (q QName) IsZero() bool {
	return q.Local == ""
}

func (q QName) Equal(other QName) bool {
	return q.Local == other.Local && q.URI == other.URI
}

// Key identifies the name by its local part and namespace.
func (q QName) Key() string {
	if q.URI == "" || q.URI == Unresolved {
		return q.Local
	}
	return "Q{" + q.URI + "}" + q.Local
}

func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// parseQName splits a lexical qname into its prefix and local part.
func parseQName(str string) QName {
	prefix, local, ok := strings.Cut(str, ":")
	if !ok {
		return QName{Local: str}
	}
	return QName{
		Prefix: prefix,
		Local:  local,
	}
}

type pendingName struct {
	name *QName
	elem bool
	pos  Position
}

// nameTable collects names whose namespace depends on declarations that
// have not been seen yet. The namespaces of all names added since a mark
// are assigned in one pass once these declarations are known.
type nameTable struct {
	names []pendingName
}

func (t *nameTable) mark() int {
	return len(t.names)
}

func (t *nameTable) add(name *QName, elem bool, pos Position) {
	name.URI = Unresolved
	t.names = append(t.names, pendingName{
		name: name,
		elem: elem,
		pos:  pos,
	})
}

func (t *nameTable) assignURI(from int, ns environ.Environ[string], elemNS string) error {
	if from >= len(t.names) {
		return nil
	}
	defer func() {
		t.names = t.names[:from]
	}()
	for _, p := range t.names[from:] {
		if p.name.Prefix != "" {
			uri, err := ns.Resolve(p.name.Prefix)
			if err != nil {
				return errNoURI.create(p.pos, p.name.Prefix, prefixHint(ns, p.name.Prefix))
			}
			p.name.URI = uri
		} else if p.elem {
			p.name.URI = elemNS
		} else {
			p.name.URI = ""
		}
	}
	return nil
}
