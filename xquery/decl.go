package xquery

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

type Annotation struct {
	Name QName
	Args []*Literal
	Position
}

func (a Annotation) Is(uri, local string) bool {
	return a.Name.URI == uri && a.Name.Local == local
}

func hasAnnotation(list []Annotation, uri, local string) bool {
	return slices.ContainsFunc(list, func(a Annotation) bool {
		return a.Is(uri, local)
	})
}

type VarDecl struct {
	Var         *Var
	Annotations []Annotation
	Expr        Expr
	External    bool
	Doc         string
	Position
}

func (v *VarDecl) Private() bool {
	return hasAnnotation(v.Annotations, AnnURI, "private")
}

type FuncDecl struct {
	Name        QName
	Params      []*Var
	Return      *SeqType
	Body        Expr
	Annotations []Annotation
	Doc         string
	Position
}

func (f *FuncDecl) Arity() int {
	return len(f.Params)
}

func (f *FuncDecl) External() bool {
	return f.Body == nil
}

func (f *FuncDecl) Private() bool {
	return hasAnnotation(f.Annotations, AnnURI, "private")
}

func (f *FuncDecl) Updating() bool {
	return hasAnnotation(f.Annotations, AnnURI, "updating")
}

func (f *FuncDecl) Signature() string {
	return funcKey(f.Name, f.Arity())
}

func funcKey(name QName, arity int) string {
	return fmt.Sprintf("%s#%d", name.Key(), arity)
}

type Option struct {
	Name  QName
	Value string
}

// Import is a module import of the prolog. Locations are the hints given
// after "at"; Paths the absolute paths the module was loaded from.
type Import struct {
	Prefix    string
	URI       string
	Locations []string
	Paths     []string
	Position
}

type Prolog struct {
	File       string
	Static     *StaticContext
	Namespaces map[string]string
	Imports    []*Import
	Modules    []*LibraryModule
	Options    []Option
	Variables  []*VarDecl
	Functions  []*FuncDecl
	Doc        string
	Updating   bool
}

// ImportedURIs returns the namespace URI of every imported module.
func (p *Prolog) ImportedURIs() []string {
	var list []string
	for _, i := range p.Imports {
		list = append(list, i.URI)
	}
	return list
}

func (p *Prolog) Function(name QName, arity int) (*FuncDecl, bool) {
	key := funcKey(name, arity)
	ix := slices.IndexFunc(p.Functions, func(f *FuncDecl) bool {
		return f.Signature() == key
	})
	if ix < 0 {
		return nil, false
	}
	return p.Functions[ix], true
}

func (p *Prolog) Variable(name QName) (*VarDecl, bool) {
	ix := slices.IndexFunc(p.Variables, func(v *VarDecl) bool {
		return v.Var.Name.Equal(name)
	})
	if ix < 0 {
		return nil, false
	}
	return p.Variables[ix], true
}

type Module interface {
	Info() *Prolog
}

type MainModule struct {
	Prolog
	Body Expr
}

func (m *MainModule) Info() *Prolog {
	return &m.Prolog
}

type LibraryModule struct {
	Prolog
	Prefix string
	URI    string
}

func (m *LibraryModule) Info() *Prolog {
	return &m.Prolog
}

// Exports returns the public functions and variables of the module.
func (m *LibraryModule) Exports() ([]*FuncDecl, []*VarDecl) {
	var (
		funcs []*FuncDecl
		vars  []*VarDecl
	)
	for _, f := range m.Functions {
		if !f.Private() {
			funcs = append(funcs, f)
		}
	}
	for _, v := range m.Variables {
		if !v.Private() {
			vars = append(vars, v)
		}
	}
	return funcs, vars
}

type StaticContext struct {
	Version        string
	Encoding       string
	BaseURI        string
	ElemNS         string
	FuncNS         string
	Collation      string
	PreserveSpace  bool
	Construction   string
	Ordered        bool
	EmptyGreatest  bool
	PreserveNS     bool
	InheritNS      bool
	Revalidation   string
	DecimalFormats map[string]*DecimalFormat
	ContextType    *SeqType
	FTOptions      *FTOpt
}

const CodepointCollation = "http://www.w3.org/2005/xpath-functions/collation/codepoint"

func defaultStatic() *StaticContext {
	sc := StaticContext{
		Version:        "3.1",
		FuncNS:         FnURI,
		Collation:      CodepointCollation,
		Construction:   "preserve",
		Ordered:        true,
		PreserveNS:     true,
		InheritNS:      true,
		Revalidation:   "lax",
		DecimalFormats: make(map[string]*DecimalFormat),
		FTOptions:      defaultFTOpt(),
	}
	sc.DecimalFormats[""] = defaultDecimalFormat()
	return &sc
}

var decimalProperties = []string{
	"decimal-separator",
	"grouping-separator",
	"exponent-separator",
	"infinity",
	"minus-sign",
	"NaN",
	"percent",
	"per-mille",
	"zero-digit",
	"digit",
	"pattern-separator",
}

type DecimalFormat struct {
	Properties map[string]string
}

func defaultDecimalFormat() *DecimalFormat {
	df := DecimalFormat{
		Properties: map[string]string{
			"decimal-separator":  ".",
			"grouping-separator": ",",
			"exponent-separator": "e",
			"infinity":           "Infinity",
			"minus-sign":         "-",
			"NaN":                "NaN",
			"percent":            "%",
			"per-mille":          "‰",
			"zero-digit":         "0",
			"digit":              "#",
			"pattern-separator":  ";",
		},
	}
	return &df
}

func (d *DecimalFormat) Get(prop string) string {
	return d.Properties[prop]
}

// set validates and stores a property. It returns the name of the
// offending property when the value is not acceptable.
func (d *DecimalFormat) set(prop, value string) bool {
	if !slices.Contains(decimalProperties, prop) {
		return false
	}
	switch prop {
	case "infinity", "NaN":
	case "zero-digit":
		r := []rune(value)
		if len(r) != 1 || !isZeroDigit(r[0]) {
			return false
		}
	default:
		if len([]rune(value)) != 1 {
			return false
		}
	}
	d.Properties[prop] = value
	return true
}

// distinct reports whether the picture characters of the format are all
// different.
func (d *DecimalFormat) distinct() bool {
	seen := make(map[string]struct{})
	for _, p := range []string{"decimal-separator", "grouping-separator", "exponent-separator", "percent", "per-mille", "zero-digit", "digit", "pattern-separator"} {
		v := d.Properties[p]
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

func (d *DecimalFormat) clone() *DecimalFormat {
	return &DecimalFormat{
		Properties: maps.Clone(d.Properties),
	}
}

func isZeroDigit(r rune) bool {
	return unicode.IsDigit(r) && !unicode.IsDigit(r-1) && unicode.IsDigit(r+9)
}

func (s *StaticContext) String() string {
	var str strings.Builder
	fmt.Fprintf(&str, "version=%s", s.Version)
	if s.BaseURI != "" {
		fmt.Fprintf(&str, " base-uri=%s", s.BaseURI)
	}
	if s.ElemNS != "" {
		fmt.Fprintf(&str, " element-ns=%s", s.ElemNS)
	}
	fmt.Fprintf(&str, " function-ns=%s", s.FuncNS)
	fmt.Fprintf(&str, " collation=%s", s.Collation)
	fmt.Fprintf(&str, " construction=%s", s.Construction)
	return str.String()
}
