package xquery

type Expr interface {
	Pos() Position
	Type() SeqType
}

type LiteralKind int

const (
	StringLiteral LiteralKind = iota
	IntegerLiteral
	DecimalLiteral
	DoubleLiteral
)

type Literal struct {
	Kind  LiteralKind
	Value string
	Position
}

func (i Literal) Type() SeqType {
	switch i.Kind {
	case IntegerLiteral:
		return IntegerType
	case DecimalLiteral:
		return DecimalType
	case DoubleLiteral:
		return DoubleType
	default:
		return StringType
	}
}

// RangeError stands for an integer literal that can not be represented.
// Evaluating it raises Code.
type RangeError struct {
	Literal string
	Code    string
	Position
}

func (_ RangeError) Type() SeqType {
	return IntegerType
}

type Sequence struct {
	Items []Expr
	Position
}

func (s Sequence) Type() SeqType {
	if len(s.Items) == 0 {
		return EmptySeq
	}
	return AnyItems
}

type VarRef struct {
	Name QName
	Var  *Var
	Position
}

func (v VarRef) Type() SeqType {
	if v.Var != nil && v.Var.Type != nil {
		return *v.Var.Type
	}
	return AnyItems
}

type ContextItem struct {
	Position
}

func (_ ContextItem) Type() SeqType {
	return SeqType{Item: &ItemType{Kind: ItemAny}}
}

type Root struct {
	Position
}

func (_ Root) Type() SeqType {
	return nodeType(ItemDocument, ExactlyOne)
}

type Axis string

const (
	AxisChild            Axis = "child"
	AxisDescendant       Axis = "descendant"
	AxisAttribute        Axis = "attribute"
	AxisSelf             Axis = "self"
	AxisDescendantOrSelf Axis = "descendant-or-self"
	AxisFollowingSibling Axis = "following-sibling"
	AxisFollowing        Axis = "following"
	AxisParent           Axis = "parent"
	AxisAncestor         Axis = "ancestor"
	AxisPrecedingSibling Axis = "preceding-sibling"
	AxisPreceding        Axis = "preceding"
	AxisAncestorOrSelf   Axis = "ancestor-or-self"
)

var axes = []Axis{
	AxisAncestorOrSelf,
	AxisAncestor,
	AxisAttribute,
	AxisChild,
	AxisDescendantOrSelf,
	AxisDescendant,
	AxisFollowingSibling,
	AxisFollowing,
	AxisParent,
	AxisPrecedingSibling,
	AxisPreceding,
	AxisSelf,
}

type NameMode int

const (
	NameExact NameMode = iota
	NameAny
	NameAnyPrefix
	NameAnyLocal
)

type NameTest struct {
	Mode NameMode
	Name QName
}

func (n NameTest) String() string {
	switch n.Mode {
	case NameAny:
		return "*"
	case NameAnyPrefix:
		return "*:" + n.Name.Local
	case NameAnyLocal:
		if n.Name.Prefix != "" {
			return n.Name.Prefix + ":*"
		}
		return "Q{" + n.Name.URI + "}*"
	default:
		if n.Name.Prefix == "" && n.Name.URI != "" {
			return "Q{" + n.Name.URI + "}" + n.Name.Local
		}
		return n.Name.String()
	}
}

// Path is a sequence of steps applied to Root. Root is nil for relative
// paths.
type Path struct {
	Root  Expr
	Steps []Expr
	Position
}

func (_ Path) Type() SeqType {
	return AnyItems
}

// Step is an axis step: exactly one of Name or Kind is set.
type Step struct {
	Axis  Axis
	Name  *NameTest
	Kind  *ItemType
	Preds []Expr
	Position
}

func (s Step) Type() SeqType {
	if s.Kind != nil {
		return SeqType{Item: s.Kind, Occurrence: ZeroOrMore}
	}
	return nodeType(ItemNode, ZeroOrMore)
}

type Filter struct {
	Expr  Expr
	Preds []Expr
	Position
}

func (f Filter) Type() SeqType {
	return f.Expr.Type()
}

type DynamicCall struct {
	Func Expr
	Args []Expr
	Position
}

func (_ DynamicCall) Type() SeqType {
	return AnyItems
}

// Placeholder is an argument of a partial function application.
type Placeholder struct {
	Position
}

func (_ Placeholder) Type() SeqType {
	return AnyItems
}

// Lookup is a map or array lookup. Expr is nil for the unary form.
type Lookup struct {
	Expr     Expr
	Key      Expr
	Wildcard bool
	Position
}

func (_ Lookup) Type() SeqType {
	return AnyItems
}

type SimpleMap struct {
	Exprs []Expr
	Position
}

func (_ SimpleMap) Type() SeqType {
	return AnyItems
}

type Or struct {
	Exprs []Expr
	Position
}

func (_ Or) Type() SeqType {
	return BooleanType
}

type And struct {
	Exprs []Expr
	Position
}

func (_ And) Type() SeqType {
	return BooleanType
}

type CmpKind int

const (
	CmpValue CmpKind = iota
	CmpGeneral
	CmpNode
)

type Comparison struct {
	Op    string
	Kind  CmpKind
	Left  Expr
	Right Expr
	Position
}

func (c Comparison) Type() SeqType {
	if c.Kind == CmpGeneral {
		return BooleanType
	}
	return atomicType("boolean", ZeroOrOne)
}

// Arithmetic folds a run of operators of the same precedence: Ops[i] is
// applied between the accumulated result and Exprs[i+1].
type Arithmetic struct {
	Exprs []Expr
	Ops   []string
	Position
}

func (_ Arithmetic) Type() SeqType {
	return atomicType("anyAtomicType", ZeroOrOne)
}

type Concat struct {
	Exprs []Expr
	Position
}

func (_ Concat) Type() SeqType {
	return StringType
}

type Range struct {
	From Expr
	To   Expr
	Position
}

func (_ Range) Type() SeqType {
	return atomicType("integer", ZeroOrMore)
}

type Otherwise struct {
	Exprs []Expr
	Position
}

func (_ Otherwise) Type() SeqType {
	return AnyItems
}

type Union struct {
	Exprs []Expr
	Position
}

func (_ Union) Type() SeqType {
	return nodeType(ItemNode, ZeroOrMore)
}

type Intersect struct {
	Exprs []Expr
	Position
}

func (_ Intersect) Type() SeqType {
	return nodeType(ItemNode, ZeroOrMore)
}

type Except struct {
	Exprs []Expr
	Position
}

func (_ Except) Type() SeqType {
	return nodeType(ItemNode, ZeroOrMore)
}

type InstanceOf struct {
	Expr Expr
	Of   SeqType
	Position
}

func (_ InstanceOf) Type() SeqType {
	return BooleanType
}

type Treat struct {
	Expr Expr
	As   SeqType
	Position
}

func (t Treat) Type() SeqType {
	return t.As
}

type Promote struct {
	Expr Expr
	To   SeqType
	Position
}

func (p Promote) Type() SeqType {
	return p.To
}

type Castable struct {
	Expr Expr
	As   SeqType
	Position
}

func (_ Castable) Type() SeqType {
	return BooleanType
}

type Cast struct {
	Expr Expr
	As   SeqType
	Position
}

func (c Cast) Type() SeqType {
	return c.As
}

// Arrow applies a function to Input. Either Name is set (static function
// call) or Func (dynamic call). Thin arrows map the function over each item.
type Arrow struct {
	Input Expr
	Name  QName
	Func  Expr
	Args  []Expr
	Thin  bool
	Position
}

func (_ Arrow) Type() SeqType {
	return AnyItems
}

type TransformWith struct {
	Expr   Expr
	Modify Expr
	Position
}

func (_ TransformWith) Type() SeqType {
	return nodeType(ItemNode, ZeroOrMore)
}

type Unary struct {
	Negate bool
	Expr   Expr
	Position
}

func (_ Unary) Type() SeqType {
	return atomicType("anyAtomicType", ZeroOrOne)
}

type Pragma struct {
	Name    QName
	Content string
}

type Extension struct {
	Pragmas []Pragma
	Expr    Expr
	Position
}

func (e Extension) Type() SeqType {
	return e.Expr.Type()
}

// If is a conditional expression. Else is nil when the else branch was
// omitted.
type If struct {
	Test Expr
	Then Expr
	Else Expr
	Position
}

func (_ If) Type() SeqType {
	return AnyItems
}

type SwitchCase struct {
	Values []Expr
	Return Expr
}

type Switch struct {
	Operand Expr
	Cases   []SwitchCase
	Default Expr
	Position
}

func (_ Switch) Type() SeqType {
	return AnyItems
}

type TypeCase struct {
	Var    *Var
	Types  []SeqType
	Return Expr
}

type Typeswitch struct {
	Operand Expr
	Cases   []TypeCase
	Default TypeCase
	Position
}

func (_ Typeswitch) Type() SeqType {
	return AnyItems
}

type Binding struct {
	Var *Var
	In  Expr
}

type Quantified struct {
	Every     bool
	Bindings  []Binding
	Satisfies Expr
	Position
}

func (_ Quantified) Type() SeqType {
	return BooleanType
}

type Catch struct {
	Tests []NameTest
	Vars  []*Var
	Body  Expr
}

type Try struct {
	Body    Expr
	Catches []Catch
	Position
}

func (_ Try) Type() SeqType {
	return AnyItems
}

type FunctionCall struct {
	Name QName
	Args []Expr
	Position
}

func (_ FunctionCall) Type() SeqType {
	return AnyItems
}

// Partial reports whether one of the arguments is a placeholder.
func (f FunctionCall) Partial() bool {
	for _, a := range f.Args {
		if _, ok := a.(*Placeholder); ok {
			return true
		}
	}
	return false
}

type NamedFunctionRef struct {
	Name  QName
	Arity int
	Position
}

func (_ NamedFunctionRef) Type() SeqType {
	return SeqType{Item: &ItemType{Kind: ItemFunction, AnyFunc: true}}
}

type InlineFunction struct {
	Annotations []Annotation
	Params      []*Var
	Return      *SeqType
	Body        Expr
	Position
}

func (_ InlineFunction) Type() SeqType {
	return SeqType{Item: &ItemType{Kind: ItemFunction, AnyFunc: true}}
}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapConstructor struct {
	Entries []MapEntry
	Position
}

func (_ MapConstructor) Type() SeqType {
	return SeqType{Item: &ItemType{Kind: ItemMap}}
}

type ArrayConstructor struct {
	Members []Expr
	Square  bool
	Position
}

func (_ ArrayConstructor) Type() SeqType {
	return SeqType{Item: &ItemType{Kind: ItemArray}}
}

// StringConstructor parts are string literals (the fixed text) and
// interpolated expressions.
type StringConstructor struct {
	Parts []Expr
	Position
}

func (_ StringConstructor) Type() SeqType {
	return StringType
}

type Ordered struct {
	Ordered bool
	Expr    Expr
	Position
}

func (o Ordered) Type() SeqType {
	return o.Expr.Type()
}

type NamespaceDecl struct {
	Prefix string
	URI    string
}

// ElementConstructor is a direct or computed element constructor. NameExpr
// is set for computed constructors whose name is an expression.
type ElementConstructor struct {
	Name       QName
	NameExpr   Expr
	Computed   bool
	Namespaces []NamespaceDecl
	Attrs      []*AttributeConstructor
	Content    []Expr
	Position
}

func (_ ElementConstructor) Type() SeqType {
	return nodeType(ItemElement, ExactlyOne)
}

type AttributeConstructor struct {
	Name     QName
	NameExpr Expr
	Computed bool
	Value    []Expr
	Position
}

func (_ AttributeConstructor) Type() SeqType {
	return nodeType(ItemAttribute, ExactlyOne)
}

type DocumentConstructor struct {
	Expr Expr
	Position
}

func (_ DocumentConstructor) Type() SeqType {
	return nodeType(ItemDocument, ExactlyOne)
}

type TextConstructor struct {
	Expr Expr
	Position
}

func (_ TextConstructor) Type() SeqType {
	return nodeType(ItemText, ZeroOrOne)
}

type CommentConstructor struct {
	Expr     Expr
	Computed bool
	Position
}

func (_ CommentConstructor) Type() SeqType {
	return nodeType(ItemComment, ExactlyOne)
}

type PIConstructor struct {
	Target     string
	TargetExpr Expr
	Content    Expr
	Computed   bool
	Position
}

func (_ PIConstructor) Type() SeqType {
	return nodeType(ItemPI, ExactlyOne)
}

type NamespaceConstructor struct {
	Prefix     string
	PrefixExpr Expr
	URI        Expr
	Position
}

func (_ NamespaceConstructor) Type() SeqType {
	return nodeType(ItemNamespace, ExactlyOne)
}
