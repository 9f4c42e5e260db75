package xquery

import (
	"slices"
	"strings"
)

type Occurrence int

const (
	ExactlyOne Occurrence = iota
	ZeroOrOne
	ZeroOrMore
	OneOrMore
)

func (o Occurrence) String() string {
	switch o {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	default:
		return ""
	}
}

type ItemKind int

const (
	ItemAny ItemKind = iota
	ItemAtomic
	ItemNode
	ItemElement
	ItemAttribute
	ItemDocument
	ItemText
	ItemComment
	ItemPI
	ItemNamespace
	ItemFunction
	ItemMap
	ItemArray
)

var itemKindNames = map[ItemKind]string{
	ItemAny:       "item",
	ItemNode:      "node",
	ItemElement:   "element",
	ItemAttribute: "attribute",
	ItemDocument:  "document-node",
	ItemText:      "text",
	ItemComment:   "comment",
	ItemPI:        "processing-instruction",
	ItemNamespace: "namespace-node",
	ItemFunction:  "function",
	ItemMap:       "map",
	ItemArray:     "array",
}

func (k ItemKind) String() string {
	if k == ItemAtomic {
		return "atomic"
	}
	return itemKindNames[k]
}

func (k ItemKind) IsNode() bool {
	switch k {
	case ItemNode, ItemElement, ItemAttribute, ItemDocument, ItemText, ItemComment, ItemPI, ItemNamespace:
		return true
	default:
		return false
	}
}

type ItemType struct {
	Kind ItemKind
	// atomic type name or element/attribute name test
	Name     QName
	Wildcard bool
	TypeName QName
	Nillable bool
	// processing-instruction target
	Target string
	// element test of a document-node test
	Inner *ItemType

	AnyFunc bool
	Params  []SeqType
	Return  *SeqType

	Key   *ItemType
	Value *SeqType
}

func (t *ItemType) String() string {
	var str strings.Builder
	writeItemType(&str, t)
	return str.String()
}

func writeItemType(str *strings.Builder, t *ItemType) {
	if t == nil {
		str.WriteString("item()")
		return
	}
	switch t.Kind {
	case ItemAtomic:
		writeTypeName(str, t.Name)
		return
	case ItemElement, ItemAttribute:
		str.WriteString(t.Kind.String())
		str.WriteString("(")
		if t.Wildcard {
			str.WriteString("*")
		} else if !t.Name.IsZero() {
			writeTypeName(str, t.Name)
		}
		if !t.TypeName.IsZero() {
			str.WriteString(", ")
			writeTypeName(str, t.TypeName)
			if t.Nillable {
				str.WriteString("?")
			}
		}
		str.WriteString(")")
	case ItemDocument:
		str.WriteString("document-node(")
		if t.Inner != nil {
			writeItemType(str, t.Inner)
		}
		str.WriteString(")")
	case ItemPI:
		str.WriteString("processing-instruction(")
		if t.Target != "" {
			str.WriteString(t.Target)
		}
		str.WriteString(")")
	case ItemFunction:
		str.WriteString("function(")
		if t.AnyFunc {
			str.WriteString("*)")
			return
		}
		for i := range t.Params {
			if i > 0 {
				str.WriteString(", ")
			}
			str.WriteString(t.Params[i].String())
		}
		str.WriteString(")")
		if t.Return != nil {
			str.WriteString(" as ")
			str.WriteString(t.Return.String())
		}
	case ItemMap:
		str.WriteString("map(")
		if t.Key == nil {
			str.WriteString("*")
		} else {
			writeItemType(str, t.Key)
			str.WriteString(", ")
			str.WriteString(t.Value.String())
		}
		str.WriteString(")")
	case ItemArray:
		str.WriteString("array(")
		if t.Value == nil {
			str.WriteString("*")
		} else {
			str.WriteString(t.Value.String())
		}
		str.WriteString(")")
	default:
		str.WriteString(t.Kind.String())
		str.WriteString("()")
	}
}

func writeTypeName(str *strings.Builder, name QName) {
	if name.Prefix == "" && name.URI != "" && name.URI != Unresolved {
		str.WriteString("Q{")
		str.WriteString(name.URI)
		str.WriteString("}")
		str.WriteString(name.Local)
		return
	}
	str.WriteString(name.String())
}

// SeqType is an item type with an occurrence indicator. A nil Item is the
// empty sequence type.
type SeqType struct {
	Item       *ItemType
	Occurrence Occurrence
}

func (s SeqType) IsEmpty() bool {
	return s.Item == nil
}

func (s SeqType) String() string {
	if s.Item == nil {
		return "empty-sequence()"
	}
	str := s.Item.String()
	if s.Item.Kind == ItemFunction && !s.Item.AnyFunc && s.Occurrence != ExactlyOne {
		str = "(" + str + ")"
	}
	return str + s.Occurrence.String()
}

func (s SeqType) Equal(other SeqType) bool {
	return s.String() == other.String()
}

var (
	AnyItems    = SeqType{Item: &ItemType{Kind: ItemAny}, Occurrence: ZeroOrMore}
	EmptySeq    = SeqType{}
	BooleanType = atomicType("boolean", ExactlyOne)
	StringType  = atomicType("string", ExactlyOne)
	IntegerType = atomicType("integer", ExactlyOne)
	DecimalType = atomicType("decimal", ExactlyOne)
	DoubleType  = atomicType("double", ExactlyOne)
)

func atomicType(local string, occ Occurrence) SeqType {
	item := ItemType{
		Kind: ItemAtomic,
		Name: QName{
			Prefix: "xs",
			Local:  local,
			URI:    XsURI,
		},
	}
	return SeqType{
		Item:       &item,
		Occurrence: occ,
	}
}

func nodeType(kind ItemKind, occ Occurrence) SeqType {
	return SeqType{
		Item:       &ItemType{Kind: kind},
		Occurrence: occ,
	}
}

var atomicTypes = []string{
	"anyAtomicType",
	"untypedAtomic",
	"string",
	"normalizedString",
	"token",
	"language",
	"NMTOKEN",
	"Name",
	"NCName",
	"ID",
	"IDREF",
	"ENTITY",
	"boolean",
	"numeric",
	"decimal",
	"integer",
	"nonPositiveInteger",
	"negativeInteger",
	"long",
	"int",
	"short",
	"byte",
	"nonNegativeInteger",
	"unsignedLong",
	"unsignedInt",
	"unsignedShort",
	"unsignedByte",
	"positiveInteger",
	"double",
	"float",
	"duration",
	"dayTimeDuration",
	"yearMonthDuration",
	"dateTime",
	"dateTimeStamp",
	"date",
	"time",
	"gYearMonth",
	"gYear",
	"gMonthDay",
	"gDay",
	"gMonth",
	"hexBinary",
	"base64Binary",
	"anyURI",
	"QName",
	"NOTATION",
	"error",
}

func isAtomicType(name QName) bool {
	return name.URI == XsURI && slices.Contains(atomicTypes, name.Local)
}

// isCastTarget reports whether name can be the target of cast or castable.
func isCastTarget(name QName) bool {
	if !isAtomicType(name) {
		return false
	}
	return name.Local != "anyAtomicType" && name.Local != "NOTATION"
}

func typeRef(t SeqType) *SeqType {
	return &t
}
