package xquery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLexical     = errors.New("lexical error")
	ErrSyntax      = errors.New("syntax error")
	ErrBinding     = errors.New("binding error")
	ErrModule      = errors.New("module error")
	ErrSemantic    = errors.New("semantic error")
	ErrUnsupported = errors.New("unsupported feature")
)

type ErrorKind int

const (
	LexicalError ErrorKind = iota
	SyntaxError
	BindingError
	ModuleError
	SemanticError
	UnsupportedError
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical"
	case SyntaxError:
		return "syntax"
	case BindingError:
		return "binding"
	case ModuleError:
		return "module"
	case SemanticError:
		return "semantic"
	case UnsupportedError:
		return "unsupported"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case LexicalError:
		return ErrLexical
	case SyntaxError:
		return ErrSyntax
	case BindingError:
		return ErrBinding
	case ModuleError:
		return ErrModule
	case SemanticError:
		return ErrSemantic
	default:
		return ErrUnsupported
	}
}

type QueryError struct {
	Kind    ErrorKind
	Code    string
	Message string
	File    string
	Position
}

func (e QueryError) Error() string {
	var str strings.Builder
	str.WriteString("[")
	str.WriteString(e.Code)
	str.WriteString("] ")
	if e.File != "" {
		str.WriteString(e.File)
		str.WriteString(":")
	}
	fmt.Fprintf(&str, "%d:%d: %s", e.Line, e.Column, e.Message)
	return str.String()
}

func (e QueryError) Unwrap() error {
	return e.Kind.sentinel()
}

// errorDef is an entry of the error catalogue. Format is used with the
// arguments given when the error is raised.
type errorDef struct {
	Kind   ErrorKind
	Code   string
	Format string
}

func (d errorDef) create(pos Position, args ...any) QueryError {
	msg := d.Format
	if len(args) > 0 {
		msg = fmt.Sprintf(d.Format, args...)
	}
	return QueryError{
		Kind:     d.Kind,
		Code:     d.Code,
		Message:  msg,
		Position: pos,
	}
}

const (
	CodeSyntax          = "XPST0003"
	CodeUndefinedVar    = "XPST0008"
	CodeUnknownFunction = "XPST0017"
	CodeUnknownType     = "XPST0051"
	CodeUnboundPrefix   = "XPST0081"
	CodeDuplicateAttr   = "XQST0040"
	CodeDuplicateImport = "XQST0047"
	CodeModuleNotFound  = "XQST0059"
	CodeImportCycle     = "XQST0093"
	CodeWrongModule     = "XQST0059"
	CodeUpdatingMix     = "XUST0001"
	CodeTooDeep         = "XQPR0001"
	CodeIntegerRange    = "FOAR0002"
)

var (
	errQueryEmpty    = errorDef{SyntaxError, CodeSyntax, "empty query"}
	errInvalidChar   = errorDef{LexicalError, CodeSyntax, "invalid character found: #x%X"}
	errInvalidByte   = errorDef{LexicalError, CodeSyntax, "invalid utf-8 byte found: #x%02X"}
	errCommentClose  = errorDef{LexicalError, CodeSyntax, "comment not closed"}
	errInvalidEntity = errorDef{LexicalError, CodeSyntax, "invalid entity: %q"}
	errInvalidRef    = errorDef{LexicalError, "XQST0090", "invalid character reference: %q"}
	errNumberWs      = errorDef{LexicalError, CodeSyntax, "separator expected after number"}
	errNoQuote       = errorDef{LexicalError, CodeSyntax, "expected quote"}
	errNoContent     = errorDef{LexicalError, CodeSyntax, "unexpected end of query"}

	errExpected      = errorDef{SyntaxError, CodeSyntax, "expected %s, found %s"}
	errNoExpr        = errorDef{SyntaxError, CodeSyntax, "expression expected"}
	errIncomplete    = errorDef{SyntaxError, CodeSyntax, "incomplete expression"}
	errQueryEnd      = errorDef{SyntaxError, CodeSyntax, "unexpected end of query: %q"}
	errModuleExpr    = errorDef{SyntaxError, CodeSyntax, "library module can not contain an expression: %q"}
	errMainModule    = errorDef{SyntaxError, CodeSyntax, "main module expected, library module found"}
	errLibModule     = errorDef{SyntaxError, CodeSyntax, "library module expected, main module found"}
	errPrologOrder   = errorDef{SyntaxError, CodeSyntax, "setter declarations must precede variable, function and option declarations"}
	errNoName        = errorDef{SyntaxError, CodeSyntax, "name expected, found %s"}
	errNoVarName     = errorDef{SyntaxError, CodeSyntax, "variable name expected, found %s"}
	errReserved      = errorDef{SyntaxError, CodeSyntax, "%s: reserved name can not be used as function name"}
	errFlworReturn   = errorDef{SyntaxError, CodeSyntax, "incomplete flwor expression: return expected"}
	errFlworClause   = errorDef{SyntaxError, CodeSyntax, "incomplete flwor expression: for, let or window clause expected"}
	errNoWhere       = errorDef{SyntaxError, CodeSyntax, "expression expected after where"}
	errNoSatisfies   = errorDef{SyntaxError, CodeSyntax, "expected satisfies clause"}
	errNoTernary     = errorDef{SyntaxError, CodeSyntax, "incomplete ternary expression"}
	errNoDefault     = errorDef{SyntaxError, CodeSyntax, "default expression expected"}
	errWindowEnd     = errorDef{SyntaxError, CodeSyntax, "sliding window requires an end condition"}
	errNoTypeswitch  = errorDef{SyntaxError, CodeSyntax, "typeswitch requires at least one case"}
	errNoSwitch      = errorDef{SyntaxError, CodeSyntax, "switch requires at least one case"}
	errNoCatch       = errorDef{SyntaxError, CodeSyntax, "try expression requires a catch clause"}
	errPragmaInvalid = errorDef{SyntaxError, CodeSyntax, "invalid pragma"}
	errTagWrong      = errorDef{SyntaxError, "XQST0118", "start and end tag are different: <%s>...</%s>"}
	errNoTag         = errorDef{SyntaxError, CodeSyntax, "tag name expected"}
	errPIXml         = errorDef{SyntaxError, CodeSyntax, "processing instruction can not be named %s"}
	errCommentDash   = errorDef{SyntaxError, CodeSyntax, "comment can not contain '--'"}
	errNoArgs        = errorDef{SyntaxError, CodeSyntax, "argument list expected"}
	errArrowTarget   = errorDef{SyntaxError, CodeSyntax, "function expected after arrow"}
	errVersion       = errorDef{SyntaxError, "XQST0031", "xquery version not supported: %q"}
	errEncoding      = errorDef{SyntaxError, "XQST0087", "unknown encoding: %q"}
	errNumberRange   = errorDef{SyntaxError, CodeSyntax, "invalid range"}
	errTooDeep       = errorDef{SyntaxError, CodeTooDeep, "expression too deeply nested (limit %d)"}
	errStringCons    = errorDef{SyntaxError, CodeSyntax, "string constructor not closed"}
	errFTWithout     = errorDef{UnsupportedError, "FTST0001", "without content is not supported"}

	errNoURI          = errorDef{BindingError, CodeUnboundPrefix, "no namespace declared for prefix %q%s"}
	errUndefinedVar   = errorDef{BindingError, CodeUndefinedVar, "undeclared variable: $%s"}
	errDuplNsDecl     = errorDef{BindingError, "XQST0033", "duplicate declaration of namespace prefix %q"}
	errDuplElemNs     = errorDef{BindingError, "XQST0066", "duplicate default element namespace declaration"}
	errDuplFuncNs     = errorDef{BindingError, "XQST0066", "duplicate default function namespace declaration"}
	errDuplBoundary   = errorDef{BindingError, "XQST0068", "duplicate boundary-space declaration"}
	errDuplOrdering   = errorDef{BindingError, "XQST0065", "duplicate ordering declaration"}
	errDuplEmptyOrder = errorDef{BindingError, "XQST0069", "duplicate empty order declaration"}
	errDuplCopyNs     = errorDef{BindingError, "XQST0055", "duplicate copy-namespaces declaration"}
	errDuplConstruct  = errorDef{BindingError, "XQST0067", "duplicate construction declaration"}
	errDuplBaseURI    = errorDef{BindingError, "XQST0032", "duplicate base-uri declaration"}
	errDuplCollation  = errorDef{BindingError, "XQST0038", "duplicate default collation declaration"}
	errDuplRevalidate = errorDef{BindingError, "XUST0003", "duplicate revalidation declaration"}
	errDuplContext    = errorDef{BindingError, "XQST0099", "duplicate context item declaration"}
	errDuplDecFormat  = errorDef{BindingError, "XQST0111", "duplicate decimal-format declaration: %s"}
	errDuplDecProp    = errorDef{BindingError, "XQST0114", "duplicate decimal-format property: %s"}
	errInvDecProp     = errorDef{BindingError, "XQST0097", "invalid decimal-format property: %s=%q"}
	errDuplFtOption   = errorDef{BindingError, "FTST0019", "duplicate ft-option declaration"}
	errBindXml        = errorDef{BindingError, "XQST0070", "namespace %q can not be bound"}
	errUnknownColl    = errorDef{BindingError, "XQST0038", "unknown collation: %q"}
	errDuplVar        = errorDef{BindingError, "XQST0049", "duplicate declaration of variable $%s"}
	errDuplFunc       = errorDef{BindingError, "XQST0034", "duplicate declaration of function %s#%d"}
	errDuplParam      = errorDef{BindingError, "XQST0039", "duplicate parameter name $%s"}
	errDuplFlworVar   = errorDef{BindingError, "XQST0089", "duplicate variable name $%s in clause"}
	errGroupVar       = errorDef{BindingError, "XQST0094", "grouping variable not defined: $%s"}
	errModuleNs       = errorDef{BindingError, "XQST0048", "%s is not in the module namespace %q"}
	errFuncReserved   = errorDef{BindingError, "XQST0045", "function %s declared in a reserved namespace"}
	errFuncNoNS       = errorDef{BindingError, "XQST0060", "function %s has no namespace"}
	errDuplNsAttr     = errorDef{BindingError, "XQST0071", "duplicate namespace declaration: %s"}
	errNsAttrValue    = errorDef{BindingError, "XQST0022", "namespace declaration must be a literal"}
	errUnknownType    = errorDef{BindingError, CodeUnknownType, "unknown type: %s%s"}
	errUnknownOption  = errorDef{BindingError, "XQPR0007", "unknown option: %s%s"}

	errModuleEmptyURI = errorDef{ModuleError, "XQST0088", "module namespace can not be empty"}
	errDuplModule     = errorDef{ModuleError, CodeDuplicateImport, "module %q imported twice"}
	errWhichModule    = errorDef{ModuleError, CodeModuleNotFound, "module not found: %q"}
	errModuleFile     = errorDef{ModuleError, CodeModuleNotFound, "could not load module %s: %s"}
	errWrongModule    = errorDef{ModuleError, CodeWrongModule, "%s: module namespace %q expected, %q found"}
	errImportCycle    = errorDef{ModuleError, CodeImportCycle, "import cycle detected: %s"}
	errContextTypes   = errorDef{ModuleError, "XPTY0004", "incompatible context item types: %s and %s"}

	errDuplAttr      = errorDef{SemanticError, CodeDuplicateAttr, "duplicate attribute: %s"}
	errUpdatingMix   = errorDef{SemanticError, CodeUpdatingMix, "updating and non-updating expressions can not be mixed"}
	errUpdatingVar   = errorDef{SemanticError, "XUST0032", "variable can not be declared as updating"}
	errAnnReserved   = errorDef{SemanticError, "XQST0045", "annotation %%%s is not defined in reserved namespace%s"}
	errAnnUnknown    = errorDef{SemanticError, "XQPR0003", "unknown annotation %%%s%s"}
	errAnnArity      = errorDef{SemanticError, "XQPR0004", "%%%s: %d argument(s) supplied, %s expected"}
	errAnnType       = errorDef{SemanticError, "XQPR0005", "%%%s: %s expected, %s found"}
	errAnnDupl       = errorDef{SemanticError, "XQPR0006", "annotation %%%s specified more than once"}
	errAnnVisibility = errorDef{SemanticError, "XQST0106", "conflicting visibility annotations"}
	errAnnValue      = errorDef{SemanticError, CodeSyntax, "literal expected as annotation argument"}
	errAnnNoDecl     = errorDef{SyntaxError, CodeSyntax, "variable or function declaration expected after annotations"}
	errFTDupl        = errorDef{SemanticError, "FTST0019", "match option %q specified more than once"}
	errFTFuzzy       = errorDef{SemanticError, "XQPR0002", "wildcards and fuzzy can not be combined"}
	errFTStopFile    = errorDef{SemanticError, "FTST0008", "could not load stop words %q: %s"}
	errFTMildNot     = errorDef{SemanticError, "FTDY0017", "mild not can not be used with an exclusion"}

	errSchemaImport = errorDef{UnsupportedError, "XQST0009", "schema import not supported"}
	errValidate     = errorDef{UnsupportedError, "XQST0075", "validation not supported"}
	errSchemaTest   = errorDef{UnsupportedError, "XPST0008", "schema tests not supported: %s"}
)

// Snippet renders the line of source containing the position of err
// followed by a caret pointing at the offending column.
func Snippet(err error, source string) string {
	var qe QueryError
	if !errors.As(err, &qe) || qe.Line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if qe.Line > len(lines) {
		return ""
	}
	var (
		str  strings.Builder
		line = strings.TrimRight(lines[qe.Line-1], "\r")
		col  = qe.Column
	)
	if col < 1 {
		col = 1
	}
	prefix := fmt.Sprintf("%4d | ", qe.Line)
	str.WriteString(prefix)
	str.WriteString(line)
	str.WriteString("\n")
	str.WriteString(strings.Repeat(" ", len(prefix)-2))
	str.WriteString("| ")
	for i, r := range []rune(line) {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			str.WriteByte('\t')
		} else {
			str.WriteByte(' ')
		}
	}
	str.WriteString("^")
	return str.String()
}
