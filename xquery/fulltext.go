package xquery

import (
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

type FTFlag int8

const (
	FlagUnset FTFlag = iota
	FlagOff
	FlagOn
)

func (f FTFlag) set() bool {
	return f != FlagUnset
}

func flagOf(on bool) FTFlag {
	if on {
		return FlagOn
	}
	return FlagOff
}

type FTCase int8

const (
	CaseUnset FTCase = iota
	CaseInsensitive
	CaseSensitive
	CaseLower
	CaseUpper
)

func (c FTCase) String() string {
	switch c {
	case CaseInsensitive:
		return "case insensitive"
	case CaseSensitive:
		return "case sensitive"
	case CaseLower:
		return "lowercase"
	case CaseUpper:
		return "uppercase"
	default:
		return ""
	}
}

type ThesaurusRef struct {
	URI          string
	Relationship string
	Min          int64
	Max          int64
}

// FTThesaurus is a thesaurus option. Refs is empty when only the default
// thesaurus is used.
type FTThesaurus struct {
	Use     bool
	Default bool
	Refs    []ThesaurusRef
}

// FTStopWords is a stop words option. Words is the list resulting from
// the union and except operations, files included.
type FTStopWords struct {
	Use     bool
	Default bool
	Words   []string
	Files   []string
}

// FTOpt are the match options of a full-text selection. Unset options
// take the value of the enclosing options.
type FTOpt struct {
	Case       FTCase
	Diacritics FTFlag
	Stemming   FTFlag
	Wildcards  FTFlag
	Fuzzy      FTFlag
	Errors     int
	Language   string
	Thesaurus  *FTThesaurus
	StopWords  *FTStopWords
}

func defaultFTOpt() *FTOpt {
	opt := FTOpt{
		Case:       CaseInsensitive,
		Diacritics: FlagOff,
		Stemming:   FlagOff,
		Wildcards:  FlagOff,
		Fuzzy:      FlagOff,
		Language:   "en",
	}
	return &opt
}

// Overlay returns the options of o completed by the ones of base.
func (o *FTOpt) Overlay(base *FTOpt) *FTOpt {
	x := *o
	if base == nil {
		return &x
	}
	if x.Case == CaseUnset {
		x.Case = base.Case
	}
	if !x.Diacritics.set() {
		x.Diacritics = base.Diacritics
	}
	if !x.Stemming.set() {
		x.Stemming = base.Stemming
	}
	if !x.Wildcards.set() {
		x.Wildcards = base.Wildcards
	}
	if !x.Fuzzy.set() {
		x.Fuzzy = base.Fuzzy
		x.Errors = base.Errors
	}
	if x.Language == "" {
		x.Language = base.Language
	}
	if x.Thesaurus == nil {
		x.Thesaurus = base.Thesaurus
	}
	if x.StopWords == nil {
		x.StopWords = base.StopWords
	}
	return &x
}

type FTMode int

const (
	FTAny FTMode = iota
	FTAnyWord
	FTAll
	FTAllWords
	FTPhrase
)

func (m FTMode) String() string {
	switch m {
	case FTAnyWord:
		return "any word"
	case FTAll:
		return "all"
	case FTAllWords:
		return "all words"
	case FTPhrase:
		return "phrase"
	default:
		return "any"
	}
}

type FTUnit string

const (
	UnitWords      FTUnit = "words"
	UnitSentences  FTUnit = "sentences"
	UnitParagraphs FTUnit = "paragraphs"
)

// FTRange is an occurrence or distance range. Both bounds are inclusive.
type FTRange struct {
	From Expr
	To   Expr
}

// Bounds returns the bounds of the range when both are integer literals.
func (r FTRange) Bounds() (int64, int64, bool) {
	from, ok1 := integerValue(r.From)
	to, ok2 := integerValue(r.To)
	return from, to, ok1 && ok2
}

func integerValue(e Expr) (int64, bool) {
	lit, ok := e.(*Literal)
	if !ok || lit.Kind != IntegerLiteral {
		return 0, false
	}
	n, err := strconv.ParseInt(lit.Value, 10, 64)
	return n, err == nil
}

func intLiteral(n int64, pos Position) *Literal {
	return &Literal{
		Kind:     IntegerLiteral,
		Value:    strconv.FormatInt(n, 10),
		Position: pos,
	}
}

type FTContains struct {
	Expr     Expr
	Select   Expr
	Defaults *FTOpt
	Position
}

func (_ FTContains) Type() SeqType {
	return BooleanType
}

type FTWords struct {
	Value  Expr
	Mode   FTMode
	Occurs *FTRange
	Position
}

func (_ FTWords) Type() SeqType {
	return BooleanType
}

type FTOr struct {
	Exprs []Expr
	Position
}

func (_ FTOr) Type() SeqType {
	return BooleanType
}

type FTAnd struct {
	Exprs []Expr
	Position
}

func (_ FTAnd) Type() SeqType {
	return BooleanType
}

type FTMildNot struct {
	Expr Expr
	Not  Expr
	Position
}

func (_ FTMildNot) Type() SeqType {
	return BooleanType
}

type FTNot struct {
	Expr Expr
	Position
}

func (_ FTNot) Type() SeqType {
	return BooleanType
}

type FTOptions struct {
	Expr    Expr
	Options *FTOpt
	Position
}

func (_ FTOptions) Type() SeqType {
	return BooleanType
}

type FTWeight struct {
	Expr   Expr
	Weight Expr
	Position
}

func (_ FTWeight) Type() SeqType {
	return BooleanType
}

type FTOrder struct {
	Expr Expr
	Position
}

func (_ FTOrder) Type() SeqType {
	return BooleanType
}

type FTWindow struct {
	Expr Expr
	Size Expr
	Unit FTUnit
	Position
}

func (_ FTWindow) Type() SeqType {
	return BooleanType
}

type FTDistance struct {
	Expr  Expr
	Range FTRange
	Unit  FTUnit
	Position
}

func (_ FTDistance) Type() SeqType {
	return BooleanType
}

// FTContent anchors a selection: Content is start, end or entire.
type FTContent struct {
	Expr    Expr
	Content string
	Position
}

func (_ FTContent) Type() SeqType {
	return BooleanType
}

type FTScope struct {
	Expr Expr
	Same bool
	Unit FTUnit
	Position
}

func (_ FTScope) Type() SeqType {
	return BooleanType
}

type FTExtension struct {
	Pragma Pragma
	Expr   Expr
	Position
}

func (_ FTExtension) Type() SeqType {
	return BooleanType
}

// operand gives access to the selection a positional modifier applies to.
func operand(e Expr) *Expr {
	switch x := e.(type) {
	case *FTWindow:
		return &x.Expr
	case *FTDistance:
		return &x.Expr
	case *FTContent:
		return &x.Expr
	case *FTScope:
		return &x.Expr
	default:
		return nil
	}
}

// usesExclusion reports whether a selection contains a negation.
func usesExclusion(e Expr) bool {
	switch x := e.(type) {
	case *FTNot, *FTMildNot:
		return true
	case *FTOr:
		return slices.ContainsFunc(x.Exprs, usesExclusion)
	case *FTAnd:
		return slices.ContainsFunc(x.Exprs, usesExclusion)
	case *FTOptions:
		return usesExclusion(x.Expr)
	case *FTWeight:
		return usesExclusion(x.Expr)
	case *FTOrder:
		return usesExclusion(x.Expr)
	case *FTExtension:
		return usesExclusion(x.Expr)
	default:
		if op := operand(e); op != nil {
			return usesExclusion(*op)
		}
		return false
	}
}

func (p *Parser) ftOptionDecl() error {
	if err := p.setter("ft-option", errDuplFtOption); err != nil {
		return err
	}
	var opt FTOpt
	found, err := p.matchOptions(&opt)
	if err != nil {
		return err
	}
	if !found {
		return p.error(errExpected, "using", p.found())
	}
	p.ftopt = opt.Overlay(p.ftopt)
	p.static.FTOptions = p.ftopt
	return nil
}

func (p *Parser) ftContains() (Expr, error) {
	pos := p.here()
	e, err := p.concat()
	if err != nil || e == nil {
		return e, err
	}
	mark := p.mark()
	if !p.wsConsumeWs("contains") || !p.wsConsumeWs("text") {
		p.reset(mark)
		return e, nil
	}
	p.Enter("ft-contains")
	defer p.Leave("ft-contains")

	sel, err := p.ftSelection(false)
	if err != nil {
		return nil, err
	}
	if p.wsConsumeWs("without") {
		if err := p.wsCheck("content"); err != nil {
			return nil, err
		}
		return nil, p.error(errFTWithout)
	}
	expr := FTContains{
		Expr:     e,
		Select:   sel,
		Defaults: p.ftopt,
		Position: pos,
	}
	return &expr, nil
}

// ftSelection parses a selection followed by its positional filters. When
// ordered is combined with other filters, the order applies to the
// operand of the first filter.
func (p *Parser) ftSelection(pragma bool) (Expr, error) {
	p.skipWs()
	pos := p.here()
	ex, err := p.ftOr(pragma)
	if err != nil {
		return nil, err
	}
	var (
		first   Expr
		ordered bool
	)
	for {
		old := ex
		p.skipWs()
		mpos := p.here()
		switch {
		case p.wsConsumeWs("ordered"):
			ordered = true
			old = nil
		case p.wsConsumeWs("window"):
			size, err := p.required(p.additive())
			if err != nil {
				return nil, err
			}
			unit, err := p.ftUnit()
			if err != nil {
				return nil, err
			}
			ex = &FTWindow{Expr: ex, Size: size, Unit: unit, Position: mpos}
		case p.wsConsumeWs("distance"):
			rg, err := p.ftRange(false)
			if err != nil {
				return nil, err
			}
			if rg == nil {
				return nil, p.error(errExpected, "range", p.found())
			}
			unit, err := p.ftUnit()
			if err != nil {
				return nil, err
			}
			ex = &FTDistance{Expr: ex, Range: *rg, Unit: unit, Position: mpos}
		case p.wsConsumeWs("at"):
			var content string
			switch {
			case p.wsConsumeWs("start"):
				content = "start"
			case p.wsConsumeWs("end"):
				content = "end"
			default:
				return nil, p.error(errIncomplete)
			}
			ex = &FTContent{Expr: ex, Content: content, Position: mpos}
		case p.wsConsumeWs("entire"):
			if err := p.wsCheck("content"); err != nil {
				return nil, err
			}
			ex = &FTContent{Expr: ex, Content: "entire", Position: mpos}
		case p.wsConsumeWs("same"):
			if ex, err = p.ftScope(ex, true, mpos); err != nil {
				return nil, err
			}
		case p.wsConsumeWs("different"):
			if ex, err = p.ftScope(ex, false, mpos); err != nil {
				return nil, err
			}
		}
		if first == nil && old != nil && old != ex {
			first = ex
		}
		if old == ex {
			break
		}
	}
	if ordered {
		if first == nil {
			return &FTOrder{Expr: ex, Position: pos}, nil
		}
		if op := operand(first); op != nil {
			*op = &FTOrder{Expr: *op, Position: (*op).Pos()}
		}
	}
	return ex, nil
}

func (p *Parser) ftScope(ex Expr, same bool, pos Position) (Expr, error) {
	scope := FTScope{
		Expr:     ex,
		Same:     same,
		Position: pos,
	}
	switch {
	case p.wsConsumeWs("sentence"):
		scope.Unit = UnitSentences
	case p.wsConsumeWs("paragraph"):
		scope.Unit = UnitParagraphs
	default:
		return nil, p.error(errIncomplete)
	}
	return &scope, nil
}

func (p *Parser) ftOr(pragma bool) (Expr, error) {
	pos := p.here()
	e, err := p.ftAnd(pragma)
	if err != nil || !p.wsConsumeWs("ftor") {
		return e, err
	}
	expr := FTOr{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.ftAnd(pragma)
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsumeWs("ftor") {
			break
		}
	}
	return &expr, nil
}

func (p *Parser) ftAnd(pragma bool) (Expr, error) {
	pos := p.here()
	e, err := p.ftMildNot(pragma)
	if err != nil || !p.wsConsumeWs("ftand") {
		return e, err
	}
	expr := FTAnd{
		Exprs:    []Expr{e},
		Position: pos,
	}
	for {
		next, err := p.ftMildNot(pragma)
		if err != nil {
			return nil, err
		}
		expr.Exprs = append(expr.Exprs, next)
		if !p.wsConsumeWs("ftand") {
			break
		}
	}
	return &expr, nil
}

// ftMildNot folds "a not in b not in c" into a mild not whose right
// operand is the disjunction of b and c.
func (p *Parser) ftMildNot(pragma bool) (Expr, error) {
	pos := p.here()
	e, err := p.ftUnaryNot(pragma)
	if err != nil || !p.peekKeyword("not", "in") {
		return e, err
	}
	var list []Expr
	for p.wsConsumeWs("not") {
		if !p.wsConsumeWs("in") {
			return nil, p.error(errExpected, "in", p.found())
		}
		next, err := p.ftUnaryNot(pragma)
		if err != nil {
			return nil, err
		}
		list = append(list, next)
	}
	not := list[0]
	if len(list) > 1 {
		not = &FTOr{Exprs: list, Position: list[0].Pos()}
	}
	if usesExclusion(e) || usesExclusion(not) {
		return nil, p.errorAt(errFTMildNot, pos)
	}
	expr := FTMildNot{
		Expr:     e,
		Not:      not,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) ftUnaryNot(pragma bool) (Expr, error) {
	p.skipWs()
	pos := p.here()
	not := p.wsConsumeWs("ftnot")
	e, err := p.ftPrimaryWithOptions(pragma)
	if err != nil || !not {
		return e, err
	}
	return &FTNot{Expr: e, Position: pos}, nil
}

func (p *Parser) ftPrimaryWithOptions(pragma bool) (Expr, error) {
	p.skipWs()
	pos := p.here()
	e, err := p.ftPrimary(pragma)
	if err != nil {
		return nil, err
	}
	var opt FTOpt
	found, err := p.matchOptions(&opt)
	if err != nil {
		return nil, err
	}
	if p.wsConsumeWs2("weight", "{", &errIncomplete) {
		w, err := p.enclosedExpr()
		if err != nil {
			return nil, err
		}
		e = &FTWeight{Expr: e, Weight: w, Position: pos}
	}
	if !found {
		return e, nil
	}
	expr := FTOptions{
		Expr:     e,
		Options:  &opt,
		Position: pos,
	}
	return &expr, nil
}

func (p *Parser) ftPrimary(pragma bool) (Expr, error) {
	p.skipWs()
	pos := p.here()
	pragmas, err := p.pragmas()
	if err != nil {
		return nil, err
	}
	if len(pragmas) > 0 {
		if err := p.wsCheck("{"); err != nil {
			return nil, err
		}
		e, err := p.ftSelection(true)
		if err != nil {
			return nil, err
		}
		if err := p.wsCheck("}"); err != nil {
			return nil, err
		}
		for i := len(pragmas) - 1; i >= 0; i-- {
			e = &FTExtension{Pragma: pragmas[i], Expr: e, Position: pos}
		}
		return e, nil
	}
	if p.wsConsume("(") {
		e, err := p.ftSelection(false)
		if err != nil {
			return nil, err
		}
		return e, p.wsCheck(")")
	}
	p.skipWs()
	var value Expr
	switch {
	case p.is('"') || p.is('\''):
		str, err := p.stringLiteral()
		if err != nil {
			return nil, err
		}
		value = &Literal{Kind: StringLiteral, Value: str, Position: pos}
	case p.is('{'):
		if value, err = p.enclosedExpr(); err != nil {
			return nil, err
		}
	case pragma:
		return nil, p.error(errExpected, "pragma content", p.found())
	default:
		return nil, p.error(errExpected, "full-text selection", p.found())
	}
	words := FTWords{
		Value:    value,
		Position: pos,
	}
	switch {
	case p.wsConsumeWs("all"):
		words.Mode = FTAll
		if p.wsConsumeWs("words") {
			words.Mode = FTAllWords
		}
	case p.wsConsumeWs("any"):
		words.Mode = FTAny
		if p.wsConsumeWs("word") {
			words.Mode = FTAnyWord
		}
	case p.wsConsumeWs("phrase"):
		words.Mode = FTPhrase
	}
	if p.wsConsumeWs("occurs") {
		rg, err := p.ftRange(false)
		if err != nil {
			return nil, err
		}
		if rg == nil {
			return nil, p.error(errExpected, "range", p.found())
		}
		if err := p.wsCheck("times"); err != nil {
			return nil, err
		}
		words.Occurs = rg
	}
	return &words, nil
}

// ftRange parses exactly, at least, at most and from-to ranges. The
// missing bound of an open range is 0 or the largest integer. Nil is
// returned when no range starts at the cursor.
func (p *Parser) ftRange(literal bool) (*FTRange, error) {
	p.skipWs()
	var (
		pos   = p.here()
		mark  = p.mark()
		rg    = FTRange{From: intLiteral(0, pos), To: intLiteral(math.MaxInt64, pos)}
		bound = func() (Expr, error) {
			return p.ftBound(literal)
		}
		err error
	)
	switch {
	case p.wsConsumeWs("exactly"):
		if rg.From, err = bound(); err != nil {
			return nil, err
		}
		rg.To = rg.From
	case p.wsConsumeWs("at"):
		switch {
		case p.wsConsumeWs("least"):
			rg.From, err = bound()
		case p.wsConsumeWs("most"):
			rg.To, err = bound()
		default:
			p.reset(mark)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	case p.wsConsumeWs("from"):
		if rg.From, err = bound(); err != nil {
			return nil, err
		}
		if !p.wsConsumeWs("to") {
			return nil, p.error(errExpected, "to", p.found())
		}
		if rg.To, err = bound(); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	return &rg, nil
}

func (p *Parser) ftBound(literal bool) (Expr, error) {
	if !literal {
		return p.required(p.additive())
	}
	p.skipWs()
	pos := p.here()
	start := p.mark()
	for isDigit(p.curr()) {
		p.pos++
	}
	if start == p.mark() {
		return nil, p.error(errExpected, "integer", p.found())
	}
	n, err := strconv.ParseInt(p.text(start, p.mark()), 10, 64)
	if err != nil {
		return nil, p.errorAt(errNumberRange, pos)
	}
	return intLiteral(n, pos), nil
}

func (p *Parser) ftUnit() (FTUnit, error) {
	for _, u := range []FTUnit{UnitWords, UnitSentences, UnitParagraphs} {
		if p.wsConsumeWs(string(u)) {
			return u, nil
		}
	}
	return "", p.error(errIncomplete)
}

// matchOptions parses a list of match options. It reports whether at
// least one option was found.
func (p *Parser) matchOptions(opt *FTOpt) (bool, error) {
	var found bool
	for {
		ok, err := p.matchOption(opt)
		if err != nil || !ok {
			return found, err
		}
		found = true
	}
}

func (p *Parser) matchOption(opt *FTOpt) (bool, error) {
	if !p.wsConsumeWs("using") {
		return false, nil
	}
	setCase := func(c FTCase) error {
		if opt.Case != CaseUnset {
			return p.error(errFTDupl, "case")
		}
		opt.Case = c
		return nil
	}
	var err error
	switch {
	case p.wsConsumeWs("lowercase"):
		err = setCase(CaseLower)
	case p.wsConsumeWs("uppercase"):
		err = setCase(CaseUpper)
	case p.wsConsumeWs("case"):
		if p.wsConsumeWs("sensitive") {
			err = setCase(CaseSensitive)
		} else if err = p.wsCheck("insensitive"); err == nil {
			err = setCase(CaseInsensitive)
		}
	case p.wsConsumeWs("diacritics"):
		if opt.Diacritics.set() {
			return false, p.error(errFTDupl, "diacritics")
		}
		sensitive := p.wsConsumeWs("sensitive")
		if !sensitive {
			err = p.wsCheck("insensitive")
		}
		opt.Diacritics = flagOf(sensitive)
	case p.wsConsumeWs("language"):
		if opt.Language != "" {
			return false, p.error(errFTDupl, "language")
		}
		opt.Language, err = p.stringLiteral()
	case p.wsConsumeWs("option"):
		err = p.optionDecl()
	default:
		use := !p.wsConsumeWs("no")
		switch {
		case p.wsConsumeWs("stemming"):
			if opt.Stemming.set() {
				return false, p.error(errFTDupl, "stemming")
			}
			opt.Stemming = flagOf(use)
		case p.wsConsumeWs("thesaurus"):
			err = p.thesaurusOption(opt, use)
		case p.wsConsumeWs("stop"):
			err = p.stopWordsOption(opt, use)
		case p.wsConsumeWs("wildcards"):
			if opt.Wildcards.set() {
				return false, p.error(errFTDupl, "wildcards")
			}
			if opt.Fuzzy == FlagOn && use {
				return false, p.error(errFTFuzzy)
			}
			opt.Wildcards = flagOf(use)
		case p.wsConsumeWs("fuzzy"):
			if opt.Fuzzy.set() {
				return false, p.error(errFTDupl, "fuzzy")
			}
			if opt.Wildcards == FlagOn && use {
				return false, p.error(errFTFuzzy)
			}
			opt.Fuzzy = flagOf(use)
			p.skipWs()
			if isDigit(p.curr()) {
				n, err := p.ftBound(true)
				if err != nil {
					return false, err
				}
				errs, _ := integerValue(n)
				opt.Errors = int(errs)
				if err := p.wsCheck("errors"); err != nil {
					return false, err
				}
			}
		default:
			return false, p.error(errExpected, "match option", p.found())
		}
	}
	return err == nil, err
}

func (p *Parser) thesaurusOption(opt *FTOpt, use bool) error {
	if opt.Thesaurus != nil {
		return p.error(errFTDupl, "thesaurus")
	}
	opt.Thesaurus = &FTThesaurus{
		Use: use,
	}
	if !use {
		return nil
	}
	paren := p.wsConsume("(")
	if p.wsConsumeWs("default") {
		opt.Thesaurus.Default = true
	} else if err := p.thesaurusRef(opt.Thesaurus); err != nil {
		return err
	}
	for paren && p.wsConsume(",") {
		if err := p.thesaurusRef(opt.Thesaurus); err != nil {
			return err
		}
	}
	if paren {
		return p.wsCheck(")")
	}
	return nil
}

func (p *Parser) thesaurusRef(th *FTThesaurus) error {
	if !p.wsConsumeWs("at") {
		return p.error(errExpected, "at", p.found())
	}
	uri, err := p.uriLiteral()
	if err != nil {
		return err
	}
	ref := ThesaurusRef{
		URI: p.resolvePath(uri),
		Max: math.MaxInt64,
	}
	if p.wsConsumeWs("relationship") {
		if ref.Relationship, err = p.stringLiteral(); err != nil {
			return err
		}
	}
	rg, err := p.ftRange(true)
	if err != nil {
		return err
	}
	if rg != nil {
		if err := p.wsCheck("levels"); err != nil {
			return err
		}
		ref.Min, ref.Max, _ = rg.Bounds()
	}
	th.Refs = append(th.Refs, ref)
	return nil
}

func (p *Parser) stopWordsOption(opt *FTOpt, use bool) error {
	if !p.wsConsumeWs("words") {
		return p.error(errExpected, "words", p.found())
	}
	if opt.StopWords != nil {
		return p.error(errFTDupl, "stop words")
	}
	sw := FTStopWords{
		Use: use,
	}
	opt.StopWords = &sw
	if p.wsConsumeWs("default") {
		if !use {
			return p.error(errExpected, "stop words", "default")
		}
		sw.Default = true
		return nil
	}
	if !use {
		return nil
	}
	var except bool
	for {
		switch {
		case p.wsConsume("("):
			for {
				word, err := p.stringLiteral()
				if err != nil {
					return err
				}
				sw.update(except, word)
				if !p.wsConsume(",") {
					break
				}
			}
			if err := p.wsCheck(")"); err != nil {
				return err
			}
		case p.wsConsumeWs("at"):
			p.skipWs()
			pos := p.here()
			uri, err := p.uriLiteral()
			if err != nil {
				return err
			}
			words, err := p.loadStopWords(uri)
			if err != nil {
				return p.errorAt(errFTStopFile, pos, uri, err)
			}
			sw.Files = append(sw.Files, uri)
			sw.update(except, words...)
		default:
			return p.error(errExpected, "stop words", p.found())
		}
		union := p.wsConsumeWs("union")
		except = !union && p.wsConsumeWs("except")
		if !union && !except {
			return nil
		}
	}
}

func (s *FTStopWords) update(remove bool, words ...string) {
	for _, w := range words {
		if remove {
			s.Words = slices.DeleteFunc(s.Words, func(x string) bool {
				return x == w
			})
		} else if !slices.Contains(s.Words, w) {
			s.Words = append(s.Words, w)
		}
	}
}

// loadStopWords reads a stop words file: one word per whitespace separated
// token. Relative locations are looked up in the stop words directories
// first.
func (p *Parser) loadStopWords(uri string) ([]string, error) {
	if err := p.checkAbort(); err != nil {
		return nil, err
	}
	var (
		buf  []byte
		err  error
		file = p.resolvePath(uri)
	)
	for _, dir := range p.stopDirs {
		if strings.Contains(uri, "://") {
			break
		}
		if buf, err = p.loader.Load(p.ctx, filepath.Join(dir, uri)); err == nil {
			return strings.Fields(string(buf)), nil
		}
	}
	if buf, err = p.loader.Load(p.ctx, file); err != nil {
		return nil, err
	}
	return strings.Fields(string(buf)), nil
}
