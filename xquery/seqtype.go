package xquery

func (p *Parser) sequenceType() (SeqType, error) {
	p.Enter("sequence-type")
	defer p.Leave("sequence-type")

	p.skipWs()
	if p.wsConsumeWs2("empty-sequence", "(", &errIncomplete) {
		p.wsConsume("(")
		return SeqType{}, p.wsCheck(")")
	}
	it, err := p.itemType()
	if err != nil {
		return SeqType{}, err
	}
	st := SeqType{
		Item: it,
	}
	mark := p.mark()
	p.skipWs()
	switch {
	case p.consumeRune('?'):
		st.Occurrence = ZeroOrOne
	case p.consumeRune('*'):
		st.Occurrence = ZeroOrMore
	case p.consumeRune('+'):
		st.Occurrence = OneOrMore
	default:
		p.reset(mark)
	}
	return st, nil
}

func (p *Parser) itemType() (*ItemType, error) {
	p.skipWs()
	pos := p.here()
	if p.consumeRune('(') {
		it, err := p.itemType()
		if err != nil {
			return nil, err
		}
		return it, p.wsCheck(")")
	}
	if p.is('%') {
		if _, err := p.annotations(false); err != nil {
			return nil, err
		}
		p.skipWs()
		if !p.peekKeyword("function", "(") && !p.peekKeyword("fn", "(") {
			return nil, p.error(errExpected, "function type", p.found())
		}
	}
	kind, err := p.kindTest()
	if err != nil || kind != nil {
		return kind, err
	}
	switch {
	case p.wsConsumeWs2("item", "(", &errIncomplete):
		p.wsConsume("(")
		return &ItemType{Kind: ItemAny}, p.wsCheck(")")
	case p.wsConsumeWs2("function", "(", &errIncomplete), p.wsConsumeWs2("fn", "(", &errIncomplete):
		p.wsConsume("(")
		return p.functionTest()
	case p.wsConsumeWs2("map", "(", &errIncomplete):
		p.wsConsume("(")
		return p.mapTest()
	case p.wsConsumeWs2("array", "(", &errIncomplete):
		p.wsConsume("(")
		return p.arrayTest()
	}
	name, err := p.eQName(p.static.ElemNS, &errNoName)
	if err != nil {
		return nil, err
	}
	if !isAtomicType(name) {
		return nil, p.errorAt(errUnknownType, pos, name, suggest(name.Local, atomicTypes))
	}
	it := ItemType{
		Kind: ItemAtomic,
		Name: name,
	}
	return &it, nil
}

func (p *Parser) functionTest() (*ItemType, error) {
	it := ItemType{
		Kind: ItemFunction,
	}
	if p.wsConsume("*") {
		it.AnyFunc = true
		return &it, p.wsCheck(")")
	}
	if !p.wsConsume(")") {
		for {
			st, err := p.sequenceType()
			if err != nil {
				return nil, err
			}
			it.Params = append(it.Params, st)
			if !p.wsConsume(",") {
				break
			}
		}
		if err := p.wsCheck(")"); err != nil {
			return nil, err
		}
	}
	if err := p.wsCheck("as"); err != nil {
		return nil, err
	}
	ret, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	it.Return = &ret
	return &it, nil
}

func (p *Parser) mapTest() (*ItemType, error) {
	it := ItemType{
		Kind: ItemMap,
	}
	if p.wsConsume("*") {
		return &it, p.wsCheck(")")
	}
	p.skipWs()
	pos := p.here()
	key, err := p.itemType()
	if err != nil {
		return nil, err
	}
	if key.Kind != ItemAtomic {
		return nil, p.errorAt(errExpected, pos, "atomic type", key)
	}
	if err := p.wsCheck(","); err != nil {
		return nil, err
	}
	val, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	it.Key = key
	it.Value = &val
	return &it, p.wsCheck(")")
}

func (p *Parser) arrayTest() (*ItemType, error) {
	it := ItemType{
		Kind: ItemArray,
	}
	if p.wsConsume("*") {
		return &it, p.wsCheck(")")
	}
	val, err := p.sequenceType()
	if err != nil {
		return nil, err
	}
	it.Value = &val
	return &it, p.wsCheck(")")
}

var kindTests = []struct {
	Name string
	Kind ItemKind
}{
	{"node", ItemNode},
	{"element", ItemElement},
	{"attribute", ItemAttribute},
	{"document-node", ItemDocument},
	{"text", ItemText},
	{"comment", ItemComment},
	{"processing-instruction", ItemPI},
	{"namespace-node", ItemNamespace},
}

// kindTest parses a node kind test. Nil is returned when the cursor is not
// on a kind test.
func (p *Parser) kindTest() (*ItemType, error) {
	pos := p.mark()
	for _, schema := range []string{"schema-element", "schema-attribute"} {
		if p.wsConsumeWs2(schema, "(", nil) {
			p.reset(pos)
			return nil, p.error(errSchemaTest, schema)
		}
	}
	for _, k := range kindTests {
		if !p.wsConsumeWs2(k.Name, "(", nil) {
			continue
		}
		p.wsConsume("(")
		it := ItemType{
			Kind: k.Kind,
		}
		var err error
		switch k.Kind {
		case ItemElement, ItemAttribute:
			err = p.elementTest(&it)
		case ItemDocument:
			err = p.documentTest(&it)
		case ItemPI:
			err = p.piTest(&it)
		}
		if err != nil {
			return nil, err
		}
		return &it, p.wsCheck(")")
	}
	p.reset(pos)
	return nil, nil
}

func (p *Parser) elementTest(it *ItemType) error {
	p.skipWs()
	if p.is(')') {
		return nil
	}
	def := p.static.ElemNS
	if it.Kind == ItemAttribute {
		def = ""
	}
	if p.consumeRune('*') {
		it.Wildcard = true
	} else {
		name, err := p.eQName(def, &errNoName)
		if err != nil {
			return err
		}
		it.Name = name
	}
	if !p.wsConsume(",") {
		return nil
	}
	p.skipWs()
	tn, err := p.eQName(p.static.ElemNS, &errNoName)
	if err != nil {
		return err
	}
	it.TypeName = tn
	if it.Kind == ItemElement {
		it.Nillable = p.wsConsume("?")
	}
	return nil
}

func (p *Parser) documentTest(it *ItemType) error {
	p.skipWs()
	if p.is(')') {
		return nil
	}
	inner, err := p.kindTest()
	if err != nil {
		return err
	}
	if inner == nil || inner.Kind != ItemElement {
		return p.error(errExpected, "element test", p.found())
	}
	it.Inner = inner
	return nil
}

func (p *Parser) piTest(it *ItemType) error {
	p.skipWs()
	switch {
	case p.is(')'):
		return nil
	case p.is('"') || p.is('\''):
		str, err := p.stringLiteral()
		if err != nil {
			return err
		}
		it.Target = normalizeSpace(str)
	default:
		it.Target = p.ncName()
		if it.Target == "" {
			return p.error(errNoName, p.found())
		}
	}
	return nil
}
