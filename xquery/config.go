package xquery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const MaxDepth = 512

// Config is the part of the parser settings that can be read from a
// file.
type Config struct {
	BaseURI    string            `yaml:"base-uri"`
	Namespaces map[string]string `yaml:"namespaces"`
	Modules    map[string]string `yaml:"modules"`
	Repository []string          `yaml:"repository"`
	MaxDepth   int               `yaml:"max-depth"`
	MixUpdates bool              `yaml:"mix-updates"`
	StopWords  []string          `yaml:"stop-words"`
}

func LoadConfig(file string) (Config, error) {
	var cfg Config
	buf, err := os.ReadFile(file)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", file, err)
	}
	dir := filepath.Dir(file)
	for uri, path := range cfg.Modules {
		if !filepath.IsAbs(path) && !strings.Contains(path, "://") {
			cfg.Modules[uri] = filepath.Join(dir, path)
		}
	}
	for i, path := range cfg.Repository {
		if !filepath.IsAbs(path) {
			cfg.Repository[i] = filepath.Join(dir, path)
		}
	}
	for i, path := range cfg.StopWords {
		if !filepath.IsAbs(path) {
			cfg.StopWords[i] = filepath.Join(dir, path)
		}
	}
	return cfg, nil
}

type ParserOption func(*Parser)

func WithConfig(cfg Config) ParserOption {
	return func(p *Parser) {
		if cfg.BaseURI != "" {
			p.baseURI = cfg.BaseURI
		}
		for prefix, uri := range cfg.Namespaces {
			p.external[prefix] = uri
		}
		for uri, path := range cfg.Modules {
			p.declared[uri] = path
		}
		if len(cfg.Repository) > 0 {
			p.locator = RepositoryLocator{Dirs: cfg.Repository}
		}
		if cfg.MaxDepth > 0 {
			p.maxDepth = cfg.MaxDepth
		}
		p.mixUpdates = cfg.MixUpdates
		p.stopDirs = append(p.stopDirs, cfg.StopWords...)
	}
}

func WithBaseURI(uri string) ParserOption {
	return func(p *Parser) {
		p.baseURI = uri
	}
}

func WithFile(file string) ParserOption {
	return func(p *Parser) {
		p.file = file
	}
}

func WithNamespace(prefix, uri string) ParserOption {
	return func(p *Parser) {
		p.external[prefix] = uri
	}
}

// WithModule declares the source file of the module with the given
// namespace. It is used when an import has no location hints.
func WithModule(uri, path string) ParserOption {
	return func(p *Parser) {
		p.declared[uri] = path
	}
}

func WithLocator(locator ModuleLocator) ParserOption {
	return func(p *Parser) {
		p.locator = locator
	}
}

func WithLoader(loader Loader) ParserOption {
	return func(p *Parser) {
		p.loader = loader
	}
}

func WithCollations(provider CollationProvider) ParserOption {
	return func(p *Parser) {
		p.collations = provider
	}
}

func WithOptions(registry OptionRegistry) ParserOption {
	return func(p *Parser) {
		p.options = registry
	}
}

func WithTracer(tracer Tracer) ParserOption {
	return func(p *Parser) {
		p.Tracer = tracer
	}
}

func WithMaxDepth(depth int) ParserOption {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

func WithMixUpdates(mix bool) ParserOption {
	return func(p *Parser) {
		p.mixUpdates = mix
	}
}

func WithContext(ctx context.Context) ParserOption {
	return func(p *Parser) {
		p.ctx = ctx
	}
}

type CollationProvider interface {
	Resolve(string) (string, bool)
}

type defaultCollations struct{}

const uca = "http://www.w3.org/2013/collation/UCA"

func (_ defaultCollations) Resolve(uri string) (string, bool) {
	switch {
	case uri == CodepointCollation:
		return uri, true
	case uri == uca || strings.HasPrefix(uri, uca+"?"):
		return uri, true
	case uri == "http://www.w3.org/2005/xpath-functions/collation/html-ascii-case-insensitive":
		return uri, true
	default:
		return "", false
	}
}

type OptionRegistry interface {
	Lookup(QName) bool
	Owns(string) bool
	Register(QName)
}

// optionSet knows the serialization parameters and the options of the
// engine namespace. Options in any other namespace are not checked.
type optionSet struct {
	names map[string]struct{}
}

var serializationParams = []string{
	"allow-duplicate-names",
	"byte-order-mark",
	"cdata-section-elements",
	"doctype-public",
	"doctype-system",
	"encoding",
	"escape-uri-attributes",
	"html-version",
	"include-content-type",
	"indent",
	"item-separator",
	"json-node-output-method",
	"media-type",
	"method",
	"normalization-form",
	"omit-xml-declaration",
	"parameter-document",
	"standalone",
	"suppress-indentation",
	"undeclare-prefixes",
	"use-character-maps",
	"version",
}

var engineOptions = []string{
	"max-depth",
	"mix-updates",
	"inline-limit",
	"timeout",
	"strip-ws",
}

func DefaultOptions() OptionRegistry {
	set := optionSet{
		names: make(map[string]struct{}),
	}
	for _, n := range serializationParams {
		set.Register(ExpandedName(OutputURI, n))
	}
	for _, n := range engineOptions {
		set.Register(ExpandedName(XqURI, n))
	}
	return &set
}

func (o *optionSet) Lookup(name QName) bool {
	_, ok := o.names[name.Key()]
	return ok
}

func (o *optionSet) Owns(uri string) bool {
	return uri == OutputURI || uri == XqURI
}

func (o *optionSet) Register(name QName) {
	o.names[name.Key()] = struct{}{}
}

func (o *optionSet) known(uri string) []string {
	var list []string
	for k := range o.names {
		prefix := "Q{" + uri + "}"
		if strings.HasPrefix(k, prefix) {
			list = append(list, strings.TrimPrefix(k, prefix))
		}
	}
	return list
}
