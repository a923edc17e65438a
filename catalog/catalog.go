// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"codeberg.org/tscat/tscat/catalog/plural"
)

// DefaultVersion is the schema version written by Encode when a catalog has none.
const DefaultVersion = "2.1"

// supportedVersions lists the TS schema versions Load accepts.
var supportedVersions = []string{"1.1", "2.0", "2.1"}

// Status is the translation state of a message.
type Status int

// Translation states. Only Finished messages are used by lookups.
const (
	Finished Status = iota
	Unfinished
	Vanished
	Obsolete
)

// String returns the value of the TS "type" attribute for s.
func (s Status) String() string {
	switch s {
	case Unfinished:
		return "unfinished"
	case Vanished:
		return "vanished"
	case Obsolete:
		return "obsolete"
	default:
		return ""
	}
}

func parseStatus(s string) (Status, error) {
	switch s {
	case "":
		return Finished, nil
	case "unfinished":
		return Unfinished, nil
	case "vanished":
		return Vanished, nil
	case "obsolete":
		return Obsolete, nil
	}

	return Finished, fmt.Errorf("%w: unknown translation type %q", ErrMalformedDocument, s)
}

// Location is a source reference attached to a message. Locations are
// advisory and ignored by lookups.
type Location struct {
	File string
	Line int // 0 when unknown
}

// Message is one translatable unit.
type Message struct {
	ID                string
	Source            string
	OldSource         string
	Comment           string // disambiguation, part of the lookup key
	OldComment        string
	ExtraComment      string
	TranslatorComment string
	Locations         []Location

	Numerus bool
	Status  Status

	// Translation is the translated text of a non-numerus message. When the
	// translation carries length variants, Translation is the first one.
	Translation string
	Variants    []string

	// NumerusForms holds one translation per numerus form, in the order of the
	// target language's plural rule.
	NumerusForms []string
}

// translated reports whether m has a usable translation.
func (m *Message) translated() bool {
	if m.Status != Finished {
		return false
	}

	if !m.Numerus {
		return m.Translation != ""
	}

	if len(m.NumerusForms) == 0 {
		return false
	}

	for _, f := range m.NumerusForms {
		if f == "" {
			return false
		}
	}

	return true
}

// sameTranslation reports whether m and o would render identically.
func (m *Message) sameTranslation(o *Message) bool {
	return m.Status == o.Status &&
		m.Numerus == o.Numerus &&
		m.Translation == o.Translation &&
		slices.Equal(m.NumerusForms, o.NumerusForms)
}

// Context groups the messages of one UI surface.
type Context struct {
	Name     string
	Messages []*Message
}

// AmbiguityPolicy decides what an unqualified lookup does when a context holds
// several messages with the same source text but different disambiguations.
type AmbiguityPolicy int

const (
	// AmbiguityReject makes the lookup fail with ErrAmbiguous; the Lookup
	// methods then fall back to the source text.
	AmbiguityReject AmbiguityPolicy = iota

	// AmbiguityFirst picks the first declared message.
	AmbiguityFirst
)

// ParseAmbiguityPolicy parses "reject" or "first".
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch strings.ToLower(s) {
	case "", "reject":
		return AmbiguityReject, nil
	case "first":
		return AmbiguityFirst, nil
	}

	return AmbiguityReject, fmt.Errorf("unknown ambiguity policy %q", s)
}

func (p AmbiguityPolicy) String() string {
	if p == AmbiguityFirst {
		return "first"
	}

	return "reject"
}

type options struct {
	name   string
	logger *zerolog.Logger
	rule   plural.Rule
	policy AmbiguityPolicy
}

// Option configures Load and New.
type Option func(*options)

// WithName sets the name used in errors and log entries, usually the file name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used to report load issues and ambiguous lookups.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithRule overrides the plural rule derived from the catalog language.
func WithRule(r plural.Rule) Option {
	return func(o *options) { o.rule = r }
}

// WithAmbiguityPolicy sets how unqualified lookups of ambiguous keys behave.
func WithAmbiguityPolicy(p AmbiguityPolicy) Option {
	return func(o *options) { o.policy = p }
}

type lookupKey struct {
	context string
	source  string
}

// entry holds the usable messages sharing one (context, source) pair.
type entry struct {
	byComment map[string]*Message
	order     []string // disambiguations in declaration order
}

// Catalog is the set of translations for one target language.
//
// A Catalog is immutable once returned by Load or New and is safe for
// concurrent use. The exported fields must not be modified.
type Catalog struct {
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []*Context

	opts    options
	tag     language.Tag
	rule    plural.Rule
	printer *message.Printer
	logger  zerolog.Logger

	index  map[lookupKey]*entry
	byID   map[string]*Message
	broken map[*Message]error
	issues []Issue

	// ambiguousLogged deduplicates ambiguity warnings per key.
	ambiguousLogged sync.Map
}

// New builds a Catalog from already parsed contexts.
//
// The contexts and messages are retained, not copied. New validates the same
// structural constraints as Load and returns a *ParseError on violation.
func New(version, lang, sourceLang string, contexts []*Context, opts ...Option) (*Catalog, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return build(version, lang, sourceLang, contexts, o)
}

func build(version, lang, sourceLang string, contexts []*Context, o options) (*Catalog, error) {
	if version != "" && !slices.Contains(supportedVersions, version) {
		return nil, &ParseError{
			File:   o.name,
			Err:    ErrUnsupportedSchemaVersion,
			Detail: fmt.Sprintf("version %q, want one of %s", version, strings.Join(supportedVersions, ", ")),
		}
	}

	tag := language.Und

	if lang != "" {
		t, err := ParseLanguage(lang)
		if err != nil {
			return nil, &ParseError{File: o.name, Err: ErrMalformedDocument, Detail: err.Error()}
		}

		tag = t
	}

	logger := log.With().Str("sys", "catalog").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	if o.name != "" {
		logger = logger.With().Str("file", o.name).Logger()
	}

	rule := o.rule
	if rule == nil {
		rule = plural.For(tag)
	}

	c := &Catalog{
		Version:        version,
		Language:       lang,
		SourceLanguage: sourceLang,
		Contexts:       contexts,
		opts:           o,
		tag:            tag,
		rule:           rule,
		printer:        message.NewPrinter(tag),
		logger:         logger,
		index:          make(map[lookupKey]*entry),
		byID:           make(map[string]*Message),
		broken:         make(map[*Message]error),
	}

	if err := c.buildIndex(); err != nil {
		return nil, err
	}

	for _, is := range c.issues {
		c.logger.Warn().
			Str("issue", is.Kind.String()).
			Str("context", is.Context).
			Str("source", is.Source).
			Str("disambiguation", is.Disambiguation).
			Str("detail", is.Detail).
			Msg("Catalog issue")
	}

	return c, nil
}

func (c *Catalog) buildIndex() error {
	seenContexts := make(map[string]struct{}, len(c.Contexts))

	for _, ctx := range c.Contexts {
		if _, dup := seenContexts[ctx.Name]; dup {
			return &ParseError{
				File:   c.opts.name,
				Err:    ErrMalformedDocument,
				Detail: fmt.Sprintf("duplicate context %q", ctx.Name),
			}
		}

		seenContexts[ctx.Name] = struct{}{}

		for _, m := range ctx.Messages {
			if m.Source == "" {
				return &ParseError{
					File:   c.opts.name,
					Err:    ErrMalformedDocument,
					Detail: fmt.Sprintf("message without source in context %q", ctx.Name),
				}
			}

			// Vanished and obsolete messages are kept for round trips only.
			if m.Status == Vanished || m.Status == Obsolete {
				continue
			}

			c.validateMessage(ctx.Name, m)
			c.indexMessage(ctx.Name, m)
		}
	}

	return nil
}

func (c *Catalog) validateMessage(ctxName string, m *Message) {
	if !m.Numerus || m.Status != Finished {
		return
	}

	if want := c.rule.Forms(); len(m.NumerusForms) != want {
		err := fmt.Errorf("%w: have %d, want %d", ErrPluralFormCountMismatch, len(m.NumerusForms), want)

		c.broken[m] = err
		c.issues = append(c.issues, Issue{
			Kind:           IssuePluralFormCountMismatch,
			Context:        ctxName,
			Source:         m.Source,
			Disambiguation: m.Comment,
			Detail:         err.Error(),
		})
	}
}

func (c *Catalog) indexMessage(ctxName string, m *Message) {
	if m.ID != "" {
		if prev, dup := c.byID[m.ID]; dup {
			c.issues = append(c.issues, Issue{
				Kind:    IssueDuplicateID,
				Context: ctxName,
				Source:  m.Source,
				Detail:  fmt.Sprintf("id %q already used by %q", m.ID, prev.Source),
			})
		} else {
			c.byID[m.ID] = m
		}
	}

	k := lookupKey{context: ctxName, source: m.Source}

	e := c.index[k]
	if e == nil {
		e = &entry{byComment: make(map[string]*Message, 1)}
		c.index[k] = e
	}

	prev, dup := e.byComment[m.Comment]
	if !dup {
		e.byComment[m.Comment] = m
		e.order = append(e.order, m.Comment)

		return
	}

	// First declared wins; later duplicates are only reported.
	is := Issue{
		Kind:           IssueDuplicate,
		Context:        ctxName,
		Source:         m.Source,
		Disambiguation: m.Comment,
	}

	if !prev.sameTranslation(m) {
		is.Kind = IssueConflictingDuplicate
		is.Detail = fmt.Sprintf("first %q, later %q", renderForIssue(prev), renderForIssue(m))
	}

	c.issues = append(c.issues, is)
}

func renderForIssue(m *Message) string {
	if m.Numerus {
		return strings.Join(m.NumerusForms, " | ")
	}

	return m.Translation
}

// Name returns the name given with WithName.
func (c *Catalog) Name() string { return c.opts.name }

// Tag returns the parsed target language, or language.Und.
func (c *Catalog) Tag() language.Tag { return c.tag }

// Rule returns the plural rule bound to the catalog.
func (c *Catalog) Rule() plural.Rule { return c.rule }

// Policy returns the ambiguity policy of the catalog.
func (c *Catalog) Policy() AmbiguityPolicy { return c.opts.policy }

// Issues returns the data quality problems found while loading.
func (c *Catalog) Issues() []Issue {
	return slices.Clone(c.issues)
}

// All iterates over every message with its context name, in document order.
func (c *Catalog) All() iter.Seq2[string, *Message] {
	return func(yield func(string, *Message) bool) {
		for _, ctx := range c.Contexts {
			for _, m := range ctx.Messages {
				if !yield(ctx.Name, m) {
					return
				}
			}
		}
	}
}

// Stats summarises a catalog.
type Stats struct {
	Contexts   int `json:"contexts"   yaml:"contexts"`
	Messages   int `json:"messages"   yaml:"messages"`
	Finished   int `json:"finished"   yaml:"finished"`
	Unfinished int `json:"unfinished" yaml:"unfinished"`
	Vanished   int `json:"vanished"   yaml:"vanished"`
	Obsolete   int `json:"obsolete"   yaml:"obsolete"`
	Numerus    int `json:"numerus"    yaml:"numerus"`
	Issues     int `json:"issues"     yaml:"issues"`
}

// Stats counts the messages of c by state.
func (c *Catalog) Stats() Stats {
	s := Stats{Contexts: len(c.Contexts), Issues: len(c.issues)}

	for _, m := range c.All() {
		s.Messages++

		if m.Numerus {
			s.Numerus++
		}

		switch m.Status {
		case Finished:
			s.Finished++
		case Unfinished:
			s.Unfinished++
		case Vanished:
			s.Vanished++
		case Obsolete:
			s.Obsolete++
		}
	}

	return s
}

// ParseLanguage parses a TS language attribute such as "fi", "pt_BR" or "sr@latin".
func ParseLanguage(s string) (language.Tag, error) {
	s = strings.ReplaceAll(s, "_", "-")

	// Qt uses "@latin" style modifiers; BCP 47 expresses them as scripts.
	if base, mod, ok := strings.Cut(s, "@"); ok {
		if strings.EqualFold(mod, "latin") {
			s = base + "-Latn"
		} else {
			s = base
		}
	}

	t, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", s, err)
	}

	return t, nil
}
