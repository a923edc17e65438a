// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/core/idgen"
)

// DefaultBaseLocale is used when Options.BaseLocale is empty.
const DefaultBaseLocale = "en"

// DefaultPattern is used when Options.Pattern is empty.
const DefaultPattern = "*.ts"

// maxConcurrentLoads bounds the number of catalogs parsed at once.
const maxConcurrentLoads = 8

var ErrNotLoaded = errors.New("registry: catalogs not loaded")

// Options configures a Registry.
type Options struct {
	// FS is the filesystem catalogs are read from. When nil, Directory is
	// opened with os.DirFS and read from its root.
	FS fs.FS

	// Directory holds the catalog files, relative to FS when FS is set.
	Directory string

	// Pattern selects catalog files inside Directory, see path.Match.
	Pattern string

	// Compressed also loads "<pattern>.gz" and "<pattern>.zst" files.
	Compressed bool

	// BaseLocale is the language of the source strings. It is always
	// supported and is the fallback for unmatched requests.
	BaseLocale string

	// StrictMissingKeys logs missing lookups once per locale and key and
	// wraps the returned source text as "⟦...⟧".
	StrictMissingKeys bool

	AmbiguityPolicy catalog.AmbiguityPolicy

	// Logger defaults to the global logger with sys=registry.
	Logger *zerolog.Logger
}

// Registry holds the catalogs of every supported locale.
//
// The loaded catalogs are published as an immutable snapshot; Reload builds a
// new one and swaps it in, so lookups never see a partially loaded set.
type Registry struct {
	opts    Options
	fsys    fs.FS
	dir     string
	baseTag language.Tag
	logger  zerolog.Logger

	// fallback serves locales without a catalog. It holds no messages, so
	// lookups resolve to the source text formatted for the base locale.
	fallback *catalog.Catalog

	current atomic.Pointer[snapshot]

	// reloadMu serialises Load and Reload.
	reloadMu sync.Mutex

	// missingKeyOnce deduplicates WARN logs for missing keys in strict mode.
	// The key is locale+"\x00"+context+"\x04"+source.
	missingKeyOnce sync.Map
}

type snapshot struct {
	generation string
	loadedAt   time.Time
	tags       []language.Tag // base first, then sorted by tag string
	matcher    language.Matcher
	locales    map[language.Tag]*entry
}

type entry struct {
	tag     language.Tag
	file    string
	catalog *catalog.Catalog
}

// New returns a registry for opts. Call Load before translating; until then
// every lookup resolves to the source text.
func New(opts Options) (*Registry, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}

	if _, err := path.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("registry: invalid pattern %q: %w", opts.Pattern, err)
	}

	if opts.BaseLocale == "" {
		opts.BaseLocale = DefaultBaseLocale
	}

	baseTag, err := catalog.ParseLanguage(opts.BaseLocale)
	if err != nil {
		return nil, fmt.Errorf("registry: base locale: %w", err)
	}

	r := &Registry{
		opts:    opts,
		fsys:    opts.FS,
		dir:     opts.Directory,
		baseTag: baseTag,
	}

	if r.fsys == nil {
		r.fsys = os.DirFS(opts.Directory)
		r.dir = "."
	}

	if r.dir == "" {
		r.dir = "."
	}

	if opts.Logger != nil {
		r.logger = *opts.Logger
	} else {
		r.logger = log.With().Str("sys", "registry").Logger()
	}

	r.fallback, err = catalog.New("", baseTag.String(), baseTag.String(), nil,
		catalog.WithName("<source>"),
		catalog.WithLogger(r.logger),
		catalog.WithAmbiguityPolicy(opts.AmbiguityPolicy))
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	return r, nil
}

// Load discovers and parses the catalogs and publishes them.
//
// Catalogs are parsed concurrently. A file that fails to parse is logged and
// skipped, so its locale falls back to the source strings. When two files
// carry the same locale, the first by name wins. Load fails only when the
// directory cannot be read or ctx is cancelled; the previous snapshot, if any,
// is then kept.
func (r *Registry) Load(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	files, err := r.discover()
	if err != nil {
		r.logger.Error().Err(err).Str("directory", r.dir).Msg("Keeping previously loaded catalogs")

		return err
	}

	loaded := make([]*entry, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			loaded[i] = r.loadFile(gctx, name)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("registry: load: %w", err)
	}

	snap := r.newSnapshot(loaded)
	r.current.Store(snap)

	r.logger.Info().
		Str("generation", snap.generation).
		Int("files", len(files)).
		Int("locales", len(snap.locales)).
		Msg("Loaded catalogs")

	return nil
}

// Reload is Load under the name used by signal and HTTP handlers.
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

// discover lists the catalog files in the directory, sorted by name.
func (r *Registry) discover() ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, r.dir)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to read catalog directory: %w", err)
	}

	var files []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()

		if r.opts.Compressed {
			name = strings.TrimSuffix(name, catalog.SuffixGzip)
			name = strings.TrimSuffix(name, catalog.SuffixZstd)
		}

		if ok, _ := path.Match(r.opts.Pattern, name); ok {
			files = append(files, path.Join(r.dir, e.Name()))
		}
	}

	slices.Sort(files)

	return files, nil
}

// loadFile parses one catalog. It returns nil when the file is unusable.
func (r *Registry) loadFile(ctx context.Context, name string) *entry {
	logger := r.logger.With().Str("file", name).Logger()

	span := audit.Span{
		Destination: audit.ToCatalog,
		Method:      "OPEN",
		URL:         name,
	}
	span.Begin(ctx)

	defer func() {
		span.End()
		span.Log()
	}()

	if info, err := fs.Stat(r.fsys, name); err == nil {
		span.Size = int(info.Size())
	}

	c, err := catalog.Open(r.fsys, name,
		catalog.WithLogger(r.logger),
		catalog.WithAmbiguityPolicy(r.opts.AmbiguityPolicy))
	if err != nil {
		span.Error = err

		return nil
	}

	tag := c.Tag()

	if tag == language.Und {
		// Fall back to the file name, accepting both underscore and hyphen.
		t, err := catalog.ParseLanguage(path.Base(catalog.TrimExt(name)))
		if err != nil {
			span.Error = fmt.Errorf("no language attribute and %w", err)

			return nil
		}

		tag = t
	}

	if n := len(c.Issues()); n > 0 {
		logger.Warn().Int("issues", n).Msg("Catalog loaded with issues")
	}

	return &entry{tag: tag, file: name, catalog: c}
}

func (r *Registry) newSnapshot(loaded []*entry) *snapshot {
	snap := &snapshot{
		generation: idgen.Make(),
		loadedAt:   time.Now(),
		locales:    make(map[language.Tag]*entry, len(loaded)),
	}

	for _, e := range loaded {
		if e == nil {
			continue
		}

		if prev, ok := snap.locales[e.tag]; ok {
			r.logger.Warn().
				Str("locale", e.tag.String()).
				Str("file", e.file).
				Str("kept", prev.file).
				Msg("Skipping duplicate catalog for locale")

			continue
		}

		snap.locales[e.tag] = e
	}

	others := make([]language.Tag, 0, len(snap.locales))

	for t := range snap.locales {
		if t != r.baseTag {
			others = append(others, t)
		}
	}

	slices.SortFunc(others, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	// baseTag is first to make it the default fallback for matching.
	snap.tags = append([]language.Tag{r.baseTag}, others...)
	snap.matcher = language.NewMatcher(snap.tags)

	return snap
}

// Generation identifies the published snapshot. It changes on every
// successful Load and is empty before the first one.
func (r *Registry) Generation() string {
	if snap := r.current.Load(); snap != nil {
		return snap.generation
	}

	return ""
}

// LoadedAt returns when the published snapshot was built.
func (r *Registry) LoadedAt() time.Time {
	if snap := r.current.Load(); snap != nil {
		return snap.loadedAt
	}

	return time.Time{}
}

// BaseTag returns the language of the source strings.
func (r *Registry) BaseTag() language.Tag {
	return r.baseTag
}

// Match returns the supported tag that best fits t. Before Load it returns
// the base tag.
func (r *Registry) Match(t language.Tag) language.Tag {
	snap := r.current.Load()
	if snap == nil {
		return r.baseTag
	}

	return snap.match(t.String())
}

// match returns the supported tag chosen for the preferences. Unlike the tag
// returned by language.MatchStrings it carries no extensions, so it can be
// used as a key into locales.
func (s *snapshot) match(preferred ...string) language.Tag {
	_, idx, _ := s.matcher.Match(parsePreferences(preferred)...)

	return s.tags[idx]
}

// resolve returns the supported locale that best fits t and its entry, which
// is nil when that locale has no catalog.
func (s *snapshot) resolve(t language.Tag) (language.Tag, *entry) {
	_, idx, _ := s.matcher.Match(t)

	return s.tags[idx], s.locales[s.tags[idx]]
}

// entryFor is resolve without the locale.
func (s *snapshot) entryFor(t language.Tag) *entry {
	_, e := s.resolve(t)

	return e
}

// parsePreferences parses each preference as an Accept-Language value,
// skipping values that do not parse.
func parsePreferences(preferred []string) []language.Tag {
	var out []language.Tag

	for _, p := range preferred {
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}

		out = append(out, tags...)
	}

	return out
}
