// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/convert"
	"codeberg.org/tscat/tscat/lint"
)

// Exit codes.
const (
	exitOK       = 0
	exitProblems = 1 // check found issues or findings
	exitUsage    = 2
)

var (
	errUsage         = errors.New("usage")
	errProblemsFound = errors.New("problems found")
)

type command struct {
	name    string
	summary string
	run     func(args []string, stdout io.Writer) error
}

func commands() []command {
	return []command{
		{"check", "report load issues and lint findings", cmdCheck},
		{"lookup", "translate one message", cmdLookup},
		{"convert", "write a catalog as po, toml, yaml or ts", cmdConvert},
		{"stats", "count messages by state", cmdStats},
		{"merge", "update a catalog from a template", cmdMerge},
	}
}

// run dispatches args to a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)

		return exitUsage
	}

	for _, c := range commands() {
		if c.name != args[0] {
			continue
		}

		err := c.run(args[1:], stdout)

		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, errProblemsFound):
			return exitProblems
		case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintf(stderr, "tscat %s: %v\n", c.name, err)
			}

			return exitUsage
		default:
			fmt.Fprintf(stderr, "tscat %s: %v\n", c.name, err)

			return exitProblems
		}
	}

	fmt.Fprintf(stderr, "tscat: unknown command %q\n", args[0])
	usage(stderr)

	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: tscat <command> [flags] FILE...")
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands() {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}

	_ = tw.Flush()
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tscat "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	return fs
}

// openCatalog loads the catalog at path. Load issues are only logged at
// debug level; callers report them through Issues.
func openCatalog(path string) (*catalog.Catalog, error) {
	logger := log.Logger.Level(zerolog.ErrorLevel)
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		logger = log.Logger
	}

	return catalog.Open(os.DirFS(filepath.Dir(path)), filepath.Base(path), catalog.WithLogger(logger))
}

func cmdCheck(args []string, stdout io.Writer) error {
	fs := newFlagSet("check")
	noLint := fs.Bool("no-lint", false, "only report load issues")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: check FILE...", errUsage)
	}

	problems := 0

	for _, path := range fs.Args() {
		c, err := openCatalog(path)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", path, err)

			problems++

			continue
		}

		for _, is := range c.Issues() {
			fmt.Fprintf(stdout, "%s: %s\n", path, is)

			problems++
		}

		if *noLint {
			continue
		}

		for _, f := range lint.Check(c) {
			fmt.Fprintf(stdout, "%s: %s\n", path, f)

			problems++
		}
	}

	if problems > 0 {
		return fmt.Errorf("%w: %d", errProblemsFound, problems)
	}

	return nil
}

func cmdLookup(args []string, stdout io.Writer) error {
	fs := newFlagSet("lookup")
	msgctx := fs.String("context", "", "message context")
	source := fs.String("source", "", "source text")
	comment := fs.String("comment", "", "disambiguation")
	count := fs.Int("n", -1, "count for numerus messages; negative for none")
	firstPolicy := fs.Bool("first", false, "resolve ambiguous lookups to the first message")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 || *source == "" {
		return fmt.Errorf("%w: lookup -source TEXT [-context CTX] FILE", errUsage)
	}

	path := fs.Arg(0)

	opts := []catalog.Option{catalog.WithLogger(log.Logger.Level(zerolog.ErrorLevel))}
	if *firstPolicy {
		opts = append(opts, catalog.WithAmbiguityPolicy(catalog.AmbiguityFirst))
	}

	c, err := catalog.Open(os.DirFS(filepath.Dir(path)), filepath.Base(path), opts...)
	if err != nil {
		return err
	}

	var text string
	if *count >= 0 {
		text = c.LookupPlural(*msgctx, *source, *comment, *count)
	} else {
		text = c.Lookup(*msgctx, *source, *comment)
	}

	fmt.Fprintln(stdout, text)

	return nil
}

var writers = map[string]func(io.Writer, *catalog.Catalog) error{
	"po":   convert.WritePO,
	"toml": convert.WriteTOML,
	"yaml": convert.WriteYAML,
	"ts":   catalog.Encode,
}

func cmdConvert(args []string, stdout io.Writer) error {
	fs := newFlagSet("convert")
	to := fs.String("to", "po", "output format: po, toml, yaml or ts")
	out := fs.String("o", "", "output file; standard output when empty")

	if err := fs.Parse(args); err != nil {
		return err
	}

	write, ok := writers[*to]
	if !ok || fs.NArg() != 1 {
		return fmt.Errorf("%w: convert -to po|toml|yaml|ts [-o OUT] FILE", errUsage)
	}

	c, err := openCatalog(fs.Arg(0))
	if err != nil {
		return err
	}

	return writeOutput(*out, stdout, func(w io.Writer) error { return write(w, c) })
}

func cmdStats(args []string, stdout io.Writer) error {
	fs := newFlagSet("stats")
	asJSON := fs.Bool("json", false, "print JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: stats [-json] FILE...", errUsage)
	}

	type fileStats struct {
		File     string `json:"file"`
		Language string `json:"language"`
		catalog.Stats
	}

	all := make([]fileStats, 0, fs.NArg())

	for _, path := range fs.Args() {
		c, err := openCatalog(path)
		if err != nil {
			return err
		}

		all = append(all, fileStats{File: path, Language: c.Language, Stats: c.Stats()})
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(all)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "file\tlanguage\tmessages\tfinished\tunfinished\tvanished\tobsolete\tissues\tdone\t")

	for _, s := range all {
		done := 100.0
		if active := s.Messages - s.Vanished - s.Obsolete; active > 0 {
			done = float64(s.Finished) * 100 / float64(active)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f%%\t\n",
			s.File, s.Language, s.Messages, s.Finished, s.Unfinished, s.Vanished, s.Obsolete, s.Issues, done)
	}

	return tw.Flush()
}

func cmdMerge(args []string, stdout io.Writer) error {
	fs := newFlagSet("merge")
	out := fs.String("o", "", "output file; standard output when empty")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("%w: merge [-o OUT] EXISTING TEMPLATE", errUsage)
	}

	existing, err := openCatalog(fs.Arg(0))
	if err != nil {
		return err
	}

	template, err := openCatalog(fs.Arg(1))
	if err != nil {
		return err
	}

	merged, err := catalog.Merge(existing, template)
	if err != nil {
		return err
	}

	stats := merged.Stats()
	log.Info().
		Str("file", fs.Arg(0)).
		Int("finished", stats.Finished).
		Int("unfinished", stats.Unfinished).
		Int("vanished", stats.Vanished).
		Msg("Merged catalog")

	return writeOutput(*out, stdout, func(w io.Writer) error { return catalog.Encode(w, merged) })
}

// writeOutput runs write against path, or stdout when path is empty. The
// file is replaced only after write succeeds.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(base, ".")+".*")
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(tmp)

	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}
