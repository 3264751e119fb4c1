// Command decaxis is the decaxis front-end CLI: it parses source and prints
// the instruction tree.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"nickandperla.net/decaxis/internal/config"
	"nickandperla.net/decaxis/internal/docs"
	"nickandperla.net/decaxis/pkg/decaxis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	evalStr    string
	file       string
	configPath string
	format     string
	dbPath     string
	save       string
	load       string
	history    string
	deleteName string
	list       bool
	checkDir   string
	watch      bool
	stats      bool
	grammar    bool
	tokens     bool
	verbose    bool
	ignoreUnk  bool
	maxDepth   int
	files      []string
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("decaxis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.evalStr, "e", "", "Parse decaxis string")
	fs.StringVar(&o.file, "f", "", "Parse decaxis file")
	fs.StringVar(&o.configPath, "config", "", "TOML configuration file")
	fs.StringVar(&o.format, "format", "debug", "Output format: debug, source or json")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database path for stored programs")
	fs.StringVar(&o.save, "save", "", "Store the parsed program under NAME")
	fs.StringVar(&o.load, "load", "", "Print the stored program NAME")
	fs.StringVar(&o.history, "history", "", "Print the stored versions of NAME")
	fs.StringVar(&o.deleteName, "delete", "", "Delete the stored program NAME")
	fs.BoolVar(&o.list, "list", false, "List stored programs")
	fs.StringVar(&o.checkDir, "check", "", "Check every "+decaxis.FileExt+" file under DIR")
	fs.BoolVar(&o.watch, "watch", false, "Re-parse the -f file whenever it changes")
	fs.BoolVar(&o.stats, "stats", false, "Print program statistics to stderr")
	fs.BoolVar(&o.grammar, "grammar", false, "Print the grammar reference")
	fs.BoolVar(&o.tokens, "tokens", false, "Print the token stream instead of the tree")
	fs.BoolVar(&o.verbose, "v", false, "Verbose (debug) logging")
	fs.BoolVar(&o.ignoreUnk, "ignore-unknown", false, "Skip characters outside the alphabet")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "Maximum loop nesting (0 = unlimited)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	o.files = fs.Args()
	return o, nil
}

// loadConfig merges the config file (if any) with explicitly set flags.
func loadConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.set["format"] {
		cfg.CLI.Format = o.format
	}
	if o.set["db"] {
		cfg.Store.Path = o.dbPath
	}
	if o.set["ignore-unknown"] {
		cfg.Parser.IgnoreUnknown = o.ignoreUnk
	}
	if o.set["max-depth"] {
		cfg.Parser.MaxDepth = o.maxDepth
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFrontend(cfg *config.Config, logger *slog.Logger) (*decaxis.Frontend, error) {
	opts := []decaxis.Option{
		decaxis.WithLogger(logger),
		decaxis.WithMaxDepth(cfg.Parser.MaxDepth),
		decaxis.WithConcurrency(cfg.CLI.Concurrency),
	}
	if cfg.Parser.IgnoreUnknown {
		opts = append(opts, decaxis.WithIgnoreUnknown())
	}
	if cfg.Store.Path != "" {
		opts = append(opts, decaxis.WithSQLiteStore(cfg.Store.Path))
	}
	return decaxis.New(opts...)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if o.grammar {
		fmt.Fprint(stdout, docs.Grammar)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fe, err := newFrontend(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer fe.Close()

	c := &cli{fe: fe, cfg: cfg, opts: o, stdout: stdout, stderr: stderr}

	switch {
	case o.checkDir != "":
		return c.check(ctx, o.checkDir)
	case o.list:
		return c.listPrograms()
	case o.history != "":
		return c.showHistory(o.history)
	case o.deleteName != "":
		return c.deleteProgram(o.deleteName)
	case o.load != "":
		p, err := fe.Load(o.load)
		if err != nil {
			return c.fail(err)
		}
		return c.emit(p, "")
	case o.tokens && o.evalStr != "":
		return c.printTokens(strings.NewReader(o.evalStr))
	case o.tokens && o.file != "":
		f, err := os.Open(o.file)
		if err != nil {
			return c.fail(err)
		}
		defer f.Close()
		return c.printTokens(f)
	case o.evalStr != "":
		return c.parseSource(o.evalStr)
	case o.file != "" && o.watch:
		return c.watchFile(ctx, o.file)
	case o.file != "":
		return c.parseFile(o.file)
	case len(o.files) > 0:
		return c.parseFiles(ctx, o.files)
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		runREPL(c, f)
		return 0
	}

	// Piped input
	src, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading stdin: %v\n", err)
		return 1
	}
	if o.tokens {
		return c.printTokens(bytes.NewReader(src))
	}
	return c.parseSource(decaxis.TrimLineEnding(string(src)))
}

// cli carries the state shared by the CLI subcommands.
type cli struct {
	fe     *decaxis.Frontend
	cfg    *config.Config
	opts   *options
	stdout io.Writer
	stderr io.Writer
	last   string // Canonical source of the last emitted program
}

func (c *cli) fail(err error) int {
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return 1
}

func (c *cli) parseSource(src string) int {
	p, err := c.fe.Parse(src)
	if err != nil {
		return c.fail(err)
	}
	return c.emit(p, src)
}

func (c *cli) parseFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return c.fail(err)
	}
	src := decaxis.TrimLineEnding(string(data))
	p, err := c.fe.Parse(src)
	if err != nil {
		return c.fail(fmt.Errorf("%s: %w", path, err))
	}
	return c.emit(p, src)
}

func (c *cli) parseFiles(ctx context.Context, paths []string) int {
	results, err := c.fe.ParseFiles(ctx, paths...)
	if err != nil {
		return c.fail(err)
	}
	code := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", r.Err)
			code = 1
			continue
		}
		fmt.Fprintf(c.stdout, "== %s\n", r.Path)
		if err := render(c.stdout, r.Program, c.cfg.CLI.Format); err != nil {
			return c.fail(err)
		}
	}
	return code
}

// emit renders p and handles -save and -stats. src is the raw source, or
// "" when p did not come from text.
func (c *cli) emit(p decaxis.Program, src string) int {
	c.last = p.String()
	if c.opts.save != "" {
		if _, err := c.fe.Save(c.opts.save, p.String()); err != nil {
			return c.fail(err)
		}
	}
	if err := render(c.stdout, p, c.cfg.CLI.Format); err != nil {
		return c.fail(err)
	}
	if c.opts.stats {
		printStats(c.stderr, p, src)
	}
	return 0
}

func render(w io.Writer, p decaxis.Program, format string) error {
	switch format {
	case "source":
		_, err := fmt.Fprintln(w, p.String())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	default:
		return p.Dump(w)
	}
}

func printStats(w io.Writer, p decaxis.Program, src string) {
	s := p.Stats()
	if src != "" {
		fmt.Fprintf(w, "source:       %s\n", humanize.Bytes(uint64(len(src))))
	}
	fmt.Fprintf(w, "instructions: %s\n", humanize.Comma(int64(s.Instructions)))
	fmt.Fprintf(w, "loops:        %s\n", humanize.Comma(int64(s.Loops)))
	fmt.Fprintf(w, "max depth:    %d\n", s.MaxDepth)
}

func (c *cli) check(ctx context.Context, dir string) int {
	results, err := c.fe.CheckDir(ctx, dir)
	if err != nil {
		return c.fail(fmt.Errorf("scanning directory %s: %w", dir, err))
	}
	if len(results) == 0 {
		fmt.Fprintf(c.stderr, "No %s files found\n", decaxis.FileExt)
		return 1
	}

	passed, failed, expectedErr := 0, 0, 0
	for _, r := range results {
		switch {
		case r.OK() && r.Expect != "":
			expectedErr++
			fmt.Fprintf(c.stdout, "OK   %s (expected %s)\n", r.Path, r.Expect)
		case r.OK():
			passed++
			fmt.Fprintf(c.stdout, "OK   %s\n", r.Path)
		default:
			failed++
			fmt.Fprintf(c.stdout, "FAIL %s\n", r.Path)
			if r.Err != nil {
				fmt.Fprintf(c.stdout, "     %v\n", r.Err)
			} else {
				fmt.Fprintf(c.stdout, "     expected %s, parse succeeded\n", r.Expect)
			}
		}
	}

	fmt.Fprintf(c.stdout, "\n--- Summary ---\n")
	fmt.Fprintf(c.stdout, "Passed:          %s\n", humanize.Comma(int64(passed)))
	fmt.Fprintf(c.stdout, "Expected errors: %s\n", humanize.Comma(int64(expectedErr)))
	fmt.Fprintf(c.stdout, "Failed:          %s\n", humanize.Comma(int64(failed)))
	fmt.Fprintf(c.stdout, "Total:           %s\n", humanize.Comma(int64(len(results))))

	if failed > 0 {
		return 1
	}
	return 0
}

func (c *cli) listPrograms() int {
	names, err := c.fe.List()
	if err != nil {
		return c.fail(err)
	}
	for _, name := range names {
		fmt.Fprintln(c.stdout, name)
	}
	return 0
}

func (c *cli) showHistory(name string) int {
	entries, err := c.fe.History(name, 0)
	if err != nil {
		return c.fail(err)
	}
	for _, e := range entries {
		fmt.Fprintf(c.stdout, "v%d  %s  %s  %s\n", e.Version, e.Ts, e.ID, e.Source)
	}
	return 0
}

func (c *cli) deleteProgram(name string) int {
	if err := c.fe.Delete(name); err != nil {
		return c.fail(err)
	}
	return 0
}

func (c *cli) printTokens(r io.Reader) int {
	tokens, err := c.fe.Tokenize(r)
	if err != nil {
		return c.fail(err)
	}
	for _, t := range tokens {
		fmt.Fprintln(c.stdout, t)
	}
	return 0
}
