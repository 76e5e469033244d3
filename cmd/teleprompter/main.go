// Command teleprompter types scripted keystrokes into whatever window has
// focus.
//
// With no -script and no -serve it opens the interactive form. -script runs
// once headless and exits; -serve exposes the HTTP control API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/config"
	"github.com/teranos/teleprompter/injectors"
	"github.com/teranos/teleprompter/journal"
	"github.com/teranos/teleprompter/server"
	"github.com/teranos/teleprompter/tui"
)

// Exit codes
const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitCancelled = 130
)

// options holds the parsed command line
type options struct {
	configPath string
	script     string
	loops      int
	startDelay int64
	loopDelay  int64
	settle     int64
	slice      int64
	messages   string
	logFile    string
	dryRun     bool
	serve      bool
	listen     string
	capture    string

	// names of the flags given explicitly
	set map[string]bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// parseFlags parses args. Flags left unset do not override the config file.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("teleprompter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", config.DefaultPath, "YAML config file")
	fs.StringVar(&o.script, "script", "", "Run this script once without the form, then exit")
	fs.IntVar(&o.loops, "loops", 0, "Number of times to type the script")
	fs.Int64Var(&o.startDelay, "start-delay", 0, "Milliseconds to wait before the first loop")
	fs.Int64Var(&o.loopDelay, "loop-delay", 0, "Milliseconds to wait between loops")
	fs.Int64Var(&o.settle, "settle", 0, "Milliseconds to pause after each key edge")
	fs.Int64Var(&o.slice, "slice", 0, "Longest uninterrupted sleep in milliseconds")
	fs.StringVar(&o.messages, "messages", "", "File with one {messageN} line per line")
	fs.StringVar(&o.logFile, "log", "", "File every log line is appended to")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Record keys instead of injecting them")
	fs.BoolVar(&o.serve, "serve", false, "Serve the HTTP control API")
	fs.StringVar(&o.listen, "listen", "", "Address for -serve")
	fs.StringVar(&o.capture, "capture", "", "PNG transcript path (F3 in the form, after the run with -script)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return o, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply layers the explicitly given flags over cfg
func (o options) apply(cfg config.Config) config.Config {
	if o.set["loops"] {
		cfg.Loops = o.loops
	}
	if o.set["start-delay"] {
		cfg.StartDelayMs = o.startDelay
	}
	if o.set["loop-delay"] {
		cfg.LoopDelayMs = o.loopDelay
	}
	if o.set["settle"] {
		cfg.SettleMs = o.settle
	}
	if o.set["slice"] {
		cfg.SliceMs = o.slice
	}
	if o.set["messages"] {
		cfg.MessagesFile = o.messages
	}
	if o.set["log"] {
		cfg.LogFile = o.logFile
	}
	if o.set["listen"] {
		cfg.Listen = o.listen
	}
	if o.dryRun {
		cfg.Backend = config.BackendDry
	}
	return cfg.Normalize()
}

// run wires everything together and returns the exit code
func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	cfg = opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	interactive := opts.script == "" && !opts.serve
	if interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(stderr, "error: stdin is not a terminal; use -script or -serve")
		return exitError
	}

	j := openJournal(cfg.LogFile, stderr)
	defer j.Close()
	if !interactive {
		j.WithWriter(stdout)
	}

	j.Logf("DEBUG", "Program started")
	table := loadMessages(j, cfg.MessagesFile)

	injector, err := newInjector(cfg.Backend, j)
	if err != nil {
		j.Logf("ERROR", "%v", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	director := teleprompter.NewDirector(injector, table).
		WithObserver(j).
		WithConfig(cfg.Director())

	switch {
	case opts.serve:
		return serve(ctx, director, j, cfg, stderr)
	case opts.script != "":
		return runScript(ctx, director, j, cfg, opts, stderr)
	default:
		return runForm(ctx, director, j, cfg, opts, stderr)
	}
}

// openJournal opens the log file, falling back to memory only
func openJournal(path string, stderr io.Writer) *journal.Journal {
	if path == "" {
		return journal.New(journal.DefaultMaxEntries)
	}
	j, err := journal.Open(path, journal.DefaultMaxEntries)
	if err != nil {
		fmt.Fprintf(stderr, "WARNING: Could not open %s for append: %v\n", path, err)
		return journal.New(journal.DefaultMaxEntries)
	}
	return j
}

// loadMessages reads the {messageN} table. A missing file leaves the table
// empty; every {messageN} is then out of range.
func loadMessages(j *journal.Journal, path string) teleprompter.MessageTable {
	if path == "" {
		return nil
	}
	table, err := teleprompter.LoadMessageFile(path)
	if err != nil {
		j.Logf("INFO", "Could not open %s, so {messageN} won't work", path)
		return nil
	}
	j.Logf("INFO", "Loaded %d lines from %s for {messageN}", table.Len(), path)
	return table
}

func newInjector(backend string, j *journal.Journal) (teleprompter.Injector, error) {
	switch backend {
	case config.BackendDry:
		return injectors.NewRecorder(j), nil
	default:
		native, err := injectors.NewNative()
		if err != nil {
			return nil, fmt.Errorf("native keyboard: %w", err)
		}
		return native, nil
	}
}

func serve(ctx context.Context, director *teleprompter.Director, j *journal.Journal, cfg config.Config, stderr io.Writer) int {
	srv := server.New(ctx, director, j, cfg)
	if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	<-srv.Idle()
	return exitOK
}

func runScript(ctx context.Context, director *teleprompter.Director, j *journal.Journal, cfg config.Config, opts options, stderr io.Writer) int {
	report := director.Execute(ctx, cfg.Run(opts.script))
	if report.Trips.HasTrips() || report.Trips.HasStumbles() {
		fmt.Fprint(stderr, report.Trips.DetailedReport())
	}

	if opts.capture != "" {
		if err := j.CaptureFile(opts.capture, journal.DefaultCaptureConfig()); err != nil {
			fmt.Fprintf(stderr, "warning: capture: %v\n", err)
		}
	}

	switch {
	case report.Err != nil:
		fmt.Fprintf(stderr, "error: %v\n", report.Err)
		return exitError
	case report.Cancelled:
		return exitCancelled
	default:
		return exitOK
	}
}

func runForm(ctx context.Context, director *teleprompter.Director, j *journal.Journal, cfg config.Config, opts options, stderr io.Writer) int {
	j.Logf("TIP", "[Tab] to switch fields, [Enter] to type, Ctrl+C to quit.")
	j.Logf("TIP", "F1 => Reset fields, F2 => Stop mid-run.")
	j.Logf("TIP", "e.g. {enter}, {space}, {up:2000}, {message3}, etc.")

	model := tui.NewAppModel(ctx, director, j, cfg).WithCapturePath(opts.capture)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	director.Stop()
	return exitOK
}
