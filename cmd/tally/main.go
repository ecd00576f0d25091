package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/config"
	"github.com/vanderheijden86/tally/pkg/debug"
	"github.com/vanderheijden86/tally/pkg/submit"
	"github.com/vanderheijden86/tally/pkg/suggest"
	"github.com/vanderheijden86/tally/pkg/tree"
	"github.com/vanderheijden86/tally/pkg/ui"
	"github.com/vanderheijden86/tally/pkg/version"
)

type options struct {
	configPath  string
	catalogPath string
	form        string
	selectID    string
	rtl         bool
	noIndicator bool
	expandAll   bool
	watch       bool
	output      string
	logPath     string
	showVersion bool
	robotTree   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("tally", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default ~/.config/tally/config.yaml)")
	fs.StringVar(&o.catalogPath, "catalog", "", "Catalog file with categories and accounts")
	fs.StringVar(&o.form, "form", "", "Screen to open: transaction, account or categories")
	fs.StringVar(&o.selectID, "select", "", "Category id to preselect in the categories screen")
	fs.BoolVar(&o.rtl, "rtl", false, "Right-to-left layout")
	fs.BoolVar(&o.noIndicator, "no-indicator", false, "Hide tree depth guides")
	fs.BoolVar(&o.expandAll, "expand-all", false, "Expand every category folder on start")
	fs.BoolVar(&o.watch, "watch", false, "Reload the catalog when its file changes")
	fs.StringVar(&o.output, "output", "", "File that submitted records are appended to")
	fs.StringVar(&o.logPath, "log", "", "Write logs to this file")
	fs.BoolVar(&o.showVersion, "version", false, "Show version")
	fs.BoolVar(&o.robotTree, "robot-tree", false, "Print the expense tree state as JSON and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tally [options]")
		fmt.Fprintln(stderr, "\nRecord transactions and accounts from the terminal.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.form != "" && !config.IsForm(o.form) {
		return o, fmt.Errorf("unknown form %q (want transaction, account or categories)", o.form)
	}
	return o, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(o options) (config.Config, error) {
	var cfg config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if o.catalogPath != "" {
		cfg.Catalog = o.catalogPath
	}
	if o.form != "" {
		cfg.UI.DefaultForm = o.form
	}
	if o.rtl {
		cfg.UI.Direction = config.DirectionRTL
	}
	if o.noIndicator {
		off := false
		cfg.UI.Indicator = &off
	}
	if o.expandAll {
		cfg.UI.ExpandAll = true
	}
	if o.output != "" {
		cfg.Output = o.output
	}
	return cfg, cfg.Validate()
}

// treeReport is the --robot-tree output.
type treeReport struct {
	Selected *string     `json:"selected"`
	Expanded []string    `json:"expanded"`
	Roots    []tree.Node `json:"roots"`
}

func writeTreeReport(w io.Writer, cat catalog.Catalog, selectID string, expandAll bool) error {
	ctrl := tree.New(cat.Expenses, tree.Config{
		InitialSelectedID: selectID,
		ExpandAll:         expandAll,
	})
	state := ctrl.State()
	report := treeReport{Expanded: state.Expanded(), Roots: cat.Expenses}
	if id, ok := state.Selected(); ok {
		report.Selected = &id
	}
	if report.Expanded == nil {
		report.Expanded = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func newSuggester(cfg config.Config) suggest.Suggester {
	if cfg.Suggest.Endpoint == "" {
		return suggest.FuzzySuggester{Limit: cfg.Suggest.Limit}
	}
	return suggest.NewHTTPSuggester(cfg.Suggest.Endpoint, cfg.Suggest.Timeout, cfg.Suggest.Limit)
}

// setupLogging sends log and debug output to a file while the alt screen owns
// the terminal. The returned closer is never nil.
func setupLogging(o options) (io.Closer, error) {
	path := o.logPath
	if path == "" && debug.Enabled() {
		path = filepath.Join(config.DataDir(), "debug.log")
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "tally")
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	debug.SetOutput(f)
	return f, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "tally %s\n", version.Version)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	catalogPath := config.ResolveCatalogPath(cfg)
	cat, err := catalog.LoadFrom(catalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading catalog: %v\n", err)
		return 1
	}
	debug.Log("catalog %s: %d expense roots, %d accounts", catalogPath, len(cat.Expenses), len(cat.Accounts))

	if o.robotTree {
		if err := writeTreeReport(stdout, cat, o.selectID, cfg.UI.ExpandAll); err != nil {
			fmt.Fprintf(stderr, "Error encoding tree: %v\n", err)
			return 1
		}
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	submitter, out, err := submit.OpenFile(cfg.OutputPath())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer out.Close()

	if !ui.IsTerminal() {
		if cfg.UI.DefaultForm != config.FormAccount {
			fmt.Fprintln(stderr, "Error: tally needs a terminal; use --form account for a line-based prompt or --robot-tree")
			return 1
		}
		acct, err := ui.RunAccountPrompt(ctx, submitter, true)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Account %s (%s) submitted to %s\n", acct.Name, acct.Currency, cfg.OutputPath())
		return 0
	}

	logCloser, err := setupLogging(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	m := ui.NewModel(ui.Options{
		Context:    ctx,
		Config:     cfg,
		Catalog:    cat,
		Suggester:  newSuggester(cfg),
		Submitter:  submitter,
		SelectedID: o.selectID,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if o.watch {
		worker := ui.NewCatalogWorker(ui.WorkerConfig{
			CatalogPath: catalogPath,
			Sender:      p,
			Initial:     &cat,
		})
		if err := worker.Start(); err != nil {
			log.Printf("catalog watch disabled: %v", err)
		}
		defer worker.Stop()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "Error running tally: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
