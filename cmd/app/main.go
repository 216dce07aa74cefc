package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"formula/internal/ast"
	"formula/internal/dataset"
	"formula/internal/log"
	"formula/internal/parser"
	"formula/internal/repl"
	"formula/internal/sheet"
	"formula/internal/types"
	"formula/internal/util"

	"github.com/goccy/go-json"
)

var (
	// Version is set at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// inputs
	configPath string
	expression string
	sheetPath  string
	driver     string
	dsn        string
	query      string
	// config vars
	maxDepth     int
	workers      int
	debugAST     bool
	debugASTFile string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Read settings from a TOML file")
	// inputs
	flag.StringVar(&expression, "e", "", "Evaluate an expression and print the result")
	flag.StringVar(&sheetPath, "sheet", "", "Evaluate a YAML sheet of fields")
	flag.StringVar(&driver, "driver", "", "Database driver for -query: sqlite3, mysql, postgres")
	flag.StringVar(&dsn, "dsn", "", "Database connection string for -query")
	flag.StringVar(&query, "query", "", "Query whose rows are the sheet's input data")
	// compiler config
	flag.IntVar(&maxDepth, "max-depth", 0, "Maximum expression nesting")
	flag.IntVar(&workers, "workers", 0, "Rows evaluated concurrently")
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the compiled tree as JSON before evaluating")
	flag.StringVar(&debugASTFile, "debug-ast-file", "", "Write the compiled tree of -e as JSON to a file")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	config, err := configure()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closer, err := log.New(config.LogLevel, config.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v; falling back to stderr\n", err)
	}
	slog.SetDefault(logger)

	code := run(context.Background(), config, os.Stdout)
	_ = closer.Close()
	os.Exit(code)
}

// configure layers the config file and then explicitly set flags over the
// defaults.
func configure() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	config.Version, config.BuildDate, config.Commit = Version, BuildDate, Commit
	if configPath != "" {
		if err := util.LoadConfiguration(configPath, &config); err != nil {
			return config, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		case "max-depth":
			config.MaxDepth = maxDepth
		case "workers":
			config.Workers = workers
		case "driver":
			config.Database.Driver = driver
		case "dsn":
			config.Database.DSN = dsn
		case "query":
			config.Database.Query = query
		case "debug-ast":
			config.DebugJsonAST = debugAST
		case "debug-ast-file":
			config.DebugASTFile = debugASTFile
		}
	})
	return config, config.Validate()
}

func run(ctx context.Context, config util.Configuration, out io.Writer) int {
	switch {
	case expression != "":
		return evaluateExpression(expression, config, out)
	case sheetPath != "":
		if err := evaluateSheet(ctx, sheetPath, config, out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		s := repl.NewSession(config.MaxDepth, slog.Default())
		if isTerminal(os.Stdin) {
			fmt.Fprintf(out, "formula %s, type :help for commands\n", Version)
			repl.StartInteractive(out, s)
		} else {
			repl.Start(os.Stdin, out, s)
		}
		return 0
	}
}

func evaluateExpression(src string, config util.Configuration, out io.Writer) int {
	program, err := parser.Parse(src, parser.WithMaxDepth(config.MaxDepth))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	node, err := ast.Compile(program, types.Unknown, ast.WithMaxDepth(config.MaxDepth))
	if err != nil {
		var te *ast.TypeError
		if errors.As(err, &te) {
			fmt.Fprintln(os.Stderr, util.FormatError(src, te.Span.Start, err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	if config.DebugJsonAST {
		if err := parser.RenderASTAsJSON(node, os.Stderr); err != nil {
			slog.Warn("failed to render tree", slog.Any("error", err))
		}
	}
	if config.DebugASTFile != "" {
		if err := parser.WriteASTToJSON(node, config.DebugASTFile); err != nil {
			slog.Warn("failed to write tree", slog.Any("error", err))
		}
	}
	if config.DebugTxtAST {
		fmt.Fprintln(os.Stderr, ast.Dump(node))
	}
	fmt.Fprintln(out, node.Evaluate(nil).Inspect())
	return 0
}

// evaluateSheet prints one JSON line per input row, or a single line when no
// query is configured.
func evaluateSheet(ctx context.Context, path string, config util.Configuration, out io.Writer) error {
	s, err := sheet.Load(path)
	if err != nil {
		return err
	}

	rows := []ast.Env{nil}
	var scope map[string]types.Type
	if config.Database.Query != "" {
		src, err := dataset.Open(ctx, config.Database.Driver, config.Database.DSN)
		if err != nil {
			return err
		}
		defer src.Close()
		result, err := src.Query(ctx, config.Database.Query)
		if err != nil {
			return err
		}
		scope = result.Scope()
		rows = make([]ast.Env, len(result.Rows))
		for i, r := range result.Rows {
			rows[i] = r
		}
	}

	compiled, err := s.Compile(
		sheet.WithMaxDepth(config.MaxDepth),
		sheet.WithLogger(slog.Default()),
		sheet.WithScope(scope))
	if err != nil {
		return err
	}

	results, err := compiled.EvaluateAll(ctx, rows, config.Workers)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func printVersion() {
	fmt.Printf("formula version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: formula [options]

Options:
  -e <expr>          Evaluate an expression and print the result.
  -sheet <path>      Evaluate a YAML sheet, one JSON line per row.
  -driver <name>     Database driver for -query: sqlite3, mysql, postgres. Default is 'sqlite3'.
  -dsn <dsn>         Database connection string.
  -query <sql>       Query whose rows feed the sheet.
  -config <path>     Read settings from a TOML file. Flags override it.
  -max-depth <n>     Maximum expression nesting. Default is 256.
  -workers <n>       Rows evaluated concurrently. Default is 4.
  -debug-ast         Print the compiled tree as JSON to stderr.
  -debug-ast-file <path> Write the compiled tree of -e as JSON to a file.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Without -e or -sheet an interactive session is started.

Examples:
  formula -e '1 + 2 * 3'
  formula -sheet invoice.yaml -dsn shop.db -query 'select * from orders'
  formula -log-level=debug

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
