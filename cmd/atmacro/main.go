// atmacro copies its input to its output, expanding macros as it goes.
//
// A line such as
//
//	!animal=dog
//
// defines the macro 'animal' and is not copied. Any later '@animal' or
// '@{animal}' is replaced by 'dog' and '@@' is replaced by '@'. If a line
// refers to a macro that has not been defined then the program reports the
// line and stops with exit status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/nickwells/atmacro.mod/macros"
)

const stdinName = "-"

// CLI holds the command-line parameters
type CLI struct {
	Dirs     []string `help:"Directory to search for macros which have not been defined."                     name:"dir"       short:"d" type:"existingdir"`
	Suffixes []string `help:"Suffix to try when searching the macro directories."                            name:"suffix"`
	Defines  []string `help:"Define a macro before reading any input."                                        name:"define"    placeholder:"NAME=VALUE" sep:"none" short:"D"`
	Dump     bool     `help:"Write the macro definitions to the standard error when finished."`
	LogLevel string   `default:"warn" enum:"debug,info,warn,error" help:"Set log level."                     name:"log-level"`
	Files    []string `arg:"" help:"Input file(s) or '-' for stdin." optional:"" type:"existingfile"`
}

func main() {
	os.Exit(run(context.Background(), os.Exit, os.Args[1:],
		os.Stdin, os.Stdout, os.Stderr))
}

// run parses the arguments and filters the input files (or stdin) to
// stdout. It returns the exit status.
func run(
	ctx context.Context,
	exit func(code int),
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) int {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("atmacro"),
		kong.Description("Expand @macro references, defined by !name=value lines."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, "atmacro:", err)
		return 1
	}

	if _, err = parser.Parse(args); err != nil {
		parser.FatalIfErrorf(err)
		return 1
	}

	logger := newLogger(stderr, cli.LogLevel)

	e, err := cli.newExpander(logger)
	if err != nil {
		logger.Error("bad parameters", slog.Any("error", err))
		return 1
	}

	err = cli.filter(ctx, e, logger, stdin, stdout)

	if cli.Dump {
		if dErr := e.Dump(stderr); dErr != nil {
			logger.Error("cannot dump the macros", slog.Any("error", dErr))
		}
	}

	if err != nil {
		var ume *macros.UnboundMacroError
		if errors.As(err, &ume) {
			reportUnbound(stderr, ume)
		} else {
			logger.Error("filtering failed", slog.Any("error", err))
		}
		return 1
	}

	return 0
}

// newLogger returns a text logger writing to w at the named level
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newExpander creates the Expander and adds any macros given with --define
func (c *CLI) newExpander(logger *slog.Logger) (*macros.Expander, error) {
	opts := []macros.OptFunc{macros.Logger(logger)}
	if len(c.Dirs) > 0 {
		opts = append(opts, macros.Dirs(c.Dirs...))
	}
	for _, s := range c.Suffixes {
		opts = append(opts, macros.Suffix(s))
	}

	e, err := macros.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, d := range c.Defines {
		name, value, ok := macros.ParseDefinition("!" + d)
		if !ok {
			return nil, fmt.Errorf("bad macro definition %q: should be NAME=VALUE"+
				" where NAME is made of letters, digits or '_'"+
				" and VALUE starts with one of them", d)
		}
		e.AddMacro(name, value)
	}

	return e, nil
}

// filter runs each of the input files through the Expander in turn
func (c *CLI) filter(
	ctx context.Context,
	e *macros.Expander,
	logger *slog.Logger,
	stdin io.Reader,
	stdout io.Writer,
) error {
	files := c.Files
	if len(files) == 0 {
		files = []string{stdinName}
	}

	for _, fName := range files {
		logger.Info("processing", slog.String("file", fName))

		if err := filterFile(ctx, e, fName, stdin, stdout); err != nil {
			return err
		}
	}

	logger.Debug("finished", slog.Int("macros", e.Len()))

	return nil
}

// filterFile runs a single file (or stdin) through the Expander
func filterFile(
	ctx context.Context,
	e *macros.Expander,
	fName string,
	stdin io.Reader,
	stdout io.Writer,
) error {
	if fName == stdinName {
		return e.Filter(ctx, stdin, stdout, "stdin")
	}

	f, err := os.Open(fName)
	if err != nil {
		return err
	}
	defer f.Close()

	return e.Filter(ctx, f, stdout, fName)
}

// reportUnbound writes a report showing where filtering stopped
func reportUnbound(w io.Writer, ume *macros.UnboundMacroError) {
	red := color.New(color.FgRed)
	rule := strings.Repeat("=", 50)

	red.Fprintln(w, rule)
	fmt.Fprintf(w, "error in line: %d\n", ume.LineNum)
	fmt.Fprintf(w, ">%s\n", ume.Line)
	fmt.Fprint(w, "\n\ntext filtering stopped..\n\n")
	red.Fprintln(w, ume.Error())
	red.Fprintln(w, rule)
}
