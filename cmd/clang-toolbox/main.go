package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/config"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := newRootCommand(app)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", describe(err, app.verbose))
		return 1
	}
	return 0
}

// describe renders err for the user. Lua and YAML errors are shortened
// unless verbose is set.
func describe(err error, verbose bool) string {
	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return fault.Kind(err) + ": " + config.FormatError(parseErr, verbose)
	}
	return err.Error()
}

// app carries the process streams and global flags.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	verbose bool
	quiet   bool
}

// logger builds the text logger on stderr for the verbosity flags.
func (a *app) logger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case a.verbose:
		level = slog.LevelDebug
	case a.quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// isTerminal reports whether the stream is attached to a terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
