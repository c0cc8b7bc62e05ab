// Package cmd implements the wisp command-line driver: run a script
// file, or drop into an interactive REPL.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/wisplang/wisp/internal/interpreter"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/scanner"
)

// Exit codes follow the sysexits.h convention the teacher's driver
// already used for the success/usage split, extended with the
// static/runtime distinction Wisp's pipeline needs.
const (
	ExitSuccess   = 0
	ExitUsage     = 64
	ExitDataError = 65
	ExitFailure   = 70
)

// App is a single run of the wisp CLI. Its error-tracking flags are
// instance state, not package globals, so nothing about running one
// script leaks into running another in the same process.
type App struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	hadError        bool
	hadRuntimeError bool

	interp *interpreter.Interpreter
}

// NewApp builds an App wired to the process's standard streams.
func NewApp() *App {
	return &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}
}

// Main runs the CLI with args (as in os.Args[1:]) and returns the
// process exit code.
func (a *App) Main(args []string) int {
	switch len(args) {
	case 0:
		return a.runPrompt()
	case 1:
		return a.runFile(args[0])
	default:
		fmt.Fprintln(a.stderr, "Usage: wisp [script]")
		return ExitUsage
	}
}

func (a *App) runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "error reading %s: %v\n", path, err)
		return ExitUsage
	}

	a.interp = interpreter.New(
		interpreter.WithStdout(a.stdout),
		interpreter.WithStderr(a.stderr),
		interpreter.WithStdin(a.stdin),
	)

	a.run(context.Background(), string(source))

	switch {
	case a.hadError:
		return ExitDataError
	case a.hadRuntimeError:
		return ExitFailure
	default:
		return ExitSuccess
	}
}

func (a *App) runPrompt() int {
	a.interp = interpreter.New(
		interpreter.WithStdout(a.stdout),
		interpreter.WithStderr(a.stderr),
		interpreter.WithStdin(a.stdin),
	)

	rl, err := readline.New("> ")
	if err != nil {
		fmt.Fprintf(a.stderr, "readline: %v\n", err)
		return ExitFailure
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "readline: %v\n", err)
			return ExitFailure
		}
		if line == "" {
			continue
		}
		a.hadError = false
		a.run(context.Background(), line)
	}
}

// run scans, parses, resolves, and interprets source, reporting every
// static error it finds (a REPL line, or a whole file, can surface
// more than one) before ever attempting to execute it.
func (a *App) run(ctx context.Context, source string) {
	tokens := scanner.Scan(ctx, source, func(err error) {
		a.hadError = true
		a.report(err)
	})
	if a.hadError {
		return
	}

	stmts := parser.Parse(ctx, tokens, func(err error) {
		a.hadError = true
		a.report(err)
	})
	if a.hadError {
		return
	}

	interpreter.ResolveCtx(ctx, a.interp, stmts, func(err error) {
		a.hadError = true
		a.report(err)
	})
	if a.hadError {
		return
	}

	if err := a.interp.InterpretCtx(ctx, stmts); err != nil {
		a.hadRuntimeError = true
		a.report(err)
	}
}

func (a *App) report(err error) {
	fmt.Fprintln(a.stderr, err)
}
