package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/superloach/lox/pkg/lox"
)

const Version = "0.2.0"

const (
	exitUsage = 64
	exitIO    = 74
)

const continuationPrompt = ".. "

// exitError carries a process exit code out of a cobra command.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}

func main() {
	cmd := newLoxCmd()
	if err := cmd.Execute(); err != nil {
		glog.Flush()
		if exit, ok := errors.Cause(err).(exitError); ok {
			os.Exit(exit.code)
		}
		// flag and argument errors
		lox.LogSafeErr(lox.ErrUnknown, err.Error())
		os.Exit(exitUsage)
	}
}

func newLoxCmd() *cobra.Command {
	var logToStderr bool
	var verbose int
	var configPath string
	var eval string
	var repl bool
	var version bool
	var debug lox.DebugConfig
	var noColor bool

	cmd := &cobra.Command{
		Use:   "lox [script]",
		Short: "Lox is a small dynamically-typed scripting language with classes and closures",
		Long: `Lox is a small dynamically-typed scripting language with classes and closures.

By default, lox interprets from stdin.
	lox < main.lox
Run a Lox program from a source file by passing it to the interpreter.
	lox main.lox
Start an interactive repl with --repl.
	lox --repl
Run from the command line with --eval.
	lox -e 'print "hi";'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(logToStderr, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if version {
				fmt.Printf("lox v%s\n", Version)
				return nil
			}

			conf, err := lox.LoadConfig(lox.ConfigPath(configPath))
			if err != nil {
				lox.LogSafeErr(lox.ErrSystem, err.Error())
				return exitError{exitIO}
			}

			// flags only ever switch debugging on
			conf.Debug.Lex = conf.Debug.Lex || debug.Lex
			conf.Debug.Parse = conf.Debug.Parse || debug.Parse
			conf.Debug.Resolve = conf.Debug.Resolve || debug.Resolve
			conf.Debug.Dump = conf.Debug.Dump || debug.Dump
			if noColor {
				conf.Color = false
			}
			lox.Color = conf.Color

			eng := &lox.Engine{Debug: conf.Debug}
			ctx := eng.CreateContext()

			switch {
			case repl:
				return runREPL(ctx, conf)
			case eval != "":
				return finish(ctx.Run(eval), nil)
			case len(args) > 0:
				return finish(ctx.ExecPath(args[0]))
			default:
				return finish(ctx.Exec(os.Stdin))
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr instead of to files")
	cmd.PersistentFlags().IntVarP(
		&verbose, "verbose", "v", 0, "Enable verbose logging (e.g., v=3); anything >5 is very verbose")

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $"+lox.ConfigEnvVar+")")
	cmd.Flags().StringVarP(&eval, "eval", "e", "", "Evaluate argument as a Lox program")
	cmd.Flags().BoolVar(&repl, "repl", false, "Run as an interactive repl")
	cmd.Flags().BoolVar(&version, "version", false, "Print version string and exit")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	cmd.Flags().BoolVar(&debug.Lex, "debug-lex", false, "Log lexer output")
	cmd.Flags().BoolVar(&debug.Parse, "debug-parse", false, "Log parser output")
	cmd.Flags().BoolVar(&debug.Resolve, "debug-resolve", false, "Log resolver annotations")
	cmd.Flags().BoolVar(&debug.Dump, "dump", false, "Dump global environment after each unit")

	return cmd
}

// initLogging points glog's standard flags at the values given on the
// cobra command line.
func initLogging(logToStderr bool, verbose int) {
	// glog registers on the standard flag set and refuses to log until
	// it has been parsed
	flag.CommandLine.Parse([]string{})
	if logToStderr {
		flag.Lookup("logtostderr").Value.Set("true")
	}
	if verbose > 0 {
		flag.Lookup("v").Value.Set(strconv.Itoa(verbose))
	}
}

// finish converts the outcome of a unit into the process exit code.
func finish(status lox.Status, err error) error {
	if err != nil {
		reason := lox.ErrSystem
		if e, ok := errors.Cause(err).(lox.Err); ok {
			reason = e.Reason()
		}
		lox.LogSafeErr(reason, err.Error())
		return exitError{exitIO}
	}
	if code := status.ExitCode(); code != 0 {
		return exitError{code}
	}
	return nil
}

func runREPL(ctx *lox.Context, conf *lox.EngineConfig) error {
	lox.LogInteractivef("lox v%s, Ctrl-D to exit", Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath(conf.History)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
	}

	// keep REPL-only builtins out of script runs
	ctx.LoadFunc("dump", 0, func(ctx *lox.Context, in []lox.Value) (lox.Value, error) {
		ctx.Dump()
		return lox.Null, nil
	})

	for {
		source, ok := readUnit(ln, conf.Prompt)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(source) == "" {
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))

		// errors were already reported; the session carries on
		ctx.Reporter.Reset()
		if status := ctx.Run(source); status != lox.StatusOK {
			glog.V(5).Infof("repl unit finished with %s", status)
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		} else {
			glog.Warningf("could not save repl history to %s: %v", histPath, err)
		}
	}
	return nil
}

// readUnit reads lines until they form a unit that does not end
// prematurely. It reports false at end of input.
func readUnit(ln *liner.State, prompt string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = continuationPrompt
		}

		line, err := ln.Prompt(p)
		if err == io.EOF {
			return "", false
		}
		if err == liner.ErrPromptAborted {
			// Ctrl-C drops the pending input
			return "", true
		}
		if err != nil {
			lox.LogSafeErr(lox.ErrSystem, errors.Wrap(err, "could not read input").Error())
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if !lox.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func historyPath(configured string) string {
	if configured != "" {
		return configured
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lox_history")
}
