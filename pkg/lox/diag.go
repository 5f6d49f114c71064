package lox

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
)

// Reporter facilitates pluggable reporting of problems found in Lox
// programs, both static diagnostics and runtime errors.
type Reporter interface {
	// Report issues a static diagnostic, formatted as
	// "[line N] Error<where>: <message>".
	Report(line int, where string, message string)
	// ReportRuntime issues a runtime error, formatted as
	// "<message>\n[line N]".
	ReportRuntime(line int, message string)

	// Errors fetches the number of static diagnostics issued.
	Errors() int
	// RuntimeErrors fetches the number of runtime errors issued.
	RuntimeErrors() int
	// Reset zeroes both counts, as done between REPL submissions.
	Reset()
}

// FormatOptions controls the output style of the default Reporter.
type FormatOptions struct {
	Colors bool // if true, output will be colorized.
}

// DefaultReporter returns a Reporter that writes everything to stderr.
func DefaultReporter(opts FormatOptions) Reporter {
	return NewReporter(opts, os.Stderr)
}

// NewReporter returns a Reporter writing to w.
func NewReporter(opts FormatOptions, w io.Writer) Reporter {
	return &defaultReporter{opts: opts, w: w}
}

type defaultReporter struct {
	opts          FormatOptions
	w             io.Writer
	errors        int
	runtimeErrors int
}

func (d *defaultReporter) Report(line int, where string, message string) {
	msg := Diagnostic{Line: line, Where: where, Message: message}.Error()
	if glog.V(3) {
		glog.V(3).Infof("defaultReporter::Report(%v)", msg)
	}
	d.write(msg)
	d.errors++
}

func (d *defaultReporter) ReportRuntime(line int, message string) {
	msg := fmt.Sprintf("%s\n[line %d]", message, line)
	if glog.V(3) {
		glog.V(3).Infof("defaultReporter::ReportRuntime(%v)", message)
	}
	d.write(msg)
	d.runtimeErrors++
}

func (d *defaultReporter) write(msg string) {
	if d.opts.Colors {
		msg = ANSI_RED + msg + ANSI_RESET
	}
	fmt.Fprintln(d.w, msg)
}

func (d *defaultReporter) Errors() int {
	return d.errors
}

func (d *defaultReporter) RuntimeErrors() int {
	return d.runtimeErrors
}

func (d *defaultReporter) Reset() {
	d.errors = 0
	d.runtimeErrors = 0
}

// reportAll forwards every Diagnostic carried by err to r. Errors that
// are not Diagnostics are reported without a location.
func reportAll(r Reporter, err error) {
	if err == nil {
		return
	}

	errs := []error{err}
	if merr, ok := err.(*multierror.Error); ok {
		errs = merr.Errors
	}

	for _, e := range errs {
		if d, ok := e.(Diagnostic); ok {
			r.Report(d.Line, d.Where, d.Message)
		} else {
			r.Report(0, "", e.Error())
		}
	}
}

// Diagnostics flattens err, as returned by Tokenize, Parse or Resolve,
// into its individual Diagnostics.
func Diagnostics(err error) []Diagnostic {
	if err == nil {
		return nil
	}

	errs := []error{err}
	if merr, ok := err.(*multierror.Error); ok {
		errs = merr.Errors
	}

	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		if d, ok := e.(Diagnostic); ok {
			diags = append(diags, d)
		}
	}
	return diags
}
