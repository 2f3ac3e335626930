package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/toyz/bindgen/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting
type DiagnosticReporter struct {
	out     io.Writer
	verbose bool
}

// NewDiagnosticReporter creates a reporter writing to out
func NewDiagnosticReporter(out io.Writer, verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{out: out, verbose: verbose}
}

// ReportWarning prints a single warning line
func (r *DiagnosticReporter) ReportWarning(message string) {
	color.New(color.FgYellow, color.Bold).Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError prints err with its code, location, context and suggestions
func (r *DiagnosticReporter) ReportError(err error) {
	var be errors.BindgenError
	if !stderrors.As(err, &be) {
		r.printHeader("Generation Failed")
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
		return
	}

	r.printHeader(errorTitle(be.ErrorCode()))
	fmt.Fprintf(r.out, "Message: %s\n\n", be.Error())

	if loc := be.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n\n", loc.String())
	}
	if ctx := be.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}
	if hints := be.Suggestions(); len(hints) > 0 {
		r.printSuggestions(hints)
	}
	if r.verbose {
		r.printCauseChain(be.Unwrap())
	}
}

func (r *DiagnosticReporter) printHeader(title string) {
	heading := "ERROR: " + title
	color.New(color.FgRed, color.Bold).Fprintf(r.out, "\n%s\n", heading)
	for range heading {
		fmt.Fprint(r.out, "=")
	}
	fmt.Fprint(r.out, "\n\n")
}

func (r *DiagnosticReporter) printContext(ctx map[string]interface{}) {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.out, "Context:\n")
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s: %v\n", k, ctx[k])
	}
	fmt.Fprintln(r.out)
}

func (r *DiagnosticReporter) printSuggestions(hints []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for _, h := range hints {
		fmt.Fprintf(r.out, "  - %s\n", h)
	}
	fmt.Fprintln(r.out)
}

func (r *DiagnosticReporter) printCauseChain(cause error) {
	depth := 0
	for cause != nil {
		fmt.Fprintf(r.out, "Caused by [%d]: %s\n", depth, cause.Error())
		cause = stderrors.Unwrap(cause)
		depth++
	}
	if depth > 0 {
		fmt.Fprintln(r.out)
	}
}

func errorTitle(code errors.ErrorCode) string {
	switch code {
	case errors.ExtractionErrorCode:
		return "Cannot Read Library Metadata"
	case errors.NamespaceResolutionErrorCode:
		return "Unknown Library Namespace"
	case errors.DuplicateItemErrorCode:
		return "Duplicate Metadata"
	case errors.UnsupportedTypeErrorCode:
		return "Unsupported Cross-Library Type"
	case errors.InvariantViolationErrorCode:
		return "Inconsistent Metadata"
	case errors.AmbiguousLegacySourceErrorCode:
		return "Ambiguous Interface Definition"
	case errors.ParseErrorCode:
		return "Interface Definition Syntax Error"
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	case errors.WriteErrorCode:
		return "Binding Generation Failed"
	case errors.FileSystemErrorCode:
		return "File System Error"
	}
	return "Generation Failed"
}
