package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Print writes a human-readable, colourised rendering of err to w. Colour
// is automatically suppressed by the color package when w is not a
// terminal, matching the teacher's REPL behaviour.
func Print(w io.Writer, err *Error) {
	fmt.Fprintf(w, "%s %s %s\n", red("error["+err.Code+"]"), dim(string(err.Phase)), err.Message)
	if err.Span != "" {
		fmt.Fprintf(w, "  %s %s\n", bold("-->"), cyan(err.Span))
	}
	for _, p := range err.Path {
		fmt.Fprintf(w, "  %s %s\n", dim("at"), p)
	}
	if err.Cause != nil {
		fmt.Fprintf(w, "  %s %v\n", dim("caused by:"), err.Cause)
	}
}
